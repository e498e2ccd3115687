package handlers

import (
	"net/http"

	"bookdesk/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports the last dependency probe.
func HealthHandler(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	if !status.Healthy() {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
