package handlers

import (
	"context"
	"net/http"

	"bookdesk/models"
	"bookdesk/utils"

	"github.com/gin-gonic/gin"
)

type AdminBackend interface {
	AdminStats(ctx context.Context, token string) (*models.AdminStats, error)
}

// AdminHandler encapsulates elevated admin-level operations.
type AdminHandler struct {
	Backend AdminBackend
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(b AdminBackend) *AdminHandler {
	return &AdminHandler{Backend: b}
}

// GetStatsHandler returns the backend's summary statistics.
func (ah *AdminHandler) GetStatsHandler(c *gin.Context) {
	stats, err := ah.Backend.AdminStats(c.Request.Context(), c.GetString(utils.TokenContextKey))
	if err != nil {
		writeBackendError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
