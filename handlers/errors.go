package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"bookdesk/services/backend"
	"bookdesk/services/booking"
	"bookdesk/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// writeReconcilerError maps a failed dashboard operation to a response.
// Partial refreshes are not failures and never reach here.
func writeReconcilerError(c *gin.Context, err error) {
	var (
		rejection *booking.RejectionError
		transport *booking.TransportError
	)
	switch {
	case errors.As(err, &rejection):
		utils.JSONError(c, http.StatusUnprocessableEntity, rejection.Message, "")
	case errors.As(err, &transport):
		getLogger(c).Error("Backend call failed", zap.Error(err), zap.Int("backendStatus", transport.StatusCode()))
		utils.JSONError(c, http.StatusBadGateway, transport.UserMessage(), "")
	case errors.Is(err, booking.ErrSlotNotCached), errors.Is(err, booking.ErrAppointmentNotCached):
		utils.JSONError(c, http.StatusNotFound, "Not found on your dashboard. Refresh and try again.", err.Error())
	case errors.Is(err, booking.ErrInvalidStartTime):
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
	default:
		getLogger(c).Error("Unexpected dashboard error", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// partialWarning returns the warning text if err is a partial refresh, and
// whether err was one (or nil).
func partialWarning(err error) (string, bool) {
	if err == nil {
		return "", true
	}
	var partial *booking.PartialRefreshError
	if errors.As(err, &partial) {
		return partial.UserMessage(), true
	}
	return "", false
}

// writeBackendError relays an auth or admin proxy failure. Backend 4xx
// answers keep their status and message; everything else is a 502.
func writeBackendError(c *gin.Context, err error) {
	var se *backend.StatusError
	if errors.As(err, &se) && se.Code >= 400 && se.Code < 500 {
		msg := se.Message
		if msg == "" {
			msg = http.StatusText(se.Code)
		}
		utils.JSONError(c, se.Code, msg, "")
		return
	}
	getLogger(c).Error("Backend call failed", zap.Error(err))
	utils.JSONError(c, http.StatusBadGateway, booking.RetryMessage, "")
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		utils.JSONError(c, http.StatusBadRequest, "Invalid id", c.Param("id"))
		return 0, false
	}
	return id, true
}
