package handlers

import (
	"net/http"
	"strings"

	"bookdesk/middleware"
	"bookdesk/models"
	"bookdesk/services/booking"
	"bookdesk/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Sessions hands out the reconciler for a bearer token.
type Sessions interface {
	Get(token string, p models.Principal) *booking.Reconciler
	Drop(token string)
}

// DashboardHandler serves the booking dashboard for users and providers.
type DashboardHandler struct {
	Sessions Sessions
}

func NewDashboardHandler(s Sessions) *DashboardHandler {
	return &DashboardHandler{Sessions: s}
}

func (h *DashboardHandler) reconciler(c *gin.Context) (*booking.Reconciler, bool) {
	p, ok := middleware.GetPrincipal(c)
	token := c.GetString(utils.TokenContextKey)
	if !ok || token == "" {
		utils.JSONError(c, http.StatusUnauthorized, "Unauthorized", "")
		return nil, false
	}
	return h.Sessions.Get(token, p), true
}

// loaded returns the session's reconciler after making sure it holds data.
// A partial first load is served with a warning.
func (h *DashboardHandler) loaded(c *gin.Context) (*booking.Reconciler, string, bool) {
	rec, ok := h.reconciler(c)
	if !ok {
		return nil, "", false
	}
	err := rec.EnsureLoaded(c.Request.Context())
	warning, ok := partialWarning(err)
	if !ok {
		writeReconcilerError(c, err)
		return nil, "", false
	}
	return rec, warning, true
}

func dashboardBody(rec *booking.Reconciler, warning string) gin.H {
	body := gin.H{
		"principal": rec.Principal(),
		"snapshot":  rec.Snapshot(),
		"pending":   rec.Pending(),
	}
	if warning != "" {
		body["warning"] = warning
	}
	return body
}

// respond writes a mutation result. err is nil or a partial refresh.
func respond(c *gin.Context, rec *booking.Reconciler, status int, body gin.H, err error) {
	warning, ok := partialWarning(err)
	if !ok {
		writeReconcilerError(c, err)
		return
	}
	if warning != "" {
		getLogger(c).Warn("Mutation committed but refresh incomplete", zap.Error(err))
		body["warning"] = warning
	}
	body["snapshot"] = rec.Snapshot()
	c.JSON(status, body)
}

// GetDashboardHandler returns the cached lists, loading them on first use.
func (h *DashboardHandler) GetDashboardHandler(c *gin.Context) {
	rec, warning, ok := h.loaded(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dashboardBody(rec, warning))
}

// RefreshHandler re-reads both lists from the backend.
func (h *DashboardHandler) RefreshHandler(c *gin.Context) {
	rec, ok := h.reconciler(c)
	if !ok {
		return
	}
	err := rec.Refresh(c.Request.Context())
	warning, ok := partialWarning(err)
	if !ok {
		writeReconcilerError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboardBody(rec, warning))
}

// ListAppointmentsHandler filters cached appointments by ?status=.
func (h *DashboardHandler) ListAppointmentsHandler(c *gin.Context) {
	var status models.AppointmentStatus
	switch q := strings.ToUpper(c.DefaultQuery("status", "ALL")); q {
	case "ALL":
	case string(models.AppointmentBooked), string(models.AppointmentQueued), string(models.AppointmentCancelled):
		status = models.AppointmentStatus(q)
	default:
		utils.JSONError(c, http.StatusBadRequest, "Invalid status filter", q)
		return
	}

	rec, warning, ok := h.loaded(c)
	if !ok {
		return
	}
	body := gin.H{"appointments": rec.Snapshot().AppointmentsWithStatus(status)}
	if warning != "" {
		body["warning"] = warning
	}
	c.JSON(http.StatusOK, body)
}

// ListSlotsHandler returns the cached slots.
func (h *DashboardHandler) ListSlotsHandler(c *gin.Context) {
	rec, warning, ok := h.loaded(c)
	if !ok {
		return
	}
	body := gin.H{"slots": rec.Snapshot().Slots}
	if warning != "" {
		body["warning"] = warning
	}
	c.JSON(http.StatusOK, body)
}

// BookHandler books a slot for the calling user.
func (h *DashboardHandler) BookHandler(c *gin.Context) {
	var req struct {
		ProviderID int64 `json:"providerId" binding:"required"`
		SlotID     int64 `json:"slotId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	rec, _, ok := h.loaded(c)
	if !ok {
		return
	}

	out, err := rec.RequestBooking(c.Request.Context(), req.ProviderID, req.SlotID)
	if out == nil {
		writeReconcilerError(c, err)
		return
	}
	status := http.StatusOK
	if out.Status == models.StatusBooked {
		status = http.StatusCreated
	}
	respond(c, rec, status, gin.H{"outcome": out}, err)
}

// RescheduleHandler moves an appointment to another slot.
func (h *DashboardHandler) RescheduleHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req struct {
		NewSlotID int64 `json:"newSlotId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	rec, _, ok := h.loaded(c)
	if !ok {
		return
	}

	out, err := rec.RequestReschedule(c.Request.Context(), id, req.NewSlotID)
	if out == nil {
		writeReconcilerError(c, err)
		return
	}
	respond(c, rec, http.StatusOK, gin.H{"outcome": out}, err)
}

// RescheduleCandidatesHandler lists slots an appointment could move to.
func (h *DashboardHandler) RescheduleCandidatesHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	rec, _, ok := h.loaded(c)
	if !ok {
		return
	}
	slots, err := rec.RescheduleCandidates(id)
	if err != nil {
		writeReconcilerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

// CancelHandler cancels an appointment.
func (h *DashboardHandler) CancelHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	rec, _, ok := h.loaded(c)
	if !ok {
		return
	}
	msg, err := rec.RequestCancellation(c.Request.Context(), id)
	respond(c, rec, http.StatusOK, gin.H{"message": msg}, err)
}

// AddSlotHandler creates a slot for the calling provider.
func (h *DashboardHandler) AddSlotHandler(c *gin.Context) {
	var req struct {
		StartTime models.Timestamp `json:"startTime"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	rec, _, ok := h.loaded(c)
	if !ok {
		return
	}
	slot, err := rec.RequestAddSlot(c.Request.Context(), req.StartTime.Time)
	respond(c, rec, http.StatusCreated, gin.H{"slot": slot}, err)
}

// DeleteSlotHandler deletes one of the provider's unbooked slots.
func (h *DashboardHandler) DeleteSlotHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	rec, _, ok := h.loaded(c)
	if !ok {
		return
	}
	msg, err := rec.RequestDeleteSlot(c.Request.Context(), id)
	respond(c, rec, http.StatusOK, gin.H{"message": msg}, err)
}
