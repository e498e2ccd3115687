package booking

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookdesk/models"
	"bookdesk/services/backend"
)

const fakeUserID = 1

// fakeBackend is an in-memory scheduling service speaking the real wire
// contract. It follows the backend's booking rules closely enough to drive
// the reconciler end to end.
type fakeBackend struct {
	mu           sync.Mutex
	slots        map[int64]*models.Slot
	appointments map[int64]*models.Appointment
	queues       map[int64][]int64
	nextAppt     int64
	nextSlot     int64

	// failure injection
	forceOutcome     *models.BookingOutcome
	forceStatus      int
	failSlots        bool
	failAppointments bool
	bookBeforeDelete bool
	deleteFailsAs500 bool

	calls map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		slots:        make(map[int64]*models.Slot),
		appointments: make(map[int64]*models.Appointment),
		queues:       make(map[int64][]int64),
		nextAppt:     1,
		nextSlot:     100,
		calls:        make(map[string]int),
	}
}

var baseTime = time.Date(2030, 3, 4, 9, 0, 0, 0, time.UTC)

func (f *fakeBackend) addSlot(id, providerID int64, hour int, booked bool) {
	start := baseTime.Add(time.Duration(hour) * time.Hour)
	f.slots[id] = &models.Slot{
		SlotID:         id,
		ProviderID:     providerID,
		ProviderName:   "Provider",
		Specialization: "General",
		StartTime:      models.NewTimestamp(start),
		EndTime:        models.NewTimestamp(start.Add(time.Hour)),
		Booked:         booked,
	}
}

func (f *fakeBackend) addAppointment(id, slotID int64, status models.AppointmentStatus) {
	s := f.slots[slotID]
	f.appointments[id] = &models.Appointment{
		AppointmentID:  id,
		SlotID:         slotID,
		UserName:       "Asha",
		ProviderID:     s.ProviderID,
		ProviderName:   s.ProviderName,
		Specialization: s.Specialization,
		StartTime:      s.StartTime,
		EndTime:        s.EndTime,
		Status:         status,
	}
	if status == models.AppointmentBooked {
		s.Booked = true
	}
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) set(fn func(f *fakeBackend)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeBackend) appointmentFor(slot *models.Slot, id int64, status models.AppointmentStatus) *models.Appointment {
	return &models.Appointment{
		AppointmentID:  id,
		SlotID:         slot.SlotID,
		UserName:       "Asha",
		ProviderID:     slot.ProviderID,
		ProviderName:   slot.ProviderName,
		Specialization: slot.Specialization,
		StartTime:      slot.StartTime,
		EndTime:        slot.EndTime,
		Status:         status,
	}
}

func (f *fakeBackend) routes() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls[c.FullPath()]++
		c.Next()
	})

	listSlots := func(c *gin.Context) {
		if f.failSlots {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "slots unavailable"})
			return
		}
		out := make([]models.Slot, 0, len(f.slots))
		for _, s := range f.slots {
			out = append(out, *s)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].SlotID < out[j].SlotID })
		c.JSON(http.StatusOK, out)
	}
	listAppointments := func(c *gin.Context) {
		if f.failAppointments {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "appointments unavailable"})
			return
		}
		out := make([]models.Appointment, 0, len(f.appointments))
		for _, a := range f.appointments {
			out = append(out, *a)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].AppointmentID < out[j].AppointmentID })
		c.JSON(http.StatusOK, out)
	}
	r.GET("/users/view/slots", listSlots)
	r.GET("/providers/slots/enrolled", listSlots)
	r.GET("/users/appointments", listAppointments)
	r.GET("/providers/appointments", listAppointments)

	r.POST("/users/appointment/book", func(c *gin.Context) {
		var in models.AppointmentRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		if f.forceStatus != 0 {
			c.JSON(f.forceStatus, gin.H{"status": "FAILED", "message": "forced"})
			return
		}
		if f.forceOutcome != nil {
			c.JSON(http.StatusOK, f.forceOutcome)
			return
		}
		slot, ok := f.slots[in.SlotID]
		if !ok || slot.ProviderID != in.ProviderID {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Slot does not belong to the specified provider."})
			return
		}
		if slot.Booked {
			queued := in.SlotID
			for _, u := range f.queues[slot.SlotID] {
				if u == fakeUserID {
					c.JSON(http.StatusOK, models.BookingOutcome{
						Status:       models.StatusAlreadyQueued,
						Message:      "You are already in the queue for this slot.",
						QueuedSlotID: &queued,
					})
					return
				}
			}
			f.queues[slot.SlotID] = append(f.queues[slot.SlotID], fakeUserID)
			c.JSON(http.StatusOK, models.BookingOutcome{
				Status:       models.StatusQueued,
				Message:      "Slot is currently booked. You have been added to the waiting list.",
				QueuedSlotID: &queued,
			})
			return
		}
		id := f.nextAppt
		f.nextAppt++
		slot.Booked = true
		appt := f.appointmentFor(slot, id, models.AppointmentBooked)
		f.appointments[id] = appt
		c.JSON(http.StatusCreated, models.BookingOutcome{
			Status:      models.StatusBooked,
			Message:     "Appointment successfully booked!",
			Appointment: appt,
		})
	})

	r.POST("/users/appointment/reschedule", func(c *gin.Context) {
		var in models.RescheduleRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		if f.forceStatus != 0 {
			c.JSON(f.forceStatus, gin.H{"status": "FAILED", "message": "forced"})
			return
		}
		if f.forceOutcome != nil {
			c.JSON(http.StatusOK, f.forceOutcome)
			return
		}
		appt, ok := f.appointments[in.AppointmentID]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"message": "Appointment Not Found"})
			return
		}
		newSlot, ok := f.slots[in.NewSlotID]
		if !ok || newSlot.ProviderID != appt.ProviderID {
			c.JSON(http.StatusBadRequest, gin.H{"message": "New slot must be with the same provider."})
			return
		}
		if newSlot.Booked {
			queued := newSlot.SlotID
			f.queues[newSlot.SlotID] = append(f.queues[newSlot.SlotID], fakeUserID)
			c.JSON(http.StatusOK, models.BookingOutcome{
				Status:       models.StatusQueued,
				Message:      "The new slot is currently booked. You have been added to the waiting list for it.",
				QueuedSlotID: &queued,
			})
			return
		}
		if old, ok := f.slots[appt.SlotID]; ok {
			old.Booked = false
		}
		newSlot.Booked = true
		moved := f.appointmentFor(newSlot, appt.AppointmentID, models.AppointmentBooked)
		f.appointments[appt.AppointmentID] = moved
		c.JSON(http.StatusOK, models.BookingOutcome{
			Status:      models.StatusBooked,
			Message:     "Appointment successfully rescheduled!",
			Appointment: moved,
		})
	})

	r.DELETE("/users/appointment/cancel", func(c *gin.Context) {
		var in models.CancelRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		appt, ok := f.appointments[in.AppointmentID]
		if !ok || appt.Status == models.AppointmentCancelled {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Appointment cannot be cancelled."})
			return
		}
		appt.Status = models.AppointmentCancelled
		if s, ok := f.slots[appt.SlotID]; ok {
			s.Booked = false
		}
		c.JSON(http.StatusOK, models.Message{Message: "Appointment successfully cancelled"})
	})

	r.POST("/providers/slots/add", func(c *gin.Context) {
		var in models.SlotRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		id := f.nextSlot
		f.nextSlot++
		slot := &models.Slot{
			SlotID:         id,
			ProviderID:     2,
			ProviderName:   "Provider",
			Specialization: "General",
			StartTime:      in.StartTime,
			EndTime:        models.NewTimestamp(in.StartTime.Add(time.Hour)),
		}
		f.slots[id] = slot
		c.JSON(http.StatusOK, slot)
	})

	r.DELETE("/providers/slots/delete", func(c *gin.Context) {
		var in models.SlotDeleteRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		slot, ok := f.slots[in.SlotID]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"message": "Slot doesn't exist"})
			return
		}
		if f.bookBeforeDelete {
			slot.Booked = true
		}
		if slot.Booked && f.deleteFailsAs500 {
			// The appointment's foreign key trips before the booked check.
			c.JSON(http.StatusInternalServerError, gin.H{"message": "could not execute statement"})
			return
		}
		if slot.Booked {
			c.JSON(http.StatusConflict, gin.H{"message": "Slot was booked and cannot be deleted."})
			return
		}
		delete(f.slots, in.SlotID)
		c.JSON(http.StatusOK, models.Message{Message: "Slot deleted successfully!"})
	})
	return r
}

// serve starts f and returns a reconciler for role bound to it.
func (f *fakeBackend) serve(t *testing.T, role models.Role) *Reconciler {
	t.Helper()
	srv := httptest.NewServer(f.routes())
	t.Cleanup(srv.Close)
	client := backend.NewClient(srv.URL, 2*time.Second, zap.NewNop())
	r := NewReconciler(client.Session("token", role), models.Principal{UserID: fakeUserID, Email: "asha@example.com", Role: role}, zap.NewNop())
	r.now = func() time.Time { return baseTime.Add(-24 * time.Hour) }
	return r
}
