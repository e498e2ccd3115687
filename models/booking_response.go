// models/booking_response.go
package models

type BookingStatus string

const (
	StatusBooked        BookingStatus = "BOOKED"
	StatusQueued        BookingStatus = "QUEUED"
	StatusAlreadyQueued BookingStatus = "ALREADY_QUEUED"
	StatusFailed        BookingStatus = "FAILED"
)

// Known reports whether s is one of the statuses the backend documents.
func (s BookingStatus) Known() bool {
	switch s {
	case StatusBooked, StatusQueued, StatusAlreadyQueued, StatusFailed:
		return true
	}
	return false
}

// BookingOutcome is returned by the booking and reschedule endpoints.
// It is consumed once to update the dashboard and then discarded.
type BookingOutcome struct {
	Status  BookingStatus `json:"status"`
	Message string        `json:"message"`
	// Appointment is set only when Status is BOOKED.
	Appointment *Appointment `json:"appointment,omitempty"`
	// QueuedSlotID is set only when Status is QUEUED or ALREADY_QUEUED.
	QueuedSlotID *int64 `json:"queuedSlotId,omitempty"`
}

// Normalize drops fields the status does not allow. Some backend builds
// attach the queued appointment to QUEUED outcomes; it is not surfaced.
func (o *BookingOutcome) Normalize() {
	if o.Status != StatusBooked {
		o.Appointment = nil
	}
	if o.Status != StatusQueued && o.Status != StatusAlreadyQueued {
		o.QueuedSlotID = nil
	}
}
