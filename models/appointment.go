package models

type AppointmentStatus string

const (
	AppointmentBooked    AppointmentStatus = "BOOKED"
	AppointmentQueued    AppointmentStatus = "QUEUED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
)

// Appointment binds a user to a slot. Status is owned by the backend.
type Appointment struct {
	AppointmentID  int64             `json:"appointmentId"`
	SlotID         int64             `json:"slotId"`
	UserName       string            `json:"userName"`
	ProviderID     int64             `json:"providerId"`
	ProviderName   string            `json:"providerName"`
	Specialization string            `json:"specialization"`
	StartTime      Timestamp         `json:"startTime"`
	EndTime        Timestamp         `json:"endTime"`
	Status         AppointmentStatus `json:"status"`
}

// AppointmentRequest is the body of a booking call.
type AppointmentRequest struct {
	UserID     int64 `json:"userId"`
	ProviderID int64 `json:"providerId"`
	SlotID     int64 `json:"slotId"`
}

// RescheduleRequest is the body of a reschedule call.
type RescheduleRequest struct {
	AppointmentID int64 `json:"appointmentId"`
	NewSlotID     int64 `json:"newSlotId"`
}

// CancelRequest is the body of a cancellation call.
type CancelRequest struct {
	AppointmentID int64 `json:"appointmentId"`
}
