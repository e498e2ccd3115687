package models

// Slot is a provider-defined bookable interval as listed by the backend.
type Slot struct {
	SlotID         int64     `json:"slotId"`
	StartTime      Timestamp `json:"startTime"`
	EndTime        Timestamp `json:"endTime"`
	Booked         bool      `json:"booked"`
	ProviderID     int64     `json:"providerId"`
	ProviderName   string    `json:"providerName"`
	Specialization string    `json:"specialization"`
}

// Valid reports whether the slot starts strictly before it ends.
func (s Slot) Valid() bool {
	return s.StartTime.Before(s.EndTime.Time)
}

// SlotRequest is the body of an add-slot call; the backend computes the end.
type SlotRequest struct {
	StartTime Timestamp `json:"startTime"`
}

// SlotDeleteRequest is the body of a delete-slot call.
type SlotDeleteRequest struct {
	SlotID int64 `json:"slotId"`
}
