package booking

import (
	"time"

	"bookdesk/models"
)

// Snapshot is one consistent view of a dashboard's cached lists. A snapshot
// is never modified after it is installed; refreshes replace it wholesale.
type Snapshot struct {
	Version      uint64               `json:"version"`
	Slots        []models.Slot        `json:"slots"`
	Appointments []models.Appointment `json:"appointments"`
	RefreshedAt  time.Time            `json:"refreshedAt"`

	// Set when the latest refresh of that half failed; the data is older.
	StaleSlots        bool `json:"staleSlots"`
	StaleAppointments bool `json:"staleAppointments"`
}

// Loaded reports whether any refresh has installed data yet.
func (s *Snapshot) Loaded() bool {
	return s.Version > 0
}

func (s *Snapshot) Stale() bool {
	return s.StaleSlots || s.StaleAppointments
}

func (s *Snapshot) Slot(id int64) (models.Slot, bool) {
	for _, slot := range s.Slots {
		if slot.SlotID == id {
			return slot, true
		}
	}
	return models.Slot{}, false
}

func (s *Snapshot) Appointment(id int64) (models.Appointment, bool) {
	for _, a := range s.Appointments {
		if a.AppointmentID == id {
			return a, true
		}
	}
	return models.Appointment{}, false
}

// AppointmentsWithStatus filters by status; an empty status returns all.
func (s *Snapshot) AppointmentsWithStatus(status models.AppointmentStatus) []models.Appointment {
	out := make([]models.Appointment, 0, len(s.Appointments))
	for _, a := range s.Appointments {
		if status == "" || a.Status == status {
			out = append(out, a)
		}
	}
	return out
}
