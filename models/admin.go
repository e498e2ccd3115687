package models

// AdminStats is the backend's summary-stats payload, passed through untouched.
type AdminStats struct {
	TotalAppointmentsPerProvider map[string]int64   `json:"totalAppointmentsPerProvider"`
	CancellationRates            map[string]float64 `json:"cancellationRates"`
	PeakBookingHours             map[string]int64   `json:"peakBookingHours"`
}
