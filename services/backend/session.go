package backend

import (
	"context"
	"fmt"
	"net/http"

	"bookdesk/models"
)

// Session is a Client bound to one bearer token and role. Listing calls are
// routed to the user or provider variant of each endpoint.
type Session struct {
	client *Client
	token  string
	role   models.Role
}

func (c *Client) Session(token string, role models.Role) *Session {
	return &Session{client: c, token: token, role: role}
}

func (s *Session) Role() models.Role { return s.role }

// ListSlots returns every slot for users and the enrolled slots for providers.
func (s *Session) ListSlots(ctx context.Context) ([]models.Slot, error) {
	var path string
	switch s.role {
	case models.RoleUser:
		path = "/users/view/slots"
	case models.RoleProvider:
		path = "/providers/slots/enrolled"
	default:
		return nil, fmt.Errorf("list slots: unsupported role %q", s.role)
	}
	var out []models.Slot
	if err := s.client.do(ctx, http.MethodGet, path, s.token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAppointments returns the caller's appointments, or the provider's bookings.
func (s *Session) ListAppointments(ctx context.Context) ([]models.Appointment, error) {
	var path string
	switch s.role {
	case models.RoleUser:
		path = "/users/appointments"
	case models.RoleProvider:
		path = "/providers/appointments"
	default:
		return nil, fmt.Errorf("list appointments: unsupported role %q", s.role)
	}
	var out []models.Appointment
	if err := s.client.do(ctx, http.MethodGet, path, s.token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) Book(ctx context.Context, in models.AppointmentRequest) (*models.BookingOutcome, error) {
	var out models.BookingOutcome
	if err := s.client.do(ctx, http.MethodPost, "/users/appointment/book", s.token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) Reschedule(ctx context.Context, in models.RescheduleRequest) (*models.BookingOutcome, error) {
	var out models.BookingOutcome
	if err := s.client.do(ctx, http.MethodPost, "/users/appointment/reschedule", s.token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) Cancel(ctx context.Context, in models.CancelRequest) (*models.Message, error) {
	var out models.Message
	if err := s.client.do(ctx, http.MethodDelete, "/users/appointment/cancel", s.token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) AddSlot(ctx context.Context, in models.SlotRequest) (*models.Slot, error) {
	var out models.Slot
	if err := s.client.do(ctx, http.MethodPost, "/providers/slots/add", s.token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) DeleteSlot(ctx context.Context, in models.SlotDeleteRequest) (*models.Message, error) {
	var out models.Message
	if err := s.client.do(ctx, http.MethodDelete, "/providers/slots/delete", s.token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
