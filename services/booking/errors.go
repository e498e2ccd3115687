package booking

import (
	"errors"
	"fmt"
	"strings"

	"bookdesk/services/backend"
)

var (
	ErrSlotNotCached        = errors.New("slot is not in the dashboard cache")
	ErrAppointmentNotCached = errors.New("appointment is not in the dashboard cache")
	ErrInvalidStartTime     = errors.New("slot start time is required")
)

const (
	DefaultRejectionMessage = "The request could not be completed."
	RetryMessage            = "The scheduling service could not be reached. Please try again."
	SlotBookedMessage       = "This slot was booked before it could be deleted."
)

// TransportError means the request never produced a usable answer: the
// network failed or the backend replied with a non-2xx status.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UserMessage is the generic, retry-able text shown to the user.
func (e *TransportError) UserMessage() string { return RetryMessage }

// StatusCode is the backend's HTTP status, or 0 when no response arrived.
func (e *TransportError) StatusCode() int {
	var se *backend.StatusError
	if errors.As(e.Err, &se) {
		return se.Code
	}
	return 0
}

// RejectionError is a domain refusal: a FAILED outcome, a slot that became
// booked before it could be deleted, or a request the cache already rules out.
type RejectionError struct {
	Op      string
	Message string
}

func newRejection(op, message string) *RejectionError {
	if strings.TrimSpace(message) == "" {
		message = DefaultRejectionMessage
	}
	return &RejectionError{Op: op, Message: message}
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Op, e.Message)
}

// PartialRefreshError reports that at least one half of a refresh failed.
// When it follows a mutation, the mutation itself has committed.
type PartialRefreshError struct {
	Op           string
	Slots        error
	Appointments error
}

func (e *PartialRefreshError) Error() string {
	var parts []string
	if e.Slots != nil {
		parts = append(parts, "slots: "+e.Slots.Error())
	}
	if e.Appointments != nil {
		parts = append(parts, "appointments: "+e.Appointments.Error())
	}
	return fmt.Sprintf("%s: refresh incomplete (%s)", e.Op, strings.Join(parts, "; "))
}

func (e *PartialRefreshError) Unwrap() []error {
	var errs []error
	if e.Slots != nil {
		errs = append(errs, e.Slots)
	}
	if e.Appointments != nil {
		errs = append(errs, e.Appointments)
	}
	return errs
}

func (e *PartialRefreshError) UserMessage() string {
	if e.Op == opRefresh {
		return "Part of the dashboard could not be loaded and may be out of date. Please refresh."
	}
	return "The action succeeded, but the list shown may be out of date. Please refresh."
}
