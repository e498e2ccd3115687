// Package booking keeps a dashboard's cached slots and appointments
// consistent with the scheduling backend across mutations.
package booking

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bookdesk/models"
	"bookdesk/services/backend"
)

const (
	opBook       = "book"
	opReschedule = "reschedule"
	opCancel     = "cancel"
	opAddSlot    = "add slot"
	opDeleteSlot = "delete slot"
	opRefresh    = "refresh"
)

// postCommitTimeout bounds the follow-up reads made after a mutation.
const postCommitTimeout = 15 * time.Second

// Remote is the scheduling backend as seen by one dashboard session.
type Remote interface {
	ListSlots(ctx context.Context) ([]models.Slot, error)
	ListAppointments(ctx context.Context) ([]models.Appointment, error)
	Book(ctx context.Context, in models.AppointmentRequest) (*models.BookingOutcome, error)
	Reschedule(ctx context.Context, in models.RescheduleRequest) (*models.BookingOutcome, error)
	Cancel(ctx context.Context, in models.CancelRequest) (*models.Message, error)
	AddSlot(ctx context.Context, in models.SlotRequest) (*models.Slot, error)
	DeleteSlot(ctx context.Context, in models.SlotDeleteRequest) (*models.Message, error)
}

// Reconciler applies booking-domain mutations and re-synchronizes the cached
// lists by reading them back in full once the backend has committed.
// It never patches the cache from a mutation's response.
//
// Operations that commit but fail to refresh return their result together
// with a *PartialRefreshError.
type Reconciler struct {
	remote    Remote
	principal models.Principal
	logger    *zap.Logger
	now       func() time.Time

	current   atomic.Pointer[Snapshot]
	tickets   atomic.Uint64
	mutations *tracker

	installMu    sync.Mutex
	slotsTicket  uint64
	apptsTicket  uint64
	lastActivity atomic.Int64
}

func NewReconciler(remote Remote, principal models.Principal, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("reconciler").With(
		zap.String("email", principal.Email),
		zap.String("role", string(principal.Role)),
	)
	r := &Reconciler{
		remote:    remote,
		principal: principal,
		logger:    logger,
		now:       time.Now,
	}
	r.mutations = newTracker(logger, r.clock)
	r.current.Store(&Snapshot{})
	r.touch()
	return r
}

func (r *Reconciler) clock() time.Time { return r.now() }

func (r *Reconciler) touch() { r.lastActivity.Store(r.now().UnixNano()) }

// LastActivity is when the reconciler last served a call.
func (r *Reconciler) LastActivity() time.Time {
	return time.Unix(0, r.lastActivity.Load())
}

func (r *Reconciler) Principal() models.Principal { return r.principal }

// Snapshot returns the current cache. Callers must not modify it.
func (r *Reconciler) Snapshot() *Snapshot {
	r.touch()
	return r.current.Load()
}

// State reports whether a mutation for key is in flight.
func (r *Reconciler) State(key string) MutationState {
	return r.mutations.state(key)
}

// Pending lists in-flight mutations, ordered by key.
func (r *Reconciler) Pending() []MutationStatus {
	return r.mutations.list()
}

// Refresh re-reads both lists. If both halves fail nothing is installed and
// a *TransportError is returned; if one fails, a *PartialRefreshError.
func (r *Reconciler) Refresh(ctx context.Context) error {
	r.touch()
	err := r.refresh(ctx, opRefresh)
	var partial *PartialRefreshError
	if errors.As(err, &partial) && partial.Slots != nil && partial.Appointments != nil {
		return &TransportError{Op: opRefresh, Err: errors.Join(partial.Slots, partial.Appointments)}
	}
	return err
}

// EnsureLoaded refreshes once if nothing has been loaded yet.
func (r *Reconciler) EnsureLoaded(ctx context.Context) error {
	if r.current.Load().Loaded() {
		return nil
	}
	return r.Refresh(ctx)
}

// RescheduleCandidates lists cached slots an appointment could move to:
// same provider, unbooked, not its current slot, starting in the future.
// The backend has the final say.
func (r *Reconciler) RescheduleCandidates(appointmentID int64) ([]models.Slot, error) {
	snap := r.Snapshot()
	appt, ok := snap.Appointment(appointmentID)
	if !ok {
		return nil, fmt.Errorf("appointment %d: %w", appointmentID, ErrAppointmentNotCached)
	}
	now := r.now()
	out := make([]models.Slot, 0)
	for _, s := range snap.Slots {
		if s.ProviderID != appt.ProviderID || s.Booked || s.SlotID == appt.SlotID {
			continue
		}
		if !s.StartTime.After(now) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// RequestBooking books slotID with providerID for the session's user.
//
// BOOKED and QUEUED outcomes trigger a full refresh before returning.
// ALREADY_QUEUED returns without touching the cache. FAILED, or a status the
// backend does not document, is returned as a *RejectionError.
func (r *Reconciler) RequestBooking(ctx context.Context, providerID, slotID int64) (*models.BookingOutcome, error) {
	r.touch()
	slot, ok := r.current.Load().Slot(slotID)
	if !ok || slot.ProviderID != providerID {
		return nil, fmt.Errorf("%s: slot %d of provider %d: %w", opBook, slotID, providerID, ErrSlotNotCached)
	}

	done := r.mutations.begin(SlotKey(slotID), opBook)
	out, err := r.remote.Book(ctx, models.AppointmentRequest{
		UserID:     r.principal.UserID,
		ProviderID: providerID,
		SlotID:     slotID,
	})
	if err != nil {
		done(Rejected)
		return nil, &TransportError{Op: opBook, Err: err}
	}
	return r.settle(ctx, opBook, out, done)
}

// RequestReschedule moves an appointment to newSlotID. It follows the same
// outcome and refresh rules as RequestBooking; on any failure the cached
// appointment is left exactly as it was.
func (r *Reconciler) RequestReschedule(ctx context.Context, appointmentID, newSlotID int64) (*models.BookingOutcome, error) {
	r.touch()
	snap := r.current.Load()
	appt, ok := snap.Appointment(appointmentID)
	if !ok {
		return nil, fmt.Errorf("%s: appointment %d: %w", opReschedule, appointmentID, ErrAppointmentNotCached)
	}
	if appt.Status == models.AppointmentCancelled {
		return nil, newRejection(opReschedule, "Cancelled appointments cannot be rescheduled.")
	}
	if _, ok := snap.Slot(newSlotID); !ok {
		return nil, fmt.Errorf("%s: slot %d: %w", opReschedule, newSlotID, ErrSlotNotCached)
	}

	done := r.mutations.begin(AppointmentKey(appointmentID), opReschedule)
	out, err := r.remote.Reschedule(ctx, models.RescheduleRequest{
		AppointmentID: appointmentID,
		NewSlotID:     newSlotID,
	})
	if err != nil {
		done(Rejected)
		return nil, &TransportError{Op: opReschedule, Err: err}
	}
	return r.settle(ctx, opReschedule, out, done)
}

func (r *Reconciler) settle(ctx context.Context, op string, out *models.BookingOutcome, done func(MutationState)) (*models.BookingOutcome, error) {
	if out == nil {
		done(Rejected)
		return nil, newRejection(op, "")
	}
	out.Normalize()

	switch out.Status {
	case models.StatusBooked, models.StatusQueued:
		err := r.refreshAfterCommit(ctx, op)
		done(Succeeded)
		return out, err
	case models.StatusAlreadyQueued:
		done(Succeeded)
		return out, nil
	case models.StatusFailed:
		done(Rejected)
		return nil, newRejection(op, out.Message)
	default:
		r.logger.Warn("unrecognised booking status", zap.String("op", op), zap.String("status", string(out.Status)))
		done(Rejected)
		return nil, newRejection(op, out.Message)
	}
}

// RequestCancellation cancels an appointment and refreshes both lists, since
// the backend may free the slot or promote a queued request.
// Cancelling an appointment already cached as CANCELLED is rejected locally.
func (r *Reconciler) RequestCancellation(ctx context.Context, appointmentID int64) (string, error) {
	r.touch()
	appt, ok := r.current.Load().Appointment(appointmentID)
	if !ok {
		return "", fmt.Errorf("%s: appointment %d: %w", opCancel, appointmentID, ErrAppointmentNotCached)
	}
	if appt.Status == models.AppointmentCancelled {
		return "", newRejection(opCancel, "This appointment is already cancelled.")
	}

	done := r.mutations.begin(AppointmentKey(appointmentID), opCancel)
	msg, err := r.remote.Cancel(ctx, models.CancelRequest{AppointmentID: appointmentID})
	if err != nil {
		done(Rejected)
		return "", &TransportError{Op: opCancel, Err: err}
	}
	err = r.refreshAfterCommit(ctx, opCancel)
	done(Succeeded)
	return messageText(msg), err
}

// RequestAddSlot creates a slot starting at start; the backend sets its end.
func (r *Reconciler) RequestAddSlot(ctx context.Context, start time.Time) (*models.Slot, error) {
	r.touch()
	if start.IsZero() {
		return nil, fmt.Errorf("%s: %w", opAddSlot, ErrInvalidStartTime)
	}

	done := r.mutations.begin(NewSlotKey, opAddSlot)
	slot, err := r.remote.AddSlot(ctx, models.SlotRequest{StartTime: models.NewTimestamp(start)})
	if err != nil {
		done(Rejected)
		return nil, &TransportError{Op: opAddSlot, Err: err}
	}
	err = r.refreshAfterCommit(ctx, opAddSlot)
	done(Succeeded)
	return slot, err
}

// RequestDeleteSlot deletes an unbooked slot. If the slot was booked in the
// meantime the result is a *RejectionError and the cache is left alone. The
// backend reports that race as 409, or as a 5xx when its foreign key on the
// appointment trips first; a 5xx is only a rejection when a fresh slot list
// shows the slot booked.
func (r *Reconciler) RequestDeleteSlot(ctx context.Context, slotID int64) (string, error) {
	r.touch()
	slot, ok := r.current.Load().Slot(slotID)
	if !ok {
		return "", fmt.Errorf("%s: slot %d: %w", opDeleteSlot, slotID, ErrSlotNotCached)
	}
	if slot.Booked {
		return "", newRejection(opDeleteSlot, "Booked slots cannot be deleted.")
	}

	done := r.mutations.begin(SlotKey(slotID), opDeleteSlot)
	msg, err := r.remote.DeleteSlot(ctx, models.SlotDeleteRequest{SlotID: slotID})
	if err != nil {
		done(Rejected)
		var se *backend.StatusError
		if errors.As(err, &se) && se.Code == http.StatusConflict {
			r.logger.Info("slot booked before delete", zap.Int64("slotId", slotID))
			return "", newRejection(opDeleteSlot, se.Message)
		}
		if se != nil && se.Code >= http.StatusInternalServerError && r.bookedRemotely(ctx, slotID) {
			r.logger.Info("slot booked before delete, backend answered with a server error",
				zap.Int64("slotId", slotID), zap.Int("status", se.Code))
			return "", newRejection(opDeleteSlot, SlotBookedMessage)
		}
		return "", &TransportError{Op: opDeleteSlot, Err: err}
	}
	err = r.refreshAfterCommit(ctx, opDeleteSlot)
	done(Succeeded)
	return messageText(msg), err
}

// bookedRemotely re-reads the slot list without installing it and reports
// whether slotID is now booked.
func (r *Reconciler) bookedRemotely(ctx context.Context, slotID int64) bool {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), postCommitTimeout)
	defer cancel()
	slots, err := r.remote.ListSlots(ctx)
	if err != nil {
		return false
	}
	for _, s := range slots {
		if s.SlotID == slotID {
			return s.Booked
		}
	}
	return false
}

func messageText(m *models.Message) string {
	if m == nil {
		return ""
	}
	return m.Message
}

// refreshAfterCommit runs the read-after-write refresh once the backend has
// committed. It outlives the caller's context so a client hanging up after
// the commit still leaves a fresh cache behind.
func (r *Reconciler) refreshAfterCommit(ctx context.Context, op string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), postCommitTimeout)
	defer cancel()
	return r.refresh(ctx, op)
}

// refresh fetches both lists concurrently and installs what arrived.
func (r *Reconciler) refresh(ctx context.Context, op string) error {
	ticket := r.tickets.Add(1)

	var (
		slots    []models.Slot
		appts    []models.Appointment
		slotsErr error
		apptsErr error
		g        errgroup.Group
	)
	g.Go(func() error {
		slots, slotsErr = r.remote.ListSlots(ctx)
		return nil
	})
	g.Go(func() error {
		appts, apptsErr = r.remote.ListAppointments(ctx)
		return nil
	})
	_ = g.Wait()

	r.install(ticket, slots, slotsErr, appts, apptsErr)

	if slotsErr != nil || apptsErr != nil {
		r.logger.Warn("refresh incomplete",
			zap.String("op", op),
			zap.NamedError("slots", slotsErr),
			zap.NamedError("appointments", apptsErr),
		)
		return &PartialRefreshError{Op: op, Slots: slotsErr, Appointments: apptsErr}
	}
	return nil
}

// install swaps in a new snapshot. Each half only lands if no refresh that
// started later has already completed that half, successfully or not: an
// older result never clears the stale flag a newer failure set.
func (r *Reconciler) install(ticket uint64, slots []models.Slot, slotsErr error, appts []models.Appointment, apptsErr error) {
	r.installMu.Lock()
	defer r.installMu.Unlock()

	prev := r.current.Load()
	next := *prev
	changed, landed := false, false

	if ticket > r.slotsTicket {
		if slotsErr == nil {
			next.Slots = slots
			next.StaleSlots = false
			landed = true
		} else {
			next.StaleSlots = true
		}
		r.slotsTicket = ticket
		changed = true
	}
	if ticket > r.apptsTicket {
		if apptsErr == nil {
			next.Appointments = appts
			next.StaleAppointments = false
			landed = true
		} else {
			next.StaleAppointments = true
		}
		r.apptsTicket = ticket
		changed = true
	}
	if !changed {
		r.logger.Debug("discarding superseded refresh", zap.Uint64("ticket", ticket))
		return
	}
	if landed {
		next.Version = prev.Version + 1
		next.RefreshedAt = r.now()
	}
	// Otherwise nothing new arrived; only the stale flags moved.
	r.current.Store(&next)
}
