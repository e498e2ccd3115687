package booking

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MutationState is the lifecycle of one submitted mutation:
// Idle -> Submitting -> Succeeded | Rejected -> Idle.
type MutationState int

const (
	Idle MutationState = iota
	Submitting
	Succeeded
	Rejected
)

func (s MutationState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Rejected:
		return "rejected"
	}
	return fmt.Sprintf("MutationState(%d)", int(s))
}

func (s MutationState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func SlotKey(id int64) string        { return fmt.Sprintf("slot:%d", id) }
func AppointmentKey(id int64) string { return fmt.Sprintf("appointment:%d", id) }

// NewSlotKey tracks add-slot requests, which have no id until they commit.
const NewSlotKey = "slot:new"

// MutationStatus describes an in-flight mutation.
type MutationStatus struct {
	Key   string        `json:"key"`
	Op    string        `json:"op"`
	State MutationState `json:"state"`
	Since time.Time     `json:"since"`
}

type inflight struct {
	op    string
	since time.Time
	count int
}

// tracker records which entities have a mutation in flight so the UI can
// show a loading state. Same-key mutations are counted, not coalesced.
type tracker struct {
	mu      sync.Mutex
	pending map[string]*inflight
	logger  *zap.Logger
	now     func() time.Time
}

func newTracker(logger *zap.Logger, now func() time.Time) *tracker {
	return &tracker{pending: make(map[string]*inflight), logger: logger, now: now}
}

// begin moves key to Submitting and returns the function that settles it.
func (t *tracker) begin(key, op string) func(MutationState) {
	t.mu.Lock()
	f, ok := t.pending[key]
	if !ok {
		f = &inflight{op: op, since: t.now()}
		t.pending[key] = f
	}
	f.count++
	t.mu.Unlock()

	t.logger.Debug("mutation submitting", zap.String("key", key), zap.String("op", op))

	var once sync.Once
	return func(final MutationState) {
		once.Do(func() {
			t.mu.Lock()
			if f, ok := t.pending[key]; ok {
				f.count--
				if f.count <= 0 {
					delete(t.pending, key)
				}
			}
			t.mu.Unlock()
			t.logger.Info("mutation settled",
				zap.String("key", key),
				zap.String("op", op),
				zap.Stringer("state", final),
			)
		})
	}
}

func (t *tracker) state(key string) MutationState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.pending[key]; ok {
		return Submitting
	}
	return Idle
}

func (t *tracker) list() []MutationStatus {
	t.mu.Lock()
	out := make([]MutationStatus, 0, len(t.pending))
	for key, f := range t.pending {
		out = append(out, MutationStatus{Key: key, Op: f.op, State: Submitting, Since: f.since})
	}
	t.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
