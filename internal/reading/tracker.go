package reading

import (
	"errors"
	"sync"
	"time"
)

// ErrInFlight is returned by Begin while a request for the same key is loading.
var ErrInFlight = errors.New("a reading is already being generated")

// State is a reading request's lifecycle position.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateFailed  State = "failed"
)

// Status is the last observed state of one request key.
type Status struct {
	State     State     `json:"state"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Tracker enforces Idle -> Loading -> {Success | Failed}, with at most one
// loading request per key. Terminal states may re-enter Loading.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]Status
	now     func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{entries: make(map[string]Status), now: time.Now}
}

// Begin moves key to Loading.
func (t *Tracker) Begin(key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.entries[key].State == StateLoading {
		return ErrInFlight
	}
	t.entries[key] = Status{State: StateLoading, UpdatedAt: t.now()}
	return nil
}

// Finish records the outcome of the request started by Begin. A nil err
// means success. Finishing a key that is not loading is a no-op.
func (t *Tracker) Finish(key string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.entries[key].State != StateLoading {
		return
	}
	st := Status{State: StateSuccess, UpdatedAt: t.now()}
	if err != nil {
		st.State = StateFailed
		st.Error = err.Error()
	}
	t.entries[key] = st
}

// State reports key's status; unknown keys are Idle.
func (t *Tracker) State(key string) Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.entries[key]
	if !ok {
		return Status{State: StateIdle}
	}
	return st
}

// Forget drops key, returning it to Idle.
func (t *Tracker) Forget(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
}
