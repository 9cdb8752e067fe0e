package reading

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerLifecycle(t *testing.T) {
	tr := NewTracker()
	assert.Equal(t, StateIdle, tr.State("u1:daily").State)

	require.NoError(t, tr.Begin("u1:daily"))
	assert.Equal(t, StateLoading, tr.State("u1:daily").State)
	assert.ErrorIs(t, tr.Begin("u1:daily"), ErrInFlight)

	// other keys are independent
	require.NoError(t, tr.Begin("u1:dream"))
	require.NoError(t, tr.Begin("u2:daily"))

	tr.Finish("u1:daily", nil)
	assert.Equal(t, StateSuccess, tr.State("u1:daily").State)

	require.NoError(t, tr.Begin("u1:daily"))
	tr.Finish("u1:daily", errors.New("provider down"))
	st := tr.State("u1:daily")
	assert.Equal(t, StateFailed, st.State)
	assert.Equal(t, "provider down", st.Error)

	require.NoError(t, tr.Begin("u1:daily"), "failed state re-enters loading")
	assert.Empty(t, tr.State("u1:daily").Error)
}

func TestTrackerFinishWithoutBegin(t *testing.T) {
	tr := NewTracker()
	tr.Finish("k", nil)
	assert.Equal(t, StateIdle, tr.State("k").State)

	require.NoError(t, tr.Begin("k"))
	tr.Finish("k", nil)
	tr.Finish("k", errors.New("late"))
	assert.Equal(t, StateSuccess, tr.State("k").State)

	tr.Forget("k")
	assert.Equal(t, StateIdle, tr.State("k").State)
}

func TestTrackerSingleFlight(t *testing.T) {
	tr := NewTracker()
	var started atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tr.Begin("u1:weekly") == nil {
				started.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, started.Load())
}
