package sandbox

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGovernorIterationCeiling(t *testing.T) {
	g := NewGovernor(Limits{Timeout: time.Minute, MaxIterations: 3})
	g.Start(nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, g.Check())
	}
	assert.ErrorIs(t, g.Check(), ErrIterationLimit)
	assert.ErrorIs(t, g.Check(), ErrIterationLimit)
	assert.Equal(t, int64(5), g.Iterations())

	assert.Equal(t, StateIterationOverflow, g.Finish())
}

func TestGovernorCompletes(t *testing.T) {
	g := NewGovernor(Limits{Timeout: time.Minute, MaxIterations: 10})
	g.Start(nil)
	require.NoError(t, g.Check())

	assert.Equal(t, StateCompleted, g.Finish())
	assert.False(t, g.Abort(), "terminal state is final")
	assert.Equal(t, StateCompleted, g.State())
}

func TestGovernorDeadline(t *testing.T) {
	g := NewGovernor(Limits{Timeout: 20 * time.Millisecond, MaxIterations: 10})

	var fired atomic.Int32
	done := make(chan struct{})
	g.Start(func() {
		fired.Add(1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("deadline did not fire")
	}

	assert.ErrorIs(t, g.Check(), ErrTimeout)
	assert.Equal(t, StateTimedOut, g.Finish())
	assert.Equal(t, int32(1), fired.Load())
}

func TestGovernorFinishBeatsDeadline(t *testing.T) {
	g := NewGovernor(Limits{Timeout: 30 * time.Millisecond, MaxIterations: 10})

	var fired atomic.Bool
	g.Start(func() { fired.Store(true) })
	assert.Equal(t, StateCompleted, g.Finish())

	time.Sleep(60 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestGovernorAbort(t *testing.T) {
	g := NewGovernor(Limits{Timeout: time.Minute, MaxIterations: 10})
	g.Start(nil)

	assert.True(t, g.Abort())
	assert.False(t, g.Abort())
	assert.ErrorIs(t, g.Check(), context.Canceled)
	assert.Equal(t, StateCancelled, g.Finish())
}

func TestGuardMessage(t *testing.T) {
	assert.Equal(t, "Timeout", guardMessage(ErrTimeout))
	assert.Equal(t, "Nombre maximum d'itérations atteint (boucle infinie probable)", guardMessage(ErrIterationLimit))
	assert.Equal(t, "context canceled", guardMessage(context.Canceled))
}
