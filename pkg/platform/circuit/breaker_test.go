package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreaker_StartsClosed(t *testing.T) {
	b := New("controller-cache")

	assert.Equal(t, "controller-cache", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "closed", b.State().String())
	assert.True(t, b.Allow())
}

func TestBreaker_Transitions(t *testing.T) {
	// Each step is a recorded outcome: 'f' for failure, 's' for success.
	tests := []struct {
		name     string
		failures int
		closeAt  int
		steps    string
		wantOpen bool
	}{
		{name: "below failure threshold", failures: 3, closeAt: 1, steps: "ff", wantOpen: false},
		{name: "at failure threshold", failures: 3, closeAt: 1, steps: "fff", wantOpen: true},
		{name: "success clears failure streak", failures: 3, closeAt: 1, steps: "ffsff", wantOpen: false},
		{name: "one success is not enough to close", failures: 1, closeAt: 2, steps: "fs", wantOpen: true},
		{name: "success streak closes", failures: 1, closeAt: 2, steps: "fss", wantOpen: false},
		{name: "failure restarts success streak", failures: 1, closeAt: 3, steps: "fssfss", wantOpen: true},
		{name: "full success streak after relapse", failures: 1, closeAt: 3, steps: "fssfsss", wantOpen: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("test", WithFailureThreshold(tt.failures), WithSuccessThreshold(tt.closeAt))
			for _, step := range tt.steps {
				if step == 'f' {
					b.RecordFailure()
				} else {
					b.RecordSuccess()
				}
			}
			assert.Equal(t, tt.wantOpen, b.IsOpen())
		})
	}
}

func TestBreaker_ReportsStateChanges(t *testing.T) {
	b := New("test", WithFailureThreshold(2), WithSuccessThreshold(1))

	useFallback, change := b.RecordFailure()
	assert.False(t, useFallback)
	assert.False(t, change.Opened)

	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)
	assert.Equal(t, "open", b.State().String())

	// already open
	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.False(t, change.Opened)

	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_Reset(t *testing.T) {
	b := New("test", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()

	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreaker_AllowsOneTrialPerCooldown(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := New("test", WithFailureThreshold(1), WithCooldown(time.Second))
	b.now = func() time.Time { return now }

	assert.True(t, b.Allow())
	b.RecordFailure()
	assert.False(t, b.Allow())

	now = now.Add(time.Second)
	assert.True(t, b.Allow())
	assert.False(t, b.Allow(), "only one trial per cooldown")

	// a failed trial pushes the next one out by a full cooldown
	b.RecordFailure()
	now = now.Add(500 * time.Millisecond)
	assert.False(t, b.Allow())
	now = now.Add(500 * time.Millisecond)
	assert.True(t, b.Allow())
}
