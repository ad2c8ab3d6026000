package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControllerStartsRunning(t *testing.T) {
	c := NewController()
	assert.True(t, c.Running())

	// Wait must not block while running.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.NoError(t, c.Wait(ctx))
}

func TestControllerPauseBlocksWait(t *testing.T) {
	c := NewController()
	c.Pause()
	assert.False(t, c.Running())

	released := make(chan error, 1)
	go func() {
		released <- c.Wait(context.Background())
	}()

	select {
	case <-released:
		t.Fatal("Wait returned while paused")
	case <-time.After(50 * time.Millisecond):
	}

	c.Resume()

	select {
	case err := <-released:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Resume")
	}
	assert.True(t, c.Running())
}

func TestControllerWaitAbortsOnContextCancel(t *testing.T) {
	c := NewController()
	c.Pause()

	ctx, cancel := context.WithCancel(context.Background())
	released := make(chan error, 1)
	go func() {
		released <- c.Wait(ctx)
	}()

	cancel()

	select {
	case err := <-released:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Wait did not observe cancellation")
	}
}

func TestControllerPauseResumeIdempotent(t *testing.T) {
	c := NewController()
	c.Pause()
	c.Pause()
	c.Resume()
	c.Resume()
	assert.True(t, c.Running())
}
