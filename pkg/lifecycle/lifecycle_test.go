package lifecycle_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/revitview/pkg/lifecycle"
)

func TestReadiness(t *testing.T) {
	lc := lifecycle.New()
	assert.False(t, lc.Ready(), "ready before WaitForStartup")

	lc.WaitForStartup()
	assert.True(t, lc.Ready(), "not ready after WaitForStartup")

	require.NoError(t, lc.Shutdown(time.Second))
	assert.False(t, lc.Ready(), "ready after Shutdown")
}

func TestStartupHooksExecute(t *testing.T) {
	lc := lifecycle.New()

	var count atomic.Int32
	for range 3 {
		lc.OnStartup(func() {
			count.Add(1)
		})
	}

	lc.WaitForStartup()
	assert.Equal(t, int32(3), count.Load())
}

func TestShutdownHooksExecute(t *testing.T) {
	lc := lifecycle.New()

	var cleaned atomic.Bool
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		cleaned.Store(true)
	})

	lc.WaitForStartup()
	require.NoError(t, lc.Shutdown(5*time.Second))
	assert.True(t, cleaned.Load())
}

func TestShutdownTimeout(t *testing.T) {
	lc := lifecycle.New()

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		time.Sleep(500 * time.Millisecond)
	})

	lc.WaitForStartup()
	assert.Error(t, lc.Shutdown(50*time.Millisecond))
}

func TestShutdownWaitsForTasks(t *testing.T) {
	lc := lifecycle.New()

	started := make(chan struct{})
	var observed atomic.Bool

	lc.Go(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		time.Sleep(20 * time.Millisecond)
		observed.Store(ctx.Err() != nil)
	})

	<-started
	require.NoError(t, lc.Shutdown(5*time.Second))
	assert.True(t, observed.Load(), "task did not finish before Shutdown returned")
}

func TestShutdownTimesOutOnStuckTask(t *testing.T) {
	lc := lifecycle.New()

	release := make(chan struct{})
	defer close(release)

	lc.Go(func(ctx context.Context) {
		<-release
	})

	assert.Error(t, lc.Shutdown(50*time.Millisecond))
}

func TestContextCancelledOnShutdown(t *testing.T) {
	lc := lifecycle.New()
	lc.WaitForStartup()

	require.NoError(t, lc.Shutdown(5*time.Second))

	select {
	case <-lc.Context().Done():
	default:
		t.Error("context should be cancelled after shutdown")
	}
}

func TestActiveTasks(t *testing.T) {
	lc := lifecycle.New()
	release := make(chan struct{})

	for range 2 {
		lc.Go(func(ctx context.Context) {
			<-release
		})
	}

	assert.Eventually(t, func() bool { return lc.Active() == 2 }, time.Second, 5*time.Millisecond)

	close(release)
	require.NoError(t, lc.Shutdown(time.Second))
	assert.Zero(t, lc.Active())
}

func TestShutdownTimeoutReportsTasks(t *testing.T) {
	lc := lifecycle.New()
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	lc.Go(func(ctx context.Context) {
		<-release
	})

	err := lc.Shutdown(20 * time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 tasks still running")
}
