package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"taskboard/internal/scheduler"
)

func TestRunner_RunsAndStops(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	var ok, failing atomic.Int32
	r := scheduler.NewRunner()
	require.NoError(t, r.Register("count", 5*time.Millisecond, func(ctx context.Context) error {
		ok.Add(1)
		return nil
	}))
	require.NoError(t, r.Register("broken", 5*time.Millisecond, func(ctx context.Context) error {
		if failing.Add(1) == 1 {
			panic("boom")
		}
		return errors.New("still broken")
	}))

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)

	require.Eventually(t, func() bool {
		return ok.Load() >= 3 && failing.Load() >= 3
	}, time.Second, 5*time.Millisecond, "failing job keeps being retried")

	cancel()
	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	require.NoError(t, r.Stop(stopCtx))

	require.NotZero(t, logs.FilterMessage("job panicked").Len())
	require.NotZero(t, logs.FilterMessage("job failed").Len())
}

func TestRunner_RejectsBadInterval(t *testing.T) {
	r := scheduler.NewRunner()
	require.Error(t, r.Register("bad", 0, func(context.Context) error { return nil }))
}

func TestRunner_StopTimeout(t *testing.T) {
	r := scheduler.NewRunner()
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	require.NoError(t, r.Register("slow", time.Millisecond, func(ctx context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)
	<-started
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer stopCancel()
	require.ErrorIs(t, r.Stop(stopCtx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, r.Stop(context.Background()))
}
