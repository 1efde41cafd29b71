package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSchedulePeriodic(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	var runs atomic.Int32
	id, err := s.SchedulePeriodic(50*time.Millisecond, "rebuild", true, func(context.Context) error {
		runs.Add(1)
		return errors.New("ignored")
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	s.Start()
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Stop())
}

func TestStopCancelsTaskContext(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	started := make(chan struct{})
	canceled := make(chan struct{})
	_, err = s.SchedulePeriodic(time.Hour, "long", true, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(canceled)
		return ctx.Err()
	})
	require.NoError(t, err)

	s.Start()
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("task never started")
	}
	require.NoError(t, s.Stop())
	select {
	case <-canceled:
	case <-time.After(5 * time.Second):
		t.Fatal("task context not canceled")
	}
}

func TestSchedulePeriodicRejectsInvalidInterval(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	_, err = s.SchedulePeriodic(0, "bad", false, func(context.Context) error { return nil })
	require.Error(t, err)
}
