package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNextRunLaterToday(t *testing.T) {
	d := NewDaily(14, 0, nil, zap.NewNop())

	from := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC), d.NextRun(from))
}

func TestNextRunRollsToTomorrow(t *testing.T) {
	d := NewDaily(14, 0, nil, zap.NewNop())

	from := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 11, 14, 0, 0, 0, time.UTC), d.NextRun(from))
}

func TestNextRunExactlyAtFireTimeRolls(t *testing.T) {
	d := NewDaily(14, 0, nil, zap.NewNop())

	from := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 11, 14, 0, 0, 0, time.UTC), d.NextRun(from))
}

func TestRunFiresJobAtScheduledTime(t *testing.T) {
	fired := make(chan time.Time, 1)
	d := NewDaily(14, 0, func(_ context.Context, today time.Time) {
		select {
		case fired <- today:
		default:
		}
	}, zap.NewNop())

	// Pin "now" a few milliseconds before the boundary so the first wait is
	// effectively immediate.
	d.now = func() time.Time {
		return time.Date(2025, 3, 10, 13, 59, 59, int(990*time.Millisecond), time.UTC)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not fire")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	d := NewDaily(14, 0, func(context.Context, time.Time) {}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
}
