package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunLoopInvokesImmediatelyThenOnInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int32

	go RunLoop(ctx, 5*time.Millisecond, func(ctx context.Context) {
		atomic.AddInt32(&calls, 1)
	})

	time.Sleep(22 * time.Millisecond)
	cancel()
	time.Sleep(5 * time.Millisecond)

	if got := atomic.LoadInt32(&calls); got < 2 {
		t.Fatalf("got %d calls, want at least 2", got)
	}
}

func TestRunLoopStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		RunLoop(ctx, time.Millisecond, func(ctx context.Context) {})
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunLoop did not return after cancel")
	}
}

func TestRunLoopVariableUsesFreshInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int32
	intervals := []time.Duration{time.Millisecond, time.Millisecond, time.Hour}
	next := func() time.Duration {
		d := intervals[0]
		intervals = intervals[1:]
		return d
	}

	go RunLoopVariable(ctx, next, func(ctx context.Context) {
		atomic.AddInt32(&calls, 1)
	})

	time.Sleep(20 * time.Millisecond)
	cancel()

	if got := atomic.LoadInt32(&calls); got < 2 {
		t.Fatalf("got %d calls, want at least 2", got)
	}
}

func TestSleepReturnsNilWhenDurationElapses(t *testing.T) {
	if err := Sleep(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSleepReturnsCtxErrOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); err != context.Canceled {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}
