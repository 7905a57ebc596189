package eventloop

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestLoop(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	loop := New(16, logger)
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	return loop, cancel
}

func TestLoop_RunsTasksInOrder(t *testing.T) {
	loop, cancel := newTestLoop(t)
	defer cancel()

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		if err := loop.Post(func() { got = append(got, i) }); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}
	if err := loop.Call(func() {}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	for i := 0; i < 5; i++ {
		if got[i] != i {
			t.Fatalf("expected ordered execution, got %v", got)
		}
	}
}

func TestLoop_AfterFuncRunsOnLoop(t *testing.T) {
	loop, cancel := newTestLoop(t)
	defer cancel()

	fired := make(chan struct{})
	loop.AfterFunc(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer callback never ran")
	}
}

func TestLoop_RecoversFromPanic(t *testing.T) {
	loop, cancel := newTestLoop(t)
	defer cancel()

	loop.Post(func() { panic("boom") })

	ran := false
	if err := loop.Call(func() { ran = true }); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !ran {
		t.Error("loop stopped after a panicking task")
	}
}

func TestLoop_Close(t *testing.T) {
	loop, cancel := newTestLoop(t)
	defer cancel()

	fired := make(chan struct{}, 1)
	loop.AfterFunc(20*time.Millisecond, func() { fired <- struct{}{} })
	loop.Close()

	if err := loop.Post(func() {}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	select {
	case <-fired:
		t.Error("timer fired after close")
	case <-time.After(50 * time.Millisecond):
	}
}
