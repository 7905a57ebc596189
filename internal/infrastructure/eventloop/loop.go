package eventloop

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrClosed = errors.New("event loop is closed")

// Loop runs posted tasks one at a time on a single goroutine, so the state
// they touch needs no locking. Timers scheduled through AfterFunc deliver
// their callbacks back into the loop.
type Loop struct {
	tasks  chan func()
	done   chan struct{}
	once   sync.Once
	mu     sync.Mutex
	timers map[*time.Timer]struct{}
	log    *zap.Logger
}

func New(buffer int, log *zap.Logger) *Loop {
	return &Loop{
		tasks:  make(chan func(), buffer),
		done:   make(chan struct{}),
		timers: make(map[*time.Timer]struct{}),
		log:    log,
	}
}

// Run processes tasks until ctx is cancelled or Close is called.
func (l *Loop) Run(ctx context.Context) {
	defer l.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.done:
			return
		case task := <-l.tasks:
			l.run(task)
		}
	}
}

func (l *Loop) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("Event loop task panicked", zap.Any("panic", r))
		}
	}()
	task()
}

// Post queues fn. It blocks while the buffer is full and fails once the
// loop is closed.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}

	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		return ErrClosed
	}
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(fn func()) error {
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrClosed
	}
}

// AfterFunc posts fn to the loop once d has elapsed.
func (l *Loop) AfterFunc(d time.Duration, fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	select {
	case <-l.done:
		return
	default:
	}

	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		l.mu.Lock()
		delete(l.timers, timer)
		l.mu.Unlock()

		if err := l.Post(fn); err != nil {
			l.log.Debug("Dropping timer after close")
		}
	})
	l.timers[timer] = struct{}{}
}

// Close stops the loop and every pending timer. Queued tasks are dropped.
func (l *Loop) Close() {
	l.once.Do(func() {
		l.mu.Lock()
		close(l.done)
		for timer := range l.timers {
			timer.Stop()
		}
		l.timers = nil
		l.mu.Unlock()
	})
}

// Done is closed once the loop stops.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
