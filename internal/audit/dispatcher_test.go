package audit

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type gateSink struct {
	gate chan struct{}
	seen atomic.Int64
}

func (s *gateSink) Emit(context.Context, Event) error {
	<-s.gate
	s.seen.Add(1)
	return nil
}

type failingSink struct {
	calls atomic.Int64
}

func (s *failingSink) Emit(context.Context, Event) error {
	s.calls.Add(1)
	return errors.New("disk full")
}

func TestDispatcherDisabledIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NoOpSink{}, Options{})
	if d != nil {
		t.Fatal("expected nil dispatcher when disabled")
	}
	d.Emit(context.Background(), Event{Action: ActionLoginSuccess})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher must report zero drops")
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	var onDrop atomic.Int64
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink, Options{
		OnDrop: func() { onDrop.Add(1) },
	})

	// One event parks in the worker, one fills the buffer; the rest drop.
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{Action: ActionLoginFailed})
	}

	deadline := time.Now().Add(time.Second)
	for d.Dropped() < 8 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if d.Dropped() < 8 {
		t.Fatalf("expected at least 8 drops, got %d", d.Dropped())
	}
	if uint64(onDrop.Load()) != d.Dropped() {
		t.Fatalf("OnDrop calls %d != dropped %d", onDrop.Load(), d.Dropped())
	}

	close(sink.gate)
	d.Close()
	if got := sink.seen.Load() + int64(d.Dropped()); got != 10 {
		t.Fatalf("expected every event delivered or dropped, got %d", got)
	}
}

func TestDispatcherCloseDrainsQueue(t *testing.T) {
	sink := NewChannelSink(16)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 16}, sink, Options{})

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), Event{Action: ActionSignupSuccess})
	}
	d.Close()
	d.Emit(context.Background(), Event{Action: ActionLogout})

	if got := len(sink.Events()); got != 5 {
		t.Fatalf("expected 5 delivered events, got %d", got)
	}
}

func TestDispatcherSinkFailureIsLoggedAndSwallowed(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	sink := &failingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 32}, sink, Options{Logger: zap.New(core)})

	for i := 0; i < 20; i++ {
		d.Emit(context.Background(), Event{ID: NewID(time.Now()), Action: ActionLoginFailed})
	}
	d.Close()

	if sink.calls.Load() != 20 {
		t.Fatalf("expected 20 sink calls, got %d", sink.calls.Load())
	}
	if d.Failed() != 20 {
		t.Fatalf("expected 20 failures, got %d", d.Failed())
	}
	entries := logs.FilterMessage("audit sink write failed").All()
	if len(entries) == 0 {
		t.Fatal("expected a warning for failed sink writes")
	}
	if len(entries) >= 20 {
		t.Fatalf("expected sampled warnings, got %d", len(entries))
	}
}

func TestDispatcherAppliesWriteTimeout(t *testing.T) {
	var sawDeadline atomic.Bool
	sink := sinkFunc(func(ctx context.Context, _ Event) error {
		_, ok := ctx.Deadline()
		sawDeadline.Store(ok)
		return nil
	})
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, WriteTimeout: time.Second}, sink, Options{})
	d.Emit(context.Background(), Event{Action: ActionMFAEnrolled})
	d.Close()

	if !sawDeadline.Load() {
		t.Fatal("expected sink context to carry a deadline")
	}
}

type sinkFunc func(context.Context, Event) error

func (f sinkFunc) Emit(ctx context.Context, e Event) error { return f(ctx, e) }

func TestNewIDIsSortable(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	a := NewID(base)
	b := NewID(base.Add(time.Millisecond))
	if len(a) != 26 {
		t.Fatalf("expected 26-char id, got %q", a)
	}
	if !(a < b) {
		t.Fatalf("expected %q < %q", a, b)
	}
}
