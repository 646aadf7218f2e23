package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultWriteTimeout = 2 * time.Second

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled      bool
	BufferSize   int
	DropIfFull   bool
	WriteTimeout time.Duration
}

// Options carries optional collaborators for a Dispatcher.
type Options struct {
	Logger *zap.Logger
	// OnDrop runs once per event dropped because the queue was full.
	OnDrop func()
}

// Dispatcher asynchronously forwards audit events to a sink.
type Dispatcher struct {
	cfg       Config
	sink      Sink
	logger    *zap.Logger
	onDrop    func()
	failLog   rate.Sometimes
	ch        chan Event
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	failed    atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewDispatcher starts the delivery worker. It returns nil when cfg is
// disabled; every method tolerates a nil Dispatcher.
func NewDispatcher(cfg Config, sink Sink, opts Options) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &Dispatcher{
		cfg:     cfg,
		sink:    sink,
		logger:  logger.Named("audit"),
		onDrop:  opts.OnDrop,
		failLog: rate.Sometimes{First: 3, Interval: 30 * time.Second},
		ch:      make(chan Event, cfg.BufferSize),
		done:    make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.ch:
			d.write(event)
		case <-d.done:
			for {
				select {
				case event := <-d.ch:
					d.write(event)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) write(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.WriteTimeout)
	defer cancel()

	if err := d.sink.Emit(ctx, event); err != nil {
		n := d.failed.Add(1)
		d.failLog.Do(func() {
			d.logger.Warn("audit sink write failed",
				zap.String("action", event.Action),
				zap.String("event_id", event.ID),
				zap.Uint64("failures", n),
				zap.Error(err),
			)
		})
	}
}

// Emit queues event for delivery. With DropIfFull it never blocks; otherwise
// it waits for queue space, ctx cancellation or Close.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- event:
		case <-d.done:
		default:
			d.drop()
		}
		return
	}

	select {
	case d.ch <- event:
	case <-ctx.Done():
		d.drop()
	case <-d.done:
	}
}

func (d *Dispatcher) drop() {
	d.dropped.Add(1)
	if d.onDrop != nil {
		d.onDrop()
	}
}

// Close stops accepting events, drains the queue and waits for the worker.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped returns how many events were discarded.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Failed returns how many sink writes returned an error.
func (d *Dispatcher) Failed() uint64 {
	if d == nil {
		return 0
	}
	return d.failed.Load()
}
