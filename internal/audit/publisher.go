package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const appendTimeout = 5 * time.Second

// Publisher stamps events and hands them to a Store. With a buffer, a single
// goroutine drains the queue and Emit never waits on the sink; a full queue
// drops the event and counts it.
type Publisher struct {
	store   Store
	logger  *slog.Logger
	now     func() time.Time
	queue   chan Event
	done    chan struct{}
	once    sync.Once
	dropped atomic.Int64
}

type PublisherOption func(*Publisher)

// WithAsyncBuffer queues up to size events for background delivery.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.queue = make(chan Event, size)
		}
	}
}

func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithPublisherClock(now func() time.Time) PublisherOption {
	return func(p *Publisher) {
		if now != nil {
			p.now = now
		}
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.queue != nil {
		p.done = make(chan struct{})
		go p.drain()
	}
	return p
}

func (p *Publisher) drain() {
	defer close(p.done)
	for event := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
		if err := p.store.Append(ctx, event); err != nil {
			p.logger.Error("audit event not delivered", "error", err, "action", event.Action)
		}
		cancel()
	}
}

// Emit records event. Async publishers return nil even when the event is
// dropped; Dropped reports how many were lost.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now().UTC()
	}
	if p.queue == nil {
		return p.store.Append(ctx, event)
	}
	select {
	case p.queue <- event:
	default:
		p.dropped.Add(1)
		p.logger.WarnContext(ctx, "audit queue full, event dropped", "action", event.Action)
	}
	return nil
}

// Dropped is the number of events discarded because the queue was full.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// Close stops accepting events and waits for queued ones until ctx ends.
// Emit must not be called after Close.
func (p *Publisher) Close(ctx context.Context) error {
	if p.queue == nil {
		return nil
	}
	p.once.Do(func() { close(p.queue) })
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
