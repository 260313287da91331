// Package redis fans store events out to renderers over a redis pub/sub
// channel.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"gtasync/internal/core"
	"gtasync/pkg/domain"
)

const (
	defaultBuffer  = 256
	publishTimeout = 5 * time.Second
)

// Publisher is the slice of *goredis.Client the notifier needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *goredis.IntCmd
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithBuffer sets how many events may wait for publication before new ones
// are dropped.
func WithBuffer(n int) Option {
	return func(nt *Notifier) {
		if n > 0 {
			nt.buffer = n
		}
	}
}

// WithLogger sets the logger used for publish failures and drops.
func WithLogger(logger *slog.Logger) Option {
	return func(nt *Notifier) {
		if logger != nil {
			nt.logger = logger
		}
	}
}

// Notifier queues events and publishes them as JSON from its own goroutine,
// so a slow redis never holds up a command.
type Notifier struct {
	client  Publisher
	channel string
	buffer  int
	logger  *slog.Logger

	mu          sync.RWMutex
	closed      bool
	queue       chan domain.Event
	done        chan struct{}
	unsubscribe func()

	published atomic.Int64
	dropped   atomic.Int64
}

// New starts a notifier publishing on channel until ctx ends or Close is
// called.
func New(ctx context.Context, client Publisher, channel string, opts ...Option) (*Notifier, error) {
	if client == nil {
		return nil, fmt.Errorf("redis notifier: nil client")
	}
	if channel == "" {
		return nil, fmt.Errorf("redis notifier: channel required")
	}
	n := &Notifier{
		client:  client,
		channel: channel,
		buffer:  defaultBuffer,
		logger:  slog.New(slog.DiscardHandler),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.queue = make(chan domain.Event, n.buffer)
	go n.loop(ctx)
	return n, nil
}

// Attach subscribes the notifier to svc. Close detaches it.
func (n *Notifier) Attach(svc *core.Service) {
	unsubscribe := svc.Subscribe(n.Notify)
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		unsubscribe()
		return
	}
	prev := n.unsubscribe
	n.unsubscribe = func() {
		if prev != nil {
			prev()
		}
		unsubscribe()
	}
}

// Notify enqueues evt without blocking. It is a core.Subscriber.
func (n *Notifier) Notify(evt domain.Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return
	}
	select {
	case n.queue <- evt:
	default:
		n.dropped.Add(1)
		n.logger.Warn("event dropped, publish queue full",
			"event_id", evt.ID,
			"operation", evt.Command,
			"buffer", n.buffer,
		)
	}
}

// Close detaches from the service, publishes what is still queued and stops
// the worker.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		<-n.done
		return
	}
	n.closed = true
	unsubscribe := n.unsubscribe
	close(n.queue)
	n.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
	<-n.done
}

// Published returns how many events reached redis.
func (n *Notifier) Published() int64 { return n.published.Load() }

// Dropped returns how many events were discarded because the queue was full.
func (n *Notifier) Dropped() int64 { return n.dropped.Load() }

func (n *Notifier) loop(ctx context.Context) {
	defer close(n.done)
	for {
		select {
		case evt, ok := <-n.queue:
			if !ok {
				return
			}
			n.publish(ctx, evt)
		case <-ctx.Done():
			return
		}
	}
}

func (n *Notifier) publish(ctx context.Context, evt domain.Event) {
	msg, err := json.Marshal(evt)
	if err != nil {
		n.logger.Error("encode event", "event_id", evt.ID, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := n.client.Publish(ctx, n.channel, msg).Err(); err != nil {
		n.logger.Error("publish event",
			"event_id", evt.ID,
			"operation", evt.Command,
			"channel", n.channel,
			"error", err,
		)
		return
	}
	n.published.Add(1)
}
