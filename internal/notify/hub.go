// Package notify fans "book added" events out to live subscribers.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"librarygql/internal/entity"
	"librarygql/internal/metrics"

	"go.uber.org/zap"
)

type Policy string

const (
	// PolicyDropOldest discards the oldest queued event of a full subscriber.
	PolicyDropOldest Policy = "drop-oldest"
	// PolicyBlock makes the publisher wait for room or for its context to end.
	PolicyBlock Policy = "block"

	DefaultBuffer = 16
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyDropOldest:
		return PolicyDropOldest, nil
	case PolicyBlock:
		return PolicyBlock, nil
	default:
		return "", fmt.Errorf("notify: unknown policy %q", s)
	}
}

type Options struct {
	Buffer  int
	Policy  Policy
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Hub is an in-process topic. Events published before a Subscribe call are
// never replayed to that subscriber.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*subscriber]struct{}
	closed bool

	buffer  int
	policy  Policy
	logger  *zap.Logger
	metrics *metrics.Metrics
}

type subscriber struct {
	ch   chan entity.Book
	done chan struct{}
	once sync.Once

	// mu serialises sends against close(ch).
	mu     sync.Mutex
	closed bool
}

func NewHub(opts Options) *Hub {
	if opts.Buffer <= 0 {
		opts.Buffer = DefaultBuffer
	}
	if opts.Policy == "" {
		opts.Policy = PolicyDropOldest
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Hub{
		subs:    make(map[*subscriber]struct{}),
		buffer:  opts.Buffer,
		policy:  opts.Policy,
		logger:  opts.Logger.With(zap.String("component", "notify")),
		metrics: opts.Metrics,
	}
}

// Subscribe registers a subscriber until ctx ends. The returned channel is
// closed once the subscriber is removed.
func (h *Hub) Subscribe(ctx context.Context) <-chan entity.Book {
	s := &subscriber{
		ch:   make(chan entity.Book, h.buffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(s.ch)
		return s.ch
	}
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	h.metrics.RecordSubscribe()

	go func() {
		select {
		case <-ctx.Done():
		case <-s.done:
		}
		h.remove(s)
	}()
	return s.ch
}

// Publish delivers book to every current subscriber. Under the block policy
// each subscriber waits independently; the returned error joins the
// subscribers that were still full when ctx ended.
func (h *Hub) Publish(ctx context.Context, book entity.Book) error {
	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.subs))
	for s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	if h.policy != PolicyBlock {
		for _, s := range subs {
			_ = h.deliver(ctx, s, book)
		}
		return nil
	}

	errs := make([]error, len(subs))
	var wg sync.WaitGroup
	for i, s := range subs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = h.deliver(ctx, s, book)
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (h *Hub) deliver(ctx context.Context, s *subscriber, book entity.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}

	if h.policy == PolicyBlock {
		select {
		case s.ch <- book:
			return nil
		default:
		}
		select {
		case s.ch <- book:
			return nil
		case <-s.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for {
		select {
		case s.ch <- book:
			return nil
		default:
		}
		select {
		case <-s.ch:
			h.metrics.RecordDropped()
			h.logger.Debug("subscriber queue full, dropped oldest event")
		default:
		}
	}
}

func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	_, ok := h.subs[s]
	delete(h.subs, s)
	h.mu.Unlock()
	if !ok {
		return
	}

	s.once.Do(func() { close(s.done) })
	s.mu.Lock()
	s.closed = true
	close(s.ch)
	s.mu.Unlock()
	h.metrics.RecordUnsubscribe()
}

// Len reports the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close removes every subscriber and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := make([]*subscriber, 0, len(h.subs))
	for s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		h.remove(s)
	}
}
