package transport

import (
	"context"
	"math/rand"
	"sync"

	"github.com/iov-one/rebase/errors"
)

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithDuplicates makes the hub deliver every envelope twice.
func WithDuplicates() HubOption {
	return func(h *Hub) { h.duplicate = true }
}

// WithShuffle makes the hub deliver queued envelopes in a random order
// derived from seed.
func WithShuffle(seed int64) HubOption {
	return func(h *Hub) { h.rnd = rand.New(rand.NewSource(seed)) }
}

// Hub is an in memory Transport. Envelopes are queued on Publish and
// handed to a Handler on Pump.
type Hub struct {
	mu        sync.Mutex
	queue     []*Envelope
	duplicate bool
	rnd       *rand.Rand
}

var _ Transport = (*Hub)(nil)

// NewHub returns an empty hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{}
	for _, fn := range opts {
		fn(h)
	}
	return h
}

func (h *Hub) Publish(ctx context.Context, e *Envelope) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queue = append(h.queue, e)
	if h.duplicate {
		cpy := *e
		h.queue = append(h.queue, &cpy)
	}
	return e.ID, nil
}

// Len returns the number of queued envelopes.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.queue)
}

// Pump delivers every queued envelope once. Envelopes the handler failed
// on stay queued. It returns the number of successful deliveries and all
// handler errors.
func (h *Hub) Pump(ctx context.Context, handler Handler) (int, error) {
	h.mu.Lock()
	batch := h.queue
	h.queue = nil
	if h.rnd != nil {
		h.rnd.Shuffle(len(batch), func(i, j int) { batch[i], batch[j] = batch[j], batch[i] })
	}
	h.mu.Unlock()

	var (
		delivered int
		errs      error
		failed    []*Envelope
	)
	for _, e := range batch {
		if err := ctx.Err(); err != nil {
			failed = append(failed, e)
			continue
		}
		if err := handler.OnDeliver(ctx, e); err != nil {
			errs = errors.Append(errs, errors.Wrapf(err, "envelope %s", e))
			failed = append(failed, e)
			continue
		}
		delivered++
	}

	h.mu.Lock()
	h.queue = append(failed, h.queue...)
	h.mu.Unlock()
	return delivered, errs
}
