// Package pubsub is the in-process fan-out used by the real-time channel.
// Delivery is at-most-once: a subscriber whose buffer is full misses the
// frame, other subscribers are unaffected.
package pubsub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dmitrijs2005/studymatch/internal/logging"
)

const DefaultBuffer = 64

// Frame is the wire envelope sent to subscribers.
type Frame struct {
	Event   string `json:"event"`
	Channel string `json:"channel,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Subscription receives encoded frames for one channel until it is
// unsubscribed, at which point C is closed.
type Subscription struct {
	channel string
	ch      chan []byte
	closed  bool
}

func (s *Subscription) Channel() string { return s.channel }

func (s *Subscription) C() <-chan []byte { return s.ch }

type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
	log    logging.Logger
}

func NewHub(buffer int, log logging.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
		log:    log,
	}
}

func (h *Hub) Subscribe(channel string) *Subscription {
	sub := &Subscription{channel: channel, ch: make(chan []byte, h.buffer)}

	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[channel]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[channel] = set
	}
	set[sub] = struct{}{}
	return sub
}

// Unsubscribe is idempotent.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if sub.closed {
		return
	}
	sub.closed = true

	if set, ok := h.subs[sub.channel]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.channel)
		}
	}
	close(sub.ch)
}

// Publish encodes one frame and offers it to every current subscriber of
// channel without blocking.
func (h *Hub) Publish(ctx context.Context, channel, event string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b, err := json.Marshal(Frame{Event: event, Channel: channel, Data: payload})
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[channel] {
		select {
		case sub.ch <- b:
		default:
			h.log.Warn(ctx, "subscriber buffer full, frame dropped", "channel", channel, "event", event)
		}
	}
	return nil
}

// Subscribers returns the number of live subscriptions on channel.
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[channel])
}

// Close drops every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for channel, set := range h.subs {
		for sub := range set {
			sub.closed = true
			close(sub.ch)
		}
		delete(h.subs, channel)
	}
}
