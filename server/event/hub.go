// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package event provides the streaming hub: a per-task registry of
// subscribers that fans out lifecycle events in generation order. Each
// subscriber has an independent bounded queue, so a slow consumer is
// disconnected rather than stalling the producer or its peers.
package event

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	a2a "github.com/go-a2a/a2a-core"
)

// ErrSlowSubscriber is reported by [Subscription.Err] when the subscriber
// was disconnected because its queue overflowed.
var ErrSlowSubscriber = errors.New("event: subscriber queue overflow")

// DefaultBufferSize is the per-subscriber queue capacity.
const DefaultBufferSize = 16

// Subscription is one attached observer of a task's event stream.
// Detaching is idempotent: voluntary Close, queue overflow, and terminal
// events all funnel through the same teardown.
type Subscription struct {
	id     string
	taskID string
	hub    *Hub

	events chan a2a.Event

	mu     sync.Mutex
	closed bool
	err    error
}

// TaskID returns the task this subscription observes.
func (s *Subscription) TaskID() string { return s.taskID }

// Events returns the receive channel. It is closed after the final event
// of the interaction, after a voluntary Close, or on disconnection.
func (s *Subscription) Events() <-chan a2a.Event { return s.events }

// Err reports why the subscription ended. It is nil for a normal
// terminal-event detach or a voluntary Close.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close voluntarily detaches the subscription. Remaining subscribers and
// the lifecycle engine are unaffected.
func (s *Subscription) Close() {
	s.hub.detach(s, nil)
}

// send enqueues without blocking; false means the queue is full.
func (s *Subscription) send(ev a2a.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	select {
	case s.events <- ev:
		return true
	default:
		return false
	}
}

// Hub is the per-task broadcast registry. Attach, detach, and broadcast
// are safe for concurrent use; per-task event ordering is preserved
// because production is single-writer per task (the lifecycle engine
// serializes mutations per task ID).
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
	logger *slog.Logger
}

// HubOption configures a [Hub].
type HubOption func(*Hub)

// WithBufferSize sets the per-subscriber queue capacity.
func WithBufferSize(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// WithLogger sets the hub logger.
func WithLogger(logger *slog.Logger) HubOption {
	return func(h *Hub) {
		h.logger = logger
	}
}

// NewHub creates an empty Hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: DefaultBufferSize,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe attaches a new subscriber to the task's event stream.
func (h *Hub) Subscribe(taskID string) *Subscription {
	sub := &Subscription{
		id:     uuid.NewString(),
		taskID: taskID,
		hub:    h,
		events: make(chan a2a.Event, h.buffer),
	}

	h.mu.Lock()
	set, ok := h.subs[taskID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[taskID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	return sub
}

// SubscriberCount returns the number of active subscribers for a task.
func (h *Hub) SubscriberCount(taskID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[taskID])
}

// Publish delivers an event to every subscriber of its task, in call
// order. A subscriber whose queue is full is disconnected with
// [ErrSlowSubscriber]. A final event detaches all remaining subscribers
// after delivery.
func (h *Hub) Publish(ctx context.Context, ev a2a.Event) {
	taskID := ev.GetTaskID()

	h.mu.RLock()
	snapshot := make([]*Subscription, 0, len(h.subs[taskID]))
	for sub := range h.subs[taskID] {
		snapshot = append(snapshot, sub)
	}
	h.mu.RUnlock()

	for _, sub := range snapshot {
		if !sub.send(ev) {
			h.logger.WarnContext(ctx, "disconnecting slow subscriber",
				"task_id", taskID, "subscription_id", sub.id)
			h.detach(sub, ErrSlowSubscriber)
			continue
		}
		if ev.IsFinal() {
			h.detach(sub, nil)
		}
	}
}

// PublishTo delivers an event to a single subscription, bypassing the
// broadcast registry. Used to hand a resubscribing caller the terminal
// snapshot of a task that already finished.
func (h *Hub) PublishTo(sub *Subscription, ev a2a.Event) {
	if !sub.send(ev) {
		h.detach(sub, ErrSlowSubscriber)
		return
	}
	if ev.IsFinal() {
		h.detach(sub, nil)
	}
}

// detach removes the subscription from the registry and closes its
// channel. Safe to call more than once.
func (h *Hub) detach(sub *Subscription, cause error) {
	sub.mu.Lock()
	if sub.closed {
		sub.mu.Unlock()
		return
	}
	sub.closed = true
	sub.err = cause
	close(sub.events)
	sub.mu.Unlock()

	h.mu.Lock()
	if set, ok := h.subs[sub.taskID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.taskID)
		}
	}
	h.mu.Unlock()
}
