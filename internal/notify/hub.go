// Package notify implement simple fan-out of state change events to subscribers.
package notify

//
// hub.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"sync"
)

// Hub deliver events of type T to all subscribers. Publish never block; events
// are dropped for subscribers that do not keep up with their buffer.
type Hub[T any] struct {
	mu     sync.Mutex
	subs   map[uint64]chan T
	nextID uint64
	closed bool
}

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{
		subs: make(map[uint64]chan T),
	}
}

// Subscribe register new subscriber with channel buffered for buf events.
// Returned function unregister subscriber and close channel; it is safe to
// call it many times.
func (h *Hub[T]) Subscribe(buf int) (<-chan T, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan T, max(buf, 1))

	if h.closed {
		close(ch)

		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	return ch, func() { h.unsubscribe(id) }
}

// Publish send event to every subscriber.
func (h *Hub[T]) Publish(event T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribers return number of registered subscribers.
func (h *Hub[T]) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subs)
}

// Close unregister all subscribers; later Subscribe return closed channels.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	h.closed = true

	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
}

func (h *Hub[T]) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subs[id]; ok {
		close(ch)
		delete(h.subs, id)
	}
}
