package notify

//
// hub_test.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"testing"

	"gitlab.com/kabes/go-relay/internal/assert"
)

func TestHubPublish(t *testing.T) {
	hub := NewHub[int]()

	ch1, cancel1 := hub.Subscribe(2)
	ch2, cancel2 := hub.Subscribe(2)

	defer cancel2()

	hub.Publish(1)
	assert.Equal(t, <-ch1, 1)
	assert.Equal(t, <-ch2, 1)

	cancel1()
	cancel1()

	_, ok := <-ch1
	assert.False(t, ok)
	assert.Equal(t, hub.Subscribers(), 1)

	hub.Publish(2)
	assert.Equal(t, <-ch2, 2)
}

func TestHubDropWhenFull(t *testing.T) {
	hub := NewHub[string]()

	ch, cancel := hub.Subscribe(1)
	defer cancel()

	hub.Publish("a")
	hub.Publish("b")

	assert.Equal(t, <-ch, "a")

	select {
	case v := <-ch:
		t.Errorf("unexpected event %q", v)
	default:
	}
}

func TestHubClose(t *testing.T) {
	hub := NewHub[int]()

	ch, cancel := hub.Subscribe(1)

	hub.Close()
	hub.Close()

	_, ok := <-ch
	assert.False(t, ok)

	// cancel after close is noop
	cancel()

	ch, cancel = hub.Subscribe(1)
	defer cancel()

	_, ok = <-ch
	assert.False(t, ok)

	hub.Publish(1)
	assert.Equal(t, hub.Subscribers(), 0)
}
