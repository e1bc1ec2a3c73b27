package player

//
// session_test.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"sync"
	"testing"
	"time"

	"gitlab.com/kabes/go-relay/internal/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.now = f.now.Add(d)
}

type recordingSink struct {
	mu        sync.Mutex
	positions []float64
	durations []float64
	played    int
	paused    int
	ended     chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{ended: make(chan struct{}, 1)}
}

func (r *recordingSink) TimeUpdate(position float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.positions = append(r.positions, position)
}

func (r *recordingSink) DurationChange(duration float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.durations = append(r.durations, duration)
}

func (r *recordingSink) Played() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.played++
}

func (r *recordingSink) Paused() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.paused++
}

func (r *recordingSink) Ended() {
	select {
	case r.ended <- struct{}{}:
	default:
	}
}

func TestClockSessionPosition(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	sink := newRecordingSink()
	session := NewClockSession(sink, WithClockNow(clock.Now), WithClockTick(time.Hour))

	t.Cleanup(func() { _ = session.Close() })

	ctx := context.Background()
	assert.NoErr(t, session.Load(ctx, "proxy:audio"))
	assert.NoErr(t, session.Play(ctx))
	assert.NoErr(t, session.Play(ctx))

	clock.Advance(10 * time.Second)
	assert.Equal(t, session.Position(), 10.0)

	session.SetRate(2)
	clock.Advance(5 * time.Second)
	assert.Equal(t, session.Position(), 20.0)

	assert.NoErr(t, session.Pause())
	clock.Advance(5 * time.Second)
	assert.Equal(t, session.Position(), 20.0)

	session.Seek(-3)
	assert.Equal(t, session.Position(), 0.0)

	session.HintDuration(60)
	session.Seek(100)
	assert.Equal(t, session.Position(), 60.0)

	sink.mu.Lock()
	assert.Equal(t, sink.played, 1)
	assert.Equal(t, sink.paused, 1)
	assert.Equal(t, sink.durations, []float64{60})
	sink.mu.Unlock()
}

func TestClockSessionEnded(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	sink := newRecordingSink()
	session := NewClockSession(sink, WithClockNow(clock.Now), WithClockTick(time.Millisecond))

	t.Cleanup(func() { _ = session.Close() })

	ctx := context.Background()
	assert.NoErr(t, session.Load(ctx, "proxy:audio"))
	session.HintDuration(30)
	assert.NoErr(t, session.Play(ctx))

	clock.Advance(time.Minute)

	select {
	case <-sink.ended:
	case <-time.After(2 * time.Second):
		t.Fatal("session not ended")
	}

	assert.Equal(t, session.Position(), 30.0)

	sink.mu.Lock()
	assert.Equal(t, sink.paused, 1)
	sink.mu.Unlock()
}

func TestClockSessionFactory(t *testing.T) {
	factory := ClockSessionFactory(WithClockTick(time.Hour))

	session, err := factory(newRecordingSink())
	assert.NoErr(t, err)
	assert.NoErr(t, session.Close())
	assert.NoErr(t, session.Close())
}
