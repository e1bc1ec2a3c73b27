package player

//
// session.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// SessionEvents receive notifications from audio session. Methods may be called
// from any goroutine, but never while session hold its internal lock.
type SessionEvents interface {
	TimeUpdate(position float64)
	DurationChange(duration float64)
	Played()
	Paused()
	Ended()
}

// Session is handle to audio output.
type Session interface {
	Load(ctx context.Context, url string) error
	Play(ctx context.Context) error
	Pause() error
	Seek(position float64)
	Position() float64
	SetRate(rate float64)
	Close() error
}

// SessionFactory create new session delivering events to sink.
type SessionFactory func(sink SessionEvents) (Session, error)

// durationHinter is implemented by sessions that can't read media duration.
type durationHinter interface {
	HintDuration(duration float64)
}

//------------------------------------------------------------------------------

const defaultClockTick = time.Second

// ClockSession is silent session that only advance position at playback rate.
// Used for headless playback.
type ClockSession struct {
	sink SessionEvents
	now  func() time.Time
	tick time.Duration

	mu       sync.Mutex
	url      string
	playing  bool
	rate     float64
	duration float64
	// position at anchor time
	anchorPos  float64
	anchorTime time.Time

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

type ClockOption func(*ClockSession)

// WithClockTick set interval of position updates.
func WithClockTick(tick time.Duration) ClockOption {
	return func(c *ClockSession) {
		if tick > 0 {
			c.tick = tick
		}
	}
}

// WithClockNow set time source.
func WithClockNow(now func() time.Time) ClockOption {
	return func(c *ClockSession) {
		c.now = now
	}
}

func NewClockSession(sink SessionEvents, opts ...ClockOption) *ClockSession {
	session := &ClockSession{
		sink: sink,
		now:  time.Now,
		tick: defaultClockTick,
		rate: 1.0,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	for _, o := range opts {
		o(session)
	}

	go session.loop()

	return session
}

// ClockSessionFactory return factory of ClockSession.
func ClockSessionFactory(opts ...ClockOption) SessionFactory {
	return func(sink SessionEvents) (Session, error) {
		return NewClockSession(sink, opts...), nil
	}
}

func (c *ClockSession) Load(ctx context.Context, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	log.Ctx(ctx).Debug().Str("url", url).Msg("clocksession: load")

	c.url = url
	c.playing = false
	c.duration = 0
	c.anchorPos = 0
	c.anchorTime = c.now()

	return nil
}

func (c *ClockSession) Play(_ context.Context) error {
	c.mu.Lock()
	if c.playing {
		c.mu.Unlock()

		return nil
	}

	c.anchorTime = c.now()
	c.playing = true
	c.mu.Unlock()

	c.sink.Played()

	return nil
}

func (c *ClockSession) Pause() error {
	c.mu.Lock()
	if !c.playing {
		c.mu.Unlock()

		return nil
	}

	c.anchorPos = c.positionLocked()
	c.anchorTime = c.now()
	c.playing = false
	c.mu.Unlock()

	c.sink.Paused()

	return nil
}

func (c *ClockSession) Seek(position float64) {
	c.mu.Lock()
	c.anchorPos = max(position, 0)
	c.anchorTime = c.now()
	pos := c.anchorPos
	c.mu.Unlock()

	c.sink.TimeUpdate(pos)
}

func (c *ClockSession) Position() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.positionLocked()
}

func (c *ClockSession) SetRate(rate float64) {
	if rate <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.anchorPos = c.positionLocked()
	c.anchorTime = c.now()
	c.rate = rate
}

// HintDuration set media duration; without it session never end.
func (c *ClockSession) HintDuration(duration float64) {
	c.mu.Lock()
	changed := duration > 0 && duration != c.duration
	if changed {
		c.duration = duration
	}
	c.mu.Unlock()

	if changed {
		c.sink.DurationChange(duration)
	}
}

func (c *ClockSession) Close() error {
	c.closeOnce.Do(func() { close(c.stop) })
	<-c.done

	return nil
}

func (c *ClockSession) positionLocked() float64 {
	pos := c.anchorPos
	if c.playing {
		pos += c.now().Sub(c.anchorTime).Seconds() * c.rate
	}

	if c.duration > 0 {
		pos = min(pos, c.duration)
	}

	return pos
}

// advance report current position and whether media just ended.
func (c *ClockSession) advance() (float64, bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.playing {
		return 0, false, false
	}

	pos := c.positionLocked()
	if c.duration > 0 && pos >= c.duration {
		c.playing = false
		c.anchorPos = c.duration
		c.anchorTime = c.now()

		return pos, true, true
	}

	return pos, true, false
}

func (c *ClockSession) loop() {
	defer close(c.done)

	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			pos, playing, ended := c.advance()
			if !playing {
				continue
			}

			c.sink.TimeUpdate(pos)

			if ended {
				c.sink.Paused()
				c.sink.Ended()
			}
		}
	}
}
