package player

//
// timer.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// snapshotTimer run one periodic task at a time. Starting new task stop and
// wait for the previous one.
type snapshotTimer struct {
	period time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	active atomic.Int32
}

func newSnapshotTimer(period time.Duration) *snapshotTimer {
	return &snapshotTimer{period: period}
}

func (s *snapshotTimer) start(ctx context.Context, task func(context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.cancel = cancel
	s.done = done

	s.active.Add(1)

	go func() {
		defer close(done)
		defer s.active.Add(-1)

		ticker := time.NewTicker(s.period)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				task(ctx)
			}
		}
	}()
}

func (s *snapshotTimer) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
}

func (s *snapshotTimer) stopLocked() {
	if s.cancel == nil {
		return
	}

	s.cancel()
	<-s.done

	s.cancel = nil
	s.done = nil
}

func (s *snapshotTimer) running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cancel != nil
}

// goroutines return number of timer goroutines still alive.
func (s *snapshotTimer) goroutines() int {
	return int(s.active.Load())
}
