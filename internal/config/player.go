package config

//
// player.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/kabes/go-relay/internal/aerr"
)

const (
	DefaultSnapshotPeriod = 10 * time.Second
	MaxPlaybackRate       = 4.0
)

// PlayerConf configure playback engine.
type PlayerConf struct {
	// Rate is initial playback rate; 0 mean "use rate from preferences".
	Rate           float64
	SnapshotPeriod time.Duration
}

func (p *PlayerConf) Validate() error {
	if p.Rate < 0 || p.Rate > MaxPlaybackRate {
		return aerr.ErrValidation.WithUserMsg("playback rate must be in range (0, %0.1f]", MaxPlaybackRate)
	}

	if p.SnapshotPeriod < 0 {
		return aerr.ErrValidation.WithUserMsg("snapshot period can't be negative")
	}

	if p.SnapshotPeriod == 0 {
		p.SnapshotPeriod = DefaultSnapshotPeriod
	}

	return nil
}

func (p *PlayerConf) MarshalZerologObject(event *zerolog.Event) {
	event.Float64("rate", p.Rate).
		Dur("snapshot_period", p.SnapshotPeriod)
}
