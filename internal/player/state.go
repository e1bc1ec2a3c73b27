package player

//
// state.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"github.com/rs/zerolog"
	"gitlab.com/kabes/go-relay/internal/model"
)

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusPlaying
	StatusPaused
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	}

	return "unknown"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// State is read model of the engine.
type State struct {
	Status     Status         `json:"status"`
	Playing    bool           `json:"playing"`
	Loading    bool           `json:"loading"`
	Position   float64        `json:"position"`
	Duration   float64        `json:"duration"`
	Rate       float64        `json:"rate"`
	FullPlayer bool           `json:"full_player"`
	Episode    *model.Episode `json:"episode,omitempty"`
	Podcast    *model.Podcast `json:"podcast,omitempty"`
}

func (s *State) HasEpisode() bool {
	return s.Episode != nil
}

func (s *State) MarshalZerologObject(event *zerolog.Event) {
	event.Stringer("status", s.Status).
		Bool("playing", s.Playing).
		Float64("position", s.Position).
		Float64("duration", s.Duration).
		Float64("rate", s.Rate)

	if s.Episode != nil {
		event.Object("episode", s.Episode)
	}
}

//------------------------------------------------------------------------------

type EventKind int

const (
	// EventStateChanged is sent on any change of engine state.
	EventStateChanged EventKind = iota
	// EventLoaded is sent when episode is loaded and started.
	EventLoaded
	// EventLoadFailed is sent when episode can't be loaded; Err is set.
	EventLoadFailed
	// EventEnded is sent when media reached end.
	EventEnded
	// EventProgressSaved is sent after progress snapshot.
	EventProgressSaved
)

func (e EventKind) String() string {
	switch e {
	case EventStateChanged:
		return "state_changed"
	case EventLoaded:
		return "loaded"
	case EventLoadFailed:
		return "load_failed"
	case EventEnded:
		return "ended"
	case EventProgressSaved:
		return "progress_saved"
	}

	return "unknown"
}

type Event struct {
	Kind  EventKind
	State State
	Err   error
}
