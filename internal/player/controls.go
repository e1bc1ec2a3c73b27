package player

//
// controls.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"sync"

	"github.com/rs/zerolog"
)

type Action string

const (
	ActionPlay          Action = "play"
	ActionPause         Action = "pause"
	ActionSeekBackward  Action = "seekbackward"
	ActionSeekForward   Action = "seekforward"
	ActionPreviousTrack Action = "previoustrack"
	ActionNextTrack     Action = "nexttrack"
)

// Actions list all supported media actions.
var Actions = []Action{ //nolint:gochecknoglobals
	ActionPlay, ActionPause, ActionSeekBackward, ActionSeekForward, ActionPreviousTrack, ActionNextTrack,
}

func ParseAction(name string) (Action, bool) {
	for _, a := range Actions {
		if string(a) == name {
			return a, true
		}
	}

	return "", false
}

type Artwork struct {
	Src   string `json:"src"`
	Sizes string `json:"sizes"`
	Type  string `json:"type"`
}

// MediaMetadata describe currently loaded episode for system media controls.
type MediaMetadata struct {
	Title   string    `json:"title"`
	Artist  string    `json:"artist"`
	Album   string    `json:"album"`
	Artwork []Artwork `json:"artwork"`
}

// MediaControls is system-level media integration.
type MediaControls interface {
	SetMetadata(meta MediaMetadata)
	SetPlaybackState(playing bool)
	SetActionHandler(action Action, handler func())
}

//------------------------------------------------------------------------------

// LogControls is MediaControls that log published data and keep action
// handlers so they can be triggered by other frontends.
type LogControls struct {
	logger zerolog.Logger

	mu       sync.Mutex
	meta     MediaMetadata
	playing  bool
	handlers map[Action]func()
}

func NewLogControls(logger zerolog.Logger) *LogControls {
	return &LogControls{
		logger:   logger,
		handlers: make(map[Action]func()),
	}
}

func (l *LogControls) SetMetadata(meta MediaMetadata) {
	l.mu.Lock()
	l.meta = meta
	l.mu.Unlock()

	l.logger.Info().Str("title", meta.Title).Str("artist", meta.Artist).Msg("player: now playing")
}

func (l *LogControls) SetPlaybackState(playing bool) {
	l.mu.Lock()
	changed := l.playing != playing
	l.playing = playing
	l.mu.Unlock()

	if changed {
		l.logger.Debug().Bool("playing", playing).Msg("player: playback state")
	}
}

func (l *LogControls) SetActionHandler(action Action, handler func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.handlers[action] = handler
}

// Trigger run handler registered for action. Return false when there is no handler.
func (l *LogControls) Trigger(action Action) bool {
	l.mu.Lock()
	handler, ok := l.handlers[action]
	l.mu.Unlock()

	if !ok || handler == nil {
		return false
	}

	l.logger.Debug().Str("action", string(action)).Msg("player: media action")
	handler()

	return true
}

// Metadata return last published metadata.
func (l *LogControls) Metadata() MediaMetadata {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.meta
}

func (l *LogControls) Playing() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.playing
}
