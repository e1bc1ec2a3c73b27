package model

//
// preferences.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"github.com/rs/zerolog"
	"gitlab.com/kabes/go-relay/internal/aerr"
)

type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

func (t Theme) Valid() bool {
	return t == ThemeSystem || t == ThemeLight || t == ThemeDark
}

type Preferences struct {
	DefaultPlaybackSpeed float64 `json:"default_playback_speed"`
	DefaultSkipForward   int     `json:"default_skip_forward"`
	DefaultSkipBackward  int     `json:"default_skip_backward"`
	Theme                Theme   `json:"theme"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		DefaultPlaybackSpeed: 1.0,  //nolint:mnd
		DefaultSkipForward:   30,   //nolint:mnd
		DefaultSkipBackward:  15,   //nolint:mnd
		Theme:                ThemeSystem,
	}
}

// Merge return copy of preferences with fields set in patch replaced.
func (p Preferences) Merge(patch PreferencesPatch) Preferences {
	if patch.DefaultPlaybackSpeed != nil {
		p.DefaultPlaybackSpeed = *patch.DefaultPlaybackSpeed
	}

	if patch.DefaultSkipForward != nil {
		p.DefaultSkipForward = *patch.DefaultSkipForward
	}

	if patch.DefaultSkipBackward != nil {
		p.DefaultSkipBackward = *patch.DefaultSkipBackward
	}

	if patch.Theme != nil {
		p.Theme = *patch.Theme
	}

	return p
}

func (p Preferences) MarshalZerologObject(event *zerolog.Event) {
	event.Float64("speed", p.DefaultPlaybackSpeed).
		Int("skip_forward", p.DefaultSkipForward).
		Int("skip_backward", p.DefaultSkipBackward).
		Str("theme", string(p.Theme))
}

//------------------------------------------------------------------------------

// PreferencesPatch contains optional values to update in Preferences; nil fields are left unchanged.
type PreferencesPatch struct {
	DefaultPlaybackSpeed *float64
	DefaultSkipForward   *int
	DefaultSkipBackward  *int
	Theme                *Theme
}

func (p *PreferencesPatch) Empty() bool {
	return p.DefaultPlaybackSpeed == nil && p.DefaultSkipForward == nil &&
		p.DefaultSkipBackward == nil && p.Theme == nil
}

func (p *PreferencesPatch) Validate() error {
	if p.DefaultPlaybackSpeed != nil && (*p.DefaultPlaybackSpeed <= 0 || *p.DefaultPlaybackSpeed > 4) {
		return aerr.ErrValidation.WithUserMsg("playback speed must be in range (0, 4]")
	}

	if p.DefaultSkipForward != nil && *p.DefaultSkipForward < 0 {
		return aerr.ErrValidation.WithUserMsg("skip forward can't be negative")
	}

	if p.DefaultSkipBackward != nil && *p.DefaultSkipBackward < 0 {
		return aerr.ErrValidation.WithUserMsg("skip backward can't be negative")
	}

	if p.Theme != nil && !p.Theme.Valid() {
		return aerr.ErrValidation.WithUserMsg("invalid theme %q", *p.Theme)
	}

	return nil
}

func (p *PreferencesPatch) MarshalZerologObject(event *zerolog.Event) {
	if p.DefaultPlaybackSpeed != nil {
		event.Float64("speed", *p.DefaultPlaybackSpeed)
	}

	if p.DefaultSkipForward != nil {
		event.Int("skip_forward", *p.DefaultSkipForward)
	}

	if p.DefaultSkipBackward != nil {
		event.Int("skip_backward", *p.DefaultSkipBackward)
	}

	if p.Theme != nil {
		event.Str("theme", string(*p.Theme))
	}
}
