package model

//
// progress.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"time"

	"github.com/rs/zerolog"
)

type ProgressStatus string

const (
	StatusNew        ProgressStatus = "new"
	StatusInProgress ProgressStatus = "in_progress"
	StatusCompleted  ProgressStatus = "completed"
)

const (
	// CompletedMargin is distance from the end of episode (in seconds) where
	// episode is considered as completed.
	CompletedMargin = 30.0
	// StartedThreshold is position (in seconds) after which episode is in progress.
	StartedThreshold = 10.0
)

type EpisodeProgress struct {
	PositionSeconds float64        `json:"position_seconds"`
	DurationSeconds float64        `json:"duration_seconds"`
	Status          ProgressStatus `json:"status"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// DeriveStatus compute episode status for position within duration.
func DeriveStatus(position, duration float64) ProgressStatus {
	switch {
	case position >= duration-CompletedMargin:
		return StatusCompleted
	case position > StartedThreshold:
		return StatusInProgress
	default:
		return StatusNew
	}
}

// NewEpisodeProgress create progress snapshot with status derived from position.
func NewEpisodeProgress(position, duration float64, now time.Time) EpisodeProgress {
	return EpisodeProgress{
		PositionSeconds: position,
		DurationSeconds: duration,
		Status:          DeriveStatus(position, duration),
		UpdatedAt:       now.UTC(),
	}
}

// NewCompletedProgress create progress for episode played to the end.
func NewCompletedProgress(duration float64, now time.Time) EpisodeProgress {
	return EpisodeProgress{
		PositionSeconds: duration,
		DurationSeconds: duration,
		Status:          StatusCompleted,
		UpdatedAt:       now.UTC(),
	}
}

func (e EpisodeProgress) Completed() bool {
	return e.Status == StatusCompleted
}

func (e EpisodeProgress) MarshalZerologObject(event *zerolog.Event) {
	event.Float64("position", e.PositionSeconds).
		Float64("duration", e.DurationSeconds).
		Str("status", string(e.Status)).
		Time("updated_at", e.UpdatedAt)
}
