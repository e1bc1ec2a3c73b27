package model

//
// subscriptions.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/kabes/go-relay/internal/aerr"
	"gitlab.com/kabes/go-relay/internal/validators"
)

// PodcastSettings override default preferences for one podcast.
type PodcastSettings struct {
	PlaybackSpeed       float64 `json:"playback_speed"`
	SkipForwardSeconds  int     `json:"skip_forward_seconds"`
	SkipBackwardSeconds int     `json:"skip_backward_seconds"`
}

type Subscription struct {
	PodcastID    string          `json:"podcast_id"`
	Title        string          `json:"title"`
	Author       string          `json:"author"`
	Artwork      string          `json:"artwork"`
	FeedURL      string          `json:"feedUrl"`
	SubscribedAt time.Time       `json:"subscribed_at"`
	Settings     PodcastSettings `json:"settings"`
}

// NewSubscriptionFromPodcast create subscription for podcast metadata with
// settings copied from current preferences.
func NewSubscriptionFromPodcast(podcast *Podcast, prefs Preferences, now time.Time) Subscription {
	return Subscription{
		PodcastID:    strconv.FormatInt(podcast.ID, 10),
		Title:        podcast.Title,
		Author:       podcast.Author,
		Artwork:      podcast.Artwork,
		FeedURL:      podcast.URL,
		SubscribedAt: now.UTC(),
		Settings: PodcastSettings{
			PlaybackSpeed:       prefs.DefaultPlaybackSpeed,
			SkipForwardSeconds:  prefs.DefaultSkipForward,
			SkipBackwardSeconds: prefs.DefaultSkipBackward,
		},
	}
}

func (s *Subscription) Validate() error {
	if !validators.IsValidPodcastID(s.PodcastID) {
		return aerr.ErrValidation.WithUserMsg("invalid podcast id %q", s.PodcastID)
	}

	if s.FeedURL != "" && !validators.IsValidURL(s.FeedURL) {
		return aerr.ErrValidation.WithUserMsg("invalid feed url")
	}

	return nil
}

func (s *Subscription) MarshalZerologObject(event *zerolog.Event) {
	event.Str("podcast_id", s.PodcastID).
		Str("title", s.Title).
		Str("feed_url", s.FeedURL).
		Time("subscribed_at", s.SubscribedAt)
}
