// Package model provide the synchronized user document and objects used between
// sync store, playback engine and remote api client.
package model

//
// mod.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"maps"
	"slices"
)

// UserDocument is the single synchronized unit. Stored remotely as encrypted blob.
// Values are never modified in place; all With* methods return new document
// sharing unchanged fields with the source.
type UserDocument struct {
	Subscriptions    []Subscription             `json:"subscriptions"`
	EpisodeProgress  map[string]EpisodeProgress `json:"episode_progress"`
	Queue            []string                   `json:"queue"`
	CurrentlyPlaying CurrentlyPlaying           `json:"currently_playing"`
	Preferences      Preferences                `json:"preferences"`
}

// DefaultDocument return empty document used for new accounts and when logged out.
func DefaultDocument() UserDocument {
	return UserDocument{
		Subscriptions:    []Subscription{},
		EpisodeProgress:  map[string]EpisodeProgress{},
		Queue:            []string{},
		CurrentlyPlaying: CurrentlyPlaying{},
		Preferences:      DefaultPreferences(),
	}
}

// Normalized replace nil collections with empty ones.
func (d UserDocument) Normalized() UserDocument {
	if d.Subscriptions == nil {
		d.Subscriptions = []Subscription{}
	}

	if d.EpisodeProgress == nil {
		d.EpisodeProgress = map[string]EpisodeProgress{}
	}

	if d.Queue == nil {
		d.Queue = []string{}
	}

	return d
}

// Clone make deep copy of document.
func (d UserDocument) Clone() UserDocument {
	d.Subscriptions = slices.Clone(d.Subscriptions)
	d.EpisodeProgress = maps.Clone(d.EpisodeProgress)
	d.Queue = slices.Clone(d.Queue)

	return d.Normalized()
}

//------------------------------------------------------------------------------

// Subscription find subscription by podcast id.
func (d UserDocument) Subscription(podcastID string) (Subscription, bool) {
	idx := slices.IndexFunc(d.Subscriptions, func(s Subscription) bool { return s.PodcastID == podcastID })
	if idx < 0 {
		return Subscription{}, false
	}

	return d.Subscriptions[idx], true
}

// WithSubscription append sub to subscriptions. Return false when podcast is already subscribed.
func (d UserDocument) WithSubscription(sub Subscription) (UserDocument, bool) {
	if _, ok := d.Subscription(sub.PodcastID); ok {
		return d, false
	}

	subs := make([]Subscription, 0, len(d.Subscriptions)+1)
	subs = append(subs, d.Subscriptions...)
	d.Subscriptions = append(subs, sub)

	return d, true
}

// WithoutSubscription remove subscription for podcastID. Return false when not found.
func (d UserDocument) WithoutSubscription(podcastID string) (UserDocument, bool) {
	if _, ok := d.Subscription(podcastID); !ok {
		return d, false
	}

	subs := make([]Subscription, 0, len(d.Subscriptions))
	for _, s := range d.Subscriptions {
		if s.PodcastID != podcastID {
			subs = append(subs, s)
		}
	}

	d.Subscriptions = subs

	return d, true
}

//------------------------------------------------------------------------------

// Progress return saved progress for episode.
func (d UserDocument) Progress(episodeID string) (EpisodeProgress, bool) {
	p, ok := d.EpisodeProgress[episodeID]

	return p, ok
}

// WithEpisodeProgress replace or insert progress for episodeID.
func (d UserDocument) WithEpisodeProgress(episodeID string, progress EpisodeProgress) UserDocument {
	eprogress := make(map[string]EpisodeProgress, len(d.EpisodeProgress)+1)
	maps.Copy(eprogress, d.EpisodeProgress)
	eprogress[episodeID] = progress
	d.EpisodeProgress = eprogress

	return d
}

//------------------------------------------------------------------------------

// InQueue check is episode in queue.
func (d UserDocument) InQueue(episodeID string) bool {
	return slices.Contains(d.Queue, episodeID)
}

// QueueHead return first episode in queue.
func (d UserDocument) QueueHead() (string, bool) {
	if len(d.Queue) == 0 {
		return "", false
	}

	return d.Queue[0], true
}

// WithQueued append episode to the end of queue. Return false when episode is already queued.
func (d UserDocument) WithQueued(episodeID string) (UserDocument, bool) {
	if d.InQueue(episodeID) {
		return d, false
	}

	queue := make([]string, 0, len(d.Queue)+1)
	queue = append(queue, d.Queue...)
	d.Queue = append(queue, episodeID)

	return d, true
}

// WithoutQueued remove episode from queue. Return false when episode is not queued.
func (d UserDocument) WithoutQueued(episodeID string) (UserDocument, bool) {
	if !d.InQueue(episodeID) {
		return d, false
	}

	queue := make([]string, 0, len(d.Queue))
	for _, id := range d.Queue {
		if id != episodeID {
			queue = append(queue, id)
		}
	}

	d.Queue = queue

	return d, true
}

// WithQueue replace whole queue with given sequence.
func (d UserDocument) WithQueue(queue []string) UserDocument {
	d.Queue = slices.Clone(queue)
	if d.Queue == nil {
		d.Queue = []string{}
	}

	return d
}

//------------------------------------------------------------------------------

func (d UserDocument) WithCurrentlyPlaying(cp CurrentlyPlaying) UserDocument {
	d.CurrentlyPlaying = cp

	return d
}

func (d UserDocument) WithPreferences(patch PreferencesPatch) UserDocument {
	d.Preferences = d.Preferences.Merge(patch)

	return d
}
