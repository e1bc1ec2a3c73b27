package model

//
// mod_test.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"encoding/json"
	"testing"
	"time"

	"gitlab.com/kabes/go-relay/internal/assert"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		position float64
		duration float64
		want     ProgressStatus
	}{
		{95, 100, StatusCompleted},
		{70, 100, StatusCompleted},
		{50, 100, StatusInProgress},
		{10.5, 100, StatusInProgress},
		{10, 100, StatusNew},
		{5, 100, StatusNew},
		{0, 0, StatusCompleted},
		{5, 20, StatusCompleted},
	}

	for _, tc := range tests {
		assert.Equal(t, DeriveStatus(tc.position, tc.duration), tc.want)
	}
}

func TestDefaultDocument(t *testing.T) {
	doc := DefaultDocument()

	assert.Len(t, doc.Subscriptions, 0)
	assert.Len(t, doc.Queue, 0)
	assert.Len(t, doc.EpisodeProgress, 0)
	assert.False(t, doc.CurrentlyPlaying.IsSet())
	assert.Equal(t, doc.Preferences, Preferences{
		DefaultPlaybackSpeed: 1.0,
		DefaultSkipForward:   30,
		DefaultSkipBackward:  15,
		Theme:                ThemeSystem,
	})
}

func TestDocumentJSON(t *testing.T) {
	doc := DefaultDocument()
	data, err := json.Marshal(doc)
	assert.NoErr(t, err)
	assert.Equal(t, string(data),
		`{"subscriptions":[],"episode_progress":{},"queue":[],`+
			`"currently_playing":{"episode_id":null,"podcast_id":null},`+
			`"preferences":{"default_playback_speed":1,"default_skip_forward":30,`+
			`"default_skip_backward":15,"theme":"system"}}`)

	var decoded UserDocument
	assert.NoErr(t, json.Unmarshal([]byte(`{"queue":["1"],"currently_playing":{"episode_id":"5","podcast_id":"7"}}`),
		&decoded))

	decoded = decoded.Normalized()
	assert.Equal(t, decoded.Queue, []string{"1"})
	assert.Equal(t, decoded.CurrentlyPlaying.EpisodeID(), "5")
	assert.Equal(t, decoded.CurrentlyPlaying.PodcastID(), "7")
	assert.Len(t, decoded.Subscriptions, 0)
	assert.True(t, decoded.EpisodeProgress != nil)
}

func TestCurrentlyPlayingBothOrNone(t *testing.T) {
	assert.False(t, NewCurrentlyPlaying("1", "").IsSet())
	assert.False(t, NewCurrentlyPlaying("", "2").IsSet())
	assert.Equal(t, NewCurrentlyPlaying("1", "").PodcastID(), "")

	var cp CurrentlyPlaying
	assert.NoErr(t, json.Unmarshal([]byte(`{"episode_id":"1","podcast_id":null}`), &cp))
	assert.False(t, cp.IsSet())
	assert.Equal(t, cp.EpisodeID(), "")
}

func TestSubscriptionsCopyOnWrite(t *testing.T) {
	doc := DefaultDocument()
	sub := Subscription{PodcastID: "10", Title: "first"}

	doc1, changed := doc.WithSubscription(sub)
	assert.True(t, changed)
	assert.Len(t, doc1.Subscriptions, 1)
	assert.Len(t, doc.Subscriptions, 0)

	doc2, changed := doc1.WithSubscription(Subscription{PodcastID: "10", Title: "other"})
	assert.False(t, changed)
	assert.Equal(t, doc2.Subscriptions, []Subscription{sub})

	doc3, changed := doc2.WithoutSubscription("99")
	assert.False(t, changed)
	assert.Len(t, doc3.Subscriptions, 1)

	doc4, changed := doc3.WithoutSubscription("10")
	assert.True(t, changed)
	assert.Len(t, doc4.Subscriptions, 0)
	assert.Len(t, doc3.Subscriptions, 1)
}

func TestQueue(t *testing.T) {
	doc := DefaultDocument()

	doc, changed := doc.WithQueued("a")
	assert.True(t, changed)

	doc, changed = doc.WithQueued("a")
	assert.False(t, changed)
	assert.Equal(t, doc.Queue, []string{"a"})

	doc, _ = doc.WithQueued("b")
	head, ok := doc.QueueHead()
	assert.True(t, ok)
	assert.Equal(t, head, "a")

	prev := doc
	doc, changed = doc.WithoutQueued("a")
	assert.True(t, changed)
	assert.Equal(t, doc.Queue, []string{"b"})
	assert.Equal(t, prev.Queue, []string{"a", "b"})

	doc = doc.WithQueue(nil)
	assert.Equal(t, doc.Queue, []string{})

	_, ok = doc.QueueHead()
	assert.False(t, ok)
}

func TestEpisodeProgressReplace(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	doc := DefaultDocument()

	doc1 := doc.WithEpisodeProgress("e1", NewEpisodeProgress(50, 100, now))
	doc2 := doc1.WithEpisodeProgress("e1", NewCompletedProgress(100, now))

	p, ok := doc1.Progress("e1")
	assert.True(t, ok)
	assert.Equal(t, p.Status, StatusInProgress)

	p, ok = doc2.Progress("e1")
	assert.True(t, ok)
	assert.True(t, p.Completed())
	assert.Equal(t, p.PositionSeconds, 100.0)

	_, ok = doc.Progress("e1")
	assert.False(t, ok)
}

func TestPreferencesMerge(t *testing.T) {
	speed := 1.5
	theme := ThemeDark

	prefs := DefaultPreferences().Merge(PreferencesPatch{DefaultPlaybackSpeed: &speed, Theme: &theme})
	assert.Equal(t, prefs.DefaultPlaybackSpeed, 1.5)
	assert.Equal(t, prefs.Theme, ThemeDark)
	assert.Equal(t, prefs.DefaultSkipForward, 30)
	assert.Equal(t, prefs.DefaultSkipBackward, 15)
}

func TestPreferencesPatchValidate(t *testing.T) {
	zero := 0.0
	neg := -1
	badTheme := Theme("blue")

	assert.Err(t, (&PreferencesPatch{DefaultPlaybackSpeed: &zero}).Validate())
	assert.Err(t, (&PreferencesPatch{DefaultSkipForward: &neg}).Validate())
	assert.Err(t, (&PreferencesPatch{Theme: &badTheme}).Validate())
	assert.NoErr(t, (&PreferencesPatch{}).Validate())
	assert.True(t, (&PreferencesPatch{}).Empty())
}

func TestNewSubscriptionFromPodcast(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	podcast := Podcast{ID: 920666, Title: "Show", URL: "https://example.com/rss"}

	sub := NewSubscriptionFromPodcast(&podcast, DefaultPreferences(), now)
	assert.Equal(t, sub.PodcastID, "920666")
	assert.Equal(t, sub.FeedURL, "https://example.com/rss")
	assert.Equal(t, sub.Settings.SkipForwardSeconds, 30)
	assert.Equal(t, sub.SubscribedAt, now)
	assert.NoErr(t, sub.Validate())

	sub.PodcastID = "abc"
	assert.Err(t, sub.Validate())
}
