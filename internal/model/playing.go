package model

//
// playing.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"encoding/json"
	"fmt"
)

// CurrentlyPlaying hold episode and podcast ids; both are set or both are empty.
// Empty values are serialized as null.
type CurrentlyPlaying struct {
	episodeID string
	podcastID string
}

// NewCurrentlyPlaying create CurrentlyPlaying; when any of ids is empty - both are cleared.
func NewCurrentlyPlaying(episodeID, podcastID string) CurrentlyPlaying {
	if episodeID == "" || podcastID == "" {
		return CurrentlyPlaying{}
	}

	return CurrentlyPlaying{episodeID: episodeID, podcastID: podcastID}
}

func (c CurrentlyPlaying) EpisodeID() string {
	return c.episodeID
}

func (c CurrentlyPlaying) PodcastID() string {
	return c.podcastID
}

func (c CurrentlyPlaying) IsSet() bool {
	return c.episodeID != ""
}

func (c CurrentlyPlaying) String() string {
	if !c.IsSet() {
		return "<none>"
	}

	return fmt.Sprintf("episode=%s podcast=%s", c.episodeID, c.podcastID)
}

type currentlyPlayingJSON struct {
	EpisodeID *string `json:"episode_id"`
	PodcastID *string `json:"podcast_id"`
}

func (c CurrentlyPlaying) MarshalJSON() ([]byte, error) {
	var val currentlyPlayingJSON

	if c.IsSet() {
		val.EpisodeID = &c.episodeID
		val.PodcastID = &c.podcastID
	}

	return json.Marshal(val) //nolint:wrapcheck
}

func (c *CurrentlyPlaying) UnmarshalJSON(data []byte) error {
	var val currentlyPlayingJSON
	if err := json.Unmarshal(data, &val); err != nil {
		return err //nolint:wrapcheck
	}

	var episode, podcast string
	if val.EpisodeID != nil {
		episode = *val.EpisodeID
	}

	if val.PodcastID != nil {
		podcast = *val.PodcastID
	}

	*c = NewCurrentlyPlaying(episode, podcast)

	return nil
}
