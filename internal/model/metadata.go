package model

//
// metadata.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Podcast is podcast (feed) metadata returned by metadata api.
type Podcast struct {
	ID           int64             `json:"id"`
	Title        string            `json:"title"`
	Author       string            `json:"author"`
	Description  string            `json:"description"`
	Artwork      string            `json:"artwork"`
	URL          string            `json:"url"`
	EpisodeCount int               `json:"episodeCount"`
	Categories   map[string]string `json:"categories"`
}

func (p *Podcast) IDString() string {
	return strconv.FormatInt(p.ID, 10)
}

func (p *Podcast) MarshalZerologObject(event *zerolog.Event) {
	event.Int64("id", p.ID).
		Str("title", p.Title).
		Str("url", p.URL)
}

// Episode is episode metadata returned by metadata api.
type Episode struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	DatePublished int64   `json:"datePublished"`
	Duration      float64 `json:"duration"`
	EnclosureURL  string  `json:"enclosureUrl"`
	EnclosureType string  `json:"enclosureType"`
	FeedID        int64   `json:"feedId"`
	FeedTitle     string  `json:"feedTitle"`
	FeedImage     string  `json:"feedImage"`
	Image         string  `json:"image"`
}

func (e *Episode) IDString() string {
	return strconv.FormatInt(e.ID, 10)
}

func (e *Episode) Published() time.Time {
	if e.DatePublished == 0 {
		return time.Time{}
	}

	return time.Unix(e.DatePublished, 0).UTC()
}

func (e *Episode) MarshalZerologObject(event *zerolog.Event) {
	event.Int64("id", e.ID).
		Str("title", e.Title).
		Int64("feed_id", e.FeedID).
		Float64("duration", e.Duration)
}

// SearchResult is result of podcast search.
type SearchResult struct {
	Feeds []Podcast `json:"feeds"`
	Count int       `json:"count"`
}

// EpisodesResult is list of podcast episodes.
type EpisodesResult struct {
	Items []Episode `json:"items"`
	Count int       `json:"count"`
}
