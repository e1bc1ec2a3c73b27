package relayapi

//
// metadata.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"gitlab.com/kabes/go-relay/internal/common"
	"gitlab.com/kabes/go-relay/internal/model"
)

const (
	// DefaultEpisodesLimit is default number of episodes loaded for podcast.
	DefaultEpisodesLimit = 50
	// MaxEpisodesLimit is maximal number of episodes accepted by server.
	MaxEpisodesLimit = 100
)

// SearchPodcasts find podcasts by term.
func (c *Client) SearchPodcasts(ctx context.Context, query string) (*model.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, common.ErrEmptyQuery
	}

	var res model.SearchResult

	err := c.do(ctx, &request{
		method:   http.MethodGet,
		path:     "/api/podcasts/search",
		query:    url.Values{"q": []string{query}},
		response: &res,
	})
	if err != nil {
		return nil, err
	}

	return &res, nil
}

// GetPodcast load podcast metadata.
func (c *Client) GetPodcast(ctx context.Context, podcastID int64) (*model.Podcast, error) {
	var res struct {
		Feed model.Podcast `json:"feed"`
	}

	err := c.do(ctx, &request{
		method:   http.MethodGet,
		path:     "/api/podcasts/" + strconv.FormatInt(podcastID, 10),
		response: &res,
	})
	if err != nil {
		return nil, err
	}

	return &res.Feed, nil
}

// GetEpisodes load last `limit` podcast episodes.
func (c *Client) GetEpisodes(ctx context.Context, podcastID int64, limit int) (*model.EpisodesResult, error) {
	if limit <= 0 {
		limit = DefaultEpisodesLimit
	}

	limit = min(limit, MaxEpisodesLimit)

	var res model.EpisodesResult

	err := c.do(ctx, &request{
		method:   http.MethodGet,
		path:     "/api/podcasts/" + strconv.FormatInt(podcastID, 10) + "/episodes",
		query:    url.Values{"max": []string{strconv.Itoa(limit)}},
		response: &res,
	})
	if err != nil {
		return nil, err
	}

	return &res, nil
}

// GetEpisode load episode metadata.
func (c *Client) GetEpisode(ctx context.Context, episodeID int64) (*model.Episode, error) {
	var res struct {
		Episode model.Episode `json:"episode"`
	}

	err := c.do(ctx, &request{
		method:   http.MethodGet,
		path:     "/api/episodes/" + strconv.FormatInt(episodeID, 10),
		response: &res,
	})
	if err != nil {
		return nil, err
	}

	return &res.Episode, nil
}

// ProxyAudioURL return url of audio proxied by relay server for origin enclosure url.
func (c *Client) ProxyAudioURL(enclosure string) string {
	return c.baseURL + "/api/proxy/audio?url=" + url.QueryEscape(enclosure)
}

// ProxyImageURL return url of image proxied by relay server. Empty when image is empty.
func (c *Client) ProxyImageURL(image string) string {
	if image == "" {
		return ""
	}

	return c.baseURL + "/api/proxy/image?url=" + url.QueryEscape(image)
}
