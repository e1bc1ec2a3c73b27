package server

//
// player.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"
	"gitlab.com/kabes/go-relay/internal/aerr"
	"gitlab.com/kabes/go-relay/internal/common"
	"gitlab.com/kabes/go-relay/internal/player"
	srv "gitlab.com/kabes/go-relay/internal/server/srvsupport"
	"gitlab.com/kabes/go-relay/internal/syncstore"
	"gitlab.com/kabes/go-relay/internal/validators"
)

// Player is playback engine controlled by server.
type Player interface {
	Snapshot() player.State
	Subscribe(buf int) (<-chan player.Event, func())
	LoadEpisode(ctx context.Context, episodeID, podcastID string)
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	TogglePlay(ctx context.Context) error
	Seek(position float64)
	SeekRelative(delta float64)
	SetPlaybackRate(rate float64) error
}

// ActionTrigger run registered media action.
type ActionTrigger interface {
	Trigger(action player.Action) bool
}

// SyncStatus provide state of sync store.
type SyncStatus interface {
	Status() syncstore.Status
}

type playerResource struct {
	player   Player
	controls ActionTrigger
	sync     SyncStatus
}

func (p *playerResource) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", srv.WrapNamed(p.state, "player_state"))
	r.Post("/play", srv.WrapNamed(p.play, "player_play"))
	r.Post("/pause", srv.WrapNamed(p.pause, "player_pause"))
	r.Post("/toggle", srv.WrapNamed(p.toggle, "player_toggle"))
	r.Post("/seek", srv.WrapNamed(p.seek, "player_seek"))
	r.Post("/skip", srv.WrapNamed(p.skip, "player_skip"))
	r.Post("/rate", srv.WrapNamed(p.rate, "player_rate"))
	r.Post("/load", srv.WrapNamed(p.load, "player_load"))
	r.Post("/action/{action}", srv.WrapNamed(p.action, "player_action"))

	return r
}

func (p *playerResource) state(_ context.Context, w http.ResponseWriter, r *http.Request, _ *zerolog.Logger) {
	state := p.player.Snapshot()
	srv.RenderJSON(w, r, &state)
}

func (p *playerResource) play(ctx context.Context, w http.ResponseWriter, r *http.Request, logger *zerolog.Logger) {
	p.runCommand(ctx, w, r, logger, p.player.Play)
}

func (p *playerResource) pause(ctx context.Context, w http.ResponseWriter, r *http.Request, logger *zerolog.Logger) {
	p.runCommand(ctx, w, r, logger, p.player.Pause)
}

func (p *playerResource) toggle(ctx context.Context, w http.ResponseWriter, r *http.Request, logger *zerolog.Logger) {
	p.runCommand(ctx, w, r, logger, p.player.TogglePlay)
}

func (p *playerResource) runCommand(ctx context.Context, w http.ResponseWriter, r *http.Request,
	logger *zerolog.Logger, cmd func(context.Context) error,
) {
	// command must finish even when client disconnect
	if err := cmd(context.WithoutCancel(ctx)); err != nil {
		logger.Warn().Err(err).Msg("player command failed")
		srv.CheckAndWriteError(w, r, err)

		return
	}

	p.state(ctx, w, r, logger)
}

func (p *playerResource) seek(ctx context.Context, w http.ResponseWriter, r *http.Request, logger *zerolog.Logger) {
	position, err := srv.QueryFloat(r, "t")
	if err != nil {
		srv.CheckAndWriteError(w, r, err)

		return
	}

	p.player.Seek(position)
	p.state(ctx, w, r, logger)
}

func (p *playerResource) skip(ctx context.Context, w http.ResponseWriter, r *http.Request, logger *zerolog.Logger) {
	delta, err := srv.QueryFloat(r, "delta")
	if err != nil {
		srv.CheckAndWriteError(w, r, err)

		return
	}

	p.player.SeekRelative(delta)
	p.state(ctx, w, r, logger)
}

func (p *playerResource) rate(ctx context.Context, w http.ResponseWriter, r *http.Request, logger *zerolog.Logger) {
	rate, err := srv.QueryFloat(r, "value")
	if err != nil {
		srv.CheckAndWriteError(w, r, err)

		return
	}

	if err := p.player.SetPlaybackRate(rate); err != nil {
		srv.CheckAndWriteError(w, r, err)

		return
	}

	p.state(ctx, w, r, logger)
}

func (p *playerResource) load(ctx context.Context, w http.ResponseWriter, r *http.Request, logger *zerolog.Logger) {
	query := r.URL.Query()
	episodeID := query.Get("episode")
	podcastID := query.Get("podcast")

	if !validators.IsValidEpisodeID(episodeID) {
		srv.CheckAndWriteError(w, r, common.ErrInvalidEpisode)

		return
	}

	if !validators.IsValidPodcastID(podcastID) {
		srv.CheckAndWriteError(w, r, common.ErrInvalidPodcast)

		return
	}

	events, cancel := p.player.Subscribe(64) //nolint:mnd
	defer cancel()

	p.player.LoadEpisode(context.WithoutCancel(ctx), episodeID, podcastID)

	// LoadEpisode publish result before return
	for {
		select {
		case ev := <-events:
			switch ev.Kind { //nolint:exhaustive
			case player.EventLoadFailed:
				logger.Warn().Err(ev.Err).Msg("load episode failed")
				srv.CheckAndWriteError(w, r, ev.Err)

				return
			case player.EventLoaded:
				p.state(ctx, w, r, logger)

				return
			}
		default:
			p.state(ctx, w, r, logger)

			return
		}
	}
}

func (p *playerResource) action(ctx context.Context, w http.ResponseWriter, r *http.Request, logger *zerolog.Logger) {
	name := chi.URLParam(r, "action")

	action, ok := player.ParseAction(name)
	if !ok {
		srv.CheckAndWriteError(w, r, aerr.ErrValidation.WithUserMsg("unknown action %q", name))

		return
	}

	if !p.controls.Trigger(action) {
		srv.WriteError(w, r, http.StatusConflict, "no episode loaded")

		return
	}

	p.state(ctx, w, r, logger)
}

//-------------------------------------------------------------

type syncStatusResponse struct {
	State         string `json:"state"`
	Initialized   bool   `json:"initialized"`
	Syncing       bool   `json:"syncing"`
	LastSyncError string `json:"last_sync_error,omitempty"`
}

func (p *playerResource) syncStatus(w http.ResponseWriter, r *http.Request) {
	status := p.sync.Status()

	res := syncStatusResponse{
		State:       status.State.String(),
		Initialized: status.Initialized,
		Syncing:     status.Syncing,
	}

	if status.LastSyncError != nil {
		res.LastSyncError = aerr.GetUserMessageOr(status.LastSyncError, status.LastSyncError.Error())
	}

	render.Status(r, http.StatusOK)
	srv.RenderJSON(w, r, &res)
}
