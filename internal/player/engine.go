// Package player implement playback engine: load episode, drive audio
// session and save playback progress to the sync store.
package player

//
// engine.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gitlab.com/kabes/go-relay/internal/aerr"
	"gitlab.com/kabes/go-relay/internal/common"
	"gitlab.com/kabes/go-relay/internal/model"
	"gitlab.com/kabes/go-relay/internal/notify"
	"gitlab.com/kabes/go-relay/internal/validators"
	"golang.org/x/sync/errgroup"
)

var ErrLoadEpisodeFailed = aerr.New("load episode failed").WithTag(aerr.DataError).
	WithUserMsg("can't load episode")

const (
	// SeekBackwardStep and SeekForwardStep are used by media actions.
	SeekBackwardStep = -15.0
	SeekForwardStep  = 30.0
)

//nolint:gochecknoglobals
var artworkSizes = []string{"96x96", "128x128", "192x192", "256x256", "384x384", "512x512"}

// Store is part of sync store used by engine.
type Store interface {
	Data() model.UserDocument
	SetCurrentlyPlaying(ctx context.Context, episodeID, podcastID string) error
	UpdateEpisodeProgress(ctx context.Context, episodeID string, progress model.EpisodeProgress) error
	RemoveFromQueue(ctx context.Context, episodeID string) error
}

// Metadata provide episode and podcast information and proxied urls.
type Metadata interface {
	GetEpisode(ctx context.Context, episodeID int64) (*model.Episode, error)
	GetPodcast(ctx context.Context, podcastID int64) (*model.Podcast, error)
	ProxyAudioURL(enclosure string) string
	ProxyImageURL(image string) string
}

type Engine struct {
	store      Store
	meta       Metadata
	newSession SessionFactory
	controls   MediaControls
	hub        *notify.Hub[Event]
	timer      *snapshotTimer
	now        func() time.Time
	// bgctx is used for work started by timer, session events and media actions.
	bgctx context.Context //nolint:containedctx
	// handlers track queue continuation started by session events.
	handlers sync.WaitGroup

	mu         sync.Mutex
	session    Session
	status     Status
	playing    bool
	loading    bool
	fullPlayer bool
	position   float64
	duration   float64
	rate       float64
	episode    *model.Episode
	podcast    *model.Podcast
	loadSeq    uint64
	closed     bool
}

type Option func(*Engine)

// WithSnapshotPeriod set interval of progress snapshots.
func WithSnapshotPeriod(period time.Duration) Option {
	return func(e *Engine) {
		if period > 0 {
			e.timer = newSnapshotTimer(period)
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithRate set initial playback rate.
func WithRate(rate float64) Option {
	return func(e *Engine) {
		if rate > 0 {
			e.rate = rate
		}
	}
}

func WithControls(controls MediaControls) Option {
	return func(e *Engine) {
		e.controls = controls
	}
}

// New create engine. Logger from ctx is used for background work.
func New(ctx context.Context, store Store, meta Metadata, factory SessionFactory, opts ...Option) *Engine {
	engine := &Engine{
		store:      store,
		meta:       meta,
		newSession: factory,
		hub:        notify.NewHub[Event](),
		timer:      newSnapshotTimer(10 * time.Second), //nolint:mnd
		now:        time.Now,
		bgctx:      context.WithoutCancel(ctx),
		rate:       1.0,
	}

	for _, o := range opts {
		o(engine)
	}

	if engine.controls == nil {
		engine.controls = NewLogControls(*log.Ctx(ctx))
	}

	return engine
}

// Subscribe register for engine events.
func (e *Engine) Subscribe(buf int) (<-chan Event, func()) {
	return e.hub.Subscribe(buf)
}

// Snapshot return current engine state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.stateLocked()
}

func (e *Engine) stateLocked() State {
	return State{
		Status:     e.status,
		Playing:    e.playing,
		Loading:    e.loading,
		Position:   e.position,
		Duration:   e.duration,
		Rate:       e.rate,
		FullPlayer: e.fullPlayer,
		Episode:    e.episode,
		Podcast:    e.podcast,
	}
}

func (e *Engine) publish(kind EventKind, err error) {
	state := e.Snapshot()
	e.hub.Publish(Event{Kind: kind, State: state, Err: err})
}

func (e *Engine) currentSession() Session {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.session
}

// Shutdown stop timer and release audio session.
func (e *Engine) Shutdown(_ context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	e.handlers.Wait()
	e.timer.stop()

	e.mu.Lock()
	session := e.session
	e.session = nil
	e.playing = false
	e.status = StatusIdle
	e.mu.Unlock()

	playingGauge.Set(0)

	var err error
	if session != nil {
		err = session.Close()
	}

	e.hub.Close()

	return err //nolint:wrapcheck
}

//------------------------------------------------------------------------------

// LoadEpisode load and start playing episode. Failures are logged and
// reported by EventLoadFailed.
func (e *Engine) LoadEpisode(ctx context.Context, episodeID, podcastID string) {
	logger := log.Ctx(ctx).With().
		Str(common.LogKeyEpisodeID, episodeID).
		Str(common.LogKeyPodcastID, podcastID).
		Logger()
	ctx = logger.WithContext(ctx)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()

		return
	}

	e.loadSeq++
	seq := e.loadSeq
	prevStatus := e.status
	e.loading = true
	e.status = StatusLoading
	e.mu.Unlock()

	e.publish(EventStateChanged, nil)

	err := e.load(ctx, seq, episodeID, podcastID)
	if err == nil {
		return
	}

	err = aerr.ApplyFor(ErrLoadEpisodeFailed, err)

	loadsTotal.WithLabelValues("error").Inc()
	logger.Error().Err(err).Msg("player: load episode failed")

	e.mu.Lock()
	if e.loadSeq == seq {
		e.loading = false
		if e.status == StatusLoading {
			e.status = prevStatus
		}
	}
	e.mu.Unlock()

	e.publish(EventLoadFailed, err)
}

func (e *Engine) load(ctx context.Context, seq uint64, episodeID, podcastID string) error {
	logger := log.Ctx(ctx)

	epID, ok := validators.ParseID(episodeID)
	if !ok {
		return common.ErrInvalidEpisode
	}

	podID, ok := validators.ParseID(podcastID)
	if !ok {
		return common.ErrInvalidPodcast
	}

	var (
		episode *model.Episode
		podcast *model.Podcast
	)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() (err error) {
		episode, err = e.meta.GetEpisode(gctx, epID)

		return err //nolint:wrapcheck
	})
	group.Go(func() (err error) {
		podcast, err = e.meta.GetPodcast(gctx, podID)

		return err //nolint:wrapcheck
	})

	if err := group.Wait(); err != nil {
		return err //nolint:wrapcheck
	}

	e.mu.Lock()
	if e.loadSeq != seq || e.closed {
		e.mu.Unlock()
		logger.Debug().Msg("player: load superseded")

		return nil
	}

	e.episode = episode
	e.podcast = podcast
	e.position = 0
	e.duration = max(episode.Duration, 0)
	rate := e.rate
	duration := e.duration
	e.mu.Unlock()

	if err := e.store.SetCurrentlyPlaying(ctx, episodeID, podcastID); err != nil {
		logger.Warn().Err(err).Msg("player: save currently playing failed")
	}

	session, err := e.ensureSession()
	if err != nil {
		return e.loadFailed(err)
	}

	if err := session.Load(ctx, e.meta.ProxyAudioURL(episode.EnclosureURL)); err != nil {
		return e.loadFailed(err)
	}

	if hinter, ok := session.(durationHinter); ok && duration > 0 {
		hinter.HintDuration(duration)
	}

	session.SetRate(rate)

	if progress, ok := e.store.Data().Progress(episodeID); ok && !progress.Completed() {
		logger.Debug().Float64("position", progress.PositionSeconds).Msg("player: resume from saved position")
		session.Seek(progress.PositionSeconds)

		e.mu.Lock()
		e.position = progress.PositionSeconds
		e.mu.Unlock()
	}

	if err := session.Play(ctx); err != nil {
		return e.loadFailed(err)
	}

	e.mu.Lock()
	e.playing = true
	e.loading = false
	e.status = StatusPlaying
	e.mu.Unlock()

	playingGauge.Set(1)
	loadsTotal.WithLabelValues("success").Inc()
	logger.Info().Str("title", episode.Title).Msg("player: episode loaded")

	e.timer.start(e.bgctx, e.snapshotTick)
	e.publishMediaSession()
	e.publish(EventLoaded, nil)

	return nil
}

// loadFailed mark engine idle after audio session failure.
func (e *Engine) loadFailed(err error) error {
	e.timer.stop()

	e.mu.Lock()
	e.playing = false
	e.status = StatusIdle
	e.mu.Unlock()

	playingGauge.Set(0)

	return err
}

func (e *Engine) ensureSession() (Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil {
		return e.session, nil
	}

	session, err := e.newSession(&sessionSink{e})
	if err != nil {
		return nil, aerr.Wrapf(err, "create audio session failed")
	}

	e.session = session

	return session, nil
}

//------------------------------------------------------------------------------

func (e *Engine) Play(ctx context.Context) error {
	session := e.currentSession()
	if session == nil {
		return nil
	}

	if err := session.Play(ctx); err != nil {
		return aerr.Wrapf(err, "play failed")
	}

	e.setPlaying(true)

	return nil
}

// Pause stop playback and save progress.
func (e *Engine) Pause(ctx context.Context) error {
	session := e.currentSession()
	if session == nil {
		return nil
	}

	if err := session.Pause(); err != nil {
		return aerr.Wrapf(err, "pause failed")
	}

	e.setPlaying(false)

	if err := e.SaveProgress(ctx); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("player: save progress on pause failed")
	}

	return nil
}

func (e *Engine) TogglePlay(ctx context.Context) error {
	e.mu.Lock()
	playing := e.playing
	e.mu.Unlock()

	if playing {
		return e.Pause(ctx)
	}

	return e.Play(ctx)
}

// Seek move to position clamped to [0, duration].
func (e *Engine) Seek(position float64) {
	session := e.currentSession()
	if session == nil {
		return
	}

	e.mu.Lock()
	position = math.Max(0, math.Min(position, e.duration))
	e.position = position
	e.mu.Unlock()

	session.Seek(position)
	e.publish(EventStateChanged, nil)
}

// SeekRelative move by delta seconds from live session position.
func (e *Engine) SeekRelative(delta float64) {
	session := e.currentSession()
	if session == nil {
		return
	}

	e.Seek(session.Position() + delta)
}

// SetPlaybackRate change rate of live session and remember it for next episodes.
func (e *Engine) SetPlaybackRate(rate float64) error {
	if rate <= 0 || rate > 4 {
		return aerr.ErrValidation.WithUserMsg("playback rate must be in range (0, 4]")
	}

	e.mu.Lock()
	e.rate = rate
	session := e.session
	e.mu.Unlock()

	if session != nil {
		session.SetRate(rate)
	}

	e.publish(EventStateChanged, nil)

	return nil
}

func (e *Engine) ToggleFullPlayer() {
	e.mu.Lock()
	e.fullPlayer = !e.fullPlayer
	e.mu.Unlock()

	e.publish(EventStateChanged, nil)
}

func (e *Engine) ShowFullPlayer(show bool) {
	e.mu.Lock()
	e.fullPlayer = show
	e.mu.Unlock()

	e.publish(EventStateChanged, nil)
}

func (e *Engine) setPlaying(playing bool) {
	e.mu.Lock()
	changed := e.playing != playing
	e.playing = playing

	if e.episode != nil && !e.loading {
		if playing {
			e.status = StatusPlaying
		} else {
			e.status = StatusPaused
		}
	}
	e.mu.Unlock()

	if playing {
		playingGauge.Set(1)
	} else {
		playingGauge.Set(0)
	}

	e.controls.SetPlaybackState(playing)

	if changed {
		e.publish(EventStateChanged, nil)
	}
}

//------------------------------------------------------------------------------

// SaveProgress write current position of loaded episode to the store.
func (e *Engine) SaveProgress(ctx context.Context) error {
	e.mu.Lock()
	episode, session, duration := e.episode, e.session, e.duration
	e.mu.Unlock()

	if episode == nil || session == nil {
		return nil
	}

	position := session.Position()

	e.mu.Lock()
	e.position = position
	e.mu.Unlock()

	progress := model.NewEpisodeProgress(position, duration, e.now())

	log.Ctx(ctx).Debug().Str(common.LogKeyEpisodeID, episode.IDString()).Object("progress", progress).
		Msg("player: save progress")

	if err := e.store.UpdateEpisodeProgress(ctx, episode.IDString(), progress); err != nil {
		snapshotsTotal.WithLabelValues("error").Inc()

		return err //nolint:wrapcheck
	}

	snapshotsTotal.WithLabelValues("success").Inc()
	e.publish(EventProgressSaved, nil)

	return nil
}

func (e *Engine) snapshotTick(ctx context.Context) {
	e.mu.Lock()
	playing := e.playing
	e.mu.Unlock()

	if !playing {
		return
	}

	if err := e.SaveProgress(ctx); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("player: periodic progress snapshot failed")
	}
}

// handleEnded save episode as completed and continue with the queue head.
func (e *Engine) handleEnded(ctx context.Context) {
	logger := log.Ctx(ctx)

	e.timer.stop()

	// finished episode leave engine idle; failed continuation restores this status
	e.mu.Lock()
	e.playing = false
	e.status = StatusIdle
	e.position = e.duration
	episode, duration := e.episode, e.duration
	e.mu.Unlock()

	playingGauge.Set(0)
	e.controls.SetPlaybackState(false)
	e.publish(EventEnded, nil)

	if episode != nil {
		progress := model.NewCompletedProgress(duration, e.now())
		if err := e.store.UpdateEpisodeProgress(ctx, episode.IDString(), progress); err != nil {
			logger.Warn().Err(err).Msg("player: save completed progress failed")
		}
	}

	if next, ok := e.store.Data().QueueHead(); ok {
		if err := e.store.RemoveFromQueue(ctx, next); err != nil {
			logger.Warn().Err(err).Msg("player: remove episode from queue failed")
		}

		// next episode is loaded with podcast of currently playing episode
		podcastID := e.store.Data().CurrentlyPlaying.PodcastID()

		logger.Info().Str(common.LogKeyEpisodeID, next).Msg("player: continue with next queued episode")
		e.LoadEpisode(ctx, next, podcastID)

		return
	}

	logger.Info().Msg("player: queue finished")
	e.publish(EventStateChanged, nil)
}

//------------------------------------------------------------------------------

func (e *Engine) publishMediaSession() {
	e.mu.Lock()
	episode, podcast, playing := e.episode, e.podcast, e.playing
	e.mu.Unlock()

	if episode == nil || podcast == nil {
		return
	}

	meta := MediaMetadata{
		Title:  episode.Title,
		Artist: podcast.Title,
		Album:  podcast.Title,
	}

	if artwork := e.meta.ProxyImageURL(podcast.Artwork); artwork != "" {
		for _, size := range artworkSizes {
			meta.Artwork = append(meta.Artwork, Artwork{Src: artwork, Sizes: size, Type: "image/png"})
		}
	}

	e.controls.SetMetadata(meta)

	e.controls.SetActionHandler(ActionPlay, func() { e.runAction(ActionPlay, e.Play) })
	e.controls.SetActionHandler(ActionPause, func() { e.runAction(ActionPause, e.Pause) })
	e.controls.SetActionHandler(ActionSeekBackward, func() { e.SeekRelative(SeekBackwardStep) })
	e.controls.SetActionHandler(ActionSeekForward, func() { e.SeekRelative(SeekForwardStep) })
	e.controls.SetActionHandler(ActionPreviousTrack, func() { e.SeekRelative(SeekBackwardStep) })
	e.controls.SetActionHandler(ActionNextTrack, func() { e.SeekRelative(SeekForwardStep) })

	e.controls.SetPlaybackState(playing)
}

func (e *Engine) runAction(action Action, fn func(context.Context) error) {
	if err := fn(e.bgctx); err != nil {
		log.Ctx(e.bgctx).Warn().Err(err).Str("action", string(action)).Msg("player: media action failed")
	}
}

//------------------------------------------------------------------------------

// sessionSink receive events from audio session.
type sessionSink struct {
	e *Engine
}

func (s *sessionSink) TimeUpdate(position float64) {
	s.e.mu.Lock()
	s.e.position = position
	s.e.mu.Unlock()

	s.e.publish(EventStateChanged, nil)
}

func (s *sessionSink) DurationChange(duration float64) {
	if duration <= 0 || math.IsInf(duration, 0) || math.IsNaN(duration) {
		return
	}

	s.e.mu.Lock()
	s.e.duration = duration
	s.e.mu.Unlock()

	s.e.publish(EventStateChanged, nil)
}

func (s *sessionSink) Played() {
	s.e.setPlaying(true)
}

func (s *sessionSink) Paused() {
	s.e.setPlaying(false)
}

func (s *sessionSink) Ended() {
	s.e.mu.Lock()
	defer s.e.mu.Unlock()

	// handlers are not started after Shutdown began waiting for them
	if s.e.closed {
		return
	}

	s.e.handlers.Go(func() { s.e.handleEnded(s.e.bgctx) })
}

func (e *Engine) MarshalZerologObject(event *zerolog.Event) {
	state := e.Snapshot()
	state.MarshalZerologObject(event)
}
