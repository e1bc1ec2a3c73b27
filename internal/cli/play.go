package cli

//
// play.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//
import (
	"context"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/Merovius/systemd"
	"github.com/gofrs/flock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"
	"github.com/urfave/cli/v3"
	"gitlab.com/kabes/go-relay/internal/aerr"
	"gitlab.com/kabes/go-relay/internal/common"
	"gitlab.com/kabes/go-relay/internal/config"
	"gitlab.com/kabes/go-relay/internal/localstore"
	"gitlab.com/kabes/go-relay/internal/player"
	"gitlab.com/kabes/go-relay/internal/relayapi"
	"gitlab.com/kabes/go-relay/internal/server"
	"gitlab.com/kabes/go-relay/internal/syncstore"
	"gitlab.com/kabes/go-relay/internal/validators"
)

var errAlreadyPlaying = aerr.New("player already running").WithTag(aerr.ConfigurationError).
	WithUserMsg("another player instance is running")

func newPlayCmd() *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     "play episode (or currently playing episode, or queue) and continue with the queue",
		ArgsUsage: "[<episode id> [<podcast id>]]",
		Flags: []cli.Flag{
			&cli.FloatFlag{
				Name:    "rate",
				Usage:   "playback rate; default from podcast settings or preferences",
				Sources: cli.EnvVars("RELAY_PLAYER_RATE"),
			},
			&cli.DurationFlag{
				Name:    "snapshot-period",
				Value:   config.DefaultSnapshotPeriod,
				Usage:   "interval of saving playback progress",
				Sources: cli.EnvVars("RELAY_PLAYER_SNAPSHOT_PERIOD"),
			},
			&cli.BoolFlag{
				Name:    "keep-running",
				Usage:   "do not exit when queue is finished",
				Sources: cli.EnvVars("RELAY_PLAYER_KEEP_RUNNING"),
			},
			&cli.StringFlag{
				Name:    "control-address",
				Usage:   "listen address of control server; empty disable server",
				Aliases: []string{"a"},
				Sources: cli.EnvVars("RELAY_CONTROL_ADDRESS"),
				Config:  cli.StringConfig{TrimSpace: true},
			},
			&cli.StringFlag{
				Name:    "control-access-list",
				Usage:   "list of ip or networks separated by ',' allowed to control player (beside localhost)",
				Sources: cli.EnvVars("RELAY_CONTROL_ACCESS_LIST"),
				Config:  cli.StringConfig{TrimSpace: true},
			},
			&cli.BoolFlag{
				Name:    "enable-metrics",
				Usage:   "enable prometheus metrics (/metrics endpoint of control server)",
				Sources: cli.EnvVars("RELAY_CONTROL_METRICS"),
			},
		},
		Action: wrapAuth(playCmd),
	}
}

func playCmd(ctx context.Context, clicmd *cli.Command, rootInjector do.Injector) error {
	storeConf := do.MustInvoke[*config.StoreConf](rootInjector)

	if lockPath := lockFilePath(storeConf.Path); lockPath != "" {
		lock := flock.New(lockPath)

		locked, err := lock.TryLock()
		if err != nil {
			return aerr.ApplyFor(aerr.ErrInvalidConf, err, "can't create lock file")
		} else if !locked {
			return errAlreadyPlaying.WithMeta("lock", lock.Path())
		}

		defer lock.Unlock() //nolint:errcheck
	}

	filecfg := do.MustInvoke[*config.FileConf](rootInjector)

	controlConf := config.ControlConf{
		Address:       stringOption(clicmd, "control-address", filecfg.Control.Address),
		AccessList:    stringOption(clicmd, "control-access-list", filecfg.Control.AccessList),
		EnableMetrics: clicmd.Bool("enable-metrics") || filecfg.Control.Metrics,
		DebugFlags:    config.NewDebugFLags(clicmd.String("debug")),
	}

	if err := controlConf.Validate(); err != nil {
		return aerr.Wrapf(err, "control server config validation failed")
	}

	target, err := resolvePlayTarget(ctx, clicmd, rootInjector)
	if err != nil {
		return err
	}

	playerConf := config.PlayerConf{
		Rate:           resolveRate(clicmd, filecfg, rootInjector, target.podcastID),
		SnapshotPeriod: clicmd.Duration("snapshot-period"),
	}

	if err := playerConf.Validate(); err != nil {
		return aerr.Wrapf(err, "player config validation failed")
	}

	injector := rootInjector.Scope("player",
		player.Package,
		server.Package,
	)

	do.ProvideValue(injector, &playerConf)
	do.ProvideValue(injector, &controlConf)

	p := Player{}

	return p.start(ctx, injector, &controlConf, target, clicmd.Bool("keep-running"))
}

type playTarget struct {
	episodeID string
	podcastID string
}

// Player run playback until queue is finished or process is interrupted.
type Player struct{}

func (p *Player) start(ctx context.Context, injector do.Injector, cfg *config.ControlConf,
	target playTarget, keepRunning bool,
) error {
	playID := xid.New()
	logger := log.Ctx(ctx).With().Str("play_id", playID.String()).Logger()
	ctx = hlog.CtxWithID(logger.WithContext(ctx), playID)

	logger.Info().Msgf("Starting go-relay player (%s)...", config.VersionString)
	logger.Debug().Msgf("Player: debug_flags=%q", cfg.DebugFlags)

	p.startSystemdWatchdog(&logger)

	if cfg.DebugFlags.HasFlag(config.DebugQueryMetrics) {
		db := do.MustInvoke[*localstore.Database](injector)
		db.RegisterMetrics(prometheus.DefaultRegisterer)
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	engine := do.MustInvoke[*player.Engine](injector)

	if cfg.Enabled() {
		srv := do.MustInvoke[*server.Server](injector)
		if err := srv.Start(ctx); err != nil {
			return aerr.Wrapf(err, "start control server failed")
		}
	}

	eventlog := common.NewEventLog("player", "playback")
	defer eventlog.Close()

	events, unsubscribe := engine.Subscribe(32) //nolint:mnd
	defer unsubscribe()

	engine.LoadEpisode(ctx, target.episodeID, target.podcastID)

	systemd.NotifyReady()           //nolint:errcheck
	systemd.NotifyStatus("playing") //nolint:errcheck

	err := p.watch(ctx, events, eventlog, keepRunning)

	// progress must be saved also when interrupted
	bgctx := context.WithoutCancel(ctx)
	if perr := engine.Pause(bgctx); perr != nil {
		logger.Warn().Err(perr).Msg("Player: pause on exit failed")
	}

	store := do.MustInvoke[*syncstore.Store](injector)
	if serr := store.Sync(bgctx); serr != nil {
		logger.Warn().Err(serr).Msg("Player: final sync failed")
	}

	systemd.NotifyStatus("stopped") //nolint:errcheck

	return err
}

// watch log player events until context is done or queue is finished.
func (p *Player) watch(ctx context.Context, events <-chan player.Event,
	eventlog *common.EventLog, keepRunning bool,
) error {
	logger := log.Ctx(ctx)
	loaded := false

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Player: interrupted")

			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}

			switch ev.Kind { //nolint:exhaustive
			case player.EventLoaded:
				loaded = true

				logEpisode(logger, ev.State)
				eventlog.Printf("loaded episode=%s", episodeTitle(ev.State))

			case player.EventLoadFailed:
				eventlog.Errorf("load failed error=%q", ev.Err)

				if !loaded {
					return ev.Err
				}

				if !keepRunning && ev.State.Status == player.StatusIdle {
					logger.Warn().Msg("Player: next episode load failed; stopping")

					return nil
				}

			case player.EventEnded:
				eventlog.Printf("ended episode=%s", episodeTitle(ev.State))

			case player.EventStateChanged:
				if loaded && !keepRunning && ev.State.Status == player.StatusIdle {
					logger.Info().Msg("Player: queue finished")

					return nil
				}
			}
		}
	}
}

func (*Player) startSystemdWatchdog(logger *zerolog.Logger) {
	if ok, dur, err := systemd.AutoWatchdog(); ok {
		logger.Info().Msgf("Systemd: autowatchdog started; duration=%s", dur)
	} else if err != nil {
		logger.Warn().Err(err).Msgf("Systemd: autowatchdog start error=%q", err)
	}
}

func logEpisode(logger *zerolog.Logger, state player.State) {
	event := logger.Info().Float64("duration", state.Duration).Float64("position", state.Position)
	if state.Episode != nil {
		event = event.Object("episode", state.Episode)
	}

	if state.Podcast != nil {
		event = event.Object("podcast", state.Podcast)
	}

	event.Msg("Player: playing")
}

func episodeTitle(state player.State) string {
	if state.Episode == nil {
		return "<none>"
	}

	return state.Episode.Title
}

//---------------------------------------------------------------------

func lockFilePath(dbpath string) string {
	if dbpath == ":memory:" {
		return ""
	}

	return dbpath + ".lock"
}

// resolvePlayTarget select episode to play: given in arguments, currently
// playing or head of the queue. Missing podcast is taken from episode metadata.
func resolvePlayTarget(ctx context.Context, clicmd *cli.Command, injector do.Injector) (playTarget, error) {
	store := do.MustInvoke[*syncstore.Store](injector)
	doc := store.Data()

	target := playTarget{
		episodeID: clicmd.Args().Get(0),
		podcastID: clicmd.Args().Get(1),
	}

	switch {
	case target.episodeID != "":
	case doc.CurrentlyPlaying.IsSet():
		return playTarget{doc.CurrentlyPlaying.EpisodeID(), doc.CurrentlyPlaying.PodcastID()}, nil
	default:
		head, ok := doc.QueueHead()
		if !ok {
			return target, aerr.ErrValidation.WithUserMsg("nothing to play; queue is empty")
		}

		if err := store.RemoveFromQueue(ctx, head); err != nil {
			return target, aerr.Wrapf(err, "remove episode from queue failed")
		}

		target.episodeID = head
	}

	episodeID, ok := validators.ParseID(target.episodeID)
	if !ok {
		return target, common.ErrInvalidEpisode.WithUserMsg("invalid episode id %q", target.episodeID)
	}

	if target.podcastID != "" {
		if !validators.IsValidPodcastID(target.podcastID) {
			return target, common.ErrInvalidPodcast.WithUserMsg("invalid podcast id %q", target.podcastID)
		}

		return target, nil
	}

	client := do.MustInvoke[*relayapi.Client](injector)

	episode, err := client.GetEpisode(ctx, episodeID)
	if err != nil {
		return target, aerr.Wrapf(err, "get episode failed")
	}

	target.podcastID = strconv.FormatInt(episode.FeedID, 10)

	return target, nil
}

// resolveRate return playback rate from command line, config file, podcast
// settings or preferences, in this order.
func resolveRate(clicmd *cli.Command, filecfg *config.FileConf, injector do.Injector, podcastID string) float64 {
	if clicmd.IsSet("rate") {
		return clicmd.Float("rate")
	}

	if filecfg.Player.Rate > 0 {
		return filecfg.Player.Rate
	}

	doc := do.MustInvoke[*syncstore.Store](injector).Data()
	if sub, ok := doc.Subscription(podcastID); ok && sub.Settings.PlaybackSpeed > 0 {
		return sub.Settings.PlaybackSpeed
	}

	return doc.Preferences.DefaultPlaybackSpeed
}
