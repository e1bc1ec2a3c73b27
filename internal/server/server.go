// Package server implement local control server of the player: player control
// and status, metrics and debug endpoints.
package server

//
// server.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"
	"gitlab.com/kabes/go-relay/internal/aerr"
	"gitlab.com/kabes/go-relay/internal/config"
	"gitlab.com/kabes/go-relay/internal/player"
	"gitlab.com/kabes/go-relay/internal/syncstore"
)

const (
	defaultReadTimeout    = 30 * time.Second
	defaultWriteTimeout   = 60 * time.Second
	defaultMaxHeaderBytes = 1 << 20
)

type Server struct {
	router chi.Router

	cfg *config.ControlConf
	s   *http.Server
}

func New(injector do.Injector) (*Server, error) {
	cfg := do.MustInvoke[*config.ControlConf](injector)

	res := &playerResource{
		player:   do.MustInvoke[*player.Engine](injector),
		controls: do.MustInvoke[*player.LogControls](injector),
		sync:     do.MustInvoke[*syncstore.Store](injector),
	}

	router := newRouter(injector, cfg, res)

	return &Server{
		router: router,
		cfg:    cfg,
		s: &http.Server{
			Addr:           cfg.Address,
			Handler:        router,
			ReadTimeout:    defaultReadTimeout,
			WriteTimeout:   defaultWriteTimeout,
			MaxHeaderBytes: defaultMaxHeaderBytes,
		},
	}, nil
}

func newRouter(injector do.Injector, cfg *config.ControlConf, res *playerResource) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Heartbeat("/ping"))
	router.Use(newDebugAccessMiddleware(cfg))

	router.Group(func(group chi.Router) {
		group.Use(newRequestIDMiddleware)

		if cfg.DebugFlags.HasFlag(config.DebugTrace) {
			group.Use(newTracingMiddleware(cfg))
		}

		group.Use(newSimpleLogMiddleware)
		group.Use(newRecoverMiddleware)
		group.Use(middleware.CleanPath)
		group.Use(newAccessMiddleware(cfg, false))
		group.
			With(promMiddleware()).
			With(middleware.NoCache).
			Mount("/player", res.Routes())
		group.
			With(middleware.NoCache).
			Get("/sync", res.syncStatus)
	})

	createMgmtRouters(injector, router, cfg)

	return router
}

func (s *Server) Start(ctx context.Context) error {
	logger := log.Logger

	if s.cfg.DebugFlags.HasFlag(config.DebugRouter) {
		logRoutes(ctx, "ControlServer", s.router)
	}

	listener, err := newListener(ctx, s.cfg.Address)
	if err != nil {
		return aerr.Wrapf(err, "start listen error")
	}

	logger.Log().Msgf("ControlServer: listen on address=%s", listener.Addr())

	go func() {
		if err := s.s.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log().Err(err).Msgf("ControlServer: serve error: %s", err)
		}
	}()

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	logger := log.Ctx(ctx)
	logger.Debug().Msg("ControlServer: stopping...")

	if err := s.s.Shutdown(ctx); err != nil {
		return aerr.Wrapf(err, "shutdown server failed")
	}

	logger.Debug().Msg("ControlServer: stopped")

	return nil
}

//-------------------------------------------------------------

func logRoutes(ctx context.Context, name string, r chi.Routes) {
	logger := log.Ctx(ctx)

	walkFunc := func(method, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
		_ = handler
		_ = middlewares
		route = strings.ReplaceAll(route, "/*/", "/")
		logger.Debug().Msgf("%s: ROUTE: %s %s", name, method, route)

		return nil
	}

	if err := chi.Walk(r, walkFunc); err != nil {
		logger.Error().Err(err).Msgf("ControlServer: routers walk error: %s", err)
	}
}

func newListener(ctx context.Context, address string) (net.Listener, error) {
	lc := net.ListenConfig{}

	l, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return nil, aerr.Wrapf(err, "listen failed").WithMeta("address", address)
	}

	return l, nil
}
