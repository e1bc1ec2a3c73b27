package server

//
// mgmt.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	dochi "github.com/samber/do/http/chi/v2"
	"github.com/samber/do/v2"
	"gitlab.com/kabes/go-relay/internal/config"
)

func createMgmtRouters(injector do.Injector, router *chi.Mux, cfg *config.ControlConf) {
	router.Get("/health", newHealthChecker(injector, cfg))

	router.Group(func(group chi.Router) {
		group.Use(newRequestIDMiddleware)
		group.Use(newSimpleLogMiddleware)
		group.Use(newRecoverMiddleware)
		group.Use(middleware.CleanPath)
		group.Use(newAccessMiddleware(cfg, true))

		if cfg.DebugFlags.HasFlag(config.DebugGo) {
			group.Mount("/debug", middleware.Profiler())
		}

		if cfg.DebugFlags.HasFlag(config.DebugTrace) {
			mountXTrace(group)
		}
	})

	// access to /debug/do is checked by newDebugAccessMiddleware on root router
	if cfg.DebugFlags.HasFlag(config.DebugDo) {
		dochi.Use(router, "/debug/do", injector)
	}

	if cfg.EnableMetrics {
		router.With(newAccessMiddleware(cfg, false)).
			Method("GET", "/metrics", newMetricsHandler())
	}
}

//-------------------------------------------------------------

// newAccessMiddleware reject requests from addresses not allowed by control
// configuration. When sensitive is set, only local requests are accepted.
func newAccessMiddleware(cfg *config.ControlConf, sensitive bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access, sensitiveAccess := cfg.AuthRequest(r)
			if !access || (sensitive && !sensitiveAccess) {
				hlog.FromRequest(r).Warn().Str("remote", r.RemoteAddr).Msg("ControlServer: access denied")
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// newDebugAccessMiddleware allow only local requests to /debug endpoints.
func newDebugAccessMiddleware(cfg *config.ControlConf) func(http.Handler) http.Handler {
	guard := newAccessMiddleware(cfg, true)

	return func(next http.Handler) http.Handler {
		guarded := guard(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/debug") {
				guarded.ServeHTTP(w, r)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

//-------------------------------------------------------------

// newHealthChecker create new handler for /health endpoint. Accept only
// connection from allowed networks.
func newHealthChecker(injector do.Injector, cfg *config.ControlConf) http.HandlerFunc {
	rootscope := injector.RootScope()

	return func(w http.ResponseWriter, r *http.Request) {
		if access, _ := cfg.AuthRequest(r); !access {
			w.WriteHeader(http.StatusForbidden)

			return
		}

		response := "ok"

		for service, err := range rootscope.HealthCheckWithContext(r.Context()) {
			if err != nil {
				log.Logger.Error().Err(err).Str("service", service).
					Msgf("HealthChecker: service=%q failed on healthcheck: %s", service, err)

				response = "error"
			}
		}

		render.PlainText(w, r, response)
	}
}
