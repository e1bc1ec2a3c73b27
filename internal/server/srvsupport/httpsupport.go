// Package srvsupport contains helpers for control server handlers.
package srvsupport

//
// httpsupport.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"gitlab.com/kabes/go-relay/internal/aerr"
	"gitlab.com/kabes/go-relay/internal/common"
)

// WrapNamed add context and logger to handler. `name` is put as `handler` in logger context.
func WrapNamed(
	handler func(ctx context.Context, w http.ResponseWriter, r *http.Request, logger *zerolog.Logger),
	name string,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := hlog.FromRequest(r).
			With().Str("handler", name).
			Logger()

		ctx := logger.WithContext(r.Context())
		r = r.WithContext(ctx)

		handler(ctx, w, r, &logger)
	}
}

func WriteError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	if msg == "" {
		msg = http.StatusText(code)
	}

	if strings.HasPrefix(r.Header.Get("Accept"), "application/json") ||
		strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		res := struct {
			Error string `json:"error"`
		}{msg}

		render.Status(r, code)
		RenderJSON(w, r, &res)

		return
	}

	http.Error(w, msg, code)
}

// CheckAndWriteError decode and write error to ResponseWriter.
func CheckAndWriteError(w http.ResponseWriter, r *http.Request, err error) {
	msg := aerr.GetUserMessage(err)

	switch {
	case errors.Is(err, common.ErrUnknownEpisode):
		WriteError(w, r, http.StatusNotFound, msg)

	case aerr.HasTag(err, aerr.AuthError):
		WriteError(w, r, http.StatusUnauthorized, msg)

	case aerr.HasTag(err, aerr.InternalError):
		// write message if is defined in error
		WriteError(w, r, http.StatusInternalServerError, msg)

	case aerr.HasTag(err, aerr.ValidationError):
		WriteError(w, r, http.StatusBadRequest, msg)

	case aerr.HasTag(err, aerr.NetworkError):
		WriteError(w, r, http.StatusBadGateway, msg)

	case aerr.HasTag(err, aerr.DataError):
		WriteError(w, r, http.StatusBadRequest, msg)

	default:
		// unknown error; newer show details
		WriteError(w, r, http.StatusInternalServerError, "")
	}
}

// QueryFloat parse float query parameter.
func QueryFloat(r *http.Request, name string) (float64, error) {
	value := strings.TrimSpace(r.URL.Query().Get(name))
	if value == "" {
		return 0, aerr.ErrValidation.WithUserMsg("missing %q parameter", name)
	}

	res, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, aerr.ApplyFor(aerr.ErrValidation, err, "invalid "+name+" parameter")
	}

	return res, nil
}
