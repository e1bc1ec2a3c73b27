package config

//
// client.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/kabes/go-relay/internal/aerr"
	"gitlab.com/kabes/go-relay/internal/validators"
)

const (
	DefaultServerURL = "http://localhost:8000"
	DefaultTimeout   = 30 * time.Second
)

// ClientConf configure connection to relay server.
type ClientConf struct {
	ServerURL string
	Timeout   time.Duration
}

func NewClientConf(serverURL string, timeout time.Duration) ClientConf {
	return ClientConf{
		ServerURL: strings.TrimRight(strings.TrimSpace(serverURL), "/"),
		Timeout:   timeout,
	}
}

func (c *ClientConf) Validate() error {
	if c.ServerURL == "" {
		return aerr.ErrValidation.WithUserMsg("server url can't be empty")
	}

	if !validators.IsValidURL(c.ServerURL) {
		return aerr.ErrValidation.WithUserMsg("invalid server url %q", c.ServerURL)
	}

	if c.Timeout < 0 {
		return aerr.ErrValidation.WithUserMsg("timeout can't be negative")
	}

	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}

	return nil
}

func (c *ClientConf) MarshalZerologObject(event *zerolog.Event) {
	event.Str("server_url", c.ServerURL).
		Dur("timeout", c.Timeout)
}

//-------------------------------------------------------------

// StoreConf configure local database.
type StoreConf struct {
	Path string
}

func NewStoreConf(path string) StoreConf {
	return StoreConf{Path: strings.TrimSpace(path)}
}

func (s *StoreConf) Validate() error {
	if s.Path == "" {
		return aerr.New("database argument can't be empty").WithTag(aerr.ValidationError)
	}

	if s.Path == ":memory:" {
		return nil
	}

	path, err := ExpandPath(s.Path)
	if err != nil {
		return aerr.ApplyFor(aerr.ErrInvalidConf, err, "invalid database path")
	}

	s.Path = path

	return nil
}
