package config

//
// config_test.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gitlab.com/kabes/go-relay/internal/aerr"
	"gitlab.com/kabes/go-relay/internal/assert"
)

func TestClientConfValidate(t *testing.T) {
	conf := NewClientConf(" https://relay.example.com/ ", 0)
	assert.NoErr(t, conf.Validate())
	assert.Equal(t, conf.ServerURL, "https://relay.example.com")
	assert.Equal(t, conf.Timeout, DefaultTimeout)

	conf = NewClientConf("", time.Second)
	assert.ErrSpec(t, conf.Validate(), aerr.ErrValidation)

	conf = NewClientConf("relay.example.com", time.Second)
	assert.ErrSpec(t, conf.Validate(), aerr.ErrValidation)

	conf = NewClientConf("http://localhost:8000", -time.Second)
	assert.ErrSpec(t, conf.Validate(), aerr.ErrValidation)
}

func TestStoreConfValidate(t *testing.T) {
	conf := NewStoreConf(":memory:")
	assert.NoErr(t, conf.Validate())
	assert.Equal(t, conf.Path, ":memory:")

	conf = NewStoreConf("relay.sqlite")
	assert.NoErr(t, conf.Validate())
	assert.True(t, filepath.IsAbs(conf.Path))

	conf = NewStoreConf("  ")
	assert.Err(t, conf.Validate())
}

func TestControlConf(t *testing.T) {
	conf := ControlConf{}
	assert.NoErr(t, conf.Validate())
	assert.False(t, conf.Enabled())

	conf = ControlConf{Address: "localhost"}
	assert.ErrSpec(t, conf.Validate(), aerr.ErrValidation)

	conf = ControlConf{Address: "127.0.0.1:8765", AccessList: "192.168.1.0/24,10.0.0.5"}
	assert.NoErr(t, conf.Validate())
	assert.True(t, conf.Enabled())

	tests := []struct {
		remote    string
		allowed   bool
		sensitive bool
	}{
		{"127.0.0.1:1234", true, true},
		{"[::1]:1234", true, true},
		{"192.168.1.20:1234", true, false},
		{"10.0.0.5:1234", true, false},
		{"10.0.0.6:1234", false, false},
		{"invalid", false, false},
	}

	for _, tc := range tests {
		t.Run(tc.remote, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/player", nil)
			req.RemoteAddr = tc.remote

			allowed, sensitive := conf.AuthRequest(req)
			assert.Equal(t, allowed, tc.allowed)
			assert.Equal(t, sensitive, tc.sensitive)
		})
	}

	conf = ControlConf{Address: ":8765", AccessList: "300.1.1.1"}
	assert.ErrSpec(t, conf.Validate(), aerr.ErrValidation)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
server_url = "https://relay.example.com"
database = "/tmp/relay.sqlite"
timeout = "10s"

[control]
address = "127.0.0.1:8765"
metrics = true

[player]
rate = 1.5
`
	assert.NoErr(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFile(path, false)
	assert.NoErr(t, err)
	assert.Equal(t, cfg.ServerURL, "https://relay.example.com")
	assert.Equal(t, cfg.Database, "/tmp/relay.sqlite")
	assert.Equal(t, cfg.Timeout, "10s")
	assert.Equal(t, cfg.Control.Address, "127.0.0.1:8765")
	assert.True(t, cfg.Control.Metrics)
	assert.Equal(t, cfg.Player.Rate, 1.5)

	cfg, err = LoadFile(filepath.Join(dir, "missing.toml"), true)
	assert.NoErr(t, err)
	assert.Equal(t, cfg.ServerURL, "")

	_, err = LoadFile(filepath.Join(dir, "missing.toml"), false)
	assert.ErrSpec(t, err, aerr.ErrInvalidConf)

	assert.NoErr(t, os.WriteFile(path, []byte("server_url = "), 0o600))

	_, err = LoadFile(path, false)
	assert.ErrSpec(t, err, aerr.ErrInvalidConf)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	assert.NoErr(t, err)

	res, err := ExpandPath("~/x/relay.sqlite")
	assert.NoErr(t, err)
	assert.Equal(t, res, filepath.Join(home, "x", "relay.sqlite"))

	res, err = ExpandPath("")
	assert.NoErr(t, err)
	assert.Equal(t, res, "")
}

func TestPlayerConfValidate(t *testing.T) {
	conf := PlayerConf{}
	assert.NoErr(t, conf.Validate())
	assert.Equal(t, conf.SnapshotPeriod, DefaultSnapshotPeriod)
	assert.Equal(t, conf.Rate, 0.0)

	conf = PlayerConf{Rate: 1.5, SnapshotPeriod: time.Second}
	assert.NoErr(t, conf.Validate())
	assert.Equal(t, conf.SnapshotPeriod, time.Second)

	conf = PlayerConf{Rate: 5}
	assert.ErrSpec(t, conf.Validate(), aerr.ErrValidation)

	conf = PlayerConf{Rate: -1}
	assert.ErrSpec(t, conf.Validate(), aerr.ErrValidation)
}
