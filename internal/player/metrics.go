package player

//
// metrics.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals
var (
	snapshotsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_player_snapshots_total",
			Help: "Tracks the number of progress snapshots.",
		}, []string{"result"},
	)
	loadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_player_loads_total",
			Help: "Tracks the number of episode loads.",
		}, []string{"result"},
	)
	playingGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_player_playing",
			Help: "1 when player is playing.",
		},
	)
)
