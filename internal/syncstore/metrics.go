package syncstore

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

const (
	resultSuccess = "success"
	resultError   = "error"
	resultSkipped = "skipped"
)

//nolint:gochecknoglobals
var (
	pushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_sync_pushes_total",
			Help: "Tracks the number of document pushes to relay server.",
		}, []string{"result"},
	)
	pushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relay_sync_push_duration_seconds",
			Help:    "Tracks the latencies of document encryption and push.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
	)
	loginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_sync_logins_total",
			Help: "Tracks the number of login attempts.",
		}, []string{"result"},
	)
	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_sync_mutations_total",
			Help: "Tracks the number of document mutations.",
		}, []string{"op"},
	)
)
