package relayapi

//
// instrumentation.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//nolint:gochecknoglobals
var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_api_requests_total",
			Help: "Tracks the number of requests to relay server.",
		}, []string{"method", "code"},
	)
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_api_request_duration_seconds",
			Help:    "Tracks the latencies for requests to relay server.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "code"},
	)
	inFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_api_in_flight_requests",
		Help: "A gauge of requests to relay server currently in progress.",
	})
)

func instrumentedTransport(next http.RoundTripper) http.RoundTripper {
	rt := promhttp.InstrumentRoundTripperInFlight(inFlight, next)
	rt = promhttp.InstrumentRoundTripperDuration(requestDuration, rt)
	rt = promhttp.InstrumentRoundTripperCounter(requestsTotal, rt)

	return rt
}
