package config

//
// debugflags.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"gitlab.com/kabes/go-relay/internal/common"
)

//-------------------------------------------------------------

type DebugFlag string

const (
	// DebugDo enable logging samber/do and /debug/do endpoint.
	DebugDo = DebugFlag("do")
	// DebugGo enable /debug/pprof endpoint.
	DebugGo = DebugFlag("go")
	// DebugRouter show defined routes.
	DebugRouter = DebugFlag("router")
	// DebugQueryMetrics enable metrics for local database queries.
	DebugQueryMetrics = DebugFlag("querymetrics")
	// DebugTrace enable tracing with net/trace.
	DebugTrace = DebugFlag("trace")

	// DebugAll enable all debug flags.
	DebugAll = DebugFlag("all")
	// DebugNone disable all debug flags.
	DebugNone = DebugFlag("")
)

type DebugFlags []string

func NewDebugFLags(flags string) DebugFlags {
	df := DebugFlags{}

	for f := range strings.SplitSeq(flags, ",") {
		if f = strings.TrimSpace(f); f != "" {
			df = append(df, f)
		}
	}

	if !common.TracingAvailable && df.HasFlag(DebugTrace) {
		log.Logger.Warn().Msg("tracing disabled due to compilation tag")
	}

	return df
}

func (d DebugFlags) HasFlag(flag DebugFlag) bool {
	if flag == DebugNone {
		return false
	}

	return slices.Contains(d, string(DebugAll)) || slices.Contains(d, string(flag))
}
