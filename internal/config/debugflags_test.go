package config

//
// debugflags_test.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"fmt"
	"testing"

	"gitlab.com/kabes/go-relay/internal/assert"
)

func TestDebugFlags(t *testing.T) {
	tests := []struct {
		input       string
		expected    []DebugFlag
		notexpected []DebugFlag
	}{
		{"", []DebugFlag{}, []DebugFlag{DebugGo, DebugDo, DebugRouter, DebugTrace, DebugNone}},
		{"xxx", []DebugFlag{}, []DebugFlag{DebugGo, DebugDo, DebugRouter, DebugQueryMetrics}},
		{"all", []DebugFlag{DebugGo, DebugDo, DebugRouter, DebugQueryMetrics, DebugTrace}, []DebugFlag{DebugNone}},
		{"all,do,go", []DebugFlag{DebugGo, DebugDo, DebugRouter}, []DebugFlag{}},
		{"do, go", []DebugFlag{DebugDo, DebugGo}, []DebugFlag{DebugQueryMetrics, DebugRouter}},
		{"go,do,router", []DebugFlag{DebugDo, DebugGo, DebugRouter}, []DebugFlag{DebugQueryMetrics}},
		{"go,,querymetrics", []DebugFlag{DebugGo, DebugQueryMetrics}, []DebugFlag{DebugDo, DebugNone}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt), func(t *testing.T) {
			df := NewDebugFLags(tt.input)
			for _, e := range tt.expected {
				assert.True(t, df.HasFlag(e))
			}
			for _, e := range tt.notexpected {
				assert.False(t, df.HasFlag(e))
			}
		})
	}
}
