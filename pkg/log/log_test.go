// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		op       func(t *testing.T, logger *Logger)
		wantLogs []string
	}{
		{
			name: "routed_file",
			op: func(t *testing.T, logger *Logger) {
				logger.LogFileOperation(context.Background(), FileOperation{
					Path:   "SYSFR_PGM_SALES_DATA_1.csv",
					Type:   "route",
					Status: "routed",
					Target: "/scorecard/SYSFR_PGM_SALES_DATA_1.csv",
					IsNew:  true,
				})
			},
			wantLogs: []string{
				"    ✓ SYSFR_PGM_SALES_DATA_1.csv          route           routed          /scorecard/SYSFR_PGM_SALES_DATA_1.csv",
			},
		},
		{
			name: "failed_wins_over_new",
			op: func(t *testing.T, logger *Logger) {
				logger.LogFileOperation(context.Background(), FileOperation{Path: "a.csv", Type: "route", Status: "failed", IsNew: true, IsFailed: true})
			},
			wantLogs: []string{"    ✗ a.csv"},
		},
		{
			name: "rotated_stream",
			op: func(t *testing.T, logger *Logger) {
				logger.LogFileOperation(context.Background(), FileOperation{Path: "scorecard", Type: "stream", Status: "promoted", IsRotated: true})
			},
			wantLogs: []string{"    ⟳ scorecard", "stream"},
		},
		{
			name: "batch_header",
			op: func(t *testing.T, logger *Logger) {
				logger.StartBatch(context.Background(), BatchOperation{
					Input:  "/downloads",
					Config: "routes.yaml",
					Filter: "all",
					DryRun: true,
				})
			},
			wantLogs: []string{
				"[planning /downloads]",
				"◆ routes.yaml • all",
			},
		},
		{
			name: "log_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Info("info message")
				logger.Warning("warning message")
				logger.Error("error message")
				logger.Successf("%d done", 3)
			},
			wantLogs: []string{
				"ℹ️  info message",
				"⚠️  warning message",
				"❌ error message",
				"✅ 3 done",
			},
		},
		{
			name: "header",
			op: func(t *testing.T, logger *Logger) {
				logger.Header("rules")
			},
			wantLogs: []string{"csvroute • rules"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithZerolog(&buf, zerolog.New(zerolog.NewTestWriter(t)))
			tt.op(t, logger)

			out := buf.String()
			for _, want := range tt.wantLogs {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestBatchLifecycle(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	logger := NewWithZerolog(&buf, zerolog.New(zerolog.NewTestWriter(t)))
	ctx := NewContext(context.Background(), logger)

	assert.Equal(t, 0, FromContext(ctx).EndBatch(ctx), "no batch started")

	FromContext(ctx).StartBatch(ctx, BatchOperation{Input: "/in", Config: "c.yaml", Filter: "bb"})
	for _, name := range []string{"a.csv", "b.csv"} {
		logger.LogFileOperation(ctx, FileOperation{Path: name, Type: "route", Status: "skipped", IsSkipped: true})
	}
	assert.Equal(t, 2, logger.EndBatch(ctx))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "[routing /in]", lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "    - a.csv"))
}

func TestFromContextPanics(t *testing.T) {
	assert.Panics(t, func() { FromContext(context.Background()) })
}
