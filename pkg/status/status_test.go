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

package status_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	csvlog "github.com/imse8006/csv-zip-router/pkg/log"
	"github.com/imse8006/csv-zip-router/pkg/rotation"
	"github.com/imse8006/csv-zip-router/pkg/status"
	"github.com/imse8006/csv-zip-router/pkg/version"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func sampleReport() *status.Report {
	start := time.Date(2025, 10, 6, 8, 0, 0, 0, time.UTC)
	r := status.NewReport(start, false)
	r.AddRoute(
		status.RouteResult{Source: "/in/a.csv", Name: "a.csv", Destination: "/d1", FinalPath: "/d1/a.csv", Outcome: status.RouteRouted, Bytes: 3, Digest: "abc"},
		status.RouteResult{Source: "/in/b.csv", Name: "b.csv", Outcome: status.RouteSkipped, Reason: status.ReasonNoRoute},
		status.RouteResult{Source: "/in/c.zip", Member: "x/c.csv", Name: "c.csv", Destination: "/d2", Outcome: status.RouteFailed, Err: errors.New("boom")},
	)
	r.AddPromotion(
		rotation.Result{
			Stream:       "zeta",
			Source:       rotation.Source{Path: "/in/Scorecard_2025_41.xlsx"},
			Outcome:      rotation.OutcomePromoted,
			Reason:       version.ReasonNewIsNewer,
			NewToken:     &version.Token{Kind: version.KindISOWeek, Ordinal: 202541, Label: "2025-W41"},
			CurrentToken: &version.Token{Kind: version.KindISOWeek, Ordinal: 202540, Label: "2025-W40"},
			Retired:      []string{"Scorecard_2025_40.xlsx"},
		},
		rotation.Result{
			Stream:  "alpha",
			Source:  rotation.Source{Path: "/in/Other.xlsx"},
			Outcome: rotation.OutcomeAborted,
			Err:     errors.Errorf("%w: disk", rotation.ErrRetireFailed),
		},
	)
	r.Finish(start.Add(time.Minute))
	return r
}

func TestReportCounts(t *testing.T) {
	r := sampleReport()
	c := r.Counts()
	assert.Equal(t, status.Counts{Routed: 1, Skipped: 1, Failed: 1, Promoted: 1, Aborted: 1}, c)
	assert.Equal(t, 2, c.Failures())
	assert.True(t, r.HasFailures())

	// promotions are ordered by stream on finish
	assert.Equal(t, "alpha", r.Promotions[0].Stream)

	clean := status.NewReport(time.Now(), true)
	clean.AddRoute(status.RouteResult{Outcome: status.RoutePlanned})
	assert.False(t, clean.HasFailures())
	assert.Equal(t, 1, clean.Counts().Planned)
}

func TestReportJSON(t *testing.T) {
	data, err := json.Marshal(sampleReport())
	require.NoError(t, err)

	var decoded struct {
		Counts map[string]int `json:"counts"`
		Routes []struct {
			Outcome string `json:"outcome"`
			Reason  string `json:"reason"`
			Error   string `json:"error"`
			Digest  string `json:"blake3"`
		} `json:"routes"`
		Promotions []struct {
			Stream  string `json:"stream"`
			Outcome string `json:"outcome"`
			Reason  string `json:"reason"`
			New     string `json:"new_version"`
			Current string `json:"current_version"`
			Error   string `json:"error"`
		} `json:"promotions"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, 1, decoded.Counts["routed"])
	assert.Equal(t, 1, decoded.Counts["aborted"])
	require.Len(t, decoded.Routes, 3)
	assert.Equal(t, "routed", decoded.Routes[0].Outcome)
	assert.Equal(t, "abc", decoded.Routes[0].Digest)
	assert.Equal(t, "no route", decoded.Routes[1].Reason)
	assert.Equal(t, "boom", decoded.Routes[2].Error)

	require.Len(t, decoded.Promotions, 2)
	assert.Equal(t, "aborted", decoded.Promotions[0].Outcome)
	assert.Contains(t, decoded.Promotions[0].Error, "retire failed")
	assert.Equal(t, "promoted", decoded.Promotions[1].Outcome)
	assert.Equal(t, "NewIsNewer", decoded.Promotions[1].Reason)
	assert.Equal(t, "2025-W41", decoded.Promotions[1].New)
	assert.Equal(t, "2025-W40", decoded.Promotions[1].Current)
}

func TestFormatRoute(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name   string
		result status.RouteResult
		want   []string
	}{
		{
			name:   "routed",
			result: status.RouteResult{Name: "a.csv", FinalPath: "/d1/a.csv", Outcome: status.RouteRouted},
			want:   []string{"    ✓ a.csv", "routed", "/d1/a.csv"},
		},
		{
			name:   "skipped",
			result: status.RouteResult{Name: "b.csv", Outcome: status.RouteSkipped, Reason: status.ReasonNoRoute},
			want:   []string{"- b.csv", "skipped", "no route"},
		},
		{
			name:   "member",
			result: status.RouteResult{Source: "/in/c.zip", Member: "x/c.csv", Name: "c.csv", Outcome: status.RouteFailed, Err: errors.New("boom")},
			want:   []string{"✗ c.zip!c.csv", "failed", "boom"},
		},
		{
			name:   "planned",
			result: status.RouteResult{Name: "d.csv", FinalPath: "/d/d.csv", Outcome: status.RoutePlanned},
			want:   []string{"• d.csv", "planned"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := status.FormatRoute(tt.result)
			for _, w := range tt.want {
				assert.Contains(t, line, w)
			}
		})
	}
}

func TestFormatPromotion(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	r := sampleReport()
	line := status.FormatPromotion(r.Promotions[1])
	assert.Contains(t, line, "zeta: Scorecard_2025_41.xlsx")
	assert.Contains(t, line, "2025-W40 → 2025-W41")
	assert.Contains(t, line, "NewIsNewer")

	line = status.FormatPromotion(r.Promotions[0])
	assert.Contains(t, line, "none → none")
	assert.Contains(t, line, "retire failed")
	assert.True(t, strings.HasPrefix(line, "    ✗"))
}

func TestFormatCounts(t *testing.T) {
	assert.Equal(t, "1 routed, 1 skipped, 1 failed, 1 promoted, 0 rejected, 1 aborted, 0 partial", status.FormatCounts(sampleReport().Counts()))
	assert.Equal(t, "0 routed, 0 skipped, 0 failed, 2 planned", status.FormatCounts(status.Counts{Planned: 2}))
}

func TestUserLoggerSummary(t *testing.T) {
	var buf bytes.Buffer
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
	u := status.NewUserLogger(ctx, &buf)

	r := sampleReport()
	for _, rr := range r.Routes {
		u.LogRoute(rr)
	}
	for _, p := range r.Promotions {
		u.LogPromotion(p)
	}
	require.NoError(t, u.LogSummary(r))

	out := buf.String()
	assert.Contains(t, out, "a.csv")
	assert.Contains(t, out, "zeta")
	assert.Contains(t, out, "Outcome")
	assert.Contains(t, out, "1 routed, 1 skipped, 1 failed")
}

func TestUserLoggerHeaderUsesWriter(t *testing.T) {
	var buf bytes.Buffer
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	u := status.NewUserLogger(zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background()), &buf)
	u.LogHeader("routing /in")

	assert.Contains(t, buf.String(), "routing /in")
}

func TestRender(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	logger := csvlog.NewWithZerolog(&buf, zerolog.New(zerolog.NewTestWriter(t)))
	sampleReport().Render(context.Background(), logger)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "✓ a.csv")
	assert.Contains(t, lines[0], "/d1/a.csv")
	assert.Contains(t, lines[1], "- b.csv")
	assert.Contains(t, lines[1], "no route")
	assert.Contains(t, lines[2], "✗ c.zip!c.csv")
	assert.Contains(t, lines[2], "boom")
	assert.Contains(t, lines[3], "✗ alpha: Other.xlsx")
	assert.Contains(t, lines[4], "⟳ zeta: Scorecard_2025_41.xlsx")
	assert.Contains(t, lines[4], "2025-W40 → 2025-W41 NewIsNewer")
}
