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

package status

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/imse8006/csv-zip-router/pkg/rotation"
)

// 📊 RouteOutcome is the state of one (file, destination) pair
type RouteOutcome int

const (
	RouteRouted  RouteOutcome = iota // written to its final path
	RouteSkipped                     // no route, or the skip policy kept an existing file
	RouteFailed                      // resolve or copy error
	RoutePlanned                     // dry run: would be written
)

// String returns a string representation of RouteOutcome
func (o RouteOutcome) String() string {
	switch o {
	case RouteRouted:
		return "routed"
	case RouteSkipped:
		return "skipped"
	case RouteFailed:
		return "failed"
	case RoutePlanned:
		return "planned"
	default:
		return "unknown"
	}
}

// MarshalText renders the outcome name in reports
func (o RouteOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Skip reasons
const (
	ReasonNoRoute      = "no route"
	ReasonFiltered     = "filtered out"
	ReasonExists       = "exists"
	ReasonUnreadable   = "unreadable archive"
	ReasonNotMember    = "member not selected"
	ReasonDuplicate    = "duplicate target"
	ReasonConflict     = "conflict"
	ReasonCopy         = "copy"
	ReasonInvalidInput = "invalid filename"
)

// 🧾 RouteResult is one (file, destination) outcome
type RouteResult struct {
	Source      string // input path
	Member      string // archive member, if any
	Name        string // bare filename that was matched
	Destination string // destination directory, empty when unrouted
	FinalPath   string
	Outcome     RouteOutcome
	Reason      string
	Renamed     bool
	Bytes       int64
	Digest      string
	Duration    time.Duration
	Err         error
}

// 🔢 Counts summarizes a report
type Counts struct {
	Routed          int `json:"routed"`
	Skipped         int `json:"skipped"`
	Failed          int `json:"failed"`
	Planned         int `json:"planned"`
	Promoted        int `json:"promoted"`
	Rejected        int `json:"rejected"`
	Aborted         int `json:"aborted"`
	PartiallyFailed int `json:"partially_failed"`
}

// Failures counts every result that did not end consistently
func (c Counts) Failures() int {
	return c.Failed + c.Aborted + c.PartiallyFailed
}

// 📋 Report is the outcome of one batch
type Report struct {
	mu sync.Mutex

	StartedAt  time.Time
	FinishedAt time.Time
	DryRun     bool
	Routes     []RouteResult
	Promotions []rotation.Result
}

// NewReport starts a report
func NewReport(now time.Time, dryRun bool) *Report {
	return &Report{StartedAt: now, DryRun: dryRun}
}

// AddRoute records route results; safe for concurrent use
func (r *Report) AddRoute(results ...RouteResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Routes = append(r.Routes, results...)
}

// AddPromotion records promotion results; safe for concurrent use
func (r *Report) AddPromotion(results ...rotation.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Promotions = append(r.Promotions, results...)
}

// Finish stamps the end time and orders promotions by stream for stable output
func (r *Report) Finish(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FinishedAt = now
	sort.SliceStable(r.Promotions, func(i, j int) bool { return r.Promotions[i].Stream < r.Promotions[j].Stream })
}

// Counts tallies every outcome
func (r *Report) Counts() Counts {
	r.mu.Lock()
	defer r.mu.Unlock()

	var c Counts
	for _, rr := range r.Routes {
		switch rr.Outcome {
		case RouteRouted:
			c.Routed++
		case RouteSkipped:
			c.Skipped++
		case RouteFailed:
			c.Failed++
		case RoutePlanned:
			c.Planned++
		}
	}
	for _, p := range r.Promotions {
		switch p.Outcome {
		case rotation.OutcomePromoted:
			c.Promoted++
		case rotation.OutcomeRejected:
			c.Rejected++
		case rotation.OutcomeAborted:
			c.Aborted++
		case rotation.OutcomePartiallyFailed:
			c.PartiallyFailed++
		}
	}
	return c
}

// HasFailures reports whether any result failed
func (r *Report) HasFailures() bool {
	return r.Counts().Failures() > 0
}

type routeJSON struct {
	Source      string       `json:"source"`
	Member      string       `json:"member,omitempty"`
	Name        string       `json:"name"`
	Destination string       `json:"destination,omitempty"`
	FinalPath   string       `json:"final_path,omitempty"`
	Outcome     RouteOutcome `json:"outcome"`
	Reason      string       `json:"reason,omitempty"`
	Renamed     bool         `json:"renamed,omitempty"`
	Bytes       int64        `json:"bytes,omitempty"`
	Digest      string       `json:"blake3,omitempty"`
	Error       string       `json:"error,omitempty"`
}

type promotionJSON struct {
	Stream    string           `json:"stream"`
	Source    string           `json:"source"`
	Outcome   rotation.Outcome `json:"outcome"`
	Reason    string           `json:"reason"`
	New       string           `json:"new_version,omitempty"`
	Current   string           `json:"current_version,omitempty"`
	Retired   []string         `json:"retired,omitempty"`
	Installed string           `json:"installed,omitempty"`
	DryRun    bool             `json:"dry_run,omitempty"`
	Error     string           `json:"error,omitempty"`
}

type reportJSON struct {
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	DryRun     bool            `json:"dry_run"`
	Counts     Counts          `json:"counts"`
	Routes     []routeJSON     `json:"routes"`
	Promotions []promotionJSON `json:"promotions"`
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// MarshalJSON renders errors as strings and tokens as labels
func (r *Report) MarshalJSON() ([]byte, error) {
	counts := r.Counts()

	r.mu.Lock()
	defer r.mu.Unlock()

	out := reportJSON{
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		DryRun:     r.DryRun,
		Counts:     counts,
		Routes:     make([]routeJSON, 0, len(r.Routes)),
		Promotions: make([]promotionJSON, 0, len(r.Promotions)),
	}
	for _, rr := range r.Routes {
		out.Routes = append(out.Routes, routeJSON{
			Source:      rr.Source,
			Member:      rr.Member,
			Name:        rr.Name,
			Destination: rr.Destination,
			FinalPath:   rr.FinalPath,
			Outcome:     rr.Outcome,
			Reason:      rr.Reason,
			Renamed:     rr.Renamed,
			Bytes:       rr.Bytes,
			Digest:      rr.Digest,
			Error:       errString(rr.Err),
		})
	}
	for _, p := range r.Promotions {
		pj := promotionJSON{
			Stream:    p.Stream,
			Source:    p.Source.String(),
			Outcome:   p.Outcome,
			Reason:    p.Reason.String(),
			Retired:   p.Retired,
			Installed: p.Installed,
			DryRun:    p.DryRun,
			Error:     errString(p.Err),
		}
		if p.NewToken != nil {
			pj.New = p.NewToken.Label
		}
		if p.CurrentToken != nil {
			pj.Current = p.CurrentToken.Label
		}
		out.Promotions = append(out.Promotions, pj)
	}
	return json.Marshal(out)
}
