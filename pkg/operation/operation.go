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

package operation

import (
	"time"

	"github.com/imse8006/csv-zip-router/pkg/conflict"
	"github.com/imse8006/csv-zip-router/pkg/copier"
	"github.com/imse8006/csv-zip-router/pkg/rotation"
	"github.com/imse8006/csv-zip-router/pkg/route"
	"github.com/imse8006/csv-zip-router/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// DefaultMemberPattern selects which archive members are routed
const DefaultMemberPattern = "*.csv"

// 🔧 Options contains configuration for the router
type Options struct {
	// Table is the compiled rule table
	Table *route.Table
	// Streams are the live mirror streams; files they claim are not routed
	Streams []rotation.Stream
	// Filter restricts destinations by category
	Filter route.Filter
	// Policy applies when a target already exists
	Policy conflict.Policy
	// Concurrency bounds in-flight copy jobs
	Concurrency int
	// DefaultDest receives files no rule matches; empty skips them
	DefaultDest string
	// MemberPattern selects routed archive members; empty means *.csv
	MemberPattern string
	// DryRun plans everything and writes nothing
	DryRun bool
	// Clock is injectable for next-month naming; nil means time.Now
	Clock func() time.Time
	// Exists overrides the conflict existence check, mainly for tests
	Exists func(string) (bool, error)
}

// 🧭 Router classifies, copies and promotes one batch at a time
type Router struct {
	opts     Options
	promoter *rotation.Promoter
}

// 🏭 New creates a router with the given options
func New(opts Options) (*Router, error) {
	if opts.Table == nil {
		return nil, errors.Errorf("rule table is required")
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.MemberPattern == "" {
		opts.MemberPattern = DefaultMemberPattern
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	seen := map[string]bool{}
	for _, s := range opts.Streams {
		if err := s.Validate(); err != nil {
			return nil, errors.Errorf("invalid stream: %w", err)
		}
		if seen[s.Name] {
			return nil, errors.Errorf("stream %q defined twice", s.Name)
		}
		seen[s.Name] = true
	}
	if err := rotation.CheckDisjoint(opts.Streams); err != nil {
		return nil, err
	}
	return &Router{
		opts:     opts,
		promoter: rotation.NewPromoter(rotation.WithDryRun(opts.DryRun)),
	}, nil
}

// 📋 Job is one planned write with the result it will report
type Job struct {
	Copy   copier.Job
	Result status.RouteResult
}

// 📥 Candidate is one promotion to attempt
type Candidate struct {
	Stream rotation.Stream
	Source rotation.Source
}

// 🗺️ Plan is the full decision set for a batch, before any write
type Plan struct {
	Jobs       []Job
	Settled    []status.RouteResult // skipped or failed at plan time
	Candidates []Candidate
}

// Routes returns every route result the plan implies, in a dry run
func (p *Plan) Routes() []status.RouteResult {
	out := make([]status.RouteResult, 0, len(p.Jobs)+len(p.Settled))
	for _, j := range p.Jobs {
		r := j.Result
		r.Outcome = status.RoutePlanned
		out = append(out, r)
	}
	return append(out, p.Settled...)
}
