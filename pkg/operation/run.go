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
	"context"

	"github.com/imse8006/csv-zip-router/pkg/copier"
	"github.com/imse8006/csv-zip-router/pkg/rotation"
	"github.com/imse8006/csv-zip-router/pkg/source"
	"github.com/imse8006/csv-zip-router/pkg/status"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// stage selects which halves of a batch run
type stage int

const (
	stageRoute stage = 1 << iota
	stagePromote
)

// 🏃 Run plans the batch, executes its copies, then promotes its streams
func (r *Router) Run(ctx context.Context, inputs []source.Input) (*status.Report, error) {
	return r.run(ctx, inputs, stageRoute|stagePromote)
}

// Route plans and copies the batch; stream files are set aside, not promoted
func (r *Router) Route(ctx context.Context, inputs []source.Input) (*status.Report, error) {
	return r.run(ctx, inputs, stageRoute)
}

// Rotate promotes the stream files of the batch and routes nothing
func (r *Router) Rotate(ctx context.Context, inputs []source.Input) (*status.Report, error) {
	return r.run(ctx, inputs, stagePromote)
}

func (r *Router) run(ctx context.Context, inputs []source.Input, stages stage) (*status.Report, error) {
	logger := zerolog.Ctx(ctx)
	report := status.NewReport(r.opts.Clock(), r.opts.DryRun)

	plan, err := r.Plan(ctx, inputs)
	if err != nil {
		return nil, errors.Errorf("planning batch: %w", err)
	}

	switch {
	case stages&stageRoute == 0:
		logger.Debug().Int("jobs", len(plan.Jobs)).Msg("routing disabled, dropping planned copies")
	case r.opts.DryRun:
		report.AddRoute(plan.Routes()...)
	default:
		report.AddRoute(r.execute(ctx, plan)...)
		report.AddRoute(plan.Settled...)
	}

	if stages&stagePromote != 0 {
		report.AddPromotion(r.Promote(ctx, plan.Candidates)...)
	} else if len(plan.Candidates) > 0 {
		logger.Info().Int("candidates", len(plan.Candidates)).Msg("stream files left for promote")
	}
	report.Finish(r.opts.Clock())

	c := report.Counts()
	logger.Info().
		Int("routed", c.Routed).
		Int("planned", c.Planned).
		Int("skipped", c.Skipped).
		Int("failed", c.Failed).
		Int("promoted", c.Promoted).
		Int("rejected", c.Rejected).
		Int("stream_failures", c.Aborted+c.PartiallyFailed).
		Bool("dry_run", r.opts.DryRun).
		Msg("batch finished")
	return report, nil
}

func (r *Router) execute(ctx context.Context, plan *Plan) []status.RouteResult {
	jobs := make([]copier.Job, len(plan.Jobs))
	for i, j := range plan.Jobs {
		jobs[i] = j.Copy
	}
	results := copier.Execute(ctx, jobs, r.opts.Concurrency)

	out := make([]status.RouteResult, len(results))
	for i, res := range results {
		rr := plan.Jobs[i].Result
		rr.Duration = res.Duration
		if res.OK() {
			rr.Outcome = status.RouteRouted
			rr.Bytes = res.Written.Bytes
			rr.Digest = res.Written.Digest
		} else {
			rr.Outcome = status.RouteFailed
			rr.Reason = status.ReasonCopy
			rr.Err = res.Err
		}
		out[i] = rr
	}
	return out
}

// 🔄 Promote runs candidates: streams in parallel, each stream's candidates in order
func (r *Router) Promote(ctx context.Context, candidates []Candidate) []rotation.Result {
	var (
		order  []string
		byName = map[string][]Candidate{}
	)
	for _, c := range candidates {
		if _, ok := byName[c.Stream.Name]; !ok {
			order = append(order, c.Stream.Name)
		}
		byName[c.Stream.Name] = append(byName[c.Stream.Name], c)
	}

	out := make([][]rotation.Result, len(order))
	var g errgroup.Group
	for i, name := range order {
		g.Go(func() error {
			for _, c := range byName[name] {
				out[i] = append(out[i], r.promoter.Promote(ctx, c.Stream, c.Source))
			}
			return nil
		})
	}
	_ = g.Wait()

	var flat []rotation.Result
	for _, rs := range out {
		flat = append(flat, rs...)
	}
	return flat
}
