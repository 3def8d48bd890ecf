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
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/imse8006/csv-zip-router/pkg/conflict"
	"github.com/imse8006/csv-zip-router/pkg/copier"
	"github.com/imse8006/csv-zip-router/pkg/rotation"
	"github.com/imse8006/csv-zip-router/pkg/route"
	"github.com/imse8006/csv-zip-router/pkg/source"
	"github.com/imse8006/csv-zip-router/pkg/status"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// planner carries the per-batch state of one Plan call
type planner struct {
	r        *Router
	resolver *conflict.Resolver
	plan     *Plan
	names    *monthNamer
}

// 🗺️ Plan decides every write and promotion of a batch without touching disk
func (r *Router) Plan(ctx context.Context, inputs []source.Input) (*Plan, error) {
	logger := zerolog.Ctx(ctx)

	opts := []conflict.Option{conflict.WithReservations()}
	if r.opts.Exists != nil {
		opts = append(opts, conflict.WithExists(r.opts.Exists))
	}
	p := &planner{
		r:        r,
		resolver: conflict.NewResolver(opts...),
		plan:     &Plan{},
		names:    newMonthNamer(r.opts.Clock()),
	}

	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.input(ctx, in)
	}

	logger.Debug().
		Int("jobs", len(p.plan.Jobs)).
		Int("settled", len(p.plan.Settled)).
		Int("candidates", len(p.plan.Candidates)).
		Msg("batch planned")
	return p.plan, nil
}

func (p *planner) input(ctx context.Context, in source.Input) {
	claimedMembers := map[string]bool{}
	for _, s := range p.r.opts.Streams {
		if !s.ClaimsFile(in.Name) {
			continue
		}
		if !s.WantsMembers() {
			p.plan.Candidates = append(p.plan.Candidates, Candidate{Stream: s, Source: rotation.Source{Path: in.Path}})
			return
		}
		for _, m := range in.Members {
			if !claimedMembers[m.Path] && s.ClaimsMember(m.Path) {
				claimedMembers[m.Path] = true
				p.plan.Candidates = append(p.plan.Candidates, Candidate{Stream: s, Source: rotation.Source{Path: in.Path, Member: m.Path}})
			}
		}
	}

	if !in.Archive {
		p.file(ctx, in.Path, "", in.Name, route.OriginPlain)
		return
	}

	if in.Err != nil {
		p.settle(status.RouteResult{
			Source:  in.Path,
			Name:    in.Name,
			Outcome: status.RouteFailed,
			Reason:  status.ReasonUnreadable,
			Err:     errors.Errorf("%w: %w", copier.ErrArchiveMemberCorrupt, in.Err),
		})
		return
	}

	for _, m := range in.Members {
		if claimedMembers[m.Path] {
			continue
		}
		if !matchMember(p.r.opts.MemberPattern, m.Name) {
			p.settle(status.RouteResult{
				Source:  in.Path,
				Member:  m.Path,
				Name:    m.Name,
				Outcome: status.RouteSkipped,
				Reason:  status.ReasonNotMember,
			})
			continue
		}
		p.file(ctx, in.Path, m.Path, m.Name, route.OriginArchive)
	}
}

// 🧭 Resolution is where one file is written before naming and conflicts apply
type Resolution struct {
	Destinations []route.Destination
	Default      bool   // Destinations is the default destination
	Reason       string // why nothing is written, when Destinations is empty
}

// Resolve applies the active filter and the default destination to one bare filename
func (r *Router) Resolve(name string, origin route.Origin) (Resolution, error) {
	dests, err := r.opts.Table.Resolve(name, r.opts.Filter, origin)
	if err != nil {
		return Resolution{}, err
	}
	if len(dests) > 0 {
		return Resolution{Destinations: dests}, nil
	}
	if !r.opts.Filter.IsAll() {
		if all, _ := r.opts.Table.Resolve(name, route.All(), origin); len(all) > 0 {
			return Resolution{Reason: status.ReasonFiltered}, nil
		}
	}
	if r.opts.DefaultDest == "" {
		return Resolution{Reason: status.ReasonNoRoute}, nil
	}
	return Resolution{Destinations: []route.Destination{{Path: r.opts.DefaultDest}}, Default: true}, nil
}

// file plans every destination of one plain file or archive member
func (p *planner) file(ctx context.Context, src, member, name string, origin route.Origin) {
	base := status.RouteResult{Source: src, Member: member, Name: name}

	resolved, err := p.r.Resolve(name, origin)
	if err != nil {
		base.Outcome, base.Reason, base.Err = status.RouteFailed, status.ReasonInvalidInput, err
		p.settle(base)
		return
	}
	if len(resolved.Destinations) == 0 {
		base.Outcome, base.Reason = status.RouteSkipped, resolved.Reason
		p.settle(base)
		return
	}
	if resolved.Default {
		zerolog.Ctx(ctx).Debug().Str("file", name).Str("dest", p.r.opts.DefaultDest).Msg("no rule matched, using default destination")
	}

	for _, d := range resolved.Destinations {
		res := base
		res.Destination = d.Path

		target := filepath.Join(d.Path, p.names.targetName(d, name))
		dec, err := p.resolver.Resolve(target, p.r.opts.Policy)
		switch {
		case errors.Is(err, conflict.ErrTargetReserved):
			res.Outcome, res.Reason = status.RouteFailed, status.ReasonDuplicate
			res.FinalPath = target
			res.Err = errors.Errorf("%w: %s is produced twice in this batch", route.ErrAmbiguousMatch, target)
			p.settle(res)
			continue
		case err != nil:
			res.Outcome, res.Reason, res.Err = status.RouteFailed, status.ReasonConflict, err
			p.settle(res)
			continue
		case dec.Skip:
			res.Outcome, res.Reason, res.FinalPath = status.RouteSkipped, status.ReasonExists, dec.FinalPath
			p.settle(res)
			continue
		}

		res.FinalPath = dec.FinalPath
		res.Renamed = dec.Renamed
		p.plan.Jobs = append(p.plan.Jobs, Job{
			Copy: copier.Job{
				SourcePath:      src,
				Member:          member,
				FinalPath:       dec.FinalPath,
				IsArchiveMember: member != "",
			},
			Result: res,
		})
	}
}

func (p *planner) settle(r status.RouteResult) {
	p.plan.Settled = append(p.plan.Settled, r)
}

func matchMember(pattern, name string) bool {
	ok, err := doublestar.Match(strings.ToLower(pattern), strings.ToLower(name))
	return err == nil && ok
}
