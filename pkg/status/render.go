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
	"context"
	"path/filepath"

	csvlog "github.com/imse8006/csv-zip-router/pkg/log"
	"github.com/imse8006/csv-zip-router/pkg/rotation"
)

// RouteOperation converts a route result into a console line
func RouteOperation(r RouteResult) csvlog.FileOperation {
	name := r.Name
	if r.Member != "" {
		name = filepath.Base(r.Source) + "!" + r.Name
	}
	target := r.FinalPath
	if target == "" {
		target = r.Destination
	}
	if r.Reason != "" && r.Outcome != RouteRouted {
		target = r.Reason
	}
	if r.Err != nil {
		target = r.Err.Error()
	}
	return csvlog.FileOperation{
		Path:      name,
		Type:      "route",
		Status:    r.Outcome.String(),
		Target:    target,
		IsNew:     r.Outcome == RouteRouted,
		IsSkipped: r.Outcome == RouteSkipped,
		IsFailed:  r.Outcome == RouteFailed,
	}
}

// PromotionOperation converts a promotion result into a console line
func PromotionOperation(p rotation.Result) csvlog.FileOperation {
	target := label(p.CurrentToken) + " → " + label(p.NewToken) + " " + p.Reason.String()
	if p.Err != nil && !p.OK() {
		target = p.Err.Error()
	}
	return csvlog.FileOperation{
		Path:      p.Stream + ": " + p.Source.Name(),
		Type:      "stream",
		Status:    p.Outcome.String(),
		Target:    target,
		IsRotated: p.Outcome == rotation.OutcomePromoted,
		IsSkipped: p.Outcome == rotation.OutcomeRejected,
		IsFailed:  !p.OK(),
	}
}

// Render writes every result of the report through the console logger
func (r *Report) Render(ctx context.Context, l *csvlog.Logger) {
	for _, rr := range r.Routes {
		l.LogFileOperation(ctx, RouteOperation(rr))
	}
	for _, p := range r.Promotions {
		l.LogFileOperation(ctx, PromotionOperation(p))
	}
}
