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
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/imse8006/csv-zip-router/pkg/rotation"
	"github.com/imse8006/csv-zip-router/pkg/version"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 35 // Base width for filename
	typeWidth   = 15 // Width for outcome
	statusWidth = 15 // Width for detail text
)

// 🎯 FormatRoute formats a route result as one aligned console line
func FormatRoute(r RouteResult) string {
	var prefix string
	switch r.Outcome {
	case RouteRouted:
		prefix = color.GreenString("✓")
	case RoutePlanned:
		prefix = color.CyanString("•")
	case RouteSkipped:
		prefix = color.HiBlackString("-")
	case RouteFailed:
		prefix = color.RedString("✗")
	}

	name := r.Name
	if r.Member != "" {
		name = filepath.Base(r.Source) + "!" + r.Name
	}

	detail := r.Destination
	if r.FinalPath != "" {
		detail = r.FinalPath
	}
	if r.Reason != "" {
		detail = r.Reason + " " + detail
	}
	if r.Err != nil {
		detail = r.Err.Error()
	}

	return fmt.Sprintf("%s%s %s %s %s",
		strings.Repeat(" ", fileIndent),
		prefix,
		fmt.Sprintf("%-*s", nameWidth, name),
		fmt.Sprintf("%-*s", typeWidth, r.Outcome),
		strings.TrimSpace(detail),
	)
}

// 🎯 FormatPromotion formats a promotion result as one aligned console line
func FormatPromotion(p rotation.Result) string {
	var prefix string
	switch p.Outcome {
	case rotation.OutcomePromoted:
		prefix = color.GreenString("⟳")
	case rotation.OutcomeRejected:
		prefix = color.HiBlackString("-")
	default:
		prefix = color.RedString("✗")
	}

	versions := fmt.Sprintf("%s → %s", label(p.CurrentToken), label(p.NewToken))
	detail := p.Reason.String()
	if p.Err != nil && !p.OK() {
		detail = p.Err.Error()
	}
	if p.DryRun {
		detail += " (dry run)"
	}

	return fmt.Sprintf("%s%s %s %s %s %s",
		strings.Repeat(" ", fileIndent),
		prefix,
		fmt.Sprintf("%-*s", nameWidth, p.Stream+": "+p.Source.Name()),
		fmt.Sprintf("%-*s", typeWidth, p.Outcome),
		fmt.Sprintf("%-*s", statusWidth, versions),
		detail,
	)
}

// FormatCounts renders counts as a single summary line
func FormatCounts(c Counts) string {
	parts := []string{
		fmt.Sprintf("%d routed", c.Routed),
		fmt.Sprintf("%d skipped", c.Skipped),
		fmt.Sprintf("%d failed", c.Failed),
	}
	if c.Planned > 0 {
		parts = append(parts, fmt.Sprintf("%d planned", c.Planned))
	}
	if n := c.Promoted + c.Rejected + c.Aborted + c.PartiallyFailed; n > 0 {
		parts = append(parts, fmt.Sprintf("%d promoted, %d rejected, %d aborted, %d partial",
			c.Promoted, c.Rejected, c.Aborted, c.PartiallyFailed))
	}
	return strings.Join(parts, ", ")
}

func label(t *version.Token) string {
	if t == nil {
		return "none"
	}
	return t.Label
}
