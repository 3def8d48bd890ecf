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
	"fmt"
	"io"

	"github.com/imse8006/csv-zip-router/pkg/rotation"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 📢 UserLogger provides user-friendly feedback about a batch
type UserLogger struct {
	w   io.Writer
	log zerolog.Logger // for debug/error logging
}

// 🎯 NewUserLogger creates a new user logger
func NewUserLogger(ctx context.Context, w io.Writer) *UserLogger {
	return &UserLogger{
		w:   w,
		log: *zerolog.Ctx(ctx),
	}
}

// printer binds a pterm prefix printer to the logger's writer
func (u *UserLogger) printer(base pterm.PrefixPrinter, prefix string) *pterm.PrefixPrinter {
	return base.WithPrefix(pterm.Prefix{Text: prefix, Style: base.Prefix.Style}).WithWriter(u.w)
}

// 📝 LogRoute prints one route result with a matching prefix printer
func (u *UserLogger) LogRoute(r RouteResult) {
	var printer *pterm.PrefixPrinter
	switch r.Outcome {
	case RouteRouted:
		printer = u.printer(pterm.Success, "✨")
	case RoutePlanned:
		printer = u.printer(pterm.Info, "📝")
	case RouteSkipped:
		printer = u.printer(pterm.Debug, "⏭️")
	default:
		printer = u.printer(pterm.Error, "❌")
	}

	msg := FormatRoute(r)
	printer.Println(msg)
	if r.Err != nil {
		u.log.Error().Err(r.Err).Str("source", r.Source).Str("destination", r.Destination).Msg("route failed")
	} else {
		u.log.Debug().Str("source", r.Source).Str("final", r.FinalPath).Stringer("outcome", r.Outcome).Msg("route")
	}
}

// 🔄 LogPromotion prints one promotion result
func (u *UserLogger) LogPromotion(p rotation.Result) {
	var printer *pterm.PrefixPrinter
	switch p.Outcome {
	case rotation.OutcomePromoted:
		printer = u.printer(pterm.Success, "🔄")
	case rotation.OutcomeRejected:
		printer = u.printer(pterm.Warning, "⏸️")
	default:
		printer = u.printer(pterm.Error, "❌")
	}
	printer.Println(FormatPromotion(p))
}

// 📊 LogSummary prints the counts table and the one-line summary
func (u *UserLogger) LogSummary(r *Report) error {
	c := r.Counts()
	data := pterm.TableData{
		{"Outcome", "Count"},
		{"routed", fmt.Sprint(c.Routed)},
		{"skipped", fmt.Sprint(c.Skipped)},
		{"failed", fmt.Sprint(c.Failed)},
	}
	if r.DryRun {
		data = append(data, []string{"planned", fmt.Sprint(c.Planned)})
	}
	if len(r.Promotions) > 0 {
		data = append(data,
			[]string{"promoted", fmt.Sprint(c.Promoted)},
			[]string{"rejected", fmt.Sprint(c.Rejected)},
			[]string{"aborted", fmt.Sprint(c.Aborted)},
			[]string{"partially failed", fmt.Sprint(c.PartiallyFailed)},
		)
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(u.w, table)

	line := FormatCounts(c)
	if c.Failures() > 0 {
		u.printer(pterm.Warning, "⚠️").Println(line)
		u.log.Warn().Interface("counts", c).Msg("batch finished with failures")
	} else {
		u.printer(pterm.Success, "✅").Println(line)
		u.log.Info().Interface("counts", c).Msg("batch finished")
	}
	return nil
}

// 📦 LogHeader prints a section header
func (u *UserLogger) LogHeader(description string) {
	u.printer(pterm.Info, "📦").Println(description)
	u.log.Info().Msg(description)
}
