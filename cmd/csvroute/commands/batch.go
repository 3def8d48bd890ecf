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

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/imse8006/csv-zip-router/cmd/csvroute/opts"
	csvlog "github.com/imse8006/csv-zip-router/pkg/log"
	"github.com/imse8006/csv-zip-router/pkg/operation"
	"github.com/imse8006/csv-zip-router/pkg/source"
	"github.com/imse8006/csv-zip-router/pkg/status"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// batchFunc is one of the router's entry points
type batchFunc func(r *operation.Router, ctx context.Context, inputs []source.Input) (*status.Report, error)

// runBatch loads inputs, runs fn and prints the report in the selected style
func runBatch(cmd *cobra.Command, o *opts.RootOpts, name string, args []string, fn batchFunc) error {
	ctx := zerolog.Ctx(cmd.Context()).With().Str("command", name).Logger().WithContext(cmd.Context())

	router, err := o.Router(ctx)
	if err != nil {
		return err
	}

	inputs, err := o.Inputs(ctx, args)
	if err != nil {
		return errors.Errorf("scanning inputs: %w", err)
	}

	report, err := fn(router, ctx, inputs)
	if err != nil {
		return errors.Errorf("running %s: %w", name, err)
	}

	out := cmd.OutOrStdout()
	switch {
	case o.JSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return errors.Errorf("encoding report: %w", err)
		}
	case o.Style == opts.StylePlain:
		renderPlain(ctx, out, o, inputDescription(o, args), report)
	default:
		if err := renderPretty(o, inputDescription(o, args), report); err != nil {
			return errors.Errorf("rendering summary: %w", err)
		}
	}

	if o.FailOnError && report.HasFailures() {
		return errors.Errorf("%w: %s", opts.ErrBatchFailures, status.FormatCounts(report.Counts()))
	}
	return nil
}

func renderPlain(ctx context.Context, out io.Writer, o *opts.RootOpts, input string, report *status.Report) {
	l := csvlog.NewWithZerolog(out, *zerolog.Ctx(ctx))
	l.StartBatch(ctx, csvlog.BatchOperation{
		Input:  input,
		Config: o.Config.String(),
		Filter: o.Filter,
		DryRun: o.DryRun,
	})
	report.Render(ctx, l)
	l.EndBatch(ctx)

	line := status.FormatCounts(report.Counts())
	if report.HasFailures() {
		l.Warning(line)
	} else {
		l.Success(line)
	}
}

func renderPretty(o *opts.RootOpts, input string, report *status.Report) error {
	mode := "routing"
	if report.DryRun {
		mode = "planning"
	}
	o.UserLogger.LogHeader(mode + " " + input + " with " + o.Config.String())
	for _, r := range report.Routes {
		o.UserLogger.LogRoute(r)
	}
	for _, p := range report.Promotions {
		o.UserLogger.LogPromotion(p)
	}
	return o.UserLogger.LogSummary(report)
}

func inputDescription(o *opts.RootOpts, args []string) string {
	if len(args) == 0 {
		return o.Input
	}
	if len(args) == 1 {
		return args[0]
	}
	return fmt.Sprintf("%s (+%d more)", args[0], len(args)-1)
}
