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

package opts

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/imse8006/csv-zip-router/pkg/config"
	"github.com/imse8006/csv-zip-router/pkg/conflict"
	"github.com/imse8006/csv-zip-router/pkg/operation"
	"github.com/imse8006/csv-zip-router/pkg/route"
	"github.com/imse8006/csv-zip-router/pkg/source"
	"github.com/imse8006/csv-zip-router/pkg/status"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"gitlab.com/tozd/go/errors"
)

// EnvPrefix prefixes the environment variables that default flags
const EnvPrefix = "CSVROUTE_"

// ErrBatchFailures is returned under --fail-on-error when a batch had failures
var ErrBatchFailures = errors.Base("batch finished with failures")

// Output styles
const (
	StylePretty = "pretty"
	StylePlain  = "plain"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	ConfigFile  string
	Input       string
	Filter      string
	Policy      conflict.Policy
	Concurrency int
	DefaultDest string
	DryRun      bool
	JSON        bool
	FailOnError bool
	Style       string
	Debug       bool

	Config     *config.Config
	UserLogger *status.UserLogger

	// Clock is only set by tests
	Clock func() time.Time
}

// New returns options holding the flag defaults
func New() *RootOpts {
	return &RootOpts{
		Input:       ".",
		Filter:      "all",
		Policy:      conflict.RenameWithSuffix,
		Concurrency: 4,
		Style:       StylePretty,
	}
}

// 🔑 EnvName maps a flag name to its environment variable, e.g. default-dest
// becomes CSVROUTE_DEFAULT_DEST
func EnvName(flag string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// ApplyEnv sets every flag the command line left alone from its environment variable
func ApplyEnv(flags *pflag.FlagSet) error {
	var errs []error
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			return
		}
		v, ok := os.LookupEnv(EnvName(f.Name))
		if !ok || v == "" {
			return
		}
		if err := f.Value.Set(v); err != nil {
			errs = append(errs, errors.Errorf("%s: %w", EnvName(f.Name), err))
		}
	})
	return errors.Join(errs...)
}

// 🎯 Load finds and loads the rule table and validates the flags against it.
// User-facing output goes to out.
func (o *RootOpts) Load(ctx context.Context, out io.Writer) error {
	switch o.Style {
	case StylePretty, StylePlain:
	default:
		return errors.Errorf("unknown style %q, expected %s or %s", o.Style, StylePretty, StylePlain)
	}
	if o.Concurrency < 1 {
		return errors.Errorf("concurrency must be at least 1, got %d", o.Concurrency)
	}

	path := o.ConfigFile
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return errors.Errorf("getting working directory: %w", err)
		}
		if path, err = config.FindConfig(wd); err != nil {
			return err
		}
	}

	cfg, err := config.LoadConfig(ctx, path)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}
	o.Config = cfg
	o.UserLogger = status.NewUserLogger(ctx, out)

	zerolog.Ctx(ctx).Debug().Str("config", cfg.String()).Msg("configuration ready")
	return nil
}

// 🏭 Router builds the batch router from the loaded config and flags
func (o *RootOpts) Router(ctx context.Context) (*operation.Router, error) {
	if o.Config == nil {
		return nil, errors.Errorf("config not loaded")
	}

	table, err := o.Config.RouteTable()
	if err != nil {
		return nil, errors.Errorf("building rule table: %w", err)
	}
	table.LogSummary(ctx)

	streams, err := o.Config.RotationStreams()
	if err != nil {
		return nil, errors.Errorf("building streams: %w", err)
	}

	filter, err := o.ParsedFilter()
	if err != nil {
		return nil, err
	}

	defaultDest := o.Config.DefaultDest
	if o.DefaultDest != "" {
		if defaultDest, err = filepath.Abs(o.DefaultDest); err != nil {
			return nil, errors.Errorf("resolving default destination: %w", err)
		}
	}

	return operation.New(operation.Options{
		Table:         table,
		Streams:       streams,
		Filter:        filter,
		Policy:        o.Policy,
		Concurrency:   o.Concurrency,
		DefaultDest:   defaultDest,
		MemberPattern: o.Config.MemberPattern,
		DryRun:        o.DryRun,
		Clock:         o.Clock,
	})
}

// ParsedFilter returns the --filter value as a category filter
func (o *RootOpts) ParsedFilter() (route.Filter, error) {
	filter, err := route.ParseFilter(o.Filter)
	if err != nil {
		return route.Filter{}, errors.Errorf("parsing filter %q: %w", o.Filter, err)
	}
	return filter, nil
}

// 📥 Inputs scans the explicit files in args, or the --input directory when there are none
func (o *RootOpts) Inputs(ctx context.Context, args []string) ([]source.Input, error) {
	if len(args) > 0 {
		return source.ScanFiles(ctx, args)
	}
	return source.Scan(ctx, o.Input)
}
