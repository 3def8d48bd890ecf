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

package main

import (
	"io"
	"time"

	"github.com/imse8006/csv-zip-router/cmd/csvroute/commands"
	"github.com/imse8006/csv-zip-router/cmd/csvroute/opts"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// newRootCmd creates the root command with all subcommands attached
func newRootCmd() *cobra.Command {
	o := opts.New()

	rootCmd := &cobra.Command{
		Use:   "csvroute",
		Short: "Route downloaded data files and rotate live mirror streams",
		Long: `csvroute copies a batch of already downloaded files (plain files and the
members of .zip archives) to the destinations a rule table names, and keeps
Latest/Previous mirror directories up to date for versioned streams.

Every flag can be defaulted through CSVROUTE_<FLAG> environment variables,
read from the process environment or a .env file in the working directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipsConfig(cmd) {
				return nil
			}
			if err := opts.ApplyEnv(cmd.Flags()); err != nil {
				return err
			}
			ctx := setupLogging(cmd.ErrOrStderr(), o.Debug).WithContext(cmd.Context())
			cmd.SetContext(ctx)
			return o.Load(ctx, cmd.OutOrStdout())
		},
	}

	addRootFlags(rootCmd, o)

	rootCmd.AddCommand(
		commands.NewRouteCmd(o),
		commands.NewPromoteCmd(o),
		commands.NewRunCmd(o),
		commands.NewRulesCmd(o),
	)

	return rootCmd
}

// skipsConfig reports whether cmd is one of cobra's built-in commands
func skipsConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd, "completion":
			return true
		}
	}
	return false
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, o *opts.RootOpts) {
	f := cmd.PersistentFlags()
	f.StringVarP(&o.ConfigFile, "config", "c", o.ConfigFile, "rule table file (default: csvroute.* in the working directory, then the XDG config dir)")
	f.StringVarP(&o.Input, "input", "i", o.Input, "directory of downloaded files")
	f.StringVarP(&o.Filter, "filter", "f", o.Filter, "destination categories to write, comma separated, or all")
	f.Var(&o.Policy, "policy", "what to do when a target exists: overwrite, skip or rename")
	f.IntVarP(&o.Concurrency, "concurrency", "n", o.Concurrency, "copies in flight")
	f.StringVar(&o.DefaultDest, "default-dest", o.DefaultDest, "directory for files no rule matches")
	f.BoolVar(&o.DryRun, "dry-run", o.DryRun, "plan everything, write nothing")
	f.BoolVar(&o.JSON, "json", o.JSON, "print the report as JSON")
	f.BoolVar(&o.FailOnError, "fail-on-error", o.FailOnError, "exit non-zero when any file or stream failed")
	f.StringVar(&o.Style, "style", o.Style, "console style: pretty or plain")
	f.BoolVarP(&o.Debug, "debug", "d", o.Debug, "enable debug logging")
}

// setupLogging configures zerolog and pterm based on flags
func setupLogging(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
		pterm.EnableDebugMessages()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}
