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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/imse8006/csv-zip-router/cmd/csvroute/opts"
	"github.com/imse8006/csv-zip-router/pkg/route"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// resolution is what the rules command reports for one filename
type resolution struct {
	Name         string   `json:"name"`
	Destinations []string `json:"destinations"`
	Default      bool     `json:"default,omitempty"`
	Reason       string   `json:"reason,omitempty"`
}

// NewRulesCmd creates the rules command
func NewRulesCmd(opts *opts.RootOpts) *cobra.Command {
	var archive bool

	cmd := &cobra.Command{
		Use:   "rules [FILENAME...]",
		Short: "Show the rule table, or where filenames would be routed",
		Long: `Without arguments, rules prints the loaded rule table and streams.
With filenames, it prints the destinations each name resolves to under the
active filter, without touching the filesystem.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := opts.Config.RouteTable()
			if err != nil {
				return errors.Errorf("building rule table: %w", err)
			}
			if len(args) == 0 {
				return printTable(cmd, opts, table)
			}

			router, err := opts.Router(cmd.Context())
			if err != nil {
				return err
			}
			origin := route.OriginPlain
			if archive {
				origin = route.OriginArchive
			}

			var out []resolution
			for _, name := range args {
				res, err := router.Resolve(name, origin)
				if err != nil {
					return errors.Errorf("resolving %s: %w", name, err)
				}
				r := resolution{Name: name, Destinations: []string{}, Default: res.Default, Reason: res.Reason}
				for _, d := range res.Destinations {
					r.Destinations = append(r.Destinations, d.Path)
				}
				out = append(out, r)
			}

			if opts.JSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			for _, r := range out {
				switch {
				case len(r.Destinations) == 0:
					fmt.Fprintf(cmd.OutOrStdout(), "%s → (%s)\n", r.Name, r.Reason)
				case r.Default:
					fmt.Fprintf(cmd.OutOrStdout(), "%s → %s (default)\n", r.Name, r.Destinations[0])
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "%s → %s\n", r.Name, strings.Join(r.Destinations, ", "))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&archive, "archive", false, "resolve the names as archive members")

	return cmd
}

func printTable(cmd *cobra.Command, opts *opts.RootOpts, table *route.Table) error {
	data := pterm.TableData{{"#", "Pattern", "Archive", "Destination", "Categories", "Naming"}}
	for i, r := range table.Rules() {
		for j, d := range r.Destinations {
			idx, pattern, archive := "", "", ""
			if j == 0 {
				idx, pattern = fmt.Sprint(i+1), r.Pattern
				if r.SourceIsArchive {
					archive = "yes"
				}
			}
			dest := d.Path
			if d.ExtensionOverride != "" {
				dest += " (*" + d.ExtensionOverride + ")"
			}
			cats := strings.Join(d.Categories, ",")
			if cats == "" {
				cats = "*"
			}
			data = append(data, []string{idx, pattern, archive, dest, cats, string(d.Naming)})
		}
	}

	rendered, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Errorf("rendering rule table: %w", err)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, rendered)

	if cats := table.Categories(); len(cats) > 0 {
		fmt.Fprintf(w, "categories: %s\n", strings.Join(cats, ", "))
	}
	if opts.Config.DefaultDest != "" {
		fmt.Fprintf(w, "default destination: %s\n", opts.Config.DefaultDest)
	}
	for _, s := range opts.Config.Streams {
		member := ""
		if s.Member != "" {
			member = "!" + s.Member
		}
		fmt.Fprintf(w, "stream %s: %s%s → %s (previous %s)\n", s.Name, s.Source, member, s.Latest, s.Previous)
	}
	return nil
}
