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
	"github.com/imse8006/csv-zip-router/cmd/csvroute/opts"
	"github.com/imse8006/csv-zip-router/pkg/operation"
	"github.com/spf13/cobra"
)

// NewRouteCmd creates the route command
func NewRouteCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "route [FILE...]",
		Short: "Copy a batch of files to the destinations their rules name",
		Long: `Route classifies every file of the input directory (or the files given as
arguments) against the rule table and copies it to each matching destination.
Members of .zip archives are routed individually. Files claimed by a stream
are left for the promote command.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, opts, "route", args, (*operation.Router).Route)
		},
	}

	return cmd
}
