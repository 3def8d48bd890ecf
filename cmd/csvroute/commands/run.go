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

// NewRunCmd creates the run command, route then promote
func NewRunCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [FILE...]",
		Short: "Route the batch, then promote its stream files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, opts, "run", args, (*operation.Router).Run)
		},
	}

	return cmd
}
