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

// NewPromoteCmd creates the promote command
func NewPromoteCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "promote [FILE...]",
		Short: "Rotate stream files into their Latest/Previous slots",
		Long: `Promote offers every stream file of the batch to its stream. A file whose
version token is newer than what Latest holds retires Latest into Previous
and takes its place. Older, equal or unversioned files are rejected.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, opts, "promote", args, (*operation.Router).Rotate)
		},
	}

	return cmd
}
