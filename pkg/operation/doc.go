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

/*
Package operation drives one batch from scanned inputs to a status report.

🔄 Flow:
1. Partition inputs: files claimed by a stream become promotion candidates, everything else is routed
2. Resolve destinations for each routed file or archive member, falling back to the unrouted directory
3. Derive target names (extension override, next-month naming) and resolve conflicts
4. Execute copy jobs on a bounded pool
5. Promote stream candidates, streams in parallel, candidates of one stream in order

⚡ Failure model:
Every per-file and per-stream failure lands in the report. Plan and Run only
return an error for a misconfigured Router or a cancelled context.

🔍 Example:

	r, err := operation.New(operation.Options{
		Table:       table,
		Streams:     streams,
		Filter:      route.MustFilter("scorecard"),
		Policy:      conflict.RenameWithSuffix,
		Concurrency: 4,
	})
	report, err := r.Run(ctx, inputs)
*/
package operation
