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
Package status holds the outcome of a batch and renders it.

🎯 Purpose:
- Per-file, per-destination route results
- Per-stream promotion results
- Counts and the JSON report
- User-facing rendering (pterm) and plain formatting

🔄 Flow:
1. The router appends results while planning and executing
2. Report.Counts summarizes them
3. Formatter and UserLogger present them; MarshalJSON serializes them

📝 Notes:
Errors are carried as values in results and only rendered as strings at the
edges, so a report can be built, inspected in tests, and printed later.
*/
package status
