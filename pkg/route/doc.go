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
Package route holds the in-memory rule table and the matcher that decides which
destination directories a file must reach.

A rule pairs a filename pattern with an ordered list of destinations. Patterns are
doublestar globs, or regular expressions when prefixed with "re:". Matching is
case-insensitive and always runs against the bare filename:

	table, err := route.NewTable([]route.Rule{
		{
			Pattern: "SYSFR_PGM_SALES_DATA_*.csv",
			Destinations: []route.Destination{
				{Path: "/data/scorecard", Categories: []string{"scorecard"}},
				{Path: "/data/bb", Categories: []string{"bb"}},
			},
		},
	})

	dests, err := table.ResolveDestinations("SYSFR_PGM_SALES_DATA_2025W41.csv", route.MustFilter("scorecard"))
	// dests == [{Path: "/data/scorecard", ...}]

A Table is immutable once built and safe for concurrent use. Resolution results are
memoized per (filename, filter, origin); the memo never changes what a call returns.
*/
package route
