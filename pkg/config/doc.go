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

// Package config loads the rule table and stream definitions.
//
// The format is chosen by file extension through a parser registry:
//
//   - .yaml / .yml
//   - .json / .jsonc (comments and trailing commas allowed)
//   - .hcl
//   - .toml
//
// A YAML or JSON document may also be the legacy flat list of
// {pattern, dest} pairs, which becomes one rule per entry:
//
//	[
//	  {"pattern": "sales_*.csv", "dest": "/data/landing/sales"},
//	  {"pattern": "inventory_*.csv", "dest": "/data/landing/inventory"}
//	]
//
// The full form carries categories, per-destination extension overrides and
// next-month naming, plus the live mirror streams:
//
//	default_dest: /data/unrouted
//	rules:
//	  - pattern: "SYSFR_PGM_SALES_DATA_*.csv"
//	    destinations:
//	      - path: /data/scorecard
//	        categories: [scorecard]
//	      - path: /data/bb
//	        categories: [bb]
//	        extension: .txt
//	streams:
//	  - name: scorecard
//	    source: "Scorecard_*.xlsx"
//	    latest: /mirror/Latest
//	    previous: /mirror/Previous
//	    version: [iso_week]
package config
