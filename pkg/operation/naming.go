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

package operation

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/imse8006/csv-zip-router/pkg/route"
	"github.com/imse8006/csv-zip-router/pkg/version"
)

// monthNamer derives next_month target names; directory listings are read once per plan
type monthNamer struct {
	now      time.Time
	listings map[string][]os.DirEntry
}

func newMonthNamer(now time.Time) *monthNamer {
	return &monthNamer{now: now, listings: map[string][]os.DirEntry{}}
}

// targetName applies the destination's extension override, then its naming rule
func (m *monthNamer) targetName(d route.Destination, name string) string {
	if d.ExtensionOverride != "" {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + d.ExtensionOverride
	}
	if d.Naming != route.NamingNextMonth {
		return name
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	month := version.PreviousMonth(m.now)
	if latest, ok := m.latestMonth(d.Path, stem, ext); ok {
		month = latest.Next()
	}
	return stem + "_" + month.String() + ext
}

// latestMonth finds the newest stem_<Mon>ext already in dir. Newest is by
// modification time, ties broken by calendar order.
func (m *monthNamer) latestMonth(dir, stem, ext string) (version.Month, bool) {
	entries, ok := m.listings[dir]
	if !ok {
		entries, _ = os.ReadDir(dir)
		m.listings[dir] = entries
	}

	var (
		best     version.Month
		bestTime time.Time
		found    bool
	)
	prefix, suffix := strings.ToLower(stem+"_"), strings.ToLower(ext)
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		// lowercasing can change byte length, so slice only the lowered name
		rest, ok := strings.CutPrefix(strings.ToLower(e.Name()), prefix)
		if !ok {
			continue
		}
		if rest, ok = strings.CutSuffix(rest, suffix); !ok {
			continue
		}
		mon, err := version.ParseMonth(rest)
		if err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		mod := info.ModTime()
		if !found || mod.After(bestTime) || (mod.Equal(bestTime) && mon > best) {
			best, bestTime, found = mon, mod, true
		}
	}
	return best, found
}
