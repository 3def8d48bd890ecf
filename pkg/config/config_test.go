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

package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/imse8006/csv-zip-router/pkg/config"
	"github.com/imse8006/csv-zip-router/pkg/route"
	"github.com/imse8006/csv-zip-router/pkg/version"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

const yamlConfig = `
default_dest: /data/unrouted
rules:
  - pattern: "SYSFR_PGM_SALES_DATA_*.csv"
    destinations:
      - path: /data/scorecard
        categories: [Scorecard]
      - path: /data/bb/
        categories: [bb]
        extension: txt
  - pattern: "re:^base_ristournable.*\\.csv$"
    archive: true
    destinations:
      - path: /data/base
        naming: next_month
streams:
  - name: scorecard
    source: "Scorecard_*.xlsx"
    latest: /mirror/Latest
    previous: /mirror/Previous
    version: [iso_week]
`

const jsoncConfig = `{
  // unrouted files land here
  "default_dest": "/data/unrouted",
  "rules": [
    {
      "pattern": "SYSFR_PGM_SALES_DATA_*.csv",
      "destinations": [
        {"path": "/data/scorecard", "categories": ["Scorecard"]},
        {"path": "/data/bb/", "categories": ["bb"], "extension": "txt"},
      ],
    },
    {
      "pattern": "re:^base_ristournable.*\\.csv$",
      "archive": true,
      "destinations": [{"path": "/data/base", "naming": "next_month"}],
    },
  ],
  "streams": [
    {"name": "scorecard", "source": "Scorecard_*.xlsx", "latest": "/mirror/Latest", "previous": "/mirror/Previous", "version": ["iso_week"]},
  ],
}`

const hclConfig = `
default_dest = "/data/unrouted"

rule "SYSFR_PGM_SALES_DATA_*.csv" {
  destination "/data/scorecard" {
    categories = ["Scorecard"]
  }
  destination "/data/bb/" {
    categories = ["bb"]
    extension  = "txt"
  }
}

rule "re:^base_ristournable.*\\.csv$" {
  archive = true
  destination "/data/base" {
    naming = "next_month"
  }
}

stream "scorecard" {
  source   = "Scorecard_*.xlsx"
  latest   = "${env.CSVROUTE_TEST_MIRROR}/Latest"
  previous = "/mirror/Previous"
  version  = ["iso_week"]
}
`

const tomlConfig = `
default_dest = "/data/unrouted"

[[rules]]
pattern = "SYSFR_PGM_SALES_DATA_*.csv"

  [[rules.destinations]]
  path = "/data/scorecard"
  categories = ["Scorecard"]

  [[rules.destinations]]
  path = "/data/bb/"
  categories = ["bb"]
  extension = "txt"

[[rules]]
pattern = 're:^base_ristournable.*\.csv$'
archive = true

  [[rules.destinations]]
  path = "/data/base"
  naming = "next_month"

[[streams]]
name = "scorecard"
source = "Scorecard_*.xlsx"
latest = "/mirror/Latest"
previous = "/mirror/Previous"
version = ["iso_week"]
`

func testCtx(t *testing.T) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestLoadConfigFormats(t *testing.T) {
	t.Setenv("CSVROUTE_TEST_MIRROR", "/mirror")

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "csvroute.yaml", yamlConfig},
		{"yml", "routes.yml", yamlConfig},
		{"jsonc", "csvroute.jsonc", jsoncConfig},
		{"json", "csvroute.json", jsoncConfig},
		{"hcl", "csvroute.hcl", hclConfig},
		{"toml", "csvroute.toml", tomlConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)
			cfg, err := config.LoadConfig(testCtx(t), path)
			require.NoError(t, err)
			assert.Equal(t, path, cfg.Location())

			assert.Equal(t, "/data/unrouted", cfg.DefaultDest)
			assert.Equal(t, config.DefaultMemberPattern, cfg.MemberPattern)
			require.Len(t, cfg.Rules, 2)

			sales := cfg.Rules[0]
			require.Len(t, sales.Destinations, 2)
			assert.Equal(t, []string{"scorecard"}, sales.Destinations[0].Categories, "categories are lowercased")
			assert.Equal(t, "/data/bb", sales.Destinations[1].Path, "paths are cleaned")
			assert.Equal(t, ".txt", sales.Destinations[1].Extension)

			base := cfg.Rules[1]
			assert.True(t, base.Archive)
			assert.Equal(t, `re:^base_ristournable.*\.csv$`, base.Pattern)
			assert.Equal(t, string(route.NamingNextMonth), base.Destinations[0].Naming)

			streams, err := cfg.RotationStreams()
			require.NoError(t, err)
			require.Len(t, streams, 1)
			assert.Equal(t, "scorecard", streams[0].Name)
			assert.Equal(t, "/mirror/Latest", streams[0].Latest)
			assert.Equal(t, []version.Kind{version.KindISOWeek}, streams[0].Extractor.Kinds())

			table, err := cfg.RouteTable()
			require.NoError(t, err)
			dests, err := table.ResolveDestinations("SYSFR_PGM_SALES_DATA_2025.csv", route.MustFilter("bb"))
			require.NoError(t, err)
			require.Len(t, dests, 1)
			assert.Equal(t, "/data/bb", dests[0].Path)
			assert.Equal(t, ".txt", dests[0].ExtensionOverride)
		})
	}
}

func TestLoadConfigLegacyList(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"json", "routes.json", `[
  {"pattern": "sales_*.csv", "dest": "/data/landing/sales"},
  {"pattern": "inventory_*.csv", "dest": "/data/landing/inventory", "categories": ["BB"]}
]`},
		{"yaml", "routes.yaml", `
- pattern: "sales_*.csv"
  dest: "/data/landing/sales"
- pattern: "inventory_*.csv"
  dest: "/data/landing/inventory"
  categories: [BB]
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.LoadConfig(testCtx(t), writeConfig(t, tt.file, tt.content))
			require.NoError(t, err)
			require.Len(t, cfg.Rules, 2)
			assert.Equal(t, []config.DestinationConfig{{Path: "/data/landing/sales"}}, cfg.Rules[0].Destinations)
			assert.Equal(t, []string{"bb"}, cfg.Rules[1].Destinations[0].Categories)
			assert.Empty(t, cfg.Rules[1].Dest)

			table, err := cfg.RouteTable()
			require.NoError(t, err)
			dests, err := table.ResolveDestinations("sales_2025.csv", route.All())
			require.NoError(t, err)
			require.Len(t, dests, 1)
			assert.Equal(t, "/data/landing/sales", dests[0].Path)
		})
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		content     string
		errContains string
	}{
		{"unknown_yaml_field", "c.yaml", "rules:\n  - pattern: a\n    dest: /a\n    bogus: 1\n", "bogus"},
		{"unknown_json_field", "c.json", `{"rules": [{"pattern": "a", "dest": "/a"}], "extra": true}`, "extra"},
		{"unknown_toml_field", "c.toml", "extra = 1\n[[rules]]\npattern = \"a\"\ndest = \"/a\"\n", "parsing TOML"},
		{"relative_dest", "c.yaml", "rules:\n  - pattern: a\n    dest: data\n", "not absolute"},
		{"empty_pattern", "c.yaml", "rules:\n  - pattern: ' '\n    dest: /a\n", "pattern is required"},
		{"no_destinations", "c.yaml", "rules:\n  - pattern: a\n", "no destinations"},
		{"bad_naming", "c.yaml", "rules:\n  - pattern: a\n    destinations:\n      - path: /a\n        naming: weekly\n", "unknown naming"},
		{"empty", "c.yaml", "rules: []\n", "no rules or streams"},
		{"duplicate_stream", "c.yaml", `
streams:
  - {name: s, source: "*.csv", latest: /l, previous: /p}
  - {name: S, source: "*.csv", latest: /l2, previous: /p2}
`, "defined twice"},
		{"unknown_version_rule", "c.yaml", `
streams:
  - {name: s, source: "*.csv", latest: /l, previous: /p, version: [semver]}
`, "unknown version rule"},
		{"shared_latest", "c.yaml", `
streams:
  - {name: a, source: "a_*.csv", latest: /mirror/Latest, previous: /mirror/a/Previous}
  - {name: b, source: "b_*.csv", latest: /mirror/Latest/, previous: /mirror/b/Previous}
`, "used by streams a and b"},
		{"latest_is_other_previous", "c.yaml", `
streams:
  - {name: a, source: "a_*.csv", latest: /m/a, previous: /m/shared}
  - {name: b, source: "b_*.csv", latest: /m/shared, previous: /m/b}
`, "slot directory shared"},
		{"same_slot_dirs", "c.yaml", `
streams:
  - {name: s, source: "*.csv", latest: /l, previous: /l}
`, "same directory"},
		{"unsupported_ext", "c.ini", "x", "no parser"},
		{"bad_hcl", "c.hcl", "rule {", "parsing HCL"},
		{"hcl_missing_env", "c.hcl", `
stream "s" {
  source   = "*.csv"
  latest   = "${env.CSVROUTE_UNSET_FOR_TEST}/l"
  previous = "/p"
}
`, "decoding HCL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadConfig(testCtx(t), writeConfig(t, tt.file, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestGetParser(t *testing.T) {
	tests := []struct {
		file string
		want any
	}{
		{"a.yaml", &config.YAMLParser{}},
		{"A.YML", &config.YAMLParser{}},
		{"a.json", &config.JSONParser{}},
		{"a.jsonc", &config.JSONParser{}},
		{"a.hcl", &config.HCLParser{}},
		{"a.toml", &config.TOMLParser{}},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			assert.IsType(t, tt.want, config.GetParser(tt.file))
		})
	}
	assert.Nil(t, config.GetParser("a.txt"))
}

func TestFindConfig(t *testing.T) {
	orig := xdg.ConfigHome
	t.Cleanup(func() { xdg.ConfigHome = orig })
	xdg.ConfigHome = t.TempDir()

	work := t.TempDir()
	_, err := config.FindConfig(work)
	assert.True(t, errors.Is(err, config.ErrConfigNotFound))

	xdgDir := filepath.Join(xdg.ConfigHome, config.AppName)
	require.NoError(t, os.MkdirAll(xdgDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(xdgDir, "csvroute.toml"), []byte(tomlConfig), 0644))

	found, err := config.FindConfig(work)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(xdgDir, "csvroute.toml"), found)

	// the working directory wins over the XDG home
	require.NoError(t, os.WriteFile(filepath.Join(work, "routes.json"), []byte("[]"), 0644))
	found, err = config.FindConfig(work)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(work, "routes.json"), found)
}
