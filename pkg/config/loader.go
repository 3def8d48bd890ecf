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

package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// AppName names the XDG config directory
const AppName = "csvroute"

// ErrConfigNotFound means no candidate config file exists
var ErrConfigNotFound = errors.Base("config not found")

// candidateNames are tried in order inside each search directory
var candidateNames = []string{
	"csvroute.yaml",
	"csvroute.yml",
	"csvroute.json",
	"csvroute.jsonc",
	"csvroute.hcl",
	"csvroute.toml",
	"routes.json",
	"routes.yaml",
}

// 🎯 LoadConfig loads and validates the configuration at path
func LoadConfig(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config %s: %w", path, err)
	}
	cfg.location = path

	logger.Debug().Int("rules", len(cfg.Rules)).Int("streams", len(cfg.Streams)).Msg("configuration loaded")
	return cfg, nil
}

// SearchDirs lists where FindConfig looks: dir, then the XDG config home
func SearchDirs(dir string) []string {
	return []string{dir, filepath.Join(xdg.ConfigHome, AppName)}
}

// 🔍 FindConfig returns the first candidate config file in SearchDirs(dir)
func FindConfig(dir string) (string, error) {
	for _, d := range SearchDirs(dir) {
		for _, name := range candidateNames {
			p := filepath.Join(d, name)
			if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
				return p, nil
			}
		}
	}
	return "", errors.Errorf("%w: looked in %v", ErrConfigNotFound, SearchDirs(dir))
}
