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
	"fmt"
	"path/filepath"
	"strings"

	"github.com/imse8006/csv-zip-router/pkg/rotation"
	"github.com/imse8006/csv-zip-router/pkg/route"
	"github.com/imse8006/csv-zip-router/pkg/version"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

func hasExt(filename string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// 📁 DestinationConfig is one target directory of a rule
type DestinationConfig struct {
	Path       string   `json:"path" yaml:"path" toml:"path"`
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty" toml:"categories,omitempty"`
	Extension  string   `json:"extension,omitempty" yaml:"extension,omitempty" toml:"extension,omitempty"`
	Naming     string   `json:"naming,omitempty" yaml:"naming,omitempty" toml:"naming,omitempty"`
}

// 📜 RuleConfig maps a pattern to destinations. Dest and Categories are the
// legacy single-destination shorthand.
type RuleConfig struct {
	Pattern      string              `json:"pattern" yaml:"pattern" toml:"pattern"`
	Archive      bool                `json:"archive,omitempty" yaml:"archive,omitempty" toml:"archive,omitempty"`
	Destinations []DestinationConfig `json:"destinations,omitempty" yaml:"destinations,omitempty" toml:"destinations,omitempty"`
	Dest         string              `json:"dest,omitempty" yaml:"dest,omitempty" toml:"dest,omitempty"`
	Categories   []string            `json:"categories,omitempty" yaml:"categories,omitempty" toml:"categories,omitempty"`
}

// 📡 StreamConfig is one Latest/Previous pair
type StreamConfig struct {
	Name     string   `json:"name" yaml:"name" toml:"name"`
	Source   string   `json:"source" yaml:"source" toml:"source"`
	Member   string   `json:"member,omitempty" yaml:"member,omitempty" toml:"member,omitempty"`
	Latest   string   `json:"latest" yaml:"latest" toml:"latest"`
	Previous string   `json:"previous" yaml:"previous" toml:"previous"`
	Version  []string `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`
}

// 📚 Config represents the complete configuration
type Config struct {
	DefaultDest   string         `json:"default_dest,omitempty" yaml:"default_dest,omitempty" toml:"default_dest,omitempty"`
	MemberPattern string         `json:"member_pattern,omitempty" yaml:"member_pattern,omitempty" toml:"member_pattern,omitempty"`
	Rules         []RuleConfig   `json:"rules" yaml:"rules" toml:"rules"`
	Streams       []StreamConfig `json:"streams,omitempty" yaml:"streams,omitempty" toml:"streams,omitempty"`

	location string
}

// DefaultMemberPattern selects which archive members are routed
const DefaultMemberPattern = "*.csv"

// Location is the file the config was loaded from, if any
func (cfg *Config) Location() string {
	return cfg.location
}

func fromLegacy(rows []RuleConfig) *Config {
	return &Config{Rules: rows}
}

// 🔍 Validate normalizes the configuration and checks it can be built
func (cfg *Config) Validate() error {
	if len(cfg.Rules) == 0 && len(cfg.Streams) == 0 {
		return errors.New("no rules or streams defined")
	}

	if cfg.DefaultDest != "" {
		if !filepath.IsAbs(cfg.DefaultDest) {
			return errors.Errorf("default_dest %q is not absolute", cfg.DefaultDest)
		}
		cfg.DefaultDest = filepath.Clean(cfg.DefaultDest)
	}
	if cfg.MemberPattern == "" {
		cfg.MemberPattern = DefaultMemberPattern
	}

	for i := range cfg.Rules {
		r := &cfg.Rules[i]
		r.Pattern = strings.TrimSpace(r.Pattern)
		if r.Pattern == "" {
			return errors.Errorf("rule %d: pattern is required", i)
		}
		if r.Dest != "" {
			r.Destinations = append([]DestinationConfig{{Path: r.Dest, Categories: r.Categories}}, r.Destinations...)
			r.Dest, r.Categories = "", nil
		} else if len(r.Categories) > 0 {
			return errors.Errorf("rule %d: categories without dest belong on a destination", i)
		}
		if len(r.Destinations) == 0 {
			return errors.Errorf("rule %d (%s): no destinations", i, r.Pattern)
		}
		for j := range r.Destinations {
			d := &r.Destinations[j]
			if !filepath.IsAbs(strings.TrimSpace(d.Path)) {
				return errors.Errorf("rule %d (%s): destination %q is not absolute", i, r.Pattern, d.Path)
			}
			d.Path = filepath.Clean(strings.TrimSpace(d.Path))
			for k, c := range d.Categories {
				c = strings.ToLower(strings.TrimSpace(c))
				if c == "" {
					return errors.Errorf("rule %d (%s): empty category", i, r.Pattern)
				}
				d.Categories[k] = c
			}
			if d.Extension != "" && !strings.HasPrefix(d.Extension, ".") {
				d.Extension = "." + d.Extension
			}
			switch route.Naming(d.Naming) {
			case route.NamingKeep, route.NamingNextMonth:
			default:
				return errors.Errorf("rule %d (%s): unknown naming %q", i, r.Pattern, d.Naming)
			}
		}
	}

	seen := map[string]bool{}
	for i := range cfg.Streams {
		s := &cfg.Streams[i]
		key := strings.ToLower(strings.TrimSpace(s.Name))
		if seen[key] {
			return errors.Errorf("stream %q defined twice", s.Name)
		}
		seen[key] = true
		if _, err := cfg.stream(i); err != nil {
			return err
		}
		s.Latest = filepath.Clean(s.Latest)
		s.Previous = filepath.Clean(s.Previous)
	}

	streams, err := cfg.RotationStreams()
	if err != nil {
		return err
	}
	return rotation.CheckDisjoint(streams)
}

// 🗺️ RouteTable builds the in-memory rule table
func (cfg *Config) RouteTable(opts ...route.TableOption) (*route.Table, error) {
	rules := make([]route.Rule, 0, len(cfg.Rules))
	for _, r := range cfg.Rules {
		rule := route.Rule{Pattern: r.Pattern, SourceIsArchive: r.Archive}
		if r.Dest != "" {
			rule.Destinations = append(rule.Destinations, route.Destination{Path: r.Dest, Categories: r.Categories})
		}
		for _, d := range r.Destinations {
			rule.Destinations = append(rule.Destinations, route.Destination{
				Path:              d.Path,
				Categories:        d.Categories,
				ExtensionOverride: d.Extension,
				Naming:            route.Naming(d.Naming),
			})
		}
		rules = append(rules, rule)
	}
	table, err := route.NewTable(rules, opts...)
	if err != nil {
		return nil, errors.Errorf("building rule table: %w", err)
	}
	return table, nil
}

// 📡 RotationStreams builds every configured stream
func (cfg *Config) RotationStreams() ([]rotation.Stream, error) {
	streams := make([]rotation.Stream, 0, len(cfg.Streams))
	for i := range cfg.Streams {
		s, err := cfg.stream(i)
		if err != nil {
			return nil, err
		}
		streams = append(streams, s)
	}
	return streams, nil
}

func (cfg *Config) stream(i int) (rotation.Stream, error) {
	sc := cfg.Streams[i]
	kinds := make([]version.Kind, 0, len(sc.Version))
	for _, v := range sc.Version {
		k, err := version.ParseKind(v)
		if err != nil {
			return rotation.Stream{}, errors.Errorf("stream %s: %w", sc.Name, err)
		}
		kinds = append(kinds, k)
	}
	ext, err := version.NewExtractor(kinds...)
	if err != nil {
		return rotation.Stream{}, errors.Errorf("stream %s: %w", sc.Name, err)
	}
	s := rotation.Stream{
		Name:      strings.TrimSpace(sc.Name),
		Latest:    sc.Latest,
		Previous:  sc.Previous,
		Source:    sc.Source,
		Member:    sc.Member,
		Extractor: ext,
	}
	if err := s.Validate(); err != nil {
		return rotation.Stream{}, err
	}
	return s, nil
}

// 📝 String returns a short summary of the config
func (cfg *Config) String() string {
	loc := cfg.location
	if loc == "" {
		loc = "<inline>"
	}
	return fmt.Sprintf("%s: %d rules, %d streams", loc, len(cfg.Rules), len(cfg.Streams))
}
