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

package route

import (
	"context"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// RegexPrefix marks a rule pattern as a regular expression
const RegexPrefix = "re:"

const defaultCacheSize = 1024

type compiledRule struct {
	rule  Rule
	match func(lowerName string) bool
}

// 📚 Table is the immutable, compiled rule table
type Table struct {
	rules []compiledRule
	cache *lru.Cache[string, []Destination]
}

// 🔧 TableOption configures a Table
type TableOption func(*tableOptions)

type tableOptions struct {
	cacheSize int
}

// WithCacheSize bounds the resolution memo; zero disables it
func WithCacheSize(n int) TableOption {
	return func(o *tableOptions) { o.cacheSize = n }
}

// 🏭 NewTable compiles rules into a Table. The rules are deep-copied.
func NewTable(rules []Rule, opts ...TableOption) (*Table, error) {
	o := tableOptions{cacheSize: defaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}

	t := &Table{rules: make([]compiledRule, 0, len(rules))}
	for i, r := range rules {
		match, err := compilePattern(r.Pattern)
		if err != nil {
			return nil, errors.Errorf("rule %d: %w", i, err)
		}
		cr := compiledRule{rule: Rule{Pattern: r.Pattern, SourceIsArchive: r.SourceIsArchive}, match: match}
		for j, d := range r.Destinations {
			if !filepath.IsAbs(d.Path) {
				return nil, errors.Errorf("rule %d destination %d: path %q is not absolute", i, j, d.Path)
			}
			d = d.clone()
			d.Path = filepath.Clean(d.Path)
			for k, c := range d.Categories {
				d.Categories[k] = strings.ToLower(strings.TrimSpace(c))
			}
			cr.rule.Destinations = append(cr.rule.Destinations, d)
		}
		t.rules = append(t.rules, cr)
	}

	if o.cacheSize > 0 {
		cache, err := lru.New[string, []Destination](o.cacheSize)
		if err != nil {
			return nil, errors.Errorf("creating resolution cache: %w", err)
		}
		t.cache = cache
	}

	return t, nil
}

// compilePattern returns a matcher over lowercased names
func compilePattern(pattern string) (func(string) bool, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, errors.Errorf("empty pattern")
	}
	if expr, ok := strings.CutPrefix(pattern, RegexPrefix); ok {
		re, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			return nil, errors.Errorf("compiling regex %q: %w", expr, err)
		}
		return re.MatchString, nil
	}
	lower := strings.ToLower(pattern)
	if !doublestar.ValidatePattern(lower) {
		return nil, errors.Errorf("invalid glob %q", pattern)
	}
	return func(name string) bool {
		ok, err := doublestar.Match(lower, name)
		return err == nil && ok
	}, nil
}

// Rules returns a copy of the rule list
func (t *Table) Rules() []Rule {
	out := make([]Rule, 0, len(t.rules))
	for _, cr := range t.rules {
		r := cr.rule
		r.Destinations = cloneDestinations(r.Destinations)
		out = append(out, r)
	}
	return out
}

// Len returns the number of rules
func (t *Table) Len() int {
	return len(t.rules)
}

// 🎯 ResolveDestinations returns every destination a file reaches under filter,
// deduplicated by absolute path with the first-seen destination kept.
// An empty result means no rule matched.
func (t *Table) ResolveDestinations(filename string, filter Filter) ([]Destination, error) {
	return t.Resolve(filename, filter, OriginAny)
}

// Resolve is ResolveDestinations restricted to rules that apply to origin.
// Archive-only rules are skipped for plain files.
func (t *Table) Resolve(filename string, filter Filter, origin Origin) ([]Destination, error) {
	if err := ValidateFilename(filename); err != nil {
		return nil, err
	}
	lower := strings.ToLower(filename)
	key := origin.String() + "|" + filter.String() + "|" + lower

	if t.cache != nil {
		if dests, ok := t.cache.Get(key); ok {
			return cloneDestinations(dests), nil
		}
	}

	var out []Destination
	seen := map[string]struct{}{}
	for _, cr := range t.rules {
		if cr.rule.SourceIsArchive && origin == OriginPlain {
			continue
		}
		if !cr.match(lower) {
			continue
		}
		for _, d := range cr.rule.Destinations {
			if !filter.Allows(d) {
				continue
			}
			if _, dup := seen[d.Path]; dup {
				continue
			}
			seen[d.Path] = struct{}{}
			out = append(out, d.clone())
		}
	}

	if t.cache != nil {
		t.cache.Add(key, cloneDestinations(out))
	}
	return out, nil
}

// MatchingRules returns the rules whose pattern matches filename, in table order
func (t *Table) MatchingRules(filename string) []Rule {
	lower := strings.ToLower(filename)
	var out []Rule
	for _, cr := range t.rules {
		if cr.match(lower) {
			r := cr.rule
			r.Destinations = cloneDestinations(r.Destinations)
			out = append(out, r)
		}
	}
	return out
}

// Categories returns every tag used in the table, sorted
func (t *Table) Categories() []string {
	var out []string
	for _, cr := range t.rules {
		for _, d := range cr.rule.Destinations {
			for _, c := range d.Categories {
				if !slices.Contains(out, c) {
					out = append(out, c)
				}
			}
		}
	}
	slices.Sort(out)
	return out
}

// LogSummary writes one debug line per rule
func (t *Table) LogSummary(ctx context.Context) {
	logger := zerolog.Ctx(ctx)
	for i, cr := range t.rules {
		logger.Debug().
			Int("index", i).
			Str("pattern", cr.rule.Pattern).
			Bool("archive", cr.rule.SourceIsArchive).
			Int("destinations", len(cr.rule.Destinations)).
			Msg("rule loaded")
	}
}

func cloneDestinations(in []Destination) []Destination {
	if in == nil {
		return nil
	}
	out := make([]Destination, len(in))
	for i, d := range in {
		out[i] = d.clone()
	}
	return out
}
