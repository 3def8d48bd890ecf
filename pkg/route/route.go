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
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"gitlab.com/tozd/go/errors"
)

var (
	// ErrAmbiguousMatch reports two jobs of one batch landing on the same final path.
	// Deduplication makes this unreachable for a sane rule table.
	ErrAmbiguousMatch = errors.Base("ambiguous match")

	// ErrInvalidFilename is returned when a filename carries a directory component.
	ErrInvalidFilename = errors.Base("filename must not contain a directory")
)

// 🏷️ Naming selects how the target filename is derived at a destination
type Naming string

const (
	NamingKeep      Naming = ""           // keep the source filename
	NamingNextMonth Naming = "next_month" // append the month following the latest one present
)

// 📁 Destination is a directory a matching file is copied into
type Destination struct {
	Path              string   // Absolute directory
	Categories        []string // Lowercase tags; empty means always included
	ExtensionOverride string   // Replaces the file extension when set (".txt")
	Naming            Naming   // Target filename derivation
}

// HasCategories reports whether the destination is tagged at all
func (d Destination) HasCategories() bool {
	return len(d.Categories) > 0
}

func (d Destination) clone() Destination {
	d.Categories = slices.Clone(d.Categories)
	return d
}

// 📜 Rule maps a filename pattern to destinations
type Rule struct {
	Pattern         string
	Destinations    []Destination
	SourceIsArchive bool // only applies to members extracted from archives
}

// 🔌 Origin says where a filename came from
type Origin int

const (
	OriginAny     Origin = iota // any input
	OriginPlain                 // a plain file on disk
	OriginArchive               // a member inside an archive
)

func (o Origin) String() string {
	switch o {
	case OriginPlain:
		return "plain"
	case OriginArchive:
		return "archive"
	default:
		return "any"
	}
}

// 🔍 Filter restricts destinations to a set of category tags.
// The zero value is the ALL filter.
type Filter struct {
	tags []string // sorted, lowercase, unique
}

// All returns the filter that passes every destination
func All() Filter {
	return Filter{}
}

// NewFilter builds a filter from a non-empty set of tags
func NewFilter(tags ...string) (Filter, error) {
	seen := map[string]struct{}{}
	var out []string
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return Filter{}, errors.Errorf("category filter needs at least one tag")
	}
	sort.Strings(out)
	return Filter{tags: out}, nil
}

// ParseFilter parses "all" (or "") or a comma separated tag list
func ParseFilter(s string) (Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return All(), nil
	}
	return NewFilter(strings.Split(s, ",")...)
}

// MustFilter is NewFilter that panics, for tests and literals
func MustFilter(tags ...string) Filter {
	f, err := NewFilter(tags...)
	if err != nil {
		panic(err)
	}
	return f
}

// IsAll reports whether the filter passes everything
func (f Filter) IsAll() bool {
	return len(f.tags) == 0
}

// Tags returns the filter tags (nil for ALL)
func (f Filter) Tags() []string {
	return slices.Clone(f.tags)
}

// Allows reports whether d passes the filter. Tags compare exactly after lowercasing.
func (f Filter) Allows(d Destination) bool {
	if f.IsAll() || !d.HasCategories() {
		return true
	}
	for _, c := range d.Categories {
		if _, found := slices.BinarySearch(f.tags, strings.ToLower(c)); found {
			return true
		}
	}
	return false
}

func (f Filter) String() string {
	if f.IsAll() {
		return "all"
	}
	return strings.Join(f.tags, ",")
}

// ValidateFilename rejects names with a directory component
func ValidateFilename(name string) error {
	if name == "" {
		return errors.Errorf("%w: empty filename", ErrInvalidFilename)
	}
	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return errors.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	return nil
}
