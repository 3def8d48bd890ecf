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

// Package version extracts comparable version tokens from filenames and decides
// whether a new file may replace the occupant of a "latest" slot.
package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"
)

var (
	// ErrTokenUnextractable means no extraction rule recognized the filename
	ErrTokenUnextractable = errors.Base("version token unextractable")

	// ErrTokenTypeMismatch means two tokens came from different extraction rules
	ErrTokenTypeMismatch = errors.Base("version token type mismatch")

	// ErrNotNewer means the new token does not strictly exceed the current one
	ErrNotNewer = errors.Base("new version is older or equal")
)

// 🏷️ Kind identifies the extraction rule that produced a token
type Kind string

const (
	KindISOWeek   Kind = "iso_week"   // 2025_40, 2025-W41, 2025W41
	KindYearMonth Kind = "year_month" // 2025_Aug, Aug 2025
)

// Kinds lists every known kind in default extraction order
func Kinds() []Kind {
	return []Kind{KindISOWeek, KindYearMonth}
}

// ParseKind validates a kind name
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", errors.Errorf("unknown version rule %q", s)
}

// 🔢 Token is an ordered version marker taken from a filename
type Token struct {
	Kind    Kind
	Ordinal int    // year*100+week, or year*12+month-1
	Label   string // human readable, "2025-W41" / "2025-Aug"
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%s)", t.Kind, t.Label)
}

// Compare orders t against o; tokens of different kinds are not comparable
func (t Token) Compare(o Token) (int, error) {
	if t.Kind != o.Kind {
		return 0, errors.Errorf("%w: %s vs %s", ErrTokenTypeMismatch, t.Kind, o.Kind)
	}
	switch {
	case t.Ordinal < o.Ordinal:
		return -1, nil
	case t.Ordinal > o.Ordinal:
		return 1, nil
	default:
		return 0, nil
	}
}

var (
	weekPattern = regexp.MustCompile(`(?i)(?:^|[^0-9])((?:19|20)[0-9]{2})(?:[_-]W?|W)([0-9]{1,2})(?:[^0-9]|$)`)

	monthAlternation = `(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)`
	yearMonthPattern = regexp.MustCompile(`(?i)(?:^|[^0-9a-z])((?:19|20)[0-9]{2})[ _-]?` + monthAlternation + `(?:[^a-z]|$)`)
	monthYearPattern = regexp.MustCompile(`(?i)(?:^|[^a-z])` + monthAlternation + `[ _-]?((?:19|20)[0-9]{2})(?:[^0-9]|$)`)
)

func extractWeek(name string) (*Token, bool) {
	for _, m := range weekPattern.FindAllStringSubmatch(name, -1) {
		year, _ := strconv.Atoi(m[1])
		week, _ := strconv.Atoi(m[2])
		if week < 1 || week > 53 {
			continue
		}
		return &Token{
			Kind:    KindISOWeek,
			Ordinal: year*100 + week,
			Label:   fmt.Sprintf("%d-W%02d", year, week),
		}, true
	}
	return nil, false
}

func extractYearMonth(name string) (*Token, bool) {
	build := func(yearStr, monthStr string) *Token {
		year, _ := strconv.Atoi(yearStr)
		month, _ := ParseMonth(monthStr)
		return &Token{
			Kind:    KindYearMonth,
			Ordinal: year*12 + int(month) - 1,
			Label:   fmt.Sprintf("%d-%s", year, month),
		}
	}
	if m := yearMonthPattern.FindStringSubmatch(name); m != nil {
		return build(m[1], m[2]), true
	}
	if m := monthYearPattern.FindStringSubmatch(name); m != nil {
		return build(m[2], m[1]), true
	}
	return nil, false
}

// 🔍 Extractor tries a fixed list of rules in order
type Extractor struct {
	kinds []Kind
}

// NewExtractor builds an extractor; no kinds means all, in default order
func NewExtractor(kinds ...Kind) (*Extractor, error) {
	if len(kinds) == 0 {
		return &Extractor{kinds: Kinds()}, nil
	}
	seen := map[Kind]bool{}
	e := &Extractor{}
	for _, k := range kinds {
		if _, err := ParseKind(string(k)); err != nil {
			return nil, err
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		e.kinds = append(e.kinds, k)
	}
	return e, nil
}

// Kinds returns the rules this extractor applies
func (e *Extractor) Kinds() []Kind {
	return append([]Kind(nil), e.kinds...)
}

// Extract returns the token of the first matching rule
func (e *Extractor) Extract(filename string) (*Token, error) {
	for _, k := range e.kinds {
		var (
			tok *Token
			ok  bool
		)
		switch k {
		case KindISOWeek:
			tok, ok = extractWeek(filename)
		case KindYearMonth:
			tok, ok = extractYearMonth(filename)
		}
		if ok {
			return tok, nil
		}
	}
	return nil, errors.Errorf("%w: %q", ErrTokenUnextractable, filename)
}

var defaultExtractor = &Extractor{kinds: Kinds()}

// Extract applies every rule in default order
func Extract(filename string) (*Token, error) {
	return defaultExtractor.Extract(filename)
}
