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

package rotation

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/imse8006/csv-zip-router/pkg/version"
	"gitlab.com/tozd/go/errors"
)

// 📡 Stream is one Latest/Previous pair and the inputs that feed it
type Stream struct {
	Name     string
	Latest   string // absolute directory
	Previous string // absolute directory
	Source   string // glob over input filenames
	Member   string // optional glob over archive member names

	Extractor *version.Extractor // nil means every rule
}

// Validate checks the stream can be promoted into
func (s Stream) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("stream name is empty")
	}
	if !filepath.IsAbs(s.Latest) || !filepath.IsAbs(s.Previous) {
		return errors.Errorf("stream %s: latest and previous must be absolute paths", s.Name)
	}
	if filepath.Clean(s.Latest) == filepath.Clean(s.Previous) {
		return errors.Errorf("stream %s: latest and previous are the same directory", s.Name)
	}
	if s.Source == "" {
		return errors.Errorf("stream %s: source pattern is empty", s.Name)
	}
	if !doublestar.ValidatePattern(strings.ToLower(s.Source)) {
		return errors.Errorf("stream %s: invalid source pattern %q", s.Name, s.Source)
	}
	if s.Member != "" && !doublestar.ValidatePattern(strings.ToLower(s.Member)) {
		return errors.Errorf("stream %s: invalid member pattern %q", s.Name, s.Member)
	}
	return nil
}

// ErrSlotShared means two streams name the same Latest or Previous directory
var ErrSlotShared = errors.Base("slot directory shared between streams")

// 🔒 CheckDisjoint rejects streams whose slot directories coincide. Promotion
// clears Previous and prunes Latest, so a shared directory would let one
// stream delete the other's files.
func CheckDisjoint(streams []Stream) error {
	owner := map[string]string{}
	for _, s := range streams {
		for _, dir := range []string{s.Latest, s.Previous} {
			dir = filepath.Clean(dir)
			if other, ok := owner[dir]; ok && other != s.Name {
				return errors.Errorf("%w: %s is used by streams %s and %s", ErrSlotShared, dir, other, s.Name)
			}
			owner[dir] = s.Name
		}
	}
	return nil
}

// ClaimsFile reports whether an input file with this bare name feeds the stream
func (s Stream) ClaimsFile(name string) bool {
	return globMatch(s.Source, name)
}

// ClaimsMember reports whether an archive member feeds the stream; with no member
// pattern the archive itself is the candidate and no member is claimed.
func (s Stream) ClaimsMember(member string) bool {
	if s.Member == "" {
		return false
	}
	return globMatch(s.Member, path.Base(member))
}

// WantsMembers reports whether claimed archives are unpacked for this stream
func (s Stream) WantsMembers() bool {
	return s.Member != ""
}

func (s Stream) extractor() *version.Extractor {
	if s.Extractor != nil {
		return s.Extractor
	}
	e, _ := version.NewExtractor()
	return e
}

func globMatch(pattern, name string) bool {
	ok, err := doublestar.Match(strings.ToLower(pattern), strings.ToLower(name))
	return err == nil && ok
}

// 📥 Source is the candidate file for a promotion
type Source struct {
	Path   string // plain file, or the archive holding Member
	Member string // member name inside the archive, empty for plain files
}

// Name is the bare filename the candidate is installed under
func (s Source) Name() string {
	if s.Member != "" {
		return path.Base(s.Member)
	}
	return filepath.Base(s.Path)
}

func (s Source) String() string {
	if s.Member != "" {
		return s.Path + "!" + s.Member
	}
	return s.Path
}
