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

// Package source lists the downloaded batch: plain files and the members of
// the archives among them.
package source

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ArchiveExt marks files whose members are routed individually
const ArchiveExt = ".zip"

// 📦 Member is one regular file inside an archive
type Member struct {
	Path string // full name inside the archive
	Name string // bare filename used for matching
	Size uint64
}

// 📄 Input is one file of the batch
type Input struct {
	Path    string
	Name    string
	Archive bool
	Members []Member
	Err     error // archive could not be listed
}

// IsArchive reports whether a bare name has the archive extension
func IsArchive(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ArchiveExt)
}

// 🔍 Scan lists the regular files directly inside dir, sorted by name
func Scan(ctx context.Context, dir string) ([]Input, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Errorf("reading input directory %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return ScanFiles(ctx, paths)
}

// ScanFiles describes an explicit list of files, sorted by name
func ScanFiles(ctx context.Context, paths []string) ([]Input, error) {
	logger := zerolog.Ctx(ctx)

	inputs := make([]Input, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := os.Stat(p)
		if err != nil {
			return nil, errors.Errorf("reading input %s: %w", p, err)
		}
		if !info.Mode().IsRegular() {
			return nil, errors.Errorf("input %s is not a regular file", p)
		}

		in := Input{Path: p, Name: filepath.Base(p)}
		if IsArchive(in.Name) {
			in.Archive = true
			in.Members, in.Err = listMembers(p)
			if in.Err != nil {
				logger.Warn().Err(in.Err).Str("archive", p).Msg("unreadable archive")
			}
		}
		inputs = append(inputs, in)
	}

	sort.SliceStable(inputs, func(i, j int) bool { return inputs[i].Name < inputs[j].Name })
	logger.Debug().Int("inputs", len(inputs)).Msg("scanned batch")
	return inputs, nil
}

func listMembers(archive string) ([]Member, error) {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return nil, errors.Errorf("opening archive: %w", err)
	}
	defer zr.Close()

	var members []Member
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		if strings.HasPrefix(f.Name, "__MACOSX/") {
			continue
		}
		name := path.Base(f.Name)
		if strings.HasPrefix(name, "._") {
			continue
		}
		members = append(members, Member{Path: f.Name, Name: name, Size: f.UncompressedSize64})
	}
	sort.SliceStable(members, func(i, j int) bool { return members[i].Path < members[j].Path })
	return members, nil
}
