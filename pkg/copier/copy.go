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

// Package copier performs the physical copy and archive-extraction jobs of a batch
// over a bounded worker pool. Every write lands atomically: content goes to a temp
// file in the target directory which is then renamed over the target.
package copier

import (
	"context"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
	"github.com/zeebo/blake3"
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrCopyFailed wraps any I/O failure while copying a job
	ErrCopyFailed = errors.Base("copy failed")

	// ErrArchiveMemberCorrupt wraps unreadable archives and members
	ErrArchiveMemberCorrupt = errors.Base("archive member corrupt")
)

// ✍️ Written describes content that reached its final path
type Written struct {
	Bytes  int64
	Digest string // hex BLAKE3-256 of the written bytes
}

// 📋 CopyFile atomically copies src to dst, creating dst's directory
func CopyFile(ctx context.Context, src, dst string) (Written, error) {
	if err := ctx.Err(); err != nil {
		return Written{}, errors.Errorf("%w: %w", ErrCopyFailed, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return Written{}, errors.Errorf("%w: opening source %s: %w", ErrCopyFailed, src, err)
	}
	defer in.Close()

	w, err := writeAtomic(dst, in)
	if err != nil {
		return Written{}, errors.Errorf("%w: %w", ErrCopyFailed, err)
	}

	zerolog.Ctx(ctx).Debug().Str("src", src).Str("dst", dst).Int64("bytes", w.Bytes).Msg("copied file")
	return w, nil
}

// 📦 ExtractMember atomically writes a single archive member to dst
func ExtractMember(ctx context.Context, archive, member, dst string) (Written, error) {
	if err := ctx.Err(); err != nil {
		return Written{}, errors.Errorf("%w: %w", ErrCopyFailed, err)
	}

	if _, err := os.Stat(archive); err != nil {
		return Written{}, errors.Errorf("%w: opening archive %s: %w", ErrCopyFailed, archive, err)
	}

	zr, err := zip.OpenReader(archive)
	if err != nil {
		return Written{}, errors.Errorf("%w: opening archive %s: %w", ErrArchiveMemberCorrupt, archive, err)
	}
	defer zr.Close()

	var file *zip.File
	for _, f := range zr.File {
		if f.Name == member {
			file = f
			break
		}
	}
	if file == nil {
		return Written{}, errors.Errorf("%w: member %q not found in %s", ErrCopyFailed, member, archive)
	}

	rc, err := file.Open()
	if err != nil {
		return Written{}, errors.Errorf("%w: opening member %q of %s: %w", ErrArchiveMemberCorrupt, member, archive, err)
	}
	defer rc.Close()

	w, err := writeAtomic(dst, rc)
	if err != nil {
		if isArchiveReadError(err) {
			return Written{}, errors.Errorf("%w: reading member %q of %s: %w", ErrArchiveMemberCorrupt, member, archive, err)
		}
		return Written{}, errors.Errorf("%w: %w", ErrCopyFailed, err)
	}

	zerolog.Ctx(ctx).Debug().Str("archive", archive).Str("member", member).Str("dst", dst).Int64("bytes", w.Bytes).Msg("extracted member")
	return w, nil
}

// 🔍 Digest returns the hex BLAKE3-256 of the file at path
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// readError marks failures on the source side of a copy
type readError struct{ err error }

func (e *readError) Error() string { return e.err.Error() }
func (e *readError) Unwrap() error { return e.err }

type sourceReader struct{ r io.Reader }

func (s sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF {
		return n, &readError{err: err}
	}
	return n, err
}

func isArchiveReadError(err error) bool {
	var re *readError
	return errors.As(err, &re)
}

// writeAtomic streams r into a temp file beside dst, then renames it over dst
func writeAtomic(dst string, r io.Reader) (Written, error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Written{}, errors.Errorf("creating parent directories: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+strings.TrimPrefix(filepath.Base(dst), ".")+".*.tmp")
	if err != nil {
		return Written{}, errors.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	h := blake3.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), sourceReader{r: r})
	if err != nil {
		cleanup()
		return Written{}, errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return Written{}, errors.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return Written{}, errors.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return Written{}, errors.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return Written{}, errors.Errorf("renaming temp file: %w", err)
	}

	return Written{Bytes: n, Digest: hex.EncodeToString(h.Sum(nil))}, nil
}
