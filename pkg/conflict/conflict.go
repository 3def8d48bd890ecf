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

// Package conflict decides what happens when a target path is already occupied.
package conflict

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gitlab.com/tozd/go/errors"
)

// MaxRenameAttempts bounds the numeric suffix search
const MaxRenameAttempts = 1000

var (
	// ErrConflictExhausted is returned when no free suffixed name was found
	ErrConflictExhausted = errors.Base("conflict resolution exhausted")

	// ErrTargetReserved is returned under Overwrite when another job of the
	// same batch already claimed the path
	ErrTargetReserved = errors.Base("target already claimed in this batch")
)

// ⚖️ Policy is the on-conflict behavior
type Policy int

const (
	Overwrite Policy = iota
	Skip
	RenameWithSuffix
)

func (p Policy) String() string {
	switch p {
	case Overwrite:
		return "overwrite"
	case Skip:
		return "skip"
	case RenameWithSuffix:
		return "rename"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy parses overwrite|skip|rename
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "overwrite":
		return Overwrite, nil
	case "skip":
		return Skip, nil
	case "rename", "rename_with_suffix":
		return RenameWithSuffix, nil
	default:
		return 0, errors.Errorf("unknown conflict policy %q (want overwrite, skip or rename)", s)
	}
}

// Set implements pflag.Value
func (p *Policy) Set(s string) error {
	v, err := ParsePolicy(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Type implements pflag.Value
func (p *Policy) Type() string {
	return "policy"
}

// 📍 Decision is the resolved outcome for one target
type Decision struct {
	FinalPath string // where to write; the existing path when Skip is set
	Skip      bool   // do not write
	Renamed   bool   // FinalPath differs from the requested target
}

// 🔧 Resolver resolves conflicts against the filesystem and, optionally,
// against paths already claimed earlier in the same batch
type Resolver struct {
	exists func(string) (bool, error)

	mu       sync.Mutex
	reserve  bool
	reserved map[string]struct{}
}

// Option configures a Resolver
type Option func(*Resolver)

// WithExists swaps the existence check, mainly for tests
func WithExists(fn func(string) (bool, error)) Option {
	return func(r *Resolver) { r.exists = fn }
}

// WithReservations makes every returned FinalPath count as occupied for
// later calls on the same Resolver
func WithReservations() Option {
	return func(r *Resolver) { r.reserve = true }
}

// 🏭 NewResolver creates a resolver backed by os.Lstat
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		exists:   pathExists,
		reserved: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve applies policy to targetPath with a fresh, non-reserving resolver
func Resolve(targetPath string, policy Policy) (Decision, error) {
	return NewResolver().Resolve(targetPath, policy)
}

// 🎯 Resolve decides the final path for targetPath under policy
func (r *Resolver) Resolve(targetPath string, policy Policy) (Decision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	targetPath = filepath.Clean(targetPath)

	_, claimed := r.reserved[targetPath]
	onDisk, err := r.exists(targetPath)
	if err != nil {
		return Decision{}, errors.Errorf("checking %s: %w", targetPath, err)
	}

	switch policy {
	case Overwrite:
		if claimed {
			return Decision{}, errors.Errorf("%w: %s", ErrTargetReserved, targetPath)
		}
		r.claim(targetPath)
		return Decision{FinalPath: targetPath}, nil

	case Skip:
		if onDisk || claimed {
			return Decision{FinalPath: targetPath, Skip: true}, nil
		}
		r.claim(targetPath)
		return Decision{FinalPath: targetPath}, nil

	case RenameWithSuffix:
		if !onDisk && !claimed {
			r.claim(targetPath)
			return Decision{FinalPath: targetPath}, nil
		}
		dir := filepath.Dir(targetPath)
		base := filepath.Base(targetPath)
		ext := filepath.Ext(base)
		stem := strings.TrimSuffix(base, ext)
		for i := 1; i <= MaxRenameAttempts; i++ {
			candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
			if _, taken := r.reserved[candidate]; taken {
				continue
			}
			exists, err := r.exists(candidate)
			if err != nil {
				return Decision{}, errors.Errorf("checking %s: %w", candidate, err)
			}
			if !exists {
				r.claim(candidate)
				return Decision{FinalPath: candidate, Renamed: true}, nil
			}
		}
		return Decision{}, errors.Errorf("%w: %s after %d attempts", ErrConflictExhausted, targetPath, MaxRenameAttempts)

	default:
		return Decision{}, errors.Errorf("unknown conflict policy %s", policy)
	}
}

func (r *Resolver) claim(path string) {
	if r.reserve {
		r.reserved[path] = struct{}{}
	}
}

func pathExists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
