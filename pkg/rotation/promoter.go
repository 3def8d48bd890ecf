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
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/imse8006/csv-zip-router/pkg/copier"
	"github.com/imse8006/csv-zip-router/pkg/version"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrRetireFailed means Latest could not be backed up; Latest was not touched
	ErrRetireFailed = errors.Base("retire failed")

	// ErrPromotionPartialFailure means Previous holds the backup but Latest may be incomplete
	ErrPromotionPartialFailure = errors.Base("promotion partially failed")
)

// 🎯 Outcome of one promotion attempt
type Outcome int

const (
	OutcomePromoted Outcome = iota
	OutcomeRejected
	OutcomeAborted
	OutcomePartiallyFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomePromoted:
		return "promoted"
	case OutcomeRejected:
		return "rejected"
	case OutcomeAborted:
		return "aborted"
	case OutcomePartiallyFailed:
		return "partially_failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the outcome name in reports
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// 📊 Result describes one promotion attempt
type Result struct {
	Stream       string
	Source       Source
	Outcome      Outcome
	Reason       version.Reason
	NewToken     *version.Token
	CurrentToken *version.Token
	Retired      []string // files copied from Latest into Previous
	Installed    string   // final path in Latest
	Written      copier.Written
	DryRun       bool
	Err          error
}

// OK reports whether the stream ended in a consistent state
func (r Result) OK() bool {
	return r.Outcome == OutcomePromoted || r.Outcome == OutcomeRejected
}

// phase is a step of the promotion state machine
type phase int

const (
	phaseGate phase = iota
	phaseRetire
	phaseInstall
	phasePromoted
	phaseRejected
	phaseAborted
	phasePartial
)

func (p phase) String() string {
	return [...]string{"gate", "retire", "install", "promoted", "rejected", "aborted", "partial"}[p]
}

// transitions maps a phase to its successor on {failure, success}
var transitions = map[phase][2]phase{
	phaseGate:    {phaseRejected, phaseRetire},
	phaseRetire:  {phaseAborted, phaseInstall},
	phaseInstall: {phasePartial, phasePromoted},
}

func next(p phase, ok bool) phase {
	t, found := transitions[p]
	if !found {
		return p
	}
	if ok {
		return t[1]
	}
	return t[0]
}

func terminal(p phase) bool {
	_, found := transitions[p]
	return !found
}

// 🔄 Promoter runs promotions, serialized per stream name
type Promoter struct {
	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	dryRun bool
}

// PromoterOption configures a Promoter
type PromoterOption func(*Promoter)

// WithDryRun evaluates the gate without touching any directory
func WithDryRun(dryRun bool) PromoterOption {
	return func(p *Promoter) { p.dryRun = dryRun }
}

// NewPromoter creates a Promoter
func NewPromoter(opts ...PromoterOption) *Promoter {
	p := &Promoter{locks: map[string]*sync.Mutex{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Promoter) lock(stream string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.locks[stream]
	if !ok {
		l = &sync.Mutex{}
		p.locks[stream] = l
	}
	return l
}

// 🚀 Promote tries to install src as the stream's new Latest
func (p *Promoter) Promote(ctx context.Context, stream Stream, src Source) Result {
	l := p.lock(stream.Name)
	l.Lock()
	defer l.Unlock()

	logger := zerolog.Ctx(ctx).With().Str("stream", stream.Name).Str("source", src.String()).Logger()
	ctx = logger.WithContext(ctx)

	res := Result{Stream: stream.Name, Source: src, DryRun: p.dryRun}

	var latest []string
	for ph := phaseGate; !terminal(ph); {
		var err error
		switch ph {
		case phaseGate:
			latest, err = p.gate(stream, src, &res)
		case phaseRetire:
			err = p.retire(ctx, stream, latest, &res)
		case phaseInstall:
			err = p.install(ctx, stream, src, latest, &res)
		}
		if err != nil {
			res.Err = err
		}
		ph = next(ph, err == nil)
		logger.Trace().Stringer("phase", ph).Msg("promotion transition")

		switch ph {
		case phaseRejected:
			res.Outcome = OutcomeRejected
		case phaseAborted:
			res.Outcome = OutcomeAborted
		case phasePartial:
			res.Outcome = OutcomePartiallyFailed
		case phasePromoted:
			res.Outcome = OutcomePromoted
		}
	}

	evt := logger.Info()
	if !res.OK() {
		evt = logger.Error().Err(res.Err)
	}
	evt.Stringer("outcome", res.Outcome).Stringer("reason", res.Reason).Bool("dry_run", res.DryRun).Msg("promotion finished")
	return res
}

// gate extracts both tokens and applies the version gate; it returns Latest's files
func (p *Promoter) gate(stream Stream, src Source, res *Result) ([]string, error) {
	ext := stream.extractor()

	latest, err := listFiles(stream.Latest)
	if err != nil {
		res.Reason = version.ReasonTokenUnextractable
		return nil, errors.Errorf("reading latest %s: %w", stream.Latest, err)
	}

	if tok, err := ext.Extract(src.Name()); err == nil {
		res.NewToken = tok
	}
	res.CurrentToken = currentToken(ext, latest, res.NewToken)

	if len(latest) > 0 && res.CurrentToken == nil {
		res.Reason = version.ReasonTokenUnextractable
		return nil, errors.Errorf("%w: no file in %s carries a version", version.ErrTokenUnextractable, stream.Latest)
	}

	d := version.ShouldPromote(res.NewToken, res.CurrentToken)
	res.Reason = d.Reason
	if !d.Promote {
		return nil, errors.Errorf("new %s, current %s: %w", tokenLabel(res.NewToken), tokenLabel(res.CurrentToken), d.Err())
	}
	return latest, nil
}

// retire replaces Previous with a verified copy of Latest
func (p *Promoter) retire(ctx context.Context, stream Stream, latest []string, res *Result) error {
	if len(latest) == 0 || p.dryRun {
		res.Retired = latest
		return nil
	}

	if err := os.MkdirAll(stream.Previous, 0755); err != nil {
		return errors.Errorf("%w: creating previous: %w", ErrRetireFailed, err)
	}
	old, err := listFiles(stream.Previous)
	if err != nil {
		return errors.Errorf("%w: reading previous: %w", ErrRetireFailed, err)
	}
	for _, name := range old {
		if err := os.Remove(filepath.Join(stream.Previous, name)); err != nil {
			return errors.Errorf("%w: clearing previous: %w", ErrRetireFailed, err)
		}
	}

	for _, name := range latest {
		from := filepath.Join(stream.Latest, name)
		to := filepath.Join(stream.Previous, name)
		w, err := copier.CopyFile(ctx, from, to)
		if err != nil {
			return errors.Errorf("%w: backing up %s: %w", ErrRetireFailed, name, err)
		}
		sum, err := copier.Digest(from)
		if err != nil {
			return errors.Errorf("%w: verifying %s: %w", ErrRetireFailed, name, err)
		}
		if sum != w.Digest {
			return errors.Errorf("%w: backup of %s does not match", ErrRetireFailed, name)
		}
		res.Retired = append(res.Retired, name)
	}

	zerolog.Ctx(ctx).Debug().Strs("files", res.Retired).Msg("retired latest into previous")
	return nil
}

// install writes src into Latest then drops the files it replaces
func (p *Promoter) install(ctx context.Context, stream Stream, src Source, latest []string, res *Result) error {
	dst := filepath.Join(stream.Latest, src.Name())
	res.Installed = dst
	if p.dryRun {
		return nil
	}

	var (
		w   copier.Written
		err error
	)
	if src.Member != "" {
		w, err = copier.ExtractMember(ctx, src.Path, src.Member, dst)
	} else {
		w, err = copier.CopyFile(ctx, src.Path, dst)
	}
	if err != nil {
		return errors.Errorf("%w: installing %s: %w", ErrPromotionPartialFailure, src.Name(), err)
	}
	res.Written = w

	for _, name := range latest {
		if name == src.Name() {
			continue
		}
		if err := os.Remove(filepath.Join(stream.Latest, name)); err != nil && !os.IsNotExist(err) {
			return errors.Errorf("%w: removing retired %s: %w", ErrPromotionPartialFailure, name, err)
		}
	}
	return nil
}

// currentToken is the greatest token in Latest, preferring the new token's kind
func currentToken(ext *version.Extractor, names []string, newTok *version.Token) *version.Token {
	var tokens []*version.Token
	for _, name := range names {
		if tok, err := ext.Extract(name); err == nil {
			tokens = append(tokens, tok)
		}
	}
	if len(tokens) == 0 {
		return nil
	}

	kind := tokens[0].Kind
	if newTok != nil {
		for _, tok := range tokens {
			if tok.Kind == newTok.Kind {
				kind = newTok.Kind
				break
			}
		}
	}

	var best *version.Token
	for _, tok := range tokens {
		if tok.Kind == kind && (best == nil || tok.Ordinal > best.Ordinal) {
			best = tok
		}
	}
	return best
}

// listFiles returns the sorted regular, non-hidden file names in dir; a missing dir is empty
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func tokenLabel(t *version.Token) string {
	if t == nil {
		return "none"
	}
	return t.String()
}
