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

package version

import (
	"gitlab.com/tozd/go/errors"
)

// 🚦 Reason explains a gate decision
type Reason int

const (
	// ReasonNewIsNewer promotes: the new token is strictly greater
	ReasonNewIsNewer Reason = iota
	// ReasonNoCurrentVersion promotes: Latest holds no version yet
	ReasonNoCurrentVersion
	ReasonNewIsOlderOrEqual
	ReasonTokenUnextractable
	ReasonTokenTypeMismatch
)

func (r Reason) String() string {
	switch r {
	case ReasonNewIsNewer:
		return "NewIsNewer"
	case ReasonNoCurrentVersion:
		return "NoCurrentVersion"
	case ReasonNewIsOlderOrEqual:
		return "NewIsOlderOrEqual"
	case ReasonTokenUnextractable:
		return "TokenUnextractable"
	case ReasonTokenTypeMismatch:
		return "TokenTypeMismatch"
	default:
		return "Unknown"
	}
}

// Err maps rejecting reasons to their sentinel; nil for promoting reasons
func (r Reason) Err() error {
	switch r {
	case ReasonNewIsOlderOrEqual:
		return ErrNotNewer
	case ReasonTokenUnextractable:
		return ErrTokenUnextractable
	case ReasonTokenTypeMismatch:
		return ErrTokenTypeMismatch
	default:
		return nil
	}
}

// ✅ Decision is the gate verdict
type Decision struct {
	Promote bool
	Reason  Reason
}

// Err is nil when promoting
func (d Decision) Err() error {
	if d.Promote {
		return nil
	}
	return d.Reason.Err()
}

// 🚦 ShouldPromote approves newTok only when it strictly exceeds current.
// A nil current means the slot is empty; a nil newTok is unextractable.
func ShouldPromote(newTok, current *Token) Decision {
	// an unversioned file is rejected even on the first run
	if newTok == nil {
		return Decision{Reason: ReasonTokenUnextractable}
	}
	if current == nil {
		return Decision{Promote: true, Reason: ReasonNoCurrentVersion}
	}
	cmp, err := newTok.Compare(*current)
	if err != nil {
		if errors.Is(err, ErrTokenTypeMismatch) {
			return Decision{Reason: ReasonTokenTypeMismatch}
		}
		return Decision{Reason: ReasonTokenUnextractable}
	}
	if cmp <= 0 {
		return Decision{Reason: ReasonNewIsOlderOrEqual}
	}
	return Decision{Promote: true, Reason: ReasonNewIsNewer}
}
