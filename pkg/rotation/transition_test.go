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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransitions(t *testing.T) {
	tests := []struct {
		from phase
		ok   bool
		want phase
	}{
		{phaseGate, true, phaseRetire},
		{phaseGate, false, phaseRejected},
		{phaseRetire, true, phaseInstall},
		{phaseRetire, false, phaseAborted},
		{phaseInstall, true, phasePromoted},
		{phaseInstall, false, phasePartial},
		{phasePromoted, true, phasePromoted},
		{phaseAborted, false, phaseAborted},
	}
	for _, tt := range tests {
		t.Run(tt.from.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, next(tt.from, tt.ok))
		})
	}

	for _, p := range []phase{phasePromoted, phaseRejected, phaseAborted, phasePartial} {
		assert.True(t, terminal(p), p.String())
	}
	for _, p := range []phase{phaseGate, phaseRetire, phaseInstall} {
		assert.False(t, terminal(p), p.String())
	}
}
