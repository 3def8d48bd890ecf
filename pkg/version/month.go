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
	"strings"
	"time"

	"gitlab.com/tozd/go/errors"
)

// 📅 Month is a calendar month, 1..12
type Month int

var monthNames = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// String returns the three-letter English abbreviation
func (m Month) String() string {
	if m < 1 || m > 12 {
		return "???"
	}
	return monthNames[m-1]
}

// Next returns the following month, wrapping Dec to Jan
func (m Month) Next() Month {
	return m%12 + 1
}

// ParseMonth accepts a three-letter abbreviation, any case
func ParseMonth(s string) (Month, error) {
	for i, name := range monthNames {
		if strings.EqualFold(name, s) {
			return Month(i + 1), nil
		}
	}
	return 0, errors.Errorf("unknown month %q", s)
}

// PreviousMonth returns the month before t's month
func PreviousMonth(t time.Time) Month {
	m := Month(t.Month()) - 1
	if m == 0 {
		return 12
	}
	return m
}
