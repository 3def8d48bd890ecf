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

// Package rotation maintains Latest/Previous slot pairs ("live mirror" streams).
//
// A promotion is gated by the version token in the incoming filename. When the
// gate approves and Latest is populated, every Latest file is first copied into
// Previous and verified; only then is the new file installed into Latest and the
// retired files removed from it:
//
//	p := rotation.NewPromoter()
//	res := p.Promote(ctx, stream, rotation.Source{Path: "/in/Scorecard_2025_41.xlsx"})
//	if res.Outcome != rotation.OutcomePromoted {
//		// res.Reason / res.Err explain why
//	}
package rotation
