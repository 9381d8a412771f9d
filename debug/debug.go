/*
 * Copyright 2023 Wyvern Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package debug

import (
	"github.com/lac-dcc/wyvern/internal/lazify"
)

// A Stats records cumulative statistics about the lazification pass.
type Stats struct {
	Callsites SiteStats
	Slices    SliceStats
}

// A SiteStats records how many call sites and (function, value) pairs were
// rewritten, and how many candidates were refused.
type SiteStats struct {
	Lazified  int
	Functions int
	Rejected  int
}

// A SliceStats records the size distribution of the generated slices, in
// instructions.
type SliceStats struct {
	Largest  int
	Smallest int
	Total    int
}

// GetStats returns statistics of the lazification pass.
func GetStats() Stats {
	s := lazify.Snapshot()
	return Stats{
		Callsites: SiteStats{
			Lazified:  int(s.CallsitesLazified),
			Functions: int(s.FunctionsLazified),
			Rejected:  int(s.CandidatesRejected),
		},
		Slices: SliceStats{
			Largest:  int(s.LargestSlice),
			Smallest: int(s.SmallestSlice),
			Total:    int(s.TotalSlice),
		},
	}
}
