// Copyright (C) 2025 VeriSkill GmbH
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package similarity

import "strings"

// maxSkeletonLen bounds the quadratic LCS comparison. Longer skeletons are
// truncated; at that length the prefix is representative enough.
const maxSkeletonLen = 2000

// Shingles returns the set of k-token shingles of a token stream.
func Shingles(tokens []string, k int) map[string]struct{} {
	shingles := make(map[string]struct{})
	if k <= 0 || len(tokens) < k {
		return shingles
	}
	for i := 0; i+k <= len(tokens); i++ {
		shingles[strings.Join(tokens[i:i+k], "\x1f")] = struct{}{}
	}
	return shingles
}

// Jaccard is the normalized overlap coefficient of two shingle sets.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for shingle := range a {
		if _, ok := b[shingle]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// LCSRatio is the length of the longest common subsequence of two token
// sequences, normalized by the longer sequence. It is the structural
// similarity measure over skeletons.
func LCSRatio(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(a) > maxSkeletonLen {
		a = a[:maxSkeletonLen]
	}
	if len(b) > maxSkeletonLen {
		b = b[:maxSkeletonLen]
	}

	// two-row dynamic program
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	return float64(prev[len(b)]) / float64(longer)
}
