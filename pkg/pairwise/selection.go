package pairwise

import "github.com/codeready-toolchain/acm/pkg/config"

// Pair is one (A, B) matchup selected for comparison.
type Pair struct {
	A, B string // artifact IDs
}

// SelectPairs builds the matchup list for a candidate pool per spec.md
// §4.4's size-tiered strategy: round_robin for small pools (n<=10), a
// single Swiss round paired by current rating for medium pools
// (10<n<=50), and top_k challenger pairing for large pools (n>50).
// played is the set of (A,B) pairs already compared for this document,
// keyed by orderedKey, and is never re-selected. The strategy argument is
// not consulted; topK is used only in the n>50 tier.
func SelectPairs(artifactIDs []string, ratings map[string]float64, strategy config.PairSelectionStrategy, topK int, played map[string]bool) []Pair {
	n := len(artifactIDs)
	switch {
	case n <= 10:
		return roundRobinPairs(artifactIDs, played)
	case n <= 50:
		return swissPairs(artifactIDs, ratings, played)
	default:
		return topKPairs(artifactIDs, ratings, topK, played)
	}
}

func orderedKey(a, b string) string {
	if a < b {
		return a + "\x00" + b
	}
	return b + "\x00" + a
}

// roundRobinPairs pairs every artifact against every other exactly once.
func roundRobinPairs(ids []string, played map[string]bool) []Pair {
	var pairs []Pair
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if played[orderedKey(ids[i], ids[j])] {
				continue
			}
			pairs = append(pairs, Pair{A: ids[i], B: ids[j]})
		}
	}
	return pairs
}

// swissPairs runs one Swiss-style round: sort by current rating and pair
// adjacent artifacts, approximating equal-strength matchups without the
// full O(n^2) round-robin cost.
func swissPairs(ids []string, ratings map[string]float64, played map[string]bool) []Pair {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sortByRatingDesc(sorted, ratings)

	var pairs []Pair
	used := make(map[string]bool, len(sorted))
	for i := 0; i < len(sorted); i++ {
		if used[sorted[i]] {
			continue
		}
		for j := i + 1; j < len(sorted); j++ {
			if used[sorted[j]] || played[orderedKey(sorted[i], sorted[j])] {
				continue
			}
			pairs = append(pairs, Pair{A: sorted[i], B: sorted[j]})
			used[sorted[i]] = true
			used[sorted[j]] = true
			break
		}
	}
	return pairs
}

// topKPairs restricts comparisons to the current top-K-rated artifacts
// against each other, for pools too large to compare exhaustively.
func topKPairs(ids []string, ratings map[string]float64, topK int, played map[string]bool) []Pair {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sortByRatingDesc(sorted, ratings)

	if topK > len(sorted) {
		topK = len(sorted)
	}
	return roundRobinPairs(sorted[:topK], played)
}

func sortByRatingDesc(ids []string, ratings map[string]float64) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ratings[ids[j-1]] < ratings[ids[j]]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}
