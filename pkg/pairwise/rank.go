package pairwise

import "sort"

// RankConfig bounds top-N selection per spec.md §4.4's final rule: take
// up to Count artifacts at or above Threshold (rank_score normalized
// 0..1), always keep at least Min, never exceed Max.
type RankConfig struct {
	Count     int
	Threshold float64
	Min       int
	Max       int
}

// Rank sorts candidates by rank score descending, applying spec.md
// §4.4's tie-break order: higher pairwise wins, then lower per-judge
// stdev, then newer created_at.
func Rank(candidates []Candidate) []Candidate {
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := ranked[i].RankScore(), ranked[j].RankScore()
		if si != sj {
			return si > sj
		}
		if ranked[i].PairwiseWins != ranked[j].PairwiseWins {
			return ranked[i].PairwiseWins > ranked[j].PairwiseWins
		}
		if ranked[i].JudgeStdev != ranked[j].JudgeStdev {
			return ranked[i].JudgeStdev < ranked[j].JudgeStdev
		}
		return ranked[i].CreatedAtUnix > ranked[j].CreatedAtUnix
	})
	return ranked
}

// SelectTopN applies spec.md §4.4's top-N selection rule to an
// already-ranked candidate list (as returned by Rank). normalize maps a
// raw rank score onto 0..1 so it can be compared against cfg.Threshold;
// callers with an already-normalized score can pass an identity func.
func SelectTopN(ranked []Candidate, cfg RankConfig, normalize func(rankScore float64) float64) []Candidate {
	if normalize == nil {
		normalize = func(s float64) float64 { return s }
	}

	var selected []Candidate
	for _, c := range ranked {
		if len(selected) >= cfg.Count {
			break
		}
		if len(selected) >= cfg.Min && normalize(c.RankScore()) < cfg.Threshold {
			continue
		}
		if len(selected) >= cfg.Max {
			break
		}
		selected = append(selected, c)
	}

	for len(selected) < cfg.Min && len(selected) < len(ranked) {
		selected = append(selected, ranked[len(selected)])
	}
	if len(selected) > cfg.Max {
		selected = selected[:cfg.Max]
	}
	return selected
}
