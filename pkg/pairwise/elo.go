// Package pairwise implements the pairwise evaluator and Elo rating
// system of spec.md §4.4: pair selection, position-bias mitigation, Elo
// updates, rank-score computation, and top-N selection.
package pairwise

import "math"

// Score is a match outcome expressed as the spec's S value: 1 for a win,
// 0 for a loss, 0.5 for a tie.
type Score float64

const (
	ScoreWin  Score = 1.0
	ScoreLoss Score = 0.0
	ScoreTie  Score = 0.5
)

// UpdateElo applies one Elo update per spec.md §4.4's formula and
// returns the pair's new ratings. k is the K-factor (default 32).
func UpdateElo(ratingA, ratingB float64, scoreA Score, k float64) (newA, newB float64) {
	expectedA := 1.0 / (1.0 + math.Pow(10, (ratingB-ratingA)/400))
	expectedB := 1.0 - expectedA
	scoreB := 1.0 - float64(scoreA)

	newA = ratingA + k*(float64(scoreA)-expectedA)
	newB = ratingB + k*(scoreB-expectedB)
	return newA, newB
}

// NormalizeElo maps a raw Elo rating onto the 0-centered scale spec.md
// §4.4's rank-score formula uses: (elo - 1000) / 100.
func NormalizeElo(elo float64) float64 {
	return (elo - 1000) / 100
}

// RankScore computes spec.md §4.4's per-artifact ranking score. When no
// pairwise data exists for the artifact (hasPairwiseData is false), the
// score falls back to the raw single-eval overall score.
func RankScore(elo, overallScore float64, hasPairwiseData bool) float64 {
	if !hasPairwiseData {
		return overallScore
	}
	return 0.6*NormalizeElo(elo) + 0.4*(overallScore/10)
}

// Candidate is one artifact's ranking inputs, used by Rank and
// SelectTopN.
type Candidate struct {
	ArtifactID      string
	Elo             float64
	OverallScore    float64
	HasPairwiseData bool
	PairwiseWins    int
	JudgeStdev      float64
	CreatedAtUnix   int64 // for the newer-created_at tie-break
}

// RankScore computes this candidate's rank score.
func (c Candidate) RankScore() float64 {
	return RankScore(c.Elo, c.OverallScore, c.HasPairwiseData)
}
