package models

import "time"

// PairwiseOutcome is the result of one head-to-head comparison.
type PairwiseOutcome string

const (
	PairwiseOutcomeAWins PairwiseOutcome = "a_wins"
	PairwiseOutcomeBWins PairwiseOutcome = "b_wins"
	PairwiseOutcomeTie   PairwiseOutcome = "tie"
)

// PairwiseComparison is one judge's verdict on one (artifact A, artifact
// B) pair, recorded after the position-bias mitigation swap is undone, so
// Outcome always refers to the caller-supplied order; PositionSwapped says
// whether the judge saw the two in swapped positions.
type PairwiseComparison struct {
	ID              string          `db:"id"`
	RunID           string          `db:"run_id"`
	DocumentID      string          `db:"document_id"`
	ArtifactAID     string          `db:"artifact_a_id"`
	ArtifactBID     string          `db:"artifact_b_id"`
	JudgeName       string          `db:"judge_name"`
	Outcome         PairwiseOutcome `db:"outcome"`
	Confidence      float64         `db:"confidence"` // judge-reported confidence in [0,1], spec.md §4.4
	Rationale       string          `db:"rationale"`
	PositionSwapped bool            `db:"position_swapped"`
	CreatedAt       time.Time       `db:"created_at"`
}

// EloRating is an artifact's current Elo rating within the pool it
// belongs to (per-document candidate pool, or the separate combined-output
// pool — spec.md §9 open question, resolved in DESIGN.md). Games/Wins/
// Losses/Ties and RatingHistory are spec.md §3's key attributes; the §8
// invariant is len(RatingHistory) == Games, maintained one append per
// update in pairwise.Evaluator.updateLoop.
type EloRating struct {
	ArtifactID    string         `db:"artifact_id"`
	Pool          string         `db:"pool"` // document_id, or "combined:<document_id>"
	Rating        float64        `db:"rating"`
	Matches       int            `db:"matches"`
	Games         int            `db:"games"`
	Wins          int            `db:"wins"`
	Losses        int            `db:"losses"`
	Ties          int            `db:"ties"`
	RatingHistory JSONFloatSlice `db:"rating_history"`
	UpdatedAt     time.Time      `db:"updated_at"`
}
