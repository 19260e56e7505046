package store

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/acm/pkg/models"
)

// PairwiseRepo persists head-to-head comparisons and Elo ratings.
type PairwiseRepo struct {
	db *DB
}

// NewPairwiseRepo constructs a PairwiseRepo over the given connection pool.
func NewPairwiseRepo(db *DB) *PairwiseRepo {
	return &PairwiseRepo{db: db}
}

// RecordComparison inserts one judge's verdict on one pair.
func (r *PairwiseRepo) RecordComparison(ctx context.Context, c *models.PairwiseComparison) error {
	const q = `
		INSERT INTO pairwise_comparisons
			(id, run_id, document_id, artifact_a_id, artifact_b_id, judge_name, outcome, confidence, rationale, position_swapped)
		VALUES
			(:id, :run_id, :document_id, :artifact_a_id, :artifact_b_id, :judge_name, :outcome, :confidence, :rationale, :position_swapped)`
	_, err := r.db.NamedExecContext(ctx, q, c)
	if err != nil {
		return fmt.Errorf("store: record pairwise comparison %s: %w", c.ID, err)
	}
	return nil
}

// ListForDocument returns every comparison recorded for a document, in the
// order they were played — the history the pair-selection strategies
// (round_robin/swiss/top_k) use to avoid re-pairing the same artifacts.
func (r *PairwiseRepo) ListForDocument(ctx context.Context, documentID string) ([]models.PairwiseComparison, error) {
	var cs []models.PairwiseComparison
	const q = `SELECT * FROM pairwise_comparisons WHERE document_id = $1 ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &cs, q, documentID); err != nil {
		return nil, fmt.Errorf("store: list pairwise comparisons for document %s: %w", documentID, err)
	}
	return cs, nil
}

// GetRating fetches an artifact's current Elo rating within a pool,
// returning the configured initial rating when no row exists yet.
func (r *PairwiseRepo) GetRating(ctx context.Context, artifactID, pool string, initialRating float64) (*models.EloRating, error) {
	var rating models.EloRating
	const q = `SELECT * FROM elo_ratings WHERE artifact_id = $1 AND pool = $2`
	if err := r.db.GetContext(ctx, &rating, q, artifactID, pool); err != nil {
		if isNoRows(err) {
			return &models.EloRating{ArtifactID: artifactID, Pool: pool, Rating: initialRating}, nil
		}
		return nil, fmt.Errorf("store: get elo rating %s/%s: %w", artifactID, pool, err)
	}
	return &rating, nil
}

// UpsertRating writes an artifact's updated Elo rating after a match. The
// caller (pairwise.Evaluator.updateLoop) has already read the prior row,
// incremented games/wins/losses/ties and appended to rating_history, and
// runs this from a single writer goroutine per pool (SPEC_FULL §5.6), so
// this is a plain upsert rather than a read-modify-write transaction.
// matches is kept in lockstep with games for any reader still keyed on it.
func (r *PairwiseRepo) UpsertRating(ctx context.Context, rating *models.EloRating) error {
	rating.Matches = rating.Games
	const q = `
		INSERT INTO elo_ratings (artifact_id, pool, rating, matches, games, wins, losses, ties, rating_history, updated_at)
		VALUES (:artifact_id, :pool, :rating, :matches, :games, :wins, :losses, :ties, :rating_history, now())
		ON CONFLICT (artifact_id, pool) DO UPDATE
		SET rating = EXCLUDED.rating, matches = EXCLUDED.matches, games = EXCLUDED.games,
		    wins = EXCLUDED.wins, losses = EXCLUDED.losses, ties = EXCLUDED.ties,
		    rating_history = EXCLUDED.rating_history, updated_at = now()`
	_, err := r.db.NamedExecContext(ctx, q, rating)
	if err != nil {
		return fmt.Errorf("store: upsert elo rating %s/%s: %w", rating.ArtifactID, rating.Pool, err)
	}
	return nil
}

// ListRatingsForPool returns every artifact's current rating within a
// pool, ordered highest-first, for ranking output.
func (r *PairwiseRepo) ListRatingsForPool(ctx context.Context, pool string) ([]models.EloRating, error) {
	var ratings []models.EloRating
	const q = `SELECT * FROM elo_ratings WHERE pool = $1 ORDER BY rating DESC`
	if err := r.db.SelectContext(ctx, &ratings, q, pool); err != nil {
		return nil, fmt.Errorf("store: list elo ratings for pool %s: %w", pool, err)
	}
	return ratings, nil
}
