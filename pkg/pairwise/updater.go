package pairwise

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/codeready-toolchain/acm/pkg/config"
	"github.com/codeready-toolchain/acm/pkg/models"
	"github.com/codeready-toolchain/acm/pkg/store"
)

// comparisonOutcome is one completed comparison waiting to be folded into
// the pool's Elo ratings.
type comparisonOutcome struct {
	pair       Pair
	outcome    models.PairwiseOutcome
	comparison *models.PairwiseComparison
}

// Evaluator runs the pairwise phase of spec.md §4.4: it selects pairs,
// dispatches comparison calls concurrently, and folds completed results
// into Elo ratings through a single writer so updates apply in
// chronological order of completion regardless of dispatch order.
//
// Grounded on the teacher's orchestrator.SubAgentRunner: many producer
// goroutines feed a single buffered results channel, and one consumer
// goroutine drains it — here repurposed so the consumer is the sole
// writer of Elo state instead of a status aggregator.
type Evaluator struct {
	Repo        *store.PairwiseRepo
	K           float64
	Initial     float64
	Selection   config.PairSelectionStrategy
	TopK        int
	DoubleRun   bool // position-bias mitigation strategy: double-run-with-swap vs randomize
	Temperature float64
	CallTimeout time.Duration
	Rng         *rand.Rand

	// OnComparison, if set, is called from the single writer goroutine
	// after each comparison is recorded and its Elo update applied —
	// callers use it to emit a pairwise.status event per comparison.
	OnComparison func(*models.PairwiseComparison)
}

// NewFromConfig builds an Evaluator from the configured pairwise phase.
func NewFromConfig(repo *store.PairwiseRepo, cfg config.PairwiseYAMLConfig, callTimeout time.Duration) *Evaluator {
	return &Evaluator{
		Repo:        repo,
		K:           cfg.EloK,
		Initial:     cfg.EloInitialScore,
		Selection:   cfg.Selection,
		TopK:        cfg.TopK,
		Temperature: 0.2,
		CallTimeout: callTimeout,
		Rng:         rand.New(rand.NewSource(1)),
	}
}

// Content resolves an artifact ID to the content a judge compares.
type Content func(artifactID string) (string, error)

// Run executes the full pairwise phase for one document's candidate
// pool: select pairs, run comparisons across judges (bounded by
// maxConcurrent), and serialize every Elo update through one writer
// goroutine so spec.md §4.4's "applied once per comparison in
// chronological order" guarantee holds.
func (e *Evaluator) Run(ctx context.Context, runID, documentID, pool string, artifactIDs []string, judges []JudgeCaller, content Content, maxConcurrent int) error {
	if len(artifactIDs) < 2 || len(judges) == 0 {
		return nil
	}

	played, err := e.playedPairs(ctx, documentID)
	if err != nil {
		return err
	}

	ratings := make(map[string]float64, len(artifactIDs))
	for _, id := range artifactIDs {
		r, err := e.Repo.GetRating(ctx, id, pool, e.Initial)
		if err != nil {
			return fmt.Errorf("pairwise: load rating for %s: %w", id, err)
		}
		ratings[id] = r.Rating
	}

	pairs := SelectPairs(artifactIDs, ratings, e.Selection, e.TopK, played)
	if len(pairs) == 0 {
		return nil
	}

	type job struct {
		pair  Pair
		judge JudgeCaller
	}
	jobs := make([]job, 0, len(pairs)*len(judges))
	for _, p := range pairs {
		for _, j := range judges {
			jobs = append(jobs, job{pair: p, judge: j})
		}
	}

	resultsCh := make(chan comparisonOutcome, len(jobs))
	sem := make(chan struct{}, max(1, maxConcurrent))
	errCh := make(chan error, len(jobs))
	var wg sync.WaitGroup

	done := make(chan struct{})
	go e.updateLoop(ctx, pool, resultsCh, done)

	for _, jb := range jobs {
		jb := jb
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			contentA, err := content(jb.pair.A)
			if err != nil {
				errCh <- err
				return
			}
			contentB, err := content(jb.pair.B)
			if err != nil {
				errCh <- err
				return
			}
			outcome, rationale, confidence, err := Compare(ctx, jb.judge, contentA, contentB, e.Temperature, e.CallTimeout, e.DoubleRun, e.Rng)
			if err != nil {
				errCh <- err
				return
			}
			resultsCh <- comparisonOutcome{
				pair:    jb.pair,
				outcome: outcome,
				comparison: &models.PairwiseComparison{
					ID:          newComparisonID(jb.pair, jb.judge.Name()),
					RunID:       runID,
					DocumentID:  documentID,
					ArtifactAID: jb.pair.A,
					ArtifactBID: jb.pair.B,
					JudgeName:   jb.judge.Name(),
					Outcome:     outcome,
					Confidence:  confidence,
					Rationale:   rationale,
				},
			}
		}()
	}

	wg.Wait()
	close(resultsCh)
	<-done
	close(errCh)

	for err := range errCh {
		if err != nil {
			return err
		}
	}
	return nil
}

// updateLoop is the single writer: it drains resultsCh strictly in
// completion order and folds each comparison into the pool's Elo
// ratings, guaranteeing updates are serialized and never interleaved.
// Each fold increments games (and the win/loss/tie bucket the outcome
// falls into) and appends the new rating to rating_history, keeping
// spec.md §8's len(rating_history) == games invariant.
func (e *Evaluator) updateLoop(ctx context.Context, pool string, resultsCh <-chan comparisonOutcome, done chan<- struct{}) {
	defer close(done)

	local := make(map[string]*models.EloRating)
	fetch := func(id string) *models.EloRating {
		if r, ok := local[id]; ok {
			return r
		}
		rating, err := e.Repo.GetRating(ctx, id, pool, e.Initial)
		if err != nil {
			rating = &models.EloRating{ArtifactID: id, Pool: pool, Rating: e.Initial}
		}
		local[id] = rating
		return rating
	}

	for res := range resultsCh {
		if err := e.Repo.RecordComparison(ctx, res.comparison); err != nil {
			continue
		}

		a := fetch(res.pair.A)
		b := fetch(res.pair.B)
		scoreA := outcomeToScoreA(res.outcome)
		newA, newB := UpdateElo(a.Rating, b.Rating, scoreA, e.K)

		a.Rating, b.Rating = newA, newB
		a.Games++
		b.Games++
		a.RatingHistory = append(a.RatingHistory, newA)
		b.RatingHistory = append(b.RatingHistory, newB)
		switch res.outcome {
		case models.PairwiseOutcomeAWins:
			a.Wins++
			b.Losses++
		case models.PairwiseOutcomeBWins:
			a.Losses++
			b.Wins++
		default:
			a.Ties++
			b.Ties++
		}

		_ = e.Repo.UpsertRating(ctx, a)
		_ = e.Repo.UpsertRating(ctx, b)

		if e.OnComparison != nil {
			e.OnComparison(res.comparison)
		}
	}
}

func (e *Evaluator) playedPairs(ctx context.Context, documentID string) (map[string]bool, error) {
	comparisons, err := e.Repo.ListForDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("pairwise: load comparison history: %w", err)
	}
	played := make(map[string]bool, len(comparisons))
	for _, c := range comparisons {
		played[orderedKey(c.ArtifactAID, c.ArtifactBID)] = true
	}
	return played, nil
}

func newComparisonID(p Pair, judgeName string) string {
	return fmt.Sprintf("cmp-%s-%s-%s", p.A, p.B, judgeName)
}
