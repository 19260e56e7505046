package pairwise_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/codeready-toolchain/acm/pkg/config"
	"github.com/codeready-toolchain/acm/pkg/models"
	"github.com/codeready-toolchain/acm/pkg/pairwise"
	"github.com/codeready-toolchain/acm/pkg/store"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func TestUpdateEloWinnerGainsRating(t *testing.T) {
	newA, newB := pairwise.UpdateElo(1500, 1500, pairwise.ScoreWin, 32)
	require.InDelta(t, 1516, newA, 0.5)
	require.InDelta(t, 1484, newB, 0.5)
}

func TestUpdateEloTieNoNetChangeWhenEven(t *testing.T) {
	newA, newB := pairwise.UpdateElo(1500, 1500, pairwise.ScoreTie, 32)
	require.InDelta(t, 1500, newA, 0.01)
	require.InDelta(t, 1500, newB, 0.01)
}

func TestUpdateEloUnderdogWinGainsMore(t *testing.T) {
	underdogGain, _ := pairwise.UpdateElo(1400, 1600, pairwise.ScoreWin, 32)
	favoriteGain, _ := pairwise.UpdateElo(1600, 1400, pairwise.ScoreWin, 32)
	require.Greater(t, underdogGain-1400, favoriteGain-1600)
}

func TestRankScoreFallsBackToOverallWithoutPairwiseData(t *testing.T) {
	require.Equal(t, 7.5, pairwise.RankScore(9999, 7.5, false))
}

func TestRankScoreBlendsEloAndOverall(t *testing.T) {
	got := pairwise.RankScore(1600, 8, true)
	require.InDelta(t, 0.6*6+0.4*0.8, got, 0.001)
}

func TestSelectPairsRoundRobinForSmallPool(t *testing.T) {
	ids := []string{"a", "b", "c"}
	pairs := pairwise.SelectPairs(ids, nil, config.PairSelectionRoundRobin, 0, nil)
	require.Len(t, pairs, 3) // n(n-1)/2
}

func TestSelectPairsRoundRobinSkipsAlreadyPlayed(t *testing.T) {
	ids := []string{"a", "b", "c"}
	played := map[string]bool{}
	for _, p := range pairwise.SelectPairs(ids, nil, config.PairSelectionRoundRobin, 0, nil) {
		if p.A == "a" && p.B == "b" {
			played["a\x00b"] = true
		}
	}
	pairs := pairwise.SelectPairs(ids, nil, config.PairSelectionRoundRobin, 0, played)
	require.Len(t, pairs, 2)
}

func TestSelectPairsTopKRestrictsToHighestRated(t *testing.T) {
	ids := []string{"a", "b"}
	ratings := map[string]float64{"a": 1700, "b": 1600}
	// More than 50 candidates, so SelectPairs uses its top-K tier.
	for i := 0; i < 50; i++ {
		id := "f" + string(rune('0'+i/10)) + string(rune('0'+i%10))
		ids = append(ids, id)
		ratings[id] = 1500 - float64(i)
	}
	pairs := pairwise.SelectPairs(ids, ratings, config.PairSelectionTopK, 2, nil)
	require.Len(t, pairs, 1)
	require.Equal(t, pairwise.Pair{A: "a", B: "b"}, pairs[0])
}

func TestRankOrdersByTieBreaksAfterEqualRankScore(t *testing.T) {
	candidates := []pairwise.Candidate{
		{ArtifactID: "low-wins", Elo: 1500, OverallScore: 8, HasPairwiseData: true, PairwiseWins: 1, JudgeStdev: 0.5, CreatedAtUnix: 10},
		{ArtifactID: "high-wins", Elo: 1500, OverallScore: 8, HasPairwiseData: true, PairwiseWins: 3, JudgeStdev: 0.9, CreatedAtUnix: 5},
	}
	ranked := pairwise.Rank(candidates)
	require.Equal(t, "high-wins", ranked[0].ArtifactID)
}

func TestSelectTopNRespectsMinAndMax(t *testing.T) {
	ranked := []pairwise.Candidate{
		{ArtifactID: "a", Elo: 2000, OverallScore: 9, HasPairwiseData: true},
		{ArtifactID: "b", Elo: 1000, OverallScore: 1, HasPairwiseData: true},
		{ArtifactID: "c", Elo: 900, OverallScore: 0.5, HasPairwiseData: true},
	}
	selected := pairwise.SelectTopN(ranked, pairwise.RankConfig{Count: 3, Threshold: 0.9, Min: 1, Max: 2}, nil)
	require.LessOrEqual(t, len(selected), 2)
	require.GreaterOrEqual(t, len(selected), 1)
}

// scriptedComparer returns one canned verdict JSON per call, in order.
type scriptedComparer struct {
	name      string
	responses []string
	calls     int
}

func (s *scriptedComparer) Name() string { return s.name }

func (s *scriptedComparer) Complete(_ context.Context, _, _ string, _ float64, _ time.Duration) (string, error) {
	idx := s.calls
	s.calls++
	return s.responses[idx], nil
}

func TestCompareRandomizedAppliesSwapDeterministically(t *testing.T) {
	judge := &scriptedComparer{name: "j", responses: []string{`{"winner":"a","confidence":0.9,"reasoning":"better"}`}}
	rng := rand.New(rand.NewSource(0))
	outcome, reason, confidence, err := pairwise.Compare(context.Background(), judge, "content A", "content B", 0.2, time.Second, false, rng)
	require.NoError(t, err)
	require.Contains(t, []models.PairwiseOutcome{models.PairwiseOutcomeAWins, models.PairwiseOutcomeBWins}, outcome)
	require.Equal(t, "better", reason)
	require.InDelta(t, 0.9, confidence, 0.0001)
}

func TestCompareDoubleRunDisagreementCollapsesToTie(t *testing.T) {
	judge := &scriptedComparer{name: "j", responses: []string{
		`{"winner":"a","confidence":0.9,"reasoning":"first pass"}`,
		// second call runs with (B, A) order; "a" there means the content
		// in the first slot — the original B — won this time, disagreeing
		// with the first pass.
		`{"winner":"a","confidence":0.9,"reasoning":"second pass"}`,
	}}
	outcome, _, confidence, err := pairwise.Compare(context.Background(), judge, "content A", "content B", 0.2, time.Second, true, nil)
	require.NoError(t, err)
	require.Equal(t, models.PairwiseOutcomeTie, outcome)
	require.Zero(t, confidence)
}

func TestCompareDoubleRunAgreementKeepsWinner(t *testing.T) {
	judge := &scriptedComparer{name: "j", responses: []string{
		`{"winner":"a","confidence":0.9,"reasoning":"first pass"}`,
		// second call runs with (B, A) order; "b" there means the content
		// in the second slot — the original A — won again.
		`{"winner":"b","confidence":0.9,"reasoning":"second pass"}`,
	}}
	outcome, _, confidence, err := pairwise.Compare(context.Background(), judge, "content A", "content B", 0.2, time.Second, true, nil)
	require.NoError(t, err)
	require.Equal(t, models.PairwiseOutcomeAWins, outcome)
	require.InDelta(t, 0.9, confidence, 0.0001)
}

func newMockStoreDB(t *testing.T) (*store.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return &store.DB{DB: sqlx.NewDb(mockDB, "postgres")}, mock
}

func TestEvaluatorRunRecordsComparisonAndUpdatesRatings(t *testing.T) {
	db, mock := newMockStoreDB(t)
	repo := store.NewPairwiseRepo(db)

	mock.ExpectQuery("SELECT \\* FROM pairwise_comparisons").
		WillReturnRows(sqlmock.NewRows([]string{"id", "run_id", "document_id", "artifact_a_id", "artifact_b_id", "judge_name", "outcome", "rationale", "position_swapped", "created_at"}))

	mock.ExpectQuery("SELECT \\* FROM elo_ratings WHERE artifact_id = \\$1 AND pool = \\$2").
		WithArgs("art-a", "doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"artifact_id", "pool", "rating", "matches", "updated_at"}))
	mock.ExpectQuery("SELECT \\* FROM elo_ratings WHERE artifact_id = \\$1 AND pool = \\$2").
		WithArgs("art-b", "doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"artifact_id", "pool", "rating", "matches", "updated_at"}))

	mock.ExpectExec("INSERT INTO pairwise_comparisons").WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectQuery("SELECT \\* FROM elo_ratings WHERE artifact_id = \\$1 AND pool = \\$2").
		WithArgs("art-a", "doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"artifact_id", "pool", "rating", "matches", "updated_at"}))
	mock.ExpectQuery("SELECT \\* FROM elo_ratings WHERE artifact_id = \\$1 AND pool = \\$2").
		WithArgs("art-b", "doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"artifact_id", "pool", "rating", "matches", "updated_at"}))

	mock.ExpectExec("INSERT INTO elo_ratings").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO elo_ratings").WillReturnResult(sqlmock.NewResult(1, 1))

	ev := &pairwise.Evaluator{
		Repo:        repo,
		K:           32,
		Initial:     1500,
		Selection:   config.PairSelectionRoundRobin,
		CallTimeout: time.Second,
		Rng:         rand.New(rand.NewSource(0)),
	}

	judge := &scriptedComparer{name: "j1", responses: []string{`{"winner":"a","confidence":0.8,"reasoning":"clearer"}`}}
	content := func(id string) (string, error) { return "content for " + id, nil }

	err := ev.Run(context.Background(), "run-1", "doc-1", "doc-1", []string{"art-a", "art-b"}, []pairwise.JudgeCaller{judge}, content, 2)
	require.NoError(t, err)
}
