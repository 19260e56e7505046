package store_test

import (
	"testing"
	"time"

	"github.com/codeready-toolchain/acm/pkg/models"
	"github.com/codeready-toolchain/acm/pkg/store"
	testdb "github.com/codeready-toolchain/acm/test/database"
	"github.com/stretchr/testify/require"
)

func newRun(id string) *models.Run {
	return &models.Run{
		ID:             id,
		Name:           "test run " + id,
		Status:         models.RunStatusPending,
		ConfigSnapshot: []byte(`{}`),
		ConfigHash:     "sha256:deadbeef",
		SkipUnchanged:  true,
		TotalDocuments: 1,
	}
}

func TestRunRepoCreateAndGet(t *testing.T) {
	db := testdb.NewTestDB(t)
	repo := store.NewRunRepo(db)
	ctx := t.Context()

	run := newRun("run-1")
	require.NoError(t, repo.Create(ctx, run))

	got, err := repo.Get(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, models.RunStatusPending, got.Status)
	require.Equal(t, "test run run-1", got.Name)
}

func TestRunRepoEnqueueRejectsNonPending(t *testing.T) {
	db := testdb.NewTestDB(t)
	repo := store.NewRunRepo(db)
	ctx := t.Context()

	run := newRun("run-2")
	require.NoError(t, repo.Create(ctx, run))
	require.NoError(t, repo.Enqueue(ctx, "run-2"))

	err := repo.Enqueue(ctx, "run-2")
	require.Error(t, err)
}

func TestRunRepoClaimNextHonorsFIFOAndDoesNotReclaim(t *testing.T) {
	db := testdb.NewTestDB(t)
	repo := store.NewRunRepo(db)
	ctx := t.Context()

	for _, id := range []string{"run-a", "run-b"} {
		require.NoError(t, repo.Create(ctx, newRun(id)))
		require.NoError(t, repo.Enqueue(ctx, id))
	}

	claimed, err := repo.ClaimNext(ctx, "worker-1")
	require.NoError(t, err)
	require.NotNil(t, claimed)
	require.Equal(t, "run-a", claimed.ID)
	require.Equal(t, models.RunStatusRunning, claimed.Status)
	require.Equal(t, "worker-1", claimed.WorkerID)

	// The same run is no longer queued, so the next claim picks run-b.
	claimed2, err := repo.ClaimNext(ctx, "worker-2")
	require.NoError(t, err)
	require.NotNil(t, claimed2)
	require.Equal(t, "run-b", claimed2.ID)

	// Nothing left to claim.
	claimed3, err := repo.ClaimNext(ctx, "worker-3")
	require.NoError(t, err)
	require.Nil(t, claimed3)
}

func TestRunRepoFinishAndProgress(t *testing.T) {
	db := testdb.NewTestDB(t)
	repo := store.NewRunRepo(db)
	ctx := t.Context()

	require.NoError(t, repo.Create(ctx, newRun("run-3")))
	require.NoError(t, repo.IncrementCounters(ctx, "run-3", 1, 0, 0))
	require.NoError(t, repo.Finish(ctx, "run-3", models.RunStatusCompleted, ""))

	progress, err := repo.Progress(ctx, "run-3")
	require.NoError(t, err)
	require.Equal(t, models.RunStatusCompleted, progress.Status)
	require.Equal(t, 1, progress.CompletedCount)
}

func TestRunRepoFindStuckRunningAndRequeue(t *testing.T) {
	db := testdb.NewTestDB(t)
	repo := store.NewRunRepo(db)
	ctx := t.Context()

	require.NoError(t, repo.Create(ctx, newRun("run-4")))
	require.NoError(t, repo.Enqueue(ctx, "run-4"))
	_, err := repo.ClaimNext(ctx, "worker-dead")
	require.NoError(t, err)

	stuck, err := repo.FindStuckRunning(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, stuck, 1)
	require.Equal(t, "run-4", stuck[0].ID)

	require.NoError(t, repo.RequeueOrphan(ctx, "run-4"))
	got, err := repo.Get(ctx, "run-4")
	require.NoError(t, err)
	require.Equal(t, models.RunStatusQueued, got.Status)
}
