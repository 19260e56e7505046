package events_test

import (
	"testing"

	"github.com/codeready-toolchain/acm/pkg/events"
	testdb "github.com/codeready-toolchain/acm/test/database"
	"github.com/stretchr/testify/require"
)

func TestPublisherPersistsRunStatusEvent(t *testing.T) {
	db := testdb.NewTestDB(t)
	pub := events.NewPublisher(db.DB.DB)
	ctx := t.Context()

	err := pub.PublishRunStatus(ctx, "run-1", events.RunStatusPayload{
		RunID:     "run-1",
		Status:    "running",
		Timestamp: "2026-01-01T00:00:00Z",
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, db.GetContext(ctx, &count, `SELECT count(*) FROM events WHERE run_id = $1 AND channel = $2`, "run-1", events.RunChannel("run-1")))
	require.Equal(t, 1, count)
}

func TestPublisherCompletionBroadcastsToGlobalChannelWithoutPersisting(t *testing.T) {
	db := testdb.NewTestDB(t)
	pub := events.NewPublisher(db.DB.DB)
	ctx := t.Context()

	err := pub.PublishCompletion(ctx, "run-2", events.CompletionPayload{
		RunID:          "run-2",
		Status:         "completed",
		CompletedCount: 3,
		Timestamp:      "2026-01-01T00:00:00Z",
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, db.GetContext(ctx, &count, `SELECT count(*) FROM events WHERE run_id = $1`, "run-2"))
	require.Equal(t, 1, count, "only the run channel publish persists a row; the global broadcast is notify-only")
}
