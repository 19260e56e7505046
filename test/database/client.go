// Package database provides test helpers that stand up a real Postgres
// schema (via testcontainers or CI_DATABASE_URL) and run pkg/store's
// migrations against it, the way the teacher's test/database package
// stands up an Ent schema for integration tests.
package database

import (
	"context"
	"testing"

	"github.com/codeready-toolchain/acm/pkg/store"
	"github.com/codeready-toolchain/acm/test/util"
	"github.com/stretchr/testify/require"
)

// NewTestDB creates a *store.DB against a fresh, isolated Postgres schema.
// The schema and connection pool are cleaned up via t.Cleanup.
func NewTestDB(t *testing.T) *store.DB {
	t.Helper()
	ctx := context.Background()

	baseConnStr := util.GetBaseConnectionString(t)
	schemaName := util.GenerateSchemaName(t)
	util.CreateSchema(t, baseConnStr, schemaName)

	connStr := util.AddSearchPathToConnString(baseConnStr, schemaName)
	db, err := store.Open(ctx, store.Config{
		DSN:          connStr,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}
