package database

import (
	"context"
	"testing"

	"github.com/codeready-toolchain/acm/pkg/store"
	"github.com/codeready-toolchain/acm/test/util"
	"github.com/stretchr/testify/require"
)

// SharedTestDB creates a single PostgreSQL schema that multiple independent
// connection pools can share — used by pkg/events tests that exercise
// NOTIFY/LISTEN delivery across what would otherwise be separate processes.
type SharedTestDB struct {
	connStrWithSchema string
}

// NewSharedTestDB creates a shared schema, runs migrations once, and
// registers t.Cleanup to drop the schema.
func NewSharedTestDB(t *testing.T) *SharedTestDB {
	t.Helper()
	ctx := context.Background()

	baseConnStr := util.GetBaseConnectionString(t)
	schemaName := util.GenerateSchemaName(t)
	util.CreateSchema(t, baseConnStr, schemaName)

	connStrWithSchema := util.AddSearchPathToConnString(baseConnStr, schemaName)

	// Run migrations once via a throwaway pool, then let each replica open
	// its own pool against the now-migrated schema.
	migrator, err := store.Open(ctx, store.Config{DSN: connStrWithSchema, MaxOpenConns: 5, MaxIdleConns: 2})
	require.NoError(t, err)
	_ = migrator.Close()

	return &SharedTestDB{connStrWithSchema: connStrWithSchema}
}

// NewDB opens an independent connection pool against the shared schema.
// The pool is closed via t.Cleanup.
func (s *SharedTestDB) NewDB(t *testing.T) *store.DB {
	t.Helper()
	ctx := context.Background()

	db, err := store.Open(ctx, store.Config{DSN: s.connStrWithSchema, MaxOpenConns: 5, MaxIdleConns: 2})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// ConnString exposes the raw DSN for components (like CancelListener) that
// need their own dedicated *pgx.Conn rather than a pooled *sql.DB.
func (s *SharedTestDB) ConnString() string {
	return s.connStrWithSchema
}
