package store

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/codeready-toolchain/acm/pkg/models"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// newMockDB wires a sqlmock connection through sqlx with the "postgres"
// bindvar style, the same sqlmock+sqlx pairing used for repository unit
// tests that don't need a live Postgres instance (DESIGN.md).
func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	sqlxDB := sqlx.NewDb(mockDB, "postgres")
	return &DB{DB: sqlxDB}, mock
}

func TestDocumentRepoFindPriorArtifactHashNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDocumentRepo(db)

	mock.ExpectQuery("SELECT a.content_hash").
		WithArgs("doc-1", "fpf", "cfg-hash", models.ArtifactStatusCompleted).
		WillReturnRows(sqlmock.NewRows([]string{"content_hash"}))

	hash, ok, err := repo.FindPriorArtifactHash(t.Context(), "doc-1", "fpf", "cfg-hash")
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, hash)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepoFindPriorArtifactHashFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDocumentRepo(db)

	mock.ExpectQuery("SELECT a.content_hash").
		WithArgs("doc-1", "fpf", "cfg-hash", models.ArtifactStatusCompleted).
		WillReturnRows(sqlmock.NewRows([]string{"content_hash"}).AddRow("sha256:abc123"))

	hash, ok, err := repo.FindPriorArtifactHash(t.Context(), "doc-1", "fpf", "cfg-hash")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "sha256:abc123", hash)
	require.NoError(t, mock.ExpectationsWereMet())
}
