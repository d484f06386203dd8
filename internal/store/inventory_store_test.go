package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/vbonduro/pantrysync/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := sql.Open("sqlite", "file:"+path+"?cache=shared&mode=rwc&_journal_mode=WAL&_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	// Schema mirrors internal/db/migrations.
	_, err = d.Exec(`
		CREATE TABLE inventory (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		INSERT INTO inventory (id) VALUES (1);
		CREATE TABLE items (
			position INTEGER PRIMARY KEY,
			barcode TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL,
			brand TEXT NOT NULL DEFAULT '',
			quantity REAL,
			category TEXT NOT NULL DEFAULT 'other',
			weight_grams INTEGER,
			weight_raw TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT 'heuristic',
			classified_at TIMESTAMP,
			created_at TIMESTAMP
		);
	`)
	require.NoError(t, err)
	return d
}

func TestInventoryStoreLoadEmpty(t *testing.T) {
	s := NewInventoryStore(openTestDB(t))

	items, _, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestInventoryStoreSaveLoadRoundTrip(t *testing.T) {
	s := NewInventoryStore(openTestDB(t))
	ctx := context.Background()

	qty := 2.0
	grams := int64(500)
	classifiedAt := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	created := time.Date(2025, 5, 20, 8, 0, 0, 0, time.UTC)
	updatedAt := time.Date(2025, 6, 1, 10, 31, 0, 0, time.UTC)

	in := []domain.Item{
		{
			Barcode:      "3017620422003",
			Name:         "Pâtes 500g",
			Brand:        "Panzani",
			Quantity:     &qty,
			Category:     domain.CategoryPasta,
			WeightGrams:  &grams,
			WeightRaw:    "500g",
			Source:       domain.SourceHeuristic,
			ClassifiedAt: &classifiedAt,
			Timestamp:    &created,
		},
		{Name: "Mystery item", Category: domain.CategoryOther, Source: domain.SourceHeuristic},
	}

	require.NoError(t, s.Save(ctx, in, updatedAt))

	out, loadedAt, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "3017620422003", out[0].Barcode)
	assert.Equal(t, "Pâtes 500g", out[0].Name)
	assert.Equal(t, "Panzani", out[0].Brand)
	require.NotNil(t, out[0].Quantity)
	assert.Equal(t, 2.0, *out[0].Quantity)
	assert.Equal(t, domain.CategoryPasta, out[0].Category)
	require.NotNil(t, out[0].WeightGrams)
	assert.Equal(t, int64(500), *out[0].WeightGrams)
	assert.Equal(t, "500g", out[0].WeightRaw)
	require.NotNil(t, out[0].ClassifiedAt)
	assert.True(t, out[0].ClassifiedAt.Equal(classifiedAt))
	require.NotNil(t, out[0].Timestamp)
	assert.True(t, out[0].Timestamp.Equal(created))
	assert.True(t, loadedAt.Equal(updatedAt))

	assert.Equal(t, "Mystery item", out[1].Name)
	assert.Nil(t, out[1].Quantity)
	assert.Nil(t, out[1].WeightGrams)
	assert.Nil(t, out[1].ClassifiedAt)
}

// Save is whole-document replacement: a second save fully supersedes the
// first, it never accumulates.
func TestInventoryStoreSaveReplaces(t *testing.T) {
	s := NewInventoryStore(openTestDB(t))
	ctx := context.Background()

	first := []domain.Item{{Name: "Couscous"}, {Name: "Harissa"}, {Name: "Thon"}}
	require.NoError(t, s.Save(ctx, first, time.Now()))

	second := []domain.Item{{Name: "Farine"}}
	require.NoError(t, s.Save(ctx, second, time.Now()))

	out, _, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Farine", out[0].Name)
}

func TestInventoryStoreSaveEmptyList(t *testing.T) {
	s := NewInventoryStore(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, []domain.Item{{Name: "Pasta"}}, time.Now()))
	require.NoError(t, s.Save(ctx, nil, time.Now()))

	out, _, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestInventoryStorePreservesDuplicates(t *testing.T) {
	s := NewInventoryStore(openTestDB(t))
	ctx := context.Background()

	in := []domain.Item{{Name: "Pasta", Barcode: "1"}, {Name: "Pasta", Barcode: "1"}}
	require.NoError(t, s.Save(ctx, in, time.Now()))

	out, _, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestInventoryStorePing(t *testing.T) {
	s := NewInventoryStore(openTestDB(t))
	assert.NoError(t, s.Ping(context.Background()))
}
