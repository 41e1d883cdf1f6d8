package sqlrows_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	storeskema "github.com/kioskcart/storeskema"
	"github.com/kioskcart/storeskema/batch"
	"github.com/kioskcart/storeskema/entity"
	"github.com/kioskcart/storeskema/source/sqlrows"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE categories (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	sort_order INTEGER,
	is_active BOOLEAN,
	created_at TEXT
);
INSERT INTO categories VALUES ('c1', ' Drinks ', NULL, 2, 0, '2024-01-01T00:00:00Z');
INSERT INTO categories VALUES ('c2', 'Bakery', 'Fresh daily', NULL, NULL, '2024-01-02T00:00:00Z');
`)
	require.NoError(t, err)
	return db
}

func TestCollect(t *testing.T) {
	db := openDB(t)
	rows, err := db.QueryContext(context.Background(), `SELECT id, name, description, sort_order, is_active FROM categories ORDER BY id`)
	require.NoError(t, err)

	recs, err := sqlrows.Collect(rows)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, storeskema.RawRecord{
		"id": "c1", "name": " Drinks ", "description": nil, "sort_order": int64(2), "is_active": false,
	}, recs[0])

	desc, ok := recs[1]["description"]
	assert.True(t, ok)
	assert.Equal(t, "Fresh daily", desc)
	v, ok := recs[1]["is_active"]
	assert.True(t, ok, "NULL columns are present as nil")
	assert.Nil(t, v)
}

func TestCollectIntoPipeline(t *testing.T) {
	db := openDB(t)
	rows, err := db.Query(`SELECT * FROM categories ORDER BY id`)
	require.NoError(t, err)
	recs, err := sqlrows.Collect(rows)
	require.NoError(t, err)

	cats, rep, err := batch.Process[entity.Category](context.Background(), entity.Categories, recs, batch.FailFast)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Accepted)
	assert.Equal(t, "Drinks", cats[0].Name)
	assert.False(t, cats[0].IsActive, "stored false must survive")
	assert.True(t, cats[1].IsActive, "NULL takes the default")
	assert.Equal(t, 0, cats[1].SortOrder)
}

func TestCollectEmpty(t *testing.T) {
	db := openDB(t)
	rows, err := db.Query(`SELECT id FROM categories WHERE id = 'none'`)
	require.NoError(t, err)
	recs, err := sqlrows.Collect(rows)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
