// Package storetest provides an in-memory WordPress-shaped SQLite store for tests.
package storetest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-indexmeta/internal/dialect"
	"github.com/redbco/redb-indexmeta/internal/store"
)

// NewWordPress opens a private in-memory database with wp_posts and wp_postmeta.
func NewWordPress(t *testing.T) *sql.DB {
	t.Helper()

	db, err := store.Open(context.Background(), dialect.NewSQLite(), ":memory:", store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE wp_posts (
			ID INTEGER PRIMARY KEY,
			post_type TEXT NOT NULL DEFAULT 'post',
			post_title TEXT NOT NULL DEFAULT ''
		)`)
	require.NoError(t, err)

	_, err = db.Exec(`
		CREATE TABLE wp_postmeta (
			meta_id INTEGER PRIMARY KEY AUTOINCREMENT,
			post_id INTEGER NOT NULL DEFAULT 0,
			meta_key TEXT,
			meta_value TEXT
		)`)
	require.NoError(t, err)

	return db
}

// AddPost inserts an owning entity.
func AddPost(t *testing.T, db *sql.DB, id int64, postType, title string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO wp_posts (ID, post_type, post_title) VALUES (?, ?, ?)`, id, postType, title)
	require.NoError(t, err)
}

// AddMeta inserts an attribute row.
func AddMeta(t *testing.T, db *sql.DB, postID int64, key, value string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO wp_postmeta (post_id, meta_key, meta_value) VALUES (?, ?, ?)`, postID, key, value)
	require.NoError(t, err)
}

// Rows returns every row of table ordered by its columns, each value rendered as a string.
func Rows(t *testing.T, db *sql.DB, table string, columns ...string) [][]string {
	t.Helper()

	cols := strings.Join(columns, ", ")
	rows, err := db.Query(fmt.Sprintf(`SELECT %s FROM "%s" ORDER BY %s`, cols, table, cols))
	require.NoError(t, err)
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		values := make([]sql.NullString, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		require.NoError(t, rows.Scan(ptrs...))

		row := make([]string, len(columns))
		for i, v := range values {
			if v.Valid {
				row[i] = v.String
			} else {
				row[i] = "NULL"
			}
		}
		out = append(out, row)
	}
	require.NoError(t, rows.Err())
	return out
}

// TableExists reports whether a table is present.
func TableExists(t *testing.T, db *sql.DB, table string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
	require.NoError(t, err)
	return n > 0
}
