package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-indexmeta/internal/dialect"
	"github.com/redbco/redb-indexmeta/internal/indexdef"
)

func setupSite(t *testing.T) (string, *sql.DB) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "site.db")

	db, err := sql.Open("sqlite", dialect.NewSQLite().DSN(dialect.ConnParams{Database: dbPath}))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	for _, stmt := range []string{
		`CREATE TABLE wp_posts (ID INTEGER PRIMARY KEY, post_type TEXT, post_title TEXT)`,
		`CREATE TABLE wp_postmeta (meta_id INTEGER PRIMARY KEY AUTOINCREMENT, post_id INTEGER, meta_key TEXT, meta_value TEXT)`,
		`INSERT INTO wp_posts (ID, post_type, post_title) VALUES (10, 'personne', 'Doe')`,
		`INSERT INTO wp_postmeta (post_id, meta_key, meta_value) VALUES (10, 'personne_id', '5')`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	cfgPath := filepath.Join(dir, "indexmeta.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
database:
  dialect: sqlite
  name: %s
indexes:
  personne:
    personne_id: {kind: index}
    post_title: {source_table: posts, join_key: ID}
`, dbPath)), 0o600))

	return cfgPath, db
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestReindexCommand(t *testing.T) {
	cfgPath, db := setupSite(t)

	require.NoError(t, run(t, "validate", "--config", cfgPath))
	require.NoError(t, run(t, "plan", "personne", "--config", cfgPath))
	require.NoError(t, run(t, "reindex", "personne", "--config", cfgPath))

	var postID, personneID, title string
	require.NoError(t, db.QueryRow(`SELECT post_id, personne_id, post_title FROM wp_wpu_index_meta__personne`).
		Scan(&postID, &personneID, &title))
	assert.Equal(t, []string{"10", "5", "Doe"}, []string{postID, personneID, title})

	assert.Error(t, run(t, "reindex", "unknown", "--config", cfgPath))

	require.NoError(t, run(t, "drop", "personne", "--config", cfgPath))
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE name = 'wp_wpu_index_meta__personne'`).Scan(&n))
	assert.Zero(t, n)
}

func TestDescribeColumns(t *testing.T) {
	set, _ := indexdef.Validate(indexdef.RawSet{
		"film": indexdef.Simple("film_id"),
		"cast": indexdef.Composite(
			indexdef.Col("film_id", indexdef.RawField{Kind: "index"}),
			indexdef.Col("role", indexdef.RawField{SourceTable: "postmeta", JoinKey: "post_id", InitIfMissing: new(bool)}),
		),
	})

	film, _ := set.Get("film")
	assert.Equal(t, "post_id, meta_value", describeColumns(film))
	cast, _ := set.Get("cast")
	assert.Equal(t, "post_id, film_id*, role<postmeta", describeColumns(cast))
}
