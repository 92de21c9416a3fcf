package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-indexmeta/internal/dialect"
)

func TestDefaultLayout(t *testing.T) {
	l := DefaultLayout()
	require.NoError(t, l.Validate())

	assert.Equal(t, "wp_posts", l.Posts())
	assert.Equal(t, "wp_postmeta", l.Postmeta())
	assert.Equal(t, "wp_wpu_index_meta__film", l.IndexTable("film"))
	assert.Equal(t, "wp_posts", l.Resolve("posts"))
	assert.Equal(t, "wp_postmeta", l.Resolve("postmeta"))
	assert.Equal(t, "wp_terms", l.Resolve("wp_terms"))
}

func TestLayoutValidateRejectsBadNames(t *testing.T) {
	l := DefaultLayout()
	l.TablePrefix = "wp-"
	assert.ErrorContains(t, l.Validate(), "invalid")

	l = DefaultLayout()
	l.MetaKey = "meta_key; --"
	assert.ErrorContains(t, l.Validate(), `invalid meta key "meta_key; --"`)
}

func TestOpenAndExec(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, dialect.NewSQLite(), ":memory:", Options{})
	require.NoError(t, err)
	defer db.Close()

	_, err = Statement{Step: StepCreate, SQL: `CREATE TABLE t (v TEXT)`}.Exec(ctx, db)
	require.NoError(t, err)

	n, err := Statement{Step: StepPopulate, SQL: `INSERT INTO t (v) VALUES (?), (?)`, Args: []any{"a", "b"}}.Exec(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = Statement{SQL: `INSERT INTO missing (v) VALUES (1)`}.Exec(ctx, db)
	require.Error(t, err)
	assert.True(t, dialect.NewSQLite().IsUndefinedTable(err))
}
