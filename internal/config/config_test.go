package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-indexmeta/internal/dialect"
	"github.com/redbco/redb-indexmeta/internal/indexdef"
	"github.com/redbco/redb-indexmeta/pkg/keyring"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "indexmeta.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
database:
  dialect: postgres
  host: db.internal
  port: 5432
  user: wp
  name: site
layout:
  table_prefix: site_
lock:
  backend: redis
  ttl: 2m
engine:
  workers: 4
server:
  reindex_interval: 1h
indexes:
  film: film_id
  personne:
    personne_id: {kind: index}
    post_title: {source_table: posts, join_key: ID}
    role:
      source_table: postmeta
      join_key: post_id
      init_if_missing: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Dialect)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "site_", cfg.Layout.TablePrefix)
	assert.Equal(t, "wpu_index_meta__", cfg.Layout.Namespace, "unset keys keep their defaults")
	assert.Equal(t, LockRedis, cfg.Lock.Backend)
	assert.Equal(t, "localhost:6379", cfg.Lock.RedisAddr)
	assert.Equal(t, 2*time.Minute, cfg.Lock.TTL)
	assert.Equal(t, 4, cfg.Engine.Workers)
	assert.Equal(t, 30*time.Minute, cfg.Engine.Timeout)
	assert.Equal(t, time.Hour, cfg.Server.ReindexInterval)

	assert.Equal(t, indexdef.Simple("film_id"), cfg.Indexes["film"])
	personne := cfg.Indexes["personne"]
	require.Len(t, personne.Columns, 3)
	assert.Equal(t, []string{"personne_id", "post_title", "role"},
		[]string{personne.Columns[0].Column, personne.Columns[1].Column, personne.Columns[2].Column})
	require.NotNil(t, personne.Columns[2].Field.InitIfMissing)
	assert.True(t, *personne.Columns[2].Field.InitIfMissing)

	d, err := cfg.Dialect()
	require.NoError(t, err)
	assert.Equal(t, dialect.PostgreSQL, d.ID())
	assert.Contains(t, cfg.DSN(d), "db.internal:5432/site")
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Database, cfg.Database)
	assert.NotNil(t, cfg.Indexes)
}

func TestDSNFromEnvironment(t *testing.T) {
	t.Setenv(EnvDSN, ":memory:")
	cfg, err := Load(writeConfig(t, "database: {dialect: sqlite}\n"))
	require.NoError(t, err)

	d, err := cfg.Dialect()
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.DSN(d))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown dialect", "database: {dialect: oracle}\n"},
		{"unknown lock backend", "lock: {backend: etcd}\n"},
		{"redis without address", "lock: {backend: redis, redis_addr: \"\"}\n"},
		{"no workers", "engine: {workers: 0}\n"},
		{"bad prefix", "layout: {table_prefix: \"wp-\"}\n"},
		{"negative interval", "server: {reindex_interval: -1s}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestResolvePassword(t *testing.T) {
	store := keyring.NewFile(filepath.Join(t.TempDir(), "keyring.json"), "master")

	cfg := Default()
	cfg.Database.Keyring = true
	assert.ErrorIs(t, cfg.ResolvePassword(store), keyring.ErrNotFound)

	require.NoError(t, store.Set(cfg.Database.Account(), "pw"))
	require.NoError(t, cfg.ResolvePassword(store))
	assert.Equal(t, "pw", cfg.Database.Password)
	assert.Equal(t, "wordpress@localhost:3306/wordpress", cfg.Database.Account())

	plain := Default()
	require.NoError(t, plain.ResolvePassword(store))
	assert.Empty(t, plain.Database.Password)
}
