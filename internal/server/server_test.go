package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-indexmeta/internal/dialect"
	"github.com/redbco/redb-indexmeta/internal/engine"
	"github.com/redbco/redb-indexmeta/internal/indexdef"
	"github.com/redbco/redb-indexmeta/internal/store"
	"github.com/redbco/redb-indexmeta/internal/store/storetest"
	"github.com/redbco/redb-indexmeta/pkg/health"
)

func newTestServer(t *testing.T, checker *health.Checker) (*Server, *engine.Engine) {
	t.Helper()
	db := storetest.NewWordPress(t)
	storetest.AddPost(t, db, 1, "film", "Alien")
	storetest.AddMeta(t, db, 1, "film_id", "42")

	set, rejections := indexdef.Validate(indexdef.RawSet{"film": indexdef.Simple("film_id")})
	require.Empty(t, rejections)

	reg := prometheus.NewRegistry()
	metrics := engine.NewMetrics()
	require.NoError(t, metrics.Register(reg))

	e, err := engine.New(engine.Config{
		Definitions: set,
		Dialect:     dialect.NewSQLite(),
		Layout:      store.DefaultLayout(),
		DB:          db,
		Metrics:     metrics,
	})
	require.NoError(t, err)

	return New(e, Config{Health: checker, Gatherer: reg}), e
}

func do(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestReindexEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/indexes/film/reindex")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ReindexResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "film", resp.Index)
	assert.Equal(t, "done", resp.Status)

	metrics := do(t, s, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), `indexmeta_engine_reindex_results_total{index="film",result="success"} 1`)
}

func TestReindexUnknownIndexIsNotFound(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/indexes/nope/reindex")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unknown index", resp.Error)

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/indexes/nope/plan").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, s, http.MethodGet, "/indexes/film/reindex").Code)
}

func TestListAndPlan(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/indexes")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Indexes []engine.IndexInfo `json:"indexes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Indexes, 1)
	assert.Equal(t, "film", list.Indexes[0].Name)
	assert.Equal(t, "wp_wpu_index_meta__film", list.Indexes[0].Table)

	rec = do(t, s, http.MethodGet, "/indexes/film/plan")
	require.Equal(t, http.StatusOK, rec.Code)
	var plan struct {
		Statements []store.Statement `json:"statements"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	require.Len(t, plan.Statements, 3)
	assert.Equal(t, store.StepPopulate, plan.Statements[2].Step)
}

func TestReindexAllEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/indexes/reindex").Code)
}

func TestHealth(t *testing.T) {
	checker := health.NewChecker()
	s, _ := newTestServer(t, checker)

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/health").Code)

	checker.Register("database", func(context.Context) error { return errors.New("connection refused") })
	rec := do(t, s, http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}
