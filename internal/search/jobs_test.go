package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobseek-dev/job-board/backend/internal/domain"
)

type recorded struct {
	method string
	path   string
	body   string
}

func newTestIndex(t *testing.T, respond func(w http.ResponseWriter, r *http.Request)) (*JobIndex, *[]recorded) {
	t.Helper()

	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		calls = append(calls, recorded{method: r.Method, path: r.URL.Path, body: string(b)})
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		respond(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	return NewJobIndex(es, "jobs", time.Second), &calls
}

func TestIndexJob(t *testing.T) {
	idx, calls := newTestIndex(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	job := &domain.Job{
		ID:           7,
		Title:        "Go Developer",
		Company:      "Acme",
		Status:       domain.JobStatusActive,
		Requirements: domain.Requirements{Skills: []string{"go", "postgres"}},
	}
	require.NoError(t, idx.IndexJob(context.Background(), job))

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, http.MethodPut, call.method)
	assert.Equal(t, "/jobs/_doc/7", call.path)

	var doc jobDocument
	require.NoError(t, json.Unmarshal([]byte(call.body), &doc))
	assert.Equal(t, "Go Developer", doc.Title)
	assert.Equal(t, []string{"go", "postgres"}, doc.Skills)
}

func TestDeleteMissingJobIsNotAnError(t *testing.T) {
	idx, _ := newTestIndex(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result":"not_found"}`))
	})

	assert.NoError(t, idx.DeleteJob(context.Background(), 42))
}

func TestSearchJobIDs(t *testing.T) {
	idx, calls := newTestIndex(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"hits":[{"_id":"3"},{"_id":"1"},{"_id":"not-a-number"}]}}`))
	})

	ids, err := idx.SearchJobIDs(context.Background(), "golang backend", 50)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1}, ids)

	require.Len(t, *calls, 1)
	assert.True(t, strings.HasSuffix((*calls)[0].path, "/jobs/_search"))
	assert.Contains(t, (*calls)[0].body, `"multi_match"`)
	assert.Contains(t, (*calls)[0].body, `"golang backend"`)
}

func TestSearchJobIDsError(t *testing.T) {
	idx, _ := newTestIndex(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	})

	_, err := idx.SearchJobIDs(context.Background(), "x", 10)
	assert.Error(t, err)
}
