package archive

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T, handler http.HandlerFunc) *Index {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return NewIndex(client, "perfume-descriptions")
}

func TestIndex_Put(t *testing.T) {
	var method, path string
	var doc map[string]interface{}
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&doc)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	r := createTestRecord()
	require.NoError(t, idx.Put(context.Background(), r))

	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/perfume-descriptions/_doc/"+r.ID, path)
	assert.Equal(t, "Xerjoff", doc["brand"])
	assert.Equal(t, "טקסט", doc["finalCopy"])
}

func TestIndex_PutError(t *testing.T) {
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"mapper_parsing_exception"}`))
	})

	err := idx.Put(context.Background(), createTestRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestIndex_Search(t *testing.T) {
	var body string
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/perfume-descriptions/_search"), r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("size"))
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":1},"hits":[{"_id":"id-1","_source":{"id":"id-1","brand":"Xerjoff","model":"Naxos","finalText":"f"}}]}}`))
	})

	records, err := idx.Search(context.Background(), "טבק", 5)
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "Naxos", records[0].Model)
	assert.Contains(t, body, `"multi_match"`)
	assert.Contains(t, body, "טבק")
}

func TestIndex_SearchMissingIndex(t *testing.T) {
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"index_not_found_exception"},"status":404}`))
	})

	records, err := idx.Search(context.Background(), "naxos", 5)
	require.NoError(t, err)
	assert.Empty(t, records)
}
