package es

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T, handler http.HandlerFunc) PostRepo {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewTypedClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewPostRepo(client, "buzz-posts")
}

func TestSearchFiltersByCampaign(t *testing.T) {
	var body string
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/buzz-posts/_search", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		_, _ = io.WriteString(w, `{
			"took":1,"timed_out":false,
			"_shards":{"total":1,"successful":1,"skipped":0,"failed":0},
			"hits":{"total":{"value":1,"relation":"eq"},"max_score":1.0,"hits":[
				{"_index":"buzz-posts","_id":"5","_score":1.0,"_source":{"id":5,"campaign_id":9,"platform":"reddit","title":"Best CRM?","status":"PENDING"}}
			]}
		}`)
	})

	posts, total, err := repo.Search(context.Background(), &PostSearchQuery{CampaignID: 9, Text: "crm", Status: "PENDING", Size: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, posts, 1)
	assert.Equal(t, uint64(5), posts[0].ID)
	assert.Equal(t, "reddit", posts[0].Platform)

	assert.Contains(t, body, `"campaign_id"`)
	assert.Contains(t, body, `"multi_match"`)
	assert.True(t, strings.Contains(body, `"PENDING"`))
}

func TestSearchBeyondDepth(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})
	posts, total, err := repo.Search(context.Background(), &PostSearchQuery{CampaignID: 1, From: MaxSearchDepth, Size: 10})
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Zero(t, total)
}

func TestDeleteMissingPostIsIgnored(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"_index":"buzz-posts","_id":"3","result":"not_found","_shards":{"total":1,"successful":1,"failed":0},"_version":1,"_seq_no":0,"_primary_term":1}`)
	})
	assert.NoError(t, repo.DeletePost(context.Background(), 3))
}
