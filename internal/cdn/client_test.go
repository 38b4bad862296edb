package cdn

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/robby/roadmap/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const metaBody = `{
	"version": "2024.06.01",
	"generated_at": "2024-06-01T08:00:00Z",
	"items_count": 3,
	"content_hash": "abc123"
}`

const roadmapBody = `{
	"version": "2024.06.01",
	"generated_at": "2024-06-01T08:00:00Z",
	"content_hash": "abc123",
	"source": {"owner": "robby", "repo": "app", "project_number": 2},
	"items": [
		{"id": 1, "title": "Plugin API", "status": "idea", "votes": 40, "comments": 3, "created_at": "2024-01-05"},
		{"id": 2, "title": "Dark mode", "status": "shipped", "votes": 95, "comments": 12, "created_at": "2023-10-20", "shipped_at": "2024-03-14"},
		{"id": 3, "title": "Vim bindings", "status": "planned", "votes": 61, "comments": 7, "created_at": "2024-02-11"}
	]
}`

func newTestServer(t *testing.T, metaJSON, roadmapJSON string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(MetaPath, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(metaJSON))
	})
	mux.HandleFunc(RoadmapPath, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(roadmapJSON))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchMeta(t *testing.T) {
	srv := newTestServer(t, metaBody, roadmapBody)
	client := New(srv.URL, time.Second, nil)

	meta, err := client.FetchMeta(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2024.06.01", meta.Version)
	assert.Equal(t, 3, meta.ItemsCount)
	assert.Equal(t, "abc123", meta.ContentHash)
	assert.Equal(t, "abc123", meta.Fingerprint())
}

func TestFetchMeta_FingerprintFallsBackToVersion(t *testing.T) {
	noHash := `{"version": "v9", "generated_at": "2024-06-01T08:00:00Z", "items_count": 0}`
	srv := newTestServer(t, noHash, roadmapBody)
	client := New(srv.URL, time.Second, nil)

	meta, err := client.FetchMeta(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v9", meta.Fingerprint())
}

func TestFetchMeta_MalformedJSON(t *testing.T) {
	srv := newTestServer(t, `{"version": `, roadmapBody)
	client := New(srv.URL, time.Second, nil)

	_, err := client.FetchMeta(context.Background())
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
}

func TestFetchSnapshot(t *testing.T) {
	srv := newTestServer(t, metaBody, roadmapBody)
	client := New(srv.URL, time.Second, nil)

	snap, fingerprint, err := client.FetchSnapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "abc123", fingerprint, "published content_hash is the fingerprint")
	assert.Equal(t, "robby", snap.Source.Owner)
	assert.Equal(t, 2, snap.Source.ProjectNumber)
	require.Len(t, snap.Items, 3)
	assert.Equal(t, domain.StatusShipped, snap.Items[1].Status)
	require.NotNil(t, snap.Items[1].ShippedAt)
}

func TestFetchSnapshot_FingerprintFromBodyWhenHashAbsent(t *testing.T) {
	noHash := `{
		"version": "v1",
		"generated_at": "2024-06-01T08:00:00Z",
		"source": {"owner": "o", "repo": "r", "project_number": 1},
		"items": []
	}`
	srv := newTestServer(t, metaBody, noHash)
	client := New(srv.URL, time.Second, nil)

	_, first, err := client.FetchSnapshot(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// Same bytes, same fingerprint.
	_, second, err := client.FetchSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFetchSnapshot_EmptyItemsIsValid(t *testing.T) {
	empty := `{
		"version": "v1",
		"generated_at": "2024-06-01T08:00:00Z",
		"source": {"owner": "o", "repo": "r", "project_number": 1},
		"items": []
	}`
	srv := newTestServer(t, metaBody, empty)
	client := New(srv.URL, time.Second, nil)

	snap, _, err := client.FetchSnapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
}

func TestFetchSnapshot_ShippedWithoutDateRejected(t *testing.T) {
	// Scenario: shipped item without shipped_at fails the whole payload.
	invalid := `{
		"version": "v1",
		"generated_at": "2024-06-01T08:00:00Z",
		"source": {"owner": "o", "repo": "r", "project_number": 1},
		"items": [
			{"id": 1, "title": "Fine", "status": "idea", "votes": 1, "comments": 0, "created_at": "2024-01-01"},
			{"id": 2, "title": "Broken", "status": "shipped", "votes": 2, "comments": 0, "created_at": "2024-01-01"}
		]
	}`
	srv := newTestServer(t, metaBody, invalid)
	client := New(srv.URL, time.Second, nil)

	snap, _, err := client.FetchSnapshot(context.Background())
	assert.Nil(t, snap)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, schemaErr.Error(), "index 1")
}

func TestFetchSnapshot_UnknownStatusRejected(t *testing.T) {
	invalid := `{
		"version": "v1",
		"generated_at": "2024-06-01T08:00:00Z",
		"source": {"owner": "o", "repo": "r", "project_number": 1},
		"items": [
			{"id": 1, "title": "Weird", "status": "on-hold", "votes": 1, "comments": 0, "created_at": "2024-01-01"}
		]
	}`
	srv := newTestServer(t, metaBody, invalid)
	client := New(srv.URL, time.Second, nil)

	_, _, err := client.FetchSnapshot(context.Background())
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestFetchSnapshot_MissingEnvelopeRejected(t *testing.T) {
	invalid := `{"generated_at": "2024-06-01T08:00:00Z", "items": []}`
	srv := newTestServer(t, metaBody, invalid)
	client := New(srv.URL, time.Second, nil)

	_, _, err := client.FetchSnapshot(context.Background())
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, nil)
	_, err := client.FetchMeta(context.Background())

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusBadGateway, reqErr.Status)
}

func TestUnreachableEndpoint(t *testing.T) {
	client := New("http://127.0.0.1:1", 100*time.Millisecond, nil)
	_, err := client.FetchMeta(context.Background())

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
}

func TestContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	srv := newTestServer(t, metaBody, roadmapBody)
	client := New(srv.URL, time.Second, nil)

	_, err := client.FetchMeta(ctx)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.True(t, errors.Is(err, context.Canceled))
}
