package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepdeck/keep/internal/archive"
	"github.com/keepdeck/keep/internal/catalog"
	"github.com/keepdeck/keep/internal/domain"
	"github.com/keepdeck/keep/internal/extract"
	"github.com/keepdeck/keep/internal/httpserver/deps"
	"github.com/keepdeck/keep/internal/httpserver/routes"
	"github.com/keepdeck/keep/internal/intake"
	"github.com/keepdeck/keep/internal/logger"
)

// memoryBackend keeps the catalog in memory for the API tests.
type memoryBackend struct {
	resources map[string]*domain.Resource
	order     []string
	nextID    int
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{resources: make(map[string]*domain.Resource)}
}

func (b *memoryBackend) GetAllResources(_ context.Context) ([]*domain.Resource, error) {
	out := make([]*domain.Resource, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.resources[id])
	}
	return out, nil
}

func (b *memoryBackend) AddResource(_ context.Context, r *domain.Resource) (*domain.Resource, error) {
	b.nextID++
	r.ID = fmt.Sprintf("res-%d", b.nextID)
	r.URI = domain.URIFromID(r.ID)
	b.resources[r.ID] = r
	b.order = append(b.order, r.ID)
	return r, nil
}

func (b *memoryBackend) UpdateResource(_ context.Context, r *domain.Resource) (*domain.Resource, error) {
	b.resources[r.ID] = r
	return r, nil
}

func (b *memoryBackend) RemoveResource(_ context.Context, id string) error {
	delete(b.resources, id)
	for i, existing := range b.order {
		if existing == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}

func (b *memoryBackend) SaveCatalog(_ context.Context, _ []*domain.Resource) error { return nil }

type stubArchiveClient struct{}

func (stubArchiveClient) EstimateCost(_ context.Context, byteSize int64) (archive.CostEstimate, error) {
	return archive.CostEstimate{Fee: float64(byteSize) * 0.000001}, nil
}

func (stubArchiveClient) UploadFile(_ context.Context, _ string, tags []string) (archive.UploadResult, error) {
	return archive.UploadResult{Success: true, TransactionID: "tx-integration", Tags: tags}, nil
}

func (stubArchiveClient) Balance(_ context.Context) (float64, error) { return 1.5, nil }

// newAPIServer wires the real router, catalog, intake manager and
// metadata extractor, backed by in-memory storage.
func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()

	log := logger.NewNop()
	cat := catalog.New(newMemoryBackend(), log)
	require.NoError(t, cat.Load(context.Background()))

	uploader := archive.NewUploader(stubArchiveClient{}, log)
	extractor := extract.NewHTTPExtractor(2*time.Second, log)
	assembler := intake.NewAssembler(cat, "https://arweave.net", log)
	manager := intake.NewManager(uploader, extractor, assembler, log)

	d := deps.Deps{
		Logger:        log,
		StartTime:     time.Now(),
		TimeNow:       time.Now,
		Catalog:       cat,
		Manager:       manager,
		ArchiveClient: stubArchiveClient{},
		GatewayURL:    "https://arweave.net",
	}

	r := chi.NewRouter()
	routes.RegisterAll(r, d)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func TestURLIntakeEndToEnd(t *testing.T) {
	pages := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Go Concurrency Patterns</title>` +
			`<meta name="description" content="Pipelines and cancellation"></head><body></body></html>`))
	}))
	defer pages.Close()

	api := newAPIServer(t)

	// Open a URL session.
	var session struct {
		ID    string `json:"id"`
		Phase string `json:"phase"`
	}
	resp := postJSON(t, api.URL+"/sessions", map[string]string{"mode": "url"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &session)
	assert.Equal(t, "input", session.Phase)

	// Provide input and bulk tags, then advance through processing.
	resp = postJSON(t, api.URL+"/sessions/"+session.ID+"/input", map[string]string{"text": pages.URL})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = postJSON(t, api.URL+"/sessions/"+session.ID+"/metadata", map[string]interface{}{"tags": []string{"golang"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	var afterAdvance struct {
		Phase      string `json:"phase"`
		Candidates []struct {
			Title string `json:"title"`
		} `json:"candidates"`
	}
	resp = postJSON(t, api.URL+"/sessions/"+session.ID+"/advance", map[string]string{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &afterAdvance)
	assert.Equal(t, "review", afterAdvance.Phase)
	require.Len(t, afterAdvance.Candidates, 1)
	assert.Equal(t, "Go Concurrency Patterns", afterAdvance.Candidates[0].Title)

	// Commit and verify the catalog.
	var report struct {
		Succeeded int `json:"succeeded"`
		Failed    int `json:"failed"`
	}
	resp = postJSON(t, api.URL+"/sessions/"+session.ID+"/commit", map[string]string{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &report)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 0, report.Failed)

	var list struct {
		Total     int `json:"total"`
		Resources []struct {
			Title string   `json:"title"`
			Tags  []string `json:"tags"`
			Kind  string   `json:"kind"`
		} `json:"resources"`
	}
	resp, err := http.Get(api.URL + "/resources")
	require.NoError(t, err)
	decode(t, resp, &list)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "Go Concurrency Patterns", list.Resources[0].Title)
	assert.Equal(t, "external", list.Resources[0].Kind)
	assert.Contains(t, list.Resources[0].Tags, "web")
	assert.Contains(t, list.Resources[0].Tags, "golang")

	// The committed session is gone.
	resp, err = http.Get(api.URL + "/sessions/" + session.ID)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTagLifecycleOverAPI(t *testing.T) {
	api := newAPIServer(t)

	// Seed two resources through a URL session against a stub page host.
	pages := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Page ` + r.URL.Path + `</title></head><body></body></html>`))
	}))
	defer pages.Close()

	var session struct {
		ID string `json:"id"`
	}
	resp := postJSON(t, api.URL+"/sessions", map[string]string{"mode": "url"})
	decode(t, resp, &session)

	resp = postJSON(t, api.URL+"/sessions/"+session.ID+"/input",
		map[string]string{"text": pages.URL + "/a\n" + pages.URL + "/b"})
	_ = resp.Body.Close()
	resp = postJSON(t, api.URL+"/sessions/"+session.ID+"/advance", map[string]string{})
	_ = resp.Body.Close()
	resp = postJSON(t, api.URL+"/sessions/"+session.ID+"/commit", map[string]string{})
	_ = resp.Body.Close()

	// Tag the first resource.
	resp = postJSON(t, api.URL+"/resources/res-1/tags", map[string]string{"tag": "golang"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tagged struct {
		Added bool `json:"added"`
	}
	decode(t, resp, &tagged)
	assert.True(t, tagged.Added)

	// Adding it again is a no-op, not an error.
	resp = postJSON(t, api.URL+"/resources/res-1/tags", map[string]string{"tag": "golang"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &tagged)
	assert.False(t, tagged.Added)

	// Suggestions surface the new tag.
	var suggestions struct {
		Suggestions []string `json:"suggestions"`
	}
	resp, err := http.Get(api.URL + "/tags/suggest?prefix=go")
	require.NoError(t, err)
	decode(t, resp, &suggestions)
	assert.Contains(t, suggestions.Suggestions, "golang")

	// Filter by tag narrows the visible set.
	var list struct {
		Total   int `json:"total"`
		Visible int `json:"visible"`
	}
	resp, err = http.Get(api.URL + "/resources?tags=golang")
	require.NoError(t, err)
	decode(t, resp, &list)
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, 1, list.Visible)

	// Removing a tag that is not there reports the stale view.
	req, err := http.NewRequest(http.MethodDelete, api.URL+"/resources/res-2/tags/golang", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
