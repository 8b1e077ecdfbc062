package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/veridid/internal/api"
	"github.com/JaimeStill/veridid/internal/config"
	"github.com/JaimeStill/veridid/internal/infrastructure"
	"github.com/JaimeStill/veridid/pkg/storage"
)

func newModuleServer(t *testing.T) (*httptest.Server, *infrastructure.Infrastructure) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("VERIDID_DB_NAME", "veridid")
	t.Setenv("VERIDID_DB_USER", "veridid")
	t.Setenv("VERIDID_STORAGE_BACKEND", storage.BackendMemory)

	cfg, err := config.Load()
	require.NoError(t, err)

	infra, err := infrastructure.New(cfg)
	require.NoError(t, err)

	m, err := api.NewModule(cfg, infra)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(m.Serve))
	t.Cleanup(srv.Close)
	return srv, infra
}

func TestModuleServesSessions(t *testing.T) {
	srv, _ := newModuleServer(t)

	resp, err := http.Post(srv.URL+"/api/sessions", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "wallet", body["active_step"])
}

func TestContentGateway(t *testing.T) {
	srv, infra := newModuleServer(t)

	obj, err := storage.Put(t.Context(), infra.Storage, "metadata.json", "application/json", []byte(`{"name":"DID"}`))
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/content/" + obj.Key())
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"DID"}`, buf.String())

	missing, err := http.Get(srv.URL + "/api/content/not-a-cid/metadata.json")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusBadRequest, missing.StatusCode)
}


func TestModuleServesOpenAPI(t *testing.T) {
	srv, _ := newModuleServer(t)

	resp, err := http.Get(srv.URL + "/api" + api.SpecPath)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))

	var doc struct {
		OpenAPI string `json:"openapi"`
		Info    struct {
			Title   string `json:"title"`
			Version string `json:"version"`
		} `json:"info"`
		Servers []struct {
			URL string `json:"url"`
		} `json:"servers"`
		Paths      map[string]map[string]json.RawMessage `json:"paths"`
		Components struct {
			Schemas map[string]json.RawMessage `json:"schemas"`
		} `json:"components"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))

	assert.Equal(t, "3.1.0", doc.OpenAPI)
	assert.Equal(t, "Veridid API", doc.Info.Title)
	assert.NotEmpty(t, doc.Info.Version)
	require.Len(t, doc.Servers, 1)
	assert.Equal(t, "/api", doc.Servers[0].URL)

	operations := []struct{ path, method string }{
		{"/sessions", "post"},
		{"/sessions/{id}", "get"},
		{"/sessions/{id}", "delete"},
		{"/sessions/{id}/liveness/frames", "post"},
		{"/sessions/{id}/liveness/retake", "post"},
		{"/sessions/{id}/publish", "post"},
		{"/issuances", "get"},
		{"/issuances/{id}", "get"},
		{"/issuances/search", "post"},
		{"/content/{cid}/{name}", "get"},
	}
	for _, op := range operations {
		assert.Contains(t, doc.Paths[op.path], op.method, "%s %s", op.method, op.path)
	}

	for _, name := range []string{
		"SessionStatus", "PublishRequest", "PublishResult",
		"MetadataDocument", "Issuance", "IssuancePage", "Error",
	} {
		assert.Contains(t, doc.Components.Schemas, name)
	}
}

func collectRefs(v any, refs map[string]bool) {
	switch node := v.(type) {
	case map[string]any:
		for k, child := range node {
			if ref, ok := child.(string); ok && k == "$ref" {
				refs[ref] = true
				continue
			}
			collectRefs(child, refs)
		}
	case []any:
		for _, child := range node {
			collectRefs(child, refs)
		}
	}
}

func TestOpenAPIReferencesResolve(t *testing.T) {
	srv, _ := newModuleServer(t)

	resp, err := http.Get(srv.URL + "/api" + api.SpecPath)
	require.NoError(t, err)
	defer resp.Body.Close()

	var doc map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))

	refs := make(map[string]bool)
	collectRefs(doc, refs)
	require.NotEmpty(t, refs)

	components := doc["components"].(map[string]any)
	for ref := range refs {
		parts := strings.Split(strings.TrimPrefix(ref, "#/components/"), "/")
		require.Len(t, parts, 2, ref)

		section, ok := components[parts[0]].(map[string]any)
		require.True(t, ok, ref)
		assert.Contains(t, section, parts[1], "unresolved %s", ref)
	}
}
