package issuances_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/veridid/internal/issuances"
	"github.com/JaimeStill/veridid/pkg/openapi"
	"github.com/JaimeStill/veridid/pkg/pagination"
	"github.com/JaimeStill/veridid/pkg/routes"
)

type fakeSystem struct {
	items      map[uuid.UUID]issuances.Issuance
	lastPage   pagination.PageRequest
	lastFilter issuances.Filters
}

func (f *fakeSystem) Handler() *issuances.Handler {
	return issuances.NewHandler(f, slog.New(slog.NewTextHandler(io.Discard, nil)), pageConfig())
}

func (f *fakeSystem) List(_ context.Context, page pagination.PageRequest, filters issuances.Filters) (*pagination.PageResult[issuances.Issuance], error) {
	f.lastPage = page
	f.lastFilter = filters

	var data []issuances.Issuance
	for _, i := range f.items {
		data = append(data, i)
	}
	result := pagination.NewPageResult(data, len(data), page.Page, page.PageSize)
	return &result, nil
}

func (f *fakeSystem) Find(_ context.Context, id uuid.UUID) (*issuances.Issuance, error) {
	i, ok := f.items[id]
	if !ok {
		return nil, issuances.ErrNotFound
	}
	return &i, nil
}

func (f *fakeSystem) Create(_ context.Context, cmd issuances.CreateCommand) (*issuances.Issuance, error) {
	i := issuances.Issuance{
		ID:            uuid.New(),
		SessionID:     cmd.SessionID,
		WalletAddress: cmd.WalletAddress,
		MetadataURI:   cmd.MetadataURI,
		PublishedAt:   time.Now(),
	}
	f.items[i.ID] = i
	return &i, nil
}

func pageConfig() pagination.Config {
	cfg := pagination.Config{}
	_ = cfg.Finalize(nil)
	return cfg
}

func newMux(sys *fakeSystem) *http.ServeMux {
	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler().Routes())
	return mux
}

func TestListPassesSearchAndFilters(t *testing.T) {
	sys := &fakeSystem{items: map[uuid.UUID]issuances.Issuance{}}
	_, err := sys.Create(context.Background(), issuances.CreateCommand{WalletAddress: "0xabc"})
	require.NoError(t, err)

	q := url.Values{"search": {"0xab"}, "tier": {"Advanced"}, "demo_mode": {"false"}, "page_size": {"5"}}
	req := httptest.NewRequest(http.MethodGet, "/issuances?"+q.Encode(), nil)
	rec := httptest.NewRecorder()
	newMux(sys).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body pagination.PageResult[issuances.Issuance]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Total)

	require.NotNil(t, sys.lastPage.Search)
	assert.Equal(t, "0xab", *sys.lastPage.Search)
	assert.Equal(t, 5, sys.lastPage.PageSize)
	require.NotNil(t, sys.lastFilter.Tier)
	assert.Equal(t, "Advanced", *sys.lastFilter.Tier)
	require.NotNil(t, sys.lastFilter.DemoMode)
	assert.False(t, *sys.lastFilter.DemoMode)
}

func TestFind(t *testing.T) {
	sys := &fakeSystem{items: map[uuid.UUID]issuances.Issuance{}}
	created, err := sys.Create(context.Background(), issuances.CreateCommand{MetadataURI: "ipfs://m/metadata.json"})
	require.NoError(t, err)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"found", "/issuances/" + created.ID.String(), http.StatusOK},
		{"missing", "/issuances/" + uuid.NewString(), http.StatusNotFound},
		{"malformed id", "/issuances/not-a-uuid", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newMux(sys).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestSearch(t *testing.T) {
	sys := &fakeSystem{items: map[uuid.UUID]issuances.Issuance{}}

	body := `{"page":2,"page_size":500,"wallet_address":"0xabc"}`
	rec := httptest.NewRecorder()
	newMux(sys).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/issuances/search", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, sys.lastPage.Page)
	assert.Equal(t, 100, sys.lastPage.PageSize, "page size clamps to the configured maximum")
	require.NotNil(t, sys.lastFilter.WalletAddress)
	assert.Equal(t, "0xabc", *sys.lastFilter.WalletAddress)
}

func TestRoutesAreDocumented(t *testing.T) {
	sys := &fakeSystem{items: map[uuid.UUID]issuances.Issuance{}}
	group := sys.Handler().Routes()

	spec := openapi.NewSpec("Test", "1.0.0")
	assert.Equal(t, len(group.Routes), routes.Describe(spec, group))

	list := spec.Paths["/issuances"].Get
	require.NotNil(t, list)
	assert.Equal(t, []string{"Issuances"}, list.Tags)
	assert.Equal(t, "#/components/schemas/IssuancePage", list.Responses[http.StatusOK].Content["application/json"].Schema.Ref)

	for _, name := range []string{"Issuance", "IssuancePage", "IssuanceSearchRequest"} {
		assert.Contains(t, spec.Components.Schemas, name)
	}
}
