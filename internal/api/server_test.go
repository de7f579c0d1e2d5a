// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/annotation-browser/internal/catalog"
	"github.com/pdiddy/annotation-browser/internal/filter"
	"github.com/pdiddy/annotation-browser/internal/history"
	"github.com/pdiddy/annotation-browser/internal/insdc"
	"github.com/pdiddy/annotation-browser/internal/kv"
	"github.com/pdiddy/annotation-browser/internal/layout"
	"github.com/pdiddy/annotation-browser/internal/metrics"
	"github.com/pdiddy/annotation-browser/internal/search"
	"github.com/pdiddy/annotation-browser/internal/selection"
	"github.com/pdiddy/annotation-browser/pkg/types"
)

var human = types.Organism{TaxID: "9606", OrganismName: "Homo sapiens", CommonName: "human", AnnotationsCount: 12}

type fakeCatalog struct {
	organisms []types.Organism
	taxonsErr error
}

func (c fakeCatalog) Organisms(context.Context, string, int) ([]types.Organism, error) {
	return c.organisms, nil
}

func (c fakeCatalog) Taxons(context.Context, string, int) ([]types.Taxon, error) {
	return nil, c.taxonsErr
}

func (c fakeCatalog) Assemblies(context.Context, string, int) ([]types.Assembly, error) {
	return nil, nil
}

type fixture struct {
	srv     *httptest.Server
	filters *filter.Store
	hist    *history.Search
	insdc   *history.INSDC
	nav     *selection.RecordingNavigator
}

func newFixture(t *testing.T, cat fakeCatalog) fixture {
	t.Helper()
	reg := prometheus.NewRegistry()
	registry, err := search.NewRegistry(catalog.Sources(cat, types.SearchConfig{
		OrganismLimit: 5, TaxonLimit: 5, AssemblyLimit: 0,
	})...)
	require.NoError(t, err)

	mem := kv.NewMemory()
	f := fixture{
		filters: filter.New(),
		hist:    history.NewSearch(mem, nil),
		insdc:   history.NewINSDC(mem, nil),
		nav:     &selection.RecordingNavigator{},
	}
	s := NewServer(Deps{
		Registry:        registry,
		DispatchOptions: []search.Option{search.WithMetrics(metrics.NewDispatch(reg))},
		Router:          selection.NewRouter(f.filters, f.hist, f.nav),
		Filters:         f.filters,
		History:         f.hist,
		INSDCHistory:    f.insdc,
		Resolver:        insdc.NewResolver(cat),
		Layout:          layout.New(mem, nil),
		Gatherer:        reg,
		HTTPMetrics:     metrics.NewHTTP(reg),
	})
	f.srv = httptest.NewServer(s.Handler())
	t.Cleanup(f.srv.Close)
	return f
}

func (f fixture) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, fakeCatalog{})
	resp := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestSearch_PerModelResults(t *testing.T) {
	f := newFixture(t, fakeCatalog{
		organisms: []types.Organism{human},
		taxonsErr: errors.New("taxonomy backend down"),
	})

	resp := f.do(t, http.MethodGet, "/search?q=Homo", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[searchResponse](t, resp)

	assert.Equal(t, "Homo", got.Query)
	require.Len(t, got.Models, 3)
	assert.Equal(t, catalog.KeyOrganism, got.Models[0].Key)
	require.Len(t, got.Models[0].Items, 1)
	assert.Equal(t, "Homo sapiens", got.Models[0].Items[0].Title)
	assert.Equal(t, "taxonomy backend down", got.Models[1].Error)
	assert.Empty(t, got.Models[1].Items)
	assert.Empty(t, got.Models[2].Items, "disabled model returns nothing")
}

func TestSearch_EmptyQuery(t *testing.T) {
	f := newFixture(t, fakeCatalog{organisms: []types.Organism{human}})
	got := decode[searchResponse](t, f.do(t, http.MethodGet, "/search?q=%20%20", ""))
	for _, m := range got.Models {
		assert.Empty(t, m.Items)
		assert.False(t, m.Loading)
	}
}

func TestSelect_RoutesAndRecords(t *testing.T) {
	f := newFixture(t, fakeCatalog{})
	body := `{"query":"Homo","model_key":"organism","record":{"taxid":"9606","organism_name":"Homo sapiens"}}`

	resp := f.do(t, http.MethodPost, "/select", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/organisms?id=9606", decode[selectResponse](t, resp).Path)
	assert.Equal(t, []string{"/organisms?id=9606"}, f.nav.Paths())
	assert.True(t, f.filters.ContainsTaxon("9606"))

	hist := decode[[]types.HistoryEntry](t, f.do(t, http.MethodGet, "/history", ""))
	require.Len(t, hist, 1)
	assert.Equal(t, types.ResultOrganism, hist[0].ResultType)

	resp = f.do(t, http.MethodDelete, "/history", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Zero(t, f.hist.Len())
}

func TestSelect_BadRequests(t *testing.T) {
	f := newFixture(t, fakeCatalog{})
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"missing model", `{"query":"x"}`},
		{"bad record", `{"model_key":"assembly","record":"nope"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.do(t, http.MethodPost, "/select", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestINSDCLookup(t *testing.T) {
	f := newFixture(t, fakeCatalog{organisms: []types.Organism{human}})

	resp := f.do(t, http.MethodPost, "/insdc/lookup", `{"query":"9606"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	e := decode[types.INSDCHistoryEntry](t, resp)
	assert.Equal(t, types.FieldTaxID, e.FieldType)
	assert.Equal(t, "/organisms?id=9606", e.RouterPath)

	resp = f.do(t, http.MethodPost, "/insdc/lookup", `{"query":"Pan troglodytes"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = f.do(t, http.MethodPost, "/insdc/lookup", `{"query":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	got := decode[[]types.INSDCHistoryEntry](t, f.do(t, http.MethodGet, "/history/insdc", ""))
	assert.Len(t, got, 1)
	f.do(t, http.MethodDelete, "/history/insdc", "")
	assert.Zero(t, f.insdc.Len())
}

func TestFilters_PutGetClear(t *testing.T) {
	f := newFixture(t, fakeCatalog{})

	resp := f.do(t, http.MethodPut, "/filters?page_size=10",
		`{"biotypes":["protein_coding"],"source":"RefSeq","page":3}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[filtersResponse](t, resp)
	assert.True(t, got.Active)
	assert.Equal(t, 3, got.State.Page)
	assert.Contains(t, got.Query, "offset=20")
	assert.Contains(t, got.Query, "db_sources=RefSeq")

	got = decode[filtersResponse](t, f.do(t, http.MethodGet, "/filters", ""))
	assert.Equal(t, []string{"protein_coding"}, got.State.Biotypes)

	got = decode[filtersResponse](t, f.do(t, http.MethodDelete, "/filters", ""))
	assert.False(t, got.Active)
	assert.False(t, f.filters.HasActiveFilters())

	resp = f.do(t, http.MethodGet, "/filters?page_size=zero", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFilters_PutDropsRepeatedSelections(t *testing.T) {
	f := newFixture(t, fakeCatalog{})

	resp := f.do(t, http.MethodPut, "/filters", `{
		"selected_taxons":[{"taxid":"9606","scientific_name":"Homo sapiens"},{"taxid":"9606"},{"taxid":"10090"}],
		"selected_assemblies":[{"assembly_accession":"GCA_1","assembly_name":"first"},{"assembly_accession":"GCA_1"}]
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[filtersResponse](t, resp)

	require.Len(t, got.State.SelectedTaxons, 2)
	assert.Equal(t, "Homo sapiens", got.State.SelectedTaxons[0].ScientificName)
	assert.Equal(t, "10090", got.State.SelectedTaxons[1].TaxID)
	require.Len(t, got.State.SelectedAssemblies, 1)
	assert.Equal(t, "first", got.State.SelectedAssemblies[0].AssemblyName)

	assert.Len(t, f.filters.Snapshot().SelectedTaxons, 2)
	assert.Len(t, f.filters.Snapshot().SelectedAssemblies, 1)
	assert.NotContains(t, got.Query, "9606%2C9606")
	assert.NotContains(t, got.Query, "GCA_1%2CGCA_1")
}

func TestLayout_PutClamps(t *testing.T) {
	f := newFixture(t, fakeCatalog{})

	got := decode[types.Layout](t, f.do(t, http.MethodGet, "/layout", ""))
	assert.Equal(t, layout.Default(), got)

	got = decode[types.Layout](t, f.do(t, http.MethodPut, "/layout", `{"sidebar_width":5000,"sidebar_open":false}`))
	assert.Equal(t, types.Layout{SidebarWidth: layout.MaxSidebarWidth, SidebarOpen: false}, got)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, fakeCatalog{organisms: []types.Organism{human}})
	f.do(t, http.MethodGet, "/search?q=Homo", "")

	resp := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "annotation_browser_search_dispatches_total 1")
	assert.Contains(t, string(body), "annotation_browser_http_requests_total")
}

func TestSearchStream_SubmitSkipsDebounce(t *testing.T) {
	f := newFixture(t, fakeCatalog{organisms: []types.Organism{human}})

	wsURL := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/search/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(streamRequest{Query: "Homo", Submit: true}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg searchResponse
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Query != "Homo" || anyLoading(msg) {
			continue
		}
		require.Len(t, msg.Models, 3)
		require.Len(t, msg.Models[0].Items, 1)
		assert.Equal(t, "Homo sapiens", msg.Models[0].Items[0].Title)
		return
	}
}

func anyLoading(r searchResponse) bool {
	for _, m := range r.Models {
		if m.Loading {
			return true
		}
	}
	return false
}

func TestRecoverer_ReportsRequestID(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID, requestLogger(zap.New(core)), jsonRecoverer)
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	id := rec.Header().Get("X-Request-ID")
	require.NotEmpty(t, id)
	assert.Contains(t, rec.Body.String(), id)

	panics := logs.FilterMessage("panic recovered").All()
	require.Len(t, panics, 1)
	assert.Equal(t, id, panics[0].ContextMap()["request_id"])
}
