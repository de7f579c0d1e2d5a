// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/pdiddy/annotation-browser/internal/catalog"
	"github.com/pdiddy/annotation-browser/internal/filter"
	"github.com/pdiddy/annotation-browser/internal/insdc"
	"github.com/pdiddy/annotation-browser/internal/logger"
	"github.com/pdiddy/annotation-browser/internal/search"
	"github.com/pdiddy/annotation-browser/internal/selection"
	"github.com/pdiddy/annotation-browser/pkg/types"
)

type modelResult struct {
	Key     string        `json:"key"`
	Label   string        `json:"label"`
	Items   []search.Item `json:"items"`
	Loading bool          `json:"loading"`
	Error   string        `json:"error,omitempty"`
}

type searchResponse struct {
	Query      string        `json:"query"`
	Generation uint64        `json:"generation"`
	Models     []modelResult `json:"models"`
}

// search runs one dispatch per request so concurrent clients never
// supersede each other.
func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	if s.d.Registry == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "search is not configured")
		return
	}

	d := search.NewDispatcher(s.d.Registry, s.d.DispatchOptions...)
	defer d.Close()

	snap, err := d.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		logger.FromContext(r.Context()).Warn("search interrupted", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, "interrupted", "search did not complete")
		return
	}

	writeJSON(w, http.StatusOK, render(s.d.Registry, snap))
}

// render shapes a snapshot in registry order.
func render(reg *search.Registry, snap search.Snapshot) searchResponse {
	resp := searchResponse{Query: snap.Query, Generation: snap.Generation}
	for _, src := range reg.Sources() {
		st := snap.Model(src.Key())
		mr := modelResult{Key: src.Key(), Label: src.Label(), Items: st.Items, Loading: st.Loading}
		if mr.Items == nil {
			mr.Items = []search.Item{}
		}
		if st.Err != nil {
			mr.Error = st.Err.Error()
		}
		resp.Models = append(resp.Models, mr)
	}
	return resp
}

type selectRequest struct {
	Query    string          `json:"query"`
	ModelKey string          `json:"model_key"`
	Record   json.RawMessage `json:"record"`
}

type selectResponse struct {
	Path string `json:"path"`
}

// decodeResult builds the selection variant for a record sent back by a
// client.
func decodeResult(modelKey string, raw json.RawMessage) (selection.Result, error) {
	switch modelKey {
	case catalog.KeyOrganism:
		var o types.Organism
		if err := json.Unmarshal(raw, &o); err != nil {
			return nil, fmt.Errorf("decoding organism: %w", err)
		}
		return selection.OrganismResult{Record: o}, nil
	case catalog.KeyTaxon:
		var t types.Taxon
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("decoding taxon: %w", err)
		}
		return selection.TaxonResult{Record: t}, nil
	case catalog.KeyAssembly:
		var a types.Assembly
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("decoding assembly: %w", err)
		}
		return selection.AssemblyResult{Record: a}, nil
	default:
		return selection.UnknownResult{Key: modelKey, Data: raw}, nil
	}
}

func (s *Server) selectResult(w http.ResponseWriter, r *http.Request) {
	if s.d.Router == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "selection is not configured")
		return
	}
	var req selectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ModelKey == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "model_key is required")
		return
	}
	res, err := decodeResult(req.ModelKey, req.Record)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	path, err := s.d.Router.Select(req.Query, res)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, selectResponse{Path: path})
}

func (s *Server) listHistory(w http.ResponseWriter, _ *http.Request) {
	entries := []types.HistoryEntry{}
	if s.d.History != nil {
		entries = s.d.History.All()
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) clearHistory(w http.ResponseWriter, _ *http.Request) {
	if s.d.History != nil {
		s.d.History.Clear()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listINSDCHistory(w http.ResponseWriter, _ *http.Request) {
	entries := []types.INSDCHistoryEntry{}
	if s.d.INSDCHistory != nil {
		entries = s.d.INSDCHistory.All()
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) clearINSDCHistory(w http.ResponseWriter, _ *http.Request) {
	if s.d.INSDCHistory != nil {
		s.d.INSDCHistory.Clear()
	}
	w.WriteHeader(http.StatusNoContent)
}

type lookupRequest struct {
	Query string `json:"query"`
}

func (s *Server) insdcLookup(w http.ResponseWriter, r *http.Request) {
	if s.d.Resolver == nil || s.d.INSDCHistory == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "INSDC lookup is not configured")
		return
	}
	var req lookupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	entry, err := s.d.Resolver.Lookup(r.Context(), s.d.INSDCHistory, req.Query)
	switch {
	case errors.Is(err, insdc.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, "bad_request", "query is required")
	case errors.Is(err, insdc.ErrNoMatch):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case err != nil:
		logger.FromContext(r.Context()).Warn("INSDC lookup failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "upstream_error", "catalog lookup failed")
	default:
		writeJSON(w, http.StatusOK, entry)
	}
}

type filtersResponse struct {
	State  types.FilterState `json:"state"`
	Active bool              `json:"active"`
	Query  string            `json:"query"`
}

func filtersBody(st types.FilterState, size int) filtersResponse {
	return filtersResponse{
		State:  st,
		Active: filter.HasActive(st),
		Query:  filter.Query(st, size).Encode(),
	}
}

func (s *Server) getFilters(w http.ResponseWriter, r *http.Request) {
	size, err := pageSize(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, filtersBody(s.d.Filters.Snapshot(), size))
}

func (s *Server) putFilters(w http.ResponseWriter, r *http.Request) {
	size, err := pageSize(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	var st types.FilterState
	if !decodeBody(w, r, &st) {
		return
	}
	// The store keeps lists as given; drop repeated selections here.
	st = filter.UniqueSelections(st)
	writeJSON(w, http.StatusOK, filtersBody(s.d.Filters.Replace(st), size))
}

func (s *Server) clearFilters(w http.ResponseWriter, _ *http.Request) {
	s.d.Filters.ClearAll()
	writeJSON(w, http.StatusOK, filtersBody(s.d.Filters.Snapshot(), DefaultPageSize))
}

func (s *Server) getLayout(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.d.Layout.Get())
}

func (s *Server) putLayout(w http.ResponseWriter, r *http.Request) {
	var l types.Layout
	if !decodeBody(w, r, &l) {
		return
	}
	writeJSON(w, http.StatusOK, s.d.Layout.Set(l))
}
