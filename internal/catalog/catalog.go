// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog fetches organism, taxon and assembly records from the
// REST annotation catalog and exposes them as search models.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/annotation-browser/internal/httputil"
	"github.com/pdiddy/annotation-browser/pkg/types"
)

// Model keys of the catalog sources.
const (
	KeyOrganism = "organism"
	KeyTaxon    = "taxon"
	KeyAssembly = "assembly"
)

// Client queries the catalog API.
type Client struct {
	baseURL   string
	userAgent string
	retrier   *httputil.Retrier
}

// NewClient builds a catalog client from cfg. A nil httpClient gets one
// with cfg.Timeout.
func NewClient(cfg types.CatalogConfig, httpClient *http.Client, log *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("catalog base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parsing catalog base URL: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		retrier: &httputil.Retrier{
			Client:     httpClient,
			MaxRetries: cfg.MaxRetries,
			Log:        log,
		},
	}, nil
}

// page is the envelope every catalog list endpoint returns.
type page[T any] struct {
	Total   int `json:"total"`
	Results []T `json:"results"`
}

// list GETs <base>/<resource>?filter=<query>&limit=<limit>.
func list[T any](ctx context.Context, c *Client, resource, query string, limit int) ([]T, error) {
	params := url.Values{
		"filter": {query},
		"limit":  {strconv.Itoa(limit)},
		"offset": {"0"},
	}
	reqURL := c.baseURL + "/" + resource + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.retrier.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("catalog %s request: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog %s returned HTTP %d", resource, resp.StatusCode)
	}

	var p page[T]
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("parsing catalog %s response: %w", resource, err)
	}
	return p.Results, nil
}

// Organisms returns organisms whose names or taxid match query.
func (c *Client) Organisms(ctx context.Context, query string, limit int) ([]types.Organism, error) {
	return list[types.Organism](ctx, c, "organisms", query, limit)
}

// Taxons returns taxonomy nodes matching query.
func (c *Client) Taxons(ctx context.Context, query string, limit int) ([]types.Taxon, error) {
	return list[types.Taxon](ctx, c, "taxons", query, limit)
}

// Assemblies returns assemblies whose accession, name or organism match query.
func (c *Client) Assemblies(ctx context.Context, query string, limit int) ([]types.Assembly, error) {
	return list[types.Assembly](ctx, c, "assemblies", query, limit)
}
