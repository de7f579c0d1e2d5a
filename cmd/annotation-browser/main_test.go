// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/annotation-browser/internal/catalog"
	"github.com/pdiddy/annotation-browser/internal/search"
	"github.com/pdiddy/annotation-browser/pkg/types"
)

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v, types.DefaultConfig())
	v.SetEnvPrefix("ANNOTATION_BROWSER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func TestDecodeConfig_Defaults(t *testing.T) {
	c, err := decodeConfig(newViper())
	require.NoError(t, err)
	assert.Equal(t, types.DefaultConfig(), c)
}

func TestDecodeConfig_FileAndEnv(t *testing.T) {
	t.Setenv("ANNOTATION_BROWSER_STORAGE_BACKEND", "memory")
	t.Setenv("ANNOTATION_BROWSER_SEARCH_DEBOUNCE", "150ms")

	v := newViper()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
catalog:
  base_url: http://localhost:9000/api
  timeout: 2s
search:
  assembly_limit: 0
`)))

	c, err := decodeConfig(v)
	require.NoError(t, err)
	assert.Equal(t, types.StorageMemory, c.Storage.Backend)
	assert.Equal(t, 150*time.Millisecond, c.Search.Debounce)
	assert.Equal(t, "http://localhost:9000/api", c.Catalog.BaseURL)
	assert.Equal(t, 2*time.Second, c.Catalog.Timeout)
	assert.Equal(t, 0, c.Search.AssemblyLimit)
	assert.Equal(t, 5, c.Search.OrganismLimit)
	assert.Equal(t, "annotation-browser/0.1", c.Catalog.UserAgent)
}

type fakeCatalog struct{}

func (fakeCatalog) Organisms(context.Context, string, int) ([]types.Organism, error) {
	return nil, nil
}

func (fakeCatalog) Taxons(context.Context, string, int) ([]types.Taxon, error) {
	return nil, nil
}

func (fakeCatalog) Assemblies(context.Context, string, int) ([]types.Assembly, error) {
	return nil, nil
}

func testRegistry(t *testing.T) *search.Registry {
	t.Helper()
	reg, err := search.NewRegistry(catalog.Sources(fakeCatalog{}, types.SearchConfig{
		OrganismLimit: 5, TaxonLimit: 5, AssemblyLimit: 0,
	})...)
	require.NoError(t, err)
	return reg
}

func testSnapshot() search.Snapshot {
	return search.Snapshot{
		Query:      "Homo",
		Generation: 1,
		Models: map[string]search.ModelState{
			catalog.KeyOrganism: {Items: []search.Item{
				{ModelKey: catalog.KeyOrganism, ID: "9606", Title: "Homo sapiens", Subtitle: "human", Meta: "12 annotations"},
			}},
			catalog.KeyTaxon:    {Err: errors.New("timeout")},
			catalog.KeyAssembly: {},
		},
	}
}

func TestPrintSnapshot_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printSnapshot(&buf, testRegistry(t), testSnapshot(), false))

	out := buf.String()
	assert.Contains(t, out, "Organisms\n   1. Homo sapiens  (human)  12 annotations\n")
	assert.Contains(t, out, "Taxa: error: timeout")
	assert.NotContains(t, out, "Assemblies")
}

func TestPrintSnapshot_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printSnapshot(&buf, testRegistry(t), testSnapshot(), true))

	var got struct {
		Query  string      `json:"query"`
		Models []jsonModel `json:"models"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got.Models, 3)
	assert.Equal(t, "Homo sapiens", got.Models[0].Items[0].Title)
	assert.Equal(t, "timeout", got.Models[1].Error)
	assert.Empty(t, got.Models[2].Items)
}

func TestFlatten_RegistryOrder(t *testing.T) {
	snap := testSnapshot()
	snap.Models[catalog.KeyAssembly] = search.ModelState{Items: []search.Item{{ID: "GCF_1"}}}

	items := flatten(testRegistry(t), snap)
	require.Len(t, items, 2)
	assert.Equal(t, "9606", items[0].ID)
	assert.Equal(t, "GCF_1", items[1].ID)
}

func TestFiltersCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"filters",
		"--secrets-dir", t.TempDir(),
		"--taxid", "9606,9606",
		"--biotype", "protein_coding",
		"--page", "2",
		"--page-size", "10",
	})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "biotypes=protein_coding&limit=10&offset=10&taxids=9606\n", buf.String())
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version", "--secrets-dir", t.TempDir()})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "annotation-browser dev\n", buf.String())
}
