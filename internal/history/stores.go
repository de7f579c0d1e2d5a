// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/annotation-browser/internal/kv"
	"github.com/pdiddy/annotation-browser/pkg/types"
)

// Storage keys of the two histories.
const (
	SearchStorageKey = "search-history"
	INSDCStorageKey  = "insdc-search-history"
)

// Search is the history of selections made from the federated search bar.
type Search = Store[types.HistoryEntry]

// INSDC is the history of resolved INSDC lookups.
type INSDC = Store[types.INSDCHistoryEntry]

// SearchKey identifies a search history entry by its destination.
func SearchKey(e types.HistoryEntry) string {
	return e.RouterPath
}

// INSDCKey identifies an INSDC history entry by query and matched taxon.
func INSDCKey(e types.INSDCHistoryEntry) string {
	return e.Query + "\x00" + e.MatchedTaxID
}

// NewSearch builds the search history persisted in kvs.
func NewSearch(kvs kv.Store, log *zap.Logger) *Search {
	return New(kvs, log, Config[types.HistoryEntry]{
		StorageKey: SearchStorageKey,
		Capacity:   DefaultCapacity,
		Key:        SearchKey,
		Stamp:      func(e *types.HistoryEntry, t time.Time) { e.Timestamp = t },
	})
}

// NewINSDC builds the INSDC history persisted in kvs.
func NewINSDC(kvs kv.Store, log *zap.Logger) *INSDC {
	return New(kvs, log, Config[types.INSDCHistoryEntry]{
		StorageKey: INSDCStorageKey,
		Capacity:   DefaultCapacity,
		Key:        INSDCKey,
		Stamp:      func(e *types.INSDCHistoryEntry, t time.Time) { e.Timestamp = t },
	})
}
