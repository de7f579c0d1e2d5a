// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package selection

import (
	"net/url"
	"sync"
)

// DefaultPath is the listing route used for selections without a rule.
const DefaultPath = "/annotations/"

func AssemblyPath(accession string) string {
	return "/assemblies?id=" + url.QueryEscape(accession)
}

func TaxonPath(taxid string) string {
	return "/taxons?id=" + url.QueryEscape(taxid)
}

func OrganismPath(taxid string) string {
	return "/organisms?id=" + url.QueryEscape(taxid)
}

// Navigator moves the application to a route.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// RecordingNavigator remembers every route it was sent to.
type RecordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *RecordingNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

// Paths returns the routes navigated to, oldest first.
func (n *RecordingNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

// Last returns the most recent route, or "" if none.
func (n *RecordingNavigator) Last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.paths) == 0 {
		return ""
	}
	return n.paths[len(n.paths)-1]
}
