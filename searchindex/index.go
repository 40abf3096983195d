// Package searchindex defines the minimal external index collaborator
// contract the core depends on (§6) and a reference in-memory
// implementation used by orchestrator/ingest tests. Production deployments
// use package osindex instead.
package searchindex

import (
	"context"

	"github.com/flapjackhq/flapjack/document"
	"github.com/flapjackhq/flapjack/filter"
	"github.com/flapjackhq/flapjack/query"
)

// Sort is one "field:asc|desc" sort clause (§4.4 step 4); unknown suffixes
// are ignored by the caller before reaching here.
type Sort struct {
	Field     string
	Ascending bool
}

// FacetRequest asks the index to compute a facet distribution for Field,
// capped at MaxValues entries (0 means the index's own default).
type FacetRequest struct {
	Field     string
	MaxValues int
}

// FacetCount is one (value, count) pair in a facet distribution.
type FacetCount struct {
	Value string
	Count int
}

// SearchRequest is everything the core hands the index collaborator for one
// query (§6 "Index collaborator contract").
type SearchRequest struct {
	Index          string
	Matcher        *query.Matcher
	Filter         *filter.Node
	Sort           []Sort
	Limit          int
	Offset         int
	Facets         []FacetRequest
	DistinctField  string
	DistinctCount  int
	MaxFacetValues int
	// RemoveStopWords, IgnorePlurals, and QueryLanguages are forwarded to
	// the index's own analyzers untouched; the core's plural expansion
	// (§4.3) is independent of them.
	RemoveStopWords bool
	IgnorePlurals   bool
	QueryLanguages  []string
}

// ScoredDocument pairs a returned document with its relevance score.
type ScoredDocument struct {
	Document *document.Document
	Score    float64
}

// SearchResult is what the index returns for a query (§3 "Search result").
type SearchResult struct {
	Hits         []ScoredDocument
	TotalHits    int
	Exhaustive   bool
	Facets       map[string][]FacetCount
	UserData     any
	AppliedRules []string
}

// Index is the minimal external index collaborator the core depends on.
// Production transport, persistence, and replication concerns live entirely
// on the implementing side (§1).
type Index interface {
	Search(ctx context.Context, req SearchRequest) (SearchResult, error)
	GetDocument(ctx context.Context, indexName, objectID string) (*document.Document, bool, error)
	AddDocuments(ctx context.Context, indexName string, docs []*document.Document) error
	DeleteDocumentsSync(ctx context.Context, indexName string, objectIDs []string) error
	GetSettings(ctx context.Context, indexName string) (document.Settings, error)
	CreateTenant(ctx context.Context, indexName string) error
	DeleteTenant(ctx context.Context, indexName string) error
	// ResolveShortToken expands a short-token placeholder by enumerating
	// path-qualified term-dictionary entries whose prefix matches token
	// (§4.3, §9 "Short-token placeholder").
	ResolveShortToken(ctx context.Context, indexName, token string, paths []string, weights []int) ([]string, error)
}
