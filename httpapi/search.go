package httpapi

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/threatwinds/go-sdk/catcher"
	"github.com/tidwall/gjson"

	"github.com/flapjackhq/flapjack/orchestrator"
	"github.com/flapjackhq/flapjack/query"
	"github.com/flapjackhq/flapjack/searchindex"
)

// query handles POST /1/indexes/{indexName}/query.
func (s *Server) query(c *gin.Context) {
	if !s.requireACL(c, "search") {
		return
	}
	indexName := c.Param("indexName")

	raw, err := readBody(c)
	if err != nil {
		respondError(c, err)
		return
	}
	parsed := gjson.ParseBytes(raw)
	if len(raw) > 0 && !parsed.IsObject() {
		respondError(c, catcher.Error("invalid JSON body", nil, map[string]any{"status": 400, "kind": "invalid_query"}))
		return
	}
	params := decodeSearchRequest(parsed)

	secured, err := securedRestriction(c, indexName)
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := s.Orchestrator.Search(c.Request.Context(), indexName, params, secured)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, shapeSearchResponse(resp, params))
}

// queries handles POST /1/indexes/*/queries: each entry carries its own
// indexName and runs through the identical single-query pipeline.
func (s *Server) queries(c *gin.Context) {
	if !s.requireACL(c, "search") {
		return
	}

	raw, err := readBody(c)
	if err != nil {
		respondError(c, err)
		return
	}
	requests := gjson.GetBytes(raw, "requests")
	if !requests.IsArray() {
		respondError(c, catcher.Error("invalid batch search: requests must be an array", nil, map[string]any{"status": 400, "kind": "invalid_query"}))
		return
	}

	var entries []orchestrator.Query
	var decodeErr error
	requests.ForEach(func(_, entry gjson.Result) bool {
		indexName := entry.Get("indexName").String()
		if indexName == "" {
			decodeErr = catcher.Error("missing indexName in batch search entry", nil, map[string]any{"status": 400, "kind": "invalid_query"})
			return false
		}
		entries = append(entries, orchestrator.Query{
			IndexName: indexName,
			Params:    decodeSearchRequest(entry),
		})
		return true
	})
	if decodeErr != nil {
		respondError(c, decodeErr)
		return
	}

	results := make([]any, 0, len(entries))
	for _, entry := range entries {
		secured, err := securedRestriction(c, entry.IndexName)
		if err != nil {
			respondError(c, err)
			return
		}
		resp, err := s.Orchestrator.Search(c.Request.Context(), entry.IndexName, entry.Params, secured)
		if err != nil {
			respondError(c, err)
			return
		}
		results = append(results, shapeSearchResponse(resp, entry.Params))
	}
	ok(c, gin.H{"results": results})
}

// searchFacetValues handles POST /1/indexes/*/facets/{facetName}/query:
// facet-value autocomplete, implemented as a facet distribution fetch
// narrowed by the query prefix.
func (s *Server) searchFacetValues(c *gin.Context) {
	if !s.requireACL(c, "search") {
		return
	}
	indexName := c.Param("indexName")
	facetName := c.Param("facetName")

	raw, err := readBody(c)
	if err != nil {
		respondError(c, err)
		return
	}
	body := gjson.ParseBytes(raw)
	// Facet autocomplete is prefix-only: normalize the query through the
	// same tokenizer searches use, then prefix-match the facet's values.
	tokens, _ := query.Tokenize(body.Get("facetQuery").String())
	facetQuery := strings.Join(tokens, " ")
	maxHits := int(body.Get("maxFacetHits").Int())
	if maxHits <= 0 {
		maxHits = 10
	}

	settings, err := s.Index.GetSettings(c.Request.Context(), indexName)
	if err != nil {
		respondError(c, err)
		return
	}
	if !settings.IsFacetable(facetName) {
		respondError(c, catcher.Error("field is not facetable", nil, map[string]any{
			"status": 400,
			"kind":   "invalid_query",
			"field":  facetName,
		}))
		return
	}

	result, err := s.Index.Search(c.Request.Context(), searchindex.SearchRequest{
		Index:  indexName,
		Facets: []searchindex.FacetRequest{{Field: facetName}},
	})
	if err != nil {
		respondError(c, err)
		return
	}

	facetHits := make([]any, 0, maxHits)
	for _, fc := range result.Facets[facetName] {
		if facetQuery != "" && !strings.HasPrefix(strings.ToLower(fc.Value), facetQuery) {
			continue
		}
		facetHits = append(facetHits, gin.H{
			"value":       fc.Value,
			"highlighted": fc.Value,
			"count":       fc.Count,
		})
		if len(facetHits) >= maxHits {
			break
		}
	}

	ok(c, gin.H{
		"facetHits":             facetHits,
		"exhaustiveFacetsCount": true,
		"processingTimeMS":      0,
	})
}
