package osindex

import (
	"context"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
	"github.com/threatwinds/go-sdk/catcher"
	"github.com/tidwall/gjson"

	"github.com/flapjackhq/flapjack/document"
	"github.com/flapjackhq/flapjack/query"
	"github.com/flapjackhq/flapjack/searchindex"
)

// Search lowers the request into the OpenSearch DSL, executes it, and maps
// the engine response back into the collaborator contract's SearchResult.
func (x *Index) Search(ctx context.Context, req searchindex.SearchRequest) (searchindex.SearchResult, error) {
	body := SearchBody{
		From:  int64(req.Offset),
		Size:  int64(req.Limit),
		Query: translateMatcher(req.Matcher),
	}

	if f := translateFilter(req.Filter); f != nil {
		body.Query = &Query{Bool: &Bool{
			Must:   []Query{*body.Query},
			Filter: []Query{*f},
		}}
	}

	for _, s := range req.Sort {
		order := "desc"
		if s.Ascending {
			order = "asc"
		}
		// Sort targets the raw field: numeric and date fields sort natively;
		// unmapped_type keeps an absent field from failing the query.
		body.Sort = append(body.Sort, map[string]map[string]any{
			s.Field: {"order": order, "unmapped_type": "keyword"},
		})
	}

	if req.DistinctField != "" && req.DistinctCount > 0 {
		body.Collapse = &Collapse{Field: exactField(req.DistinctField)}
	}

	if len(req.Facets) > 0 {
		body.Aggs = make(map[string]Aggs, len(req.Facets))
		for _, fr := range req.Facets {
			size := fr.MaxValues
			if size <= 0 {
				size = 10
			}
			body.Aggs[fr.Field] = Aggs{Terms: &TermsAgg{Field: exactField(fr.Field), Size: size}}
		}
	}

	resp, err := x.search(ctx, req.Index, body)
	if err != nil {
		return searchindex.SearchResult{}, err
	}

	result := searchindex.SearchResult{
		TotalHits:  int(resp.Hits.Total.Value),
		Exhaustive: resp.Hits.Total.Relation == "eq",
		Hits:       make([]searchindex.ScoredDocument, 0, len(resp.Hits.Hits)),
	}

	for _, hit := range resp.Hits.Hits {
		doc := decodeSource(hit.ID, hit.Source)
		result.Hits = append(result.Hits, searchindex.ScoredDocument{Document: doc, Score: float64(hit.Score)})
	}

	if len(resp.Aggregations) > 0 {
		result.Facets = decodeFacetAggs(resp.Aggregations, req.Facets)
	}

	return result, nil
}

func (x *Index) search(ctx context.Context, index string, body SearchBody) (*opensearchapi.SearchResp, error) {
	raw, err := sonic.Marshal(body)
	if err != nil {
		return nil, catcher.Error("failed to marshal search body", err, map[string]any{"status": 500, "kind": "index_error"})
	}

	resp, err := x.api.Search(ctx, &opensearchapi.SearchReq{
		Indices: []string{index},
		Body:    strings.NewReader(string(raw)),
	})
	if err != nil {
		return nil, catcher.Error("search request failed", err, map[string]any{
			"status": 500,
			"kind":   "index_error",
			"index":  index,
		})
	}
	return resp, nil
}

// decodeSource rebuilds a Document out of a hit's _source.
func decodeSource(id string, source []byte) *document.Document {
	doc := document.NewDocument(id)
	gjson.ParseBytes(source).ForEach(func(key, value gjson.Result) bool {
		if v, ok := document.FieldValueFromJSON(value); ok {
			doc.Set(key.String(), v)
		}
		return true
	})
	return doc
}

// decodeFacetAggs walks the terms-aggregation buckets back into the facet
// distribution shape.
func decodeFacetAggs(raw []byte, requests []searchindex.FacetRequest) map[string][]searchindex.FacetCount {
	parsed := gjson.ParseBytes(raw)
	out := make(map[string][]searchindex.FacetCount, len(requests))
	for _, fr := range requests {
		buckets := parsed.Get(fr.Field + ".buckets")
		var counts []searchindex.FacetCount
		buckets.ForEach(func(_, bucket gjson.Result) bool {
			counts = append(counts, searchindex.FacetCount{
				Value: bucket.Get("key").String(),
				Count: int(bucket.Get("doc_count").Int()),
			})
			return true
		})
		out[fr.Field] = counts
	}
	return out
}

// ResolveShortToken enumerates indexed terms whose prefix matches token on
// each path, using a terms aggregation with an include regex over the .exact
// keyword subfield — the engine side of the short-token placeholder
// contract.
func (x *Index) ResolveShortToken(ctx context.Context, indexName, token string, paths []string, weights []int) ([]string, error) {
	body := SearchBody{
		Size:  0,
		Query: matchAll(),
		Aggs:  make(map[string]Aggs, len(paths)),
	}
	for _, path := range paths {
		body.Aggs[path] = Aggs{Terms: &TermsAgg{
			Field:   exactField(path),
			Size:    100,
			Include: regexEscape(token) + ".*",
		}}
	}

	resp, err := x.search(ctx, indexName, body)
	if err != nil {
		return nil, err
	}

	var terms []string
	if len(resp.Aggregations) > 0 {
		parsed := gjson.ParseBytes(resp.Aggregations)
		for _, path := range paths {
			parsed.Get(path + ".buckets").ForEach(func(_, bucket gjson.Result) bool {
				terms = append(terms, query.TermKey(path, bucket.Get("key").String()))
				return true
			})
		}
	}
	return terms, nil
}

func regexEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`.?+*|{}[]()"\#@&<>~`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
