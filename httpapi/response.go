package httpapi

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/threatwinds/go-sdk/catcher"

	"github.com/flapjackhq/flapjack/highlighter"
	"github.com/flapjackhq/flapjack/orchestrator"
)

// shapeSearchResponse assembles the §4.7 response object out of the
// orchestrator's result.
func shapeSearchResponse(resp *orchestrator.Response, params orchestrator.RequestParams) map[string]any {
	hits := make([]any, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		doc := make(map[string]any, len(hit.Fields)+3)
		doc["objectID"] = hit.ObjectID
		for _, name := range hit.FieldOrder {
			doc[name] = hit.Fields[name].ToJSONValue()
		}
		if hit.Highlight != nil {
			highlight := make(map[string]any, len(hit.Highlight))
			for name, v := range hit.Highlight {
				highlight[name] = highlightValueJSON(v)
			}
			doc["_highlightResult"] = highlight
		}
		if hit.Distance != nil {
			ranking := map[string]any{
				"geoDistance": int64(*hit.Distance),
			}
			if hit.Bucket != nil {
				ranking["geoPrecision"] = int64(*hit.Bucket)
			}
			doc["_rankingInfo"] = ranking
		}
		hits = append(hits, doc)
	}

	exhaustive := map[string]any{
		"nbHits": resp.ExhaustiveNbHits,
		"typo":   resp.ExhaustiveTypo,
	}
	if resp.ExhaustiveFacets != nil {
		exhaustive["facetsCount"] = true
	}

	out := map[string]any{
		"hits":               hits,
		"nbHits":             resp.NbHits,
		"page":               resp.Page,
		"nbPages":            resp.NbPages,
		"hitsPerPage":        resp.HitsPerPage,
		"processingTimeMS":   resp.ProcessingTimeMS,
		"serverTimeMS":       resp.ServerTimeMS,
		"query":              resp.Query,
		"params":             resp.Params,
		"exhaustive":         exhaustive,
		"exhaustiveNbHits":   resp.ExhaustiveNbHits,
		"exhaustiveTypo":     resp.ExhaustiveTypo,
		"index":              resp.IndexName,
		"renderingContent":   map[string]any{},
		"processingTimingsMS": map[string]any{},
	}

	if resp.ExhaustiveFacets != nil {
		out["exhaustiveFacetsCount"] = true
	}

	if resp.Facets != nil || resp.ExhaustiveFacets != nil {
		facets := map[string]any{}
		for field, counts := range resp.Facets {
			dist := make(map[string]any, len(counts))
			for _, fc := range counts {
				dist[fc.Value] = fc.Count
			}
			facets[field] = dist
		}
		out["facets"] = facets
	}

	if resp.UserData != nil {
		out["userData"] = resp.UserData
	}
	if resp.AutomaticRadius != nil {
		out["automaticRadius"] = *resp.AutomaticRadius
	}
	if len(resp.AppliedRules) > 0 {
		rules := make([]any, 0, len(resp.AppliedRules))
		for _, id := range resp.AppliedRules {
			rules = append(rules, map[string]any{"objectID": id})
		}
		out["appliedRules"] = rules
	}

	return restrictResponseFields(out, params.ResponseFields)
}

// restrictResponseFields applies the responseFields whitelist; "*" or an
// unset list keeps everything.
func restrictResponseFields(out map[string]any, fields []string) map[string]any {
	if fields == nil {
		return out
	}
	for _, f := range fields {
		if f == "*" {
			return out
		}
	}
	restricted := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := out[f]; ok {
			restricted[f] = v
		}
	}
	return restricted
}

func highlightValueJSON(v highlighter.Value) any {
	switch v.Kind {
	case highlighter.ValueArray:
		items := make([]any, len(v.Array))
		for i, r := range v.Array {
			items[i] = highlightResultJSON(r)
		}
		return items
	case highlighter.ValueObject:
		obj := make(map[string]any, len(v.Object))
		for k, nested := range v.Object {
			obj[k] = highlightValueJSON(nested)
		}
		return obj
	default:
		return highlightResultJSON(v.Single)
	}
}

func highlightResultJSON(r highlighter.Result) map[string]any {
	out := map[string]any{
		"value":        r.Value,
		"matchLevel":   r.MatchLevel.String(),
		"matchedWords": r.MatchedWords,
	}
	if r.FullyHighlighted != nil {
		out["fullyHighlighted"] = *r.FullyHighlighted
	}
	return out
}

// writeJSON serializes v with sonic and writes it as the response body.
func writeJSON(c *gin.Context, status int, v any) {
	raw, err := sonic.Marshal(v)
	if err != nil {
		respondError(c, catcher.Error("failed to serialize response", err, map[string]any{"status": 500, "kind": "internal"}))
		return
	}
	c.Data(status, "application/json; charset=utf-8", raw)
}

// ok is the tiny success envelope the write endpoints share.
func ok(c *gin.Context, v any) {
	writeJSON(c, http.StatusOK, v)
}
