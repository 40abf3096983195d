package httpapi

import (
	"io"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/threatwinds/go-sdk/catcher"
	"github.com/tidwall/gjson"

	"github.com/flapjackhq/flapjack/geo"
	"github.com/flapjackhq/flapjack/orchestrator"
	"github.com/flapjackhq/flapjack/query"
	"github.com/flapjackhq/flapjack/utils"
)

// readBody drains the request body under the size bound.
func readBody(c *gin.Context) ([]byte, error) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, catcher.Error("failed to read request body", err, map[string]any{"status": 400, "kind": "invalid_query"})
	}
	return raw, nil
}

// decodeSearchRequest maps one search request body onto RequestParams. Most
// fields are plain scalars; facetFilters/numericFilters/tagFilters,
// aroundRadius, aroundPrecision, facets, and insidePolygon are polymorphic,
// so the body is navigated with gjson instead of a rigid struct decode.
func decodeSearchRequest(body gjson.Result) orchestrator.RequestParams {
	var p orchestrator.RequestParams

	p.Query = body.Get("query").String()
	p.Params = body.Get("params").String()
	p.Filters = body.Get("filters").String()
	p.Page = int(body.Get("page").Int())
	p.HitsPerPage = int(body.Get("hitsPerPage").Int())
	p.SortField = body.Get("sort").String()
	p.GetRankingInfo = body.Get("getRankingInfo").Bool()
	p.RemoveStopWords = body.Get("removeStopWords").Bool()
	p.IgnorePlurals = body.Get("ignorePlurals").Bool()

	if v := body.Get("facetFilters"); v.Exists() {
		p.FacetFilters = v.Value()
	}
	if v := body.Get("numericFilters"); v.Exists() {
		p.NumericFilters = v.Value()
	}
	if v := body.Get("tagFilters"); v.Exists() {
		p.TagFilters = v.Value()
	}

	p.Facets = stringOrList(body.Get("facets"))
	p.AttributesToRetrieve = stringList(body.Get("attributesToRetrieve"))
	p.AttributesToHighlight = stringList(body.Get("attributesToHighlight"))
	p.ResponseFields = stringList(body.Get("responseFields"))
	p.QueryLanguages = stringList(body.Get("queryLanguages"))

	if v := body.Get("distinct"); v.Exists() {
		// distinct accepts true (1), false (0), or a count.
		n := int(v.Int())
		if v.IsBool() {
			n = 0
			if v.Bool() {
				n = 1
			}
		}
		p.Distinct = &n
	}

	switch body.Get("queryType").String() {
	case "prefixAll":
		p.QueryType = query.PrefixAll
	case "prefixNone":
		p.QueryType = query.PrefixNone
	default:
		p.QueryType = query.PrefixLast
	}

	p.InsideBoundingBox = body.Get("insideBoundingBox").String()
	p.InsidePolygon = stringOrList(body.Get("insidePolygon"))
	p.AroundLatLng = body.Get("aroundLatLng").String()
	p.AroundLatLngViaIP = body.Get("aroundLatLngViaIP").Bool()

	if v := body.Get("aroundRadius"); v.Exists() {
		if v.Type == gjson.String {
			p.AroundRadius = v.String()
		} else {
			p.AroundRadius = v.Float()
		}
	}
	if v := body.Get("aroundPrecision"); v.Exists() {
		if v.IsArray() {
			var rules []geo.PrecisionRule
			v.ForEach(func(_, rule gjson.Result) bool {
				rules = append(rules, geo.PrecisionRule{
					From:  rule.Get("from").Float(),
					Value: rule.Get("value").Float(),
				})
				return true
			})
			p.AroundPrecision = rules
		} else {
			p.AroundPrecision = v.Float()
		}
	}
	if v := body.Get("minimumAroundRadius"); v.Exists() {
		p.MinimumAroundRadius = utils.PointerOf(v.Float())
	}

	return p
}

// stringList decodes a JSON string array; a non-array yields nil, an empty
// array yields the non-nil empty slice the highlight-suppression rule
// distinguishes (§4.4 step 9).
func stringList(v gjson.Result) []string {
	if !v.IsArray() {
		return nil
	}
	out := []string{}
	v.ForEach(func(_, item gjson.Result) bool {
		out = append(out, item.String())
		return true
	})
	return out
}

// queryUnescapeFilters pulls a filters value out of a url-encoded params
// envelope; a malformed envelope yields no filter.
func queryUnescapeFilters(params string) string {
	values, err := url.ParseQuery(params)
	if err != nil {
		return ""
	}
	return values.Get("filters")
}

// stringOrList accepts either one string or an array of strings.
func stringOrList(v gjson.Result) []string {
	if v.Type == gjson.String {
		return []string{v.String()}
	}
	return stringList(v)
}
