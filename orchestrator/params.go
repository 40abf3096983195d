// Package orchestrator implements the search request pipeline of §4.4:
// parameter merge, secured-key enforcement, filter/matcher/geo build, the
// index call, geo post-processing, projection, highlighting, and response
// shaping. Grounded on flapjack-http/src/handlers/search.rs and dto.rs.
package orchestrator

import (
	"net/url"
	"strconv"

	"github.com/flapjackhq/flapjack/query"
)

// RequestParams is the full set of fields a search request can carry,
// whether from the JSON body or folded in from the url-encoded `params`
// string (§4.4 step 1).
type RequestParams struct {
	Query                 string
	Params                string
	Filters               string
	FacetFilters          any
	NumericFilters        any
	TagFilters            any
	Page                  int
	HitsPerPage           int
	Facets                []string
	AttributesToRetrieve  []string
	AttributesToHighlight []string
	ResponseFields        []string
	Distinct              *int
	SortField             string
	QueryType             query.QueryType
	GetRankingInfo        bool
	RemoveStopWords       bool
	IgnorePlurals         bool
	QueryLanguages        []string

	InsideBoundingBox   string
	InsidePolygon       []string
	AroundLatLng        string
	AroundLatLngViaIP   bool
	AroundRadius        any
	AroundPrecision     any
	MinimumAroundRadius *float64
}

// MergeParams implements §4.4 step 1: parse the url-encoded `params` string
// and, for each recognized key, populate the field only when it is
// currently unset on RequestParams. Page is always overwritten, defaulting
// to 0 on parse failure. A single bad sub-parameter is silently dropped
// (§7); a malformed envelope (the whole string fails to url.ParseQuery) is
// returned as an error.
func (r *RequestParams) MergeParams() error {
	if r.Params == "" {
		r.Page = maxInt(r.Page, 0)
		return nil
	}
	values, err := url.ParseQuery(r.Params)
	if err != nil {
		return err
	}

	if v := values.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			r.Page = n
		} else {
			r.Page = 0
		}
	} else {
		r.Page = 0
	}

	if r.Query == "" {
		r.Query = values.Get("query")
	}
	if r.Filters == "" {
		r.Filters = values.Get("filters")
	}
	if r.HitsPerPage == 0 {
		if n, err := strconv.Atoi(values.Get("hitsPerPage")); err == nil {
			r.HitsPerPage = n
		}
	}
	if r.InsideBoundingBox == "" {
		r.InsideBoundingBox = values.Get("insideBoundingBox")
	}
	if r.AroundLatLng == "" {
		r.AroundLatLng = values.Get("aroundLatLng")
	}
	if !r.AroundLatLngViaIP {
		if b, err := strconv.ParseBool(values.Get("aroundLatLngViaIP")); err == nil {
			r.AroundLatLngViaIP = b
		}
	}
	if r.AroundRadius == nil {
		if v := values.Get("aroundRadius"); v != "" {
			if v == "all" {
				r.AroundRadius = "all"
			} else if f, err := strconv.ParseFloat(v, 64); err == nil {
				r.AroundRadius = f
			}
		}
	}
	if r.SortField == "" {
		r.SortField = values.Get("sort")
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// EffectiveHitsPerPage resolves hitsPerPage with the default of 20 (§4.4
// step 4).
func (r RequestParams) EffectiveHitsPerPage() int {
	if r.HitsPerPage > 0 {
		return r.HitsPerPage
	}
	return 20
}
