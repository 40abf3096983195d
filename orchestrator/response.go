package orchestrator

import (
	"net/url"
	"strconv"
	"strings"
)

// EchoParams reconstructs the url-encoded params string a client would see
// echoed back in the response (§4.7 "params"): every field that actually
// shaped the query, re-serialized the same way MergeParams reads it.
func EchoParams(r RequestParams) string {
	values := url.Values{}
	if r.Query != "" {
		values.Set("query", r.Query)
	}
	if r.Filters != "" {
		values.Set("filters", r.Filters)
	}
	values.Set("page", strconv.Itoa(r.Page))
	values.Set("hitsPerPage", strconv.Itoa(r.EffectiveHitsPerPage()))
	if r.InsideBoundingBox != "" {
		values.Set("insideBoundingBox", r.InsideBoundingBox)
	}
	if r.AroundLatLng != "" {
		values.Set("aroundLatLng", r.AroundLatLng)
	}
	if r.AroundLatLngViaIP {
		values.Set("aroundLatLngViaIP", "true")
	}
	switch v := r.AroundRadius.(type) {
	case string:
		if v != "" {
			values.Set("aroundRadius", v)
		}
	case float64:
		values.Set("aroundRadius", strconv.FormatFloat(v, 'f', -1, 64))
	}
	if r.SortField != "" {
		values.Set("sort", r.SortField)
	}
	encoded := values.Encode()
	// url.Values.Encode sorts keys alphabetically; that's an acceptable,
	// stable echo shape rather than insertion order.
	return strings.ReplaceAll(encoded, "+", "%20")
}
