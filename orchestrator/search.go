package orchestrator

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/threatwinds/go-sdk/catcher"

	"github.com/flapjackhq/flapjack/document"
	"github.com/flapjackhq/flapjack/filter"
	"github.com/flapjackhq/flapjack/geo"
	"github.com/flapjackhq/flapjack/highlighter"
	"github.com/flapjackhq/flapjack/legacyfilter"
	"github.com/flapjackhq/flapjack/query"
	"github.com/flapjackhq/flapjack/searchindex"
	"github.com/flapjackhq/flapjack/utils"
)

// SecuredKeyRestriction is what keystore resolves from a secured API key
// (§4.1 "Secured-key forced filters", §8 scenario 6).
type SecuredKeyRestriction struct {
	ForcedFilters     string
	MaxHitsPerPage    int
	AllowedIndexGlobs []string
}

// Orchestrator ties the filter, geo, matcher, and highlight stages together
// over an Index collaborator (§4.4).
type Orchestrator struct {
	Index       searchindex.Index
	FilterCache *filter.Cache
	Highlighter highlighter.Highlighter
	Clock       func() int64 // monotonic-ish millisecond clock; overridable for tests
}

// New builds an Orchestrator with the default highlighter.
func New(index searchindex.Index) *Orchestrator {
	return &Orchestrator{
		Index:       index,
		Highlighter: highlighter.New(),
	}
}

// Hit is one projected, highlighted result row.
type Hit struct {
	ObjectID   string
	Fields     map[string]document.FieldValue
	FieldOrder []string
	Highlight  map[string]highlighter.Value
	Distance   *float64
	Bucket     *float64
}

// Response is the shaped result of one search (§4.7).
type Response struct {
	Hits              []Hit
	NbHits            int
	Page              int
	NbPages           int
	HitsPerPage       int
	ProcessingTimeMS  int64
	ServerTimeMS      int64
	Query             string
	Params            string
	ExhaustiveNbHits  bool
	ExhaustiveTypo    bool
	ExhaustiveFacets  *bool
	IndexName         string
	Facets            map[string][]searchindex.FacetCount
	UserData          any
	AutomaticRadius   *string
	AppliedRules      []string
}

// Search runs the full pipeline of §4.4 for one request against one index.
func (o *Orchestrator) Search(ctx context.Context, indexName string, req RequestParams, secured *SecuredKeyRestriction) (*Response, error) {
	start := o.now()

	if err := req.MergeParams(); err != nil {
		return nil, invalidQuery("failed to parse params envelope", err)
	}

	settings, err := o.Index.GetSettings(ctx, indexName)
	if err != nil {
		return nil, catcher.Error("failed to load index settings", err, map[string]any{"status": 500, "kind": "index_error"})
	}

	effectiveFilters := req.Filters
	if secured != nil && secured.ForcedFilters != "" {
		if effectiveFilters == "" {
			effectiveFilters = secured.ForcedFilters
		} else {
			effectiveFilters = "(" + effectiveFilters + ") AND (" + secured.ForcedFilters + ")"
		}
	}

	hitsPerPage := req.EffectiveHitsPerPage()
	if secured != nil && secured.MaxHitsPerPage > 0 && hitsPerPage > secured.MaxHitsPerPage {
		hitsPerPage = secured.MaxHitsPerPage
	}

	filterNode, err := o.buildFilter(effectiveFilters, req)
	if err != nil {
		return nil, err
	}

	geoParams := geo.Resolve(geo.RawParams{
		InsideBoundingBox:   req.InsideBoundingBox,
		InsidePolygon:       req.InsidePolygon,
		AroundLatLng:        req.AroundLatLng,
		AroundLatLngViaIP:   req.AroundLatLngViaIP,
		AroundRadius:        req.AroundRadius,
		AroundPrecision:     req.AroundPrecision,
		MinimumAroundRadius: req.MinimumAroundRadius,
	}, nil)

	matcher := query.Build(req.Query, req.QueryType, settings)

	page := req.Page
	if page < 0 {
		page = 0
	}

	facetReqs := resolveFacetRequests(req.Facets, settings, req.QueryType)

	geoActive := geoParams.Around != nil || len(geoParams.BoundingBoxes) > 0 || len(geoParams.Polygons) > 0

	limit := hitsPerPage
	offset := page * hitsPerPage
	if geoActive {
		limit = maxInt(1000, (page+1)*hitsPerPage*10)
		offset = 0
	}

	sortClauses := parseSort(req.SortField)

	// Distinct resolves request value first, then the settings default
	// (§4.4 step 4).
	distinctCount := settings.DistinctCount
	if req.Distinct != nil {
		distinctCount = *req.Distinct
	}

	result, err := o.Index.Search(ctx, searchindex.SearchRequest{
		Index:           indexName,
		Matcher:         matcher,
		Filter:          filterNode,
		Sort:            sortClauses,
		Limit:           limit,
		Offset:          offset,
		Facets:          facetReqs,
		DistinctField:   settings.AttributeForDistinct,
		DistinctCount:   distinctCount,
		MaxFacetValues:  settings.MaxValuesPerFacet,
		RemoveStopWords: req.RemoveStopWords,
		IgnorePlurals:   req.IgnorePlurals,
		QueryLanguages:  req.QueryLanguages,
	})
	if err != nil {
		return nil, catcher.Error("index search failed", err, map[string]any{"status": 500, "kind": "index_error"})
	}

	hits := result.Hits
	var automaticRadiusPtr *float64
	var exhaustiveFacets *bool

	if geoActive {
		hits, automaticRadiusPtr = applyGeoPostProcessing(hits, geoParams)
	}

	total := len(hits)
	if !geoActive {
		total = result.TotalHits
	}

	pageHits := hits
	if geoActive {
		from := page * hitsPerPage
		if from > len(hits) {
			from = len(hits)
		}
		to := from + hitsPerPage
		if to > len(hits) {
			to = len(hits)
		}
		pageHits = hits[from:to]
	}

	searchablePaths := settings.SearchableAttributes
	queryWords := query.ExtractQueryWords(req.Query)

	outHits := make([]Hit, 0, len(pageHits))
	for _, sd := range pageHits {
		outHits = append(outHits, o.buildHit(sd, req, settings, searchablePaths, queryWords, geoParams, geoActive))
	}

	if len(facetReqs) > 0 {
		allZero := true
		for _, counts := range result.Facets {
			if len(counts) > 0 {
				allZero = false
			}
		}
		empty := allZero
		exhaustiveFacets = &empty
	}

	nbPages := 0
	if total > 0 && hitsPerPage > 0 {
		nbPages = int(math.Ceil(float64(total) / float64(hitsPerPage)))
	}

	resp := &Response{
		Hits:             outHits,
		NbHits:           total,
		Page:             page,
		NbPages:          nbPages,
		HitsPerPage:      hitsPerPage,
		ProcessingTimeMS: o.now() - start,
		ServerTimeMS:     o.now() - start,
		Query:            req.Query,
		Params:           EchoParams(req),
		ExhaustiveNbHits: result.Exhaustive,
		ExhaustiveTypo:   true,
		ExhaustiveFacets: exhaustiveFacets,
		IndexName:        indexName,
		Facets:           result.Facets,
		UserData:         result.UserData,
		AppliedRules:     result.AppliedRules,
	}
	if automaticRadiusPtr != nil {
		resp.AutomaticRadius = utils.PointerOf(formatFloat(*automaticRadiusPtr))
	}
	return resp, nil
}

func (o *Orchestrator) now() int64 {
	if o.Clock != nil {
		return o.Clock()
	}
	return time.Now().UnixMilli()
}

func (o *Orchestrator) buildFilter(effectiveFilters string, req RequestParams) (*filter.Node, error) {
	var stringFilter *filter.Node
	if effectiveFilters != "" {
		var err error
		if o.FilterCache != nil {
			stringFilter, err = o.FilterCache.Parse(effectiveFilters)
		} else {
			stringFilter, err = filter.ParseString(effectiveFilters)
		}
		if err != nil {
			// §7 / SPEC_FULL.md Open Question: string-filter grammar
			// errors are fatal, diverging deliberately from the Rust
			// original's silent drop.
			return nil, invalidQuery("invalid filter expression", err)
		}
	}

	facetNode := legacyfilter.ParseFacetFilters(req.FacetFilters)
	numericNode := legacyfilter.ParseNumericFilters(req.NumericFilters)
	tagNode := legacyfilter.ParseTagFilters(req.TagFilters)

	return filter.Combine(stringFilter, facetNode, numericNode, tagNode), nil
}

func invalidQuery(msg string, cause error) error {
	return catcher.Error(msg, cause, map[string]any{"status": 400, "kind": "invalid_query"})
}

func resolveFacetRequests(requested []string, settings document.Settings, _ query.QueryType) []searchindex.FacetRequest {
	if len(requested) == 0 {
		return nil
	}
	want := map[string]bool{}
	for _, f := range requested {
		if f == "*" {
			for _, allowed := range settings.AttributesForFaceting {
				want[allowed] = true
			}
			continue
		}
		if settings.IsFacetable(f) {
			want[f] = true
		}
	}
	out := make([]searchindex.FacetRequest, 0, len(want))
	for f := range want {
		out = append(out, searchindex.FacetRequest{Field: f, MaxValues: settings.MaxValuesPerFacet})
	}
	return out
}

func parseSort(spec string) []searchindex.Sort {
	if spec == "" {
		return nil
	}
	field, dir, ok := strings.Cut(spec, ":")
	if !ok {
		return nil
	}
	switch dir {
	case "asc":
		return []searchindex.Sort{{Field: field, Ascending: true}}
	case "desc":
		return []searchindex.Sort{{Field: field, Ascending: false}}
	default:
		return nil
	}
}

func applyGeoPostProcessing(hits []searchindex.ScoredDocument, params geo.Params) ([]searchindex.ScoredDocument, *float64) {
	type withDist struct {
		hit      searchindex.ScoredDocument
		distance float64
	}
	var distances []float64
	var passing []withDist

	// First pass: determine effective radius without filtering, when
	// automatic radius needs every candidate's nearest passing distance.
	hasExplicitRadius := params.HasRadius()
	effectiveRadius := 0.0
	if hasExplicitRadius {
		effectiveRadius = *params.AroundRadiusMeters
	}

	for _, h := range hits {
		points := geoPoints(h.Document)
		// The "all" sentinel and the pending automatic radius both mean "no
		// radius filter yet": only an explicit radius filters here.
		_, dist, ok := params.BestPoint(points, effectiveRadius, hasExplicitRadius)
		if !ok {
			continue
		}
		passing = append(passing, withDist{hit: h, distance: dist})
		if params.Around != nil {
			distances = append(distances, dist)
		}
	}

	var automaticRadius *float64
	if params.NeedsAutomaticRadius() {
		radius := geo.AutomaticRadius(distances, params.MinimumAroundRadius)
		automaticRadius = &radius
		filtered := passing[:0]
		for _, p := range passing {
			if geo.WithinAutomaticRadius(p.distance, radius) {
				filtered = append(filtered, p)
			}
		}
		passing = filtered
	}

	rawDistances := make([]float64, len(passing))
	for i, p := range passing {
		rawDistances[i] = p.distance
	}
	order := params.SortCandidates(rawDistances)

	out := make([]searchindex.ScoredDocument, len(passing))
	for i, idx := range order {
		out[i] = passing[idx].hit
	}
	return out, automaticRadius
}

func geoPoints(d *document.Document) []geo.Center {
	pts := d.GeoPoints()
	out := make([]geo.Center, len(pts))
	for i, p := range pts {
		out[i] = geo.Center{Lat: p.Lat, Lng: p.Lng}
	}
	return out
}

func (o *Orchestrator) buildHit(sd searchindex.ScoredDocument, req RequestParams, settings document.Settings, searchablePaths []string, queryWords []string, geoParams geo.Params, geoActive bool) Hit {
	d := sd.Document
	fields, order := projectFields(d, req.AttributesToRetrieve, settings.AttributesToRetrieve)

	hit := Hit{ObjectID: d.ObjectID, Fields: fields, FieldOrder: order}

	if !isExplicitlyEmpty(req.AttributesToHighlight) {
		hit.Highlight = o.Highlighter.HighlightDocument(d, queryWords, searchablePaths)
	}

	if req.GetRankingInfo && geoActive {
		points := geoPoints(d)
		hasRadius := geoParams.HasRadius()
		effRadius := 0.0
		if hasRadius {
			effRadius = *geoParams.AroundRadiusMeters
		}
		if _, dist, ok := geoParams.BestPoint(points, effRadius, hasRadius); ok {
			hit.Distance = &dist
			bucket := geoParams.Bucket(dist)
			hit.Bucket = &bucket
		}
	}

	return hit
}

// isExplicitlyEmpty distinguishes an explicit empty list (skip
// highlighting entirely, §4.4 step 9) from "not set" (nil).
func isExplicitlyEmpty(attrs []string) bool {
	return attrs != nil && len(attrs) == 0
}

func projectFields(d *document.Document, requested, settingsDefault []string) (map[string]document.FieldValue, []string) {
	whitelist := requested
	if whitelist == nil {
		whitelist = settingsDefault
	}
	if whitelist != nil && contains(whitelist, "*") {
		whitelist = nil
	}
	if whitelist == nil {
		return d.Fields, d.FieldOrder
	}
	fields := make(map[string]document.FieldValue, len(whitelist))
	order := make([]string, 0, len(whitelist))
	for _, name := range d.FieldOrder {
		if contains(whitelist, name) {
			fields[name] = d.Fields[name]
			order = append(order, name)
		}
	}
	return fields, order
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
