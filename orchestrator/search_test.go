package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flapjackhq/flapjack/document"
	"github.com/flapjackhq/flapjack/query"
	"github.com/flapjackhq/flapjack/searchindex"
)

func seedIndex(t *testing.T) *searchindex.MemoryIndex {
	t.Helper()
	idx := searchindex.NewMemoryIndex()
	idx.SetSettings("products", document.Settings{
		SearchableAttributes:  []string{"name", "description"},
		AttributesForFaceting: []string{"brand"},
		AttributesToRetrieve:  nil,
	})

	d1 := document.NewDocument("1")
	d1.Set("name", document.Text("red laptop bag"))
	d1.Set("description", document.Text("a sturdy travel bag"))
	d1.Set("brand", document.Facet("acme"))
	d1.Set("price", document.Integer(42))

	d2 := document.NewDocument("2")
	d2.Set("name", document.Text("blue backpack"))
	d2.Set("description", document.Text("for hiking"))
	d2.Set("brand", document.Facet("globex"))
	d2.Set("price", document.Integer(99))

	require.NoError(t, idx.AddDocuments(context.Background(), "products", []*document.Document{d1, d2}))
	return idx
}

func TestSearchReturnsMatchingHit(t *testing.T) {
	idx := seedIndex(t)
	o := New(idx)

	resp, err := o.Search(context.Background(), "products", RequestParams{Query: "laptop"}, nil)
	require.NoError(t, err)
	require.Len(t, resp.Hits, 1)
	assert.Equal(t, "1", resp.Hits[0].ObjectID)
	assert.Equal(t, 1, resp.NbHits)
	assert.Equal(t, 1, resp.NbPages)
}

func TestSearchAppliesStringFilter(t *testing.T) {
	idx := seedIndex(t)
	o := New(idx)

	resp, err := o.Search(context.Background(), "products", RequestParams{
		Filters: "price > 50",
	}, nil)
	require.NoError(t, err)
	require.Len(t, resp.Hits, 1)
	assert.Equal(t, "2", resp.Hits[0].ObjectID)
}

func TestSearchInvalidFilterIsFatal(t *testing.T) {
	idx := seedIndex(t)
	o := New(idx)

	_, err := o.Search(context.Background(), "products", RequestParams{
		Filters: "price >",
	}, nil)
	require.Error(t, err)
}

func TestSearchSecuredKeyForcedFilterRestrictsResults(t *testing.T) {
	idx := seedIndex(t)
	o := New(idx)

	resp, err := o.Search(context.Background(), "products", RequestParams{}, &SecuredKeyRestriction{
		ForcedFilters: `brand = "acme"`,
	})
	require.NoError(t, err)
	require.Len(t, resp.Hits, 1)
	assert.Equal(t, "1", resp.Hits[0].ObjectID)
}

func TestSearchFacetRequest(t *testing.T) {
	idx := seedIndex(t)
	o := New(idx)

	resp, err := o.Search(context.Background(), "products", RequestParams{
		Facets: []string{"brand"},
	}, nil)
	require.NoError(t, err)
	require.Contains(t, resp.Facets, "brand")
	assert.Len(t, resp.Facets["brand"], 2)
}

func TestSearchHighlightsQueryTerms(t *testing.T) {
	idx := seedIndex(t)
	o := New(idx)

	resp, err := o.Search(context.Background(), "products", RequestParams{Query: "laptop"}, nil)
	require.NoError(t, err)
	require.Len(t, resp.Hits, 1)
	hl, ok := resp.Hits[0].Highlight["name"]
	require.True(t, ok)
	assert.Contains(t, hl.Single.Value, "<em>laptop</em>")
}

func TestSearchMergesParamsString(t *testing.T) {
	idx := seedIndex(t)
	o := New(idx)

	resp, err := o.Search(context.Background(), "products", RequestParams{
		Params: "query=backpack&hitsPerPage=5",
	}, nil)
	require.NoError(t, err)
	require.Len(t, resp.Hits, 1)
	assert.Equal(t, "2", resp.Hits[0].ObjectID)
	assert.Equal(t, 5, resp.HitsPerPage)
}

func TestSearchManyFansOutSequentially(t *testing.T) {
	idx := seedIndex(t)
	o := New(idx)

	resps, err := o.SearchMany(context.Background(), []Query{
		{IndexName: "products", Params: RequestParams{Query: "laptop"}},
		{IndexName: "products", Params: RequestParams{Query: "backpack"}},
	}, nil)
	require.NoError(t, err)
	require.Len(t, resps, 2)
	assert.Equal(t, "1", resps[0].Hits[0].ObjectID)
	assert.Equal(t, "2", resps[1].Hits[0].ObjectID)
}

func geoDoc(id string, lat, lng float64) *document.Document {
	d := document.NewDocument(id)
	d.Set("name", document.Text("place "+id))
	d.Set("_geoloc", document.Object(map[string]document.FieldValue{
		"lat": document.Float(lat),
		"lng": document.Float(lng),
	}))
	return d
}

// ~1 degree of latitude is ~111195 m on the haversine sphere.
const degPerMeter = 1.0 / 111194.9

func TestSearchGeoAutomaticRadius(t *testing.T) {
	idx := searchindex.NewMemoryIndex()
	idx.SetSettings("places", document.Settings{SearchableAttributes: []string{"name"}})
	docs := []*document.Document{
		geoDoc("1", 0, 0),
		geoDoc("2", 100*degPerMeter, 0),
		geoDoc("3", 200*degPerMeter, 0),
		geoDoc("4", 400*degPerMeter, 0),
		geoDoc("5", 10000*degPerMeter, 0),
	}
	require.NoError(t, idx.AddDocuments(context.Background(), "places", docs))

	o := New(idx)
	resp, err := o.Search(context.Background(), "places", RequestParams{
		AroundLatLng: "0,0",
	}, nil)
	require.NoError(t, err)
	// Five candidates fit under the density target, so the radius is the
	// farthest candidate's distance and every hit is retained.
	assert.Equal(t, 5, resp.NbHits)
	require.NotNil(t, resp.AutomaticRadius)
}

func TestSearchGeoRadiusAllKeepsEverything(t *testing.T) {
	idx := searchindex.NewMemoryIndex()
	idx.SetSettings("places", document.Settings{SearchableAttributes: []string{"name"}})
	require.NoError(t, idx.AddDocuments(context.Background(), "places", []*document.Document{
		geoDoc("1", 0, 0),
		geoDoc("2", 10000*degPerMeter, 0),
	}))

	o := New(idx)
	resp, err := o.Search(context.Background(), "places", RequestParams{
		AroundLatLng: "0,0",
		AroundRadius: "all",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.NbHits)
	assert.Nil(t, resp.AutomaticRadius)
}

func TestSearchGeoExplicitRadiusFilters(t *testing.T) {
	idx := searchindex.NewMemoryIndex()
	idx.SetSettings("places", document.Settings{SearchableAttributes: []string{"name"}})
	require.NoError(t, idx.AddDocuments(context.Background(), "places", []*document.Document{
		geoDoc("1", 0, 0),
		geoDoc("2", 10000*degPerMeter, 0),
	}))

	o := New(idx)
	resp, err := o.Search(context.Background(), "places", RequestParams{
		AroundLatLng: "0,0",
		AroundRadius: 500.0,
	}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, resp.NbHits)
	assert.Equal(t, "1", resp.Hits[0].ObjectID)
}

func TestSearchBoundingBoxSuppressesAround(t *testing.T) {
	idx := searchindex.NewMemoryIndex()
	idx.SetSettings("places", document.Settings{SearchableAttributes: []string{"name"}})
	require.NoError(t, idx.AddDocuments(context.Background(), "places", []*document.Document{
		geoDoc("1", 0.5, 0.5),
		geoDoc("2", 5, 5),
	}))

	o := New(idx)
	resp, err := o.Search(context.Background(), "places", RequestParams{
		InsideBoundingBox: "0,0,1,1",
		AroundLatLng:      "5,5",
	}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, resp.NbHits)
	assert.Equal(t, "1", resp.Hits[0].ObjectID)
}

func TestEffectiveHitsPerPageDefault(t *testing.T) {
	r := RequestParams{}
	assert.Equal(t, 20, r.EffectiveHitsPerPage())
}

func TestQueryTypePassthrough(t *testing.T) {
	r := RequestParams{QueryType: query.PrefixLast}
	assert.Equal(t, query.PrefixLast, r.QueryType)
}
