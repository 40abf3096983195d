package osindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flapjackhq/flapjack/document"
	"github.com/flapjackhq/flapjack/filter"
	"github.com/flapjackhq/flapjack/query"
	"github.com/flapjackhq/flapjack/searchindex"
)

func TestTranslateMatcherNilIsMatchAll(t *testing.T) {
	q := translateMatcher(nil)
	assert.NotNil(t, q.MatchAll)
}

func TestTranslateMatcherConjunctionOfDisjunctions(t *testing.T) {
	settings := document.Settings{SearchableAttributes: []string{"name", "description"}}
	m := query.Build("red laptop", query.PrefixLast, settings)

	q := translateMatcher(m)
	require.NotNil(t, q.Bool)
	// One must clause per token.
	assert.Len(t, q.Bool.Must, 2)
}

func TestTranslateTermExactUsesMatch(t *testing.T) {
	settings := document.Settings{SearchableAttributes: []string{"name"}}
	// Trailing space makes the final token exact.
	m := query.Build("red ", query.PrefixLast, settings)

	q := translateMatcher(m)
	require.NotNil(t, q)
	// red is 3 runes: no fuzzy clause, exact variant → match query on name.
	found := findClause(q, func(c *Query) bool {
		_, ok := c.Match["name"]
		return ok
	})
	assert.True(t, found)
}

func TestTranslateTermPrefixUsesPhrasePrefix(t *testing.T) {
	settings := document.Settings{SearchableAttributes: []string{"name"}}
	m := query.Build("lap", query.PrefixLast, settings)

	q := translateMatcher(m)
	found := findClause(q, func(c *Query) bool {
		_, ok := c.MatchPhrasePrefix["name"]
		return ok
	})
	assert.True(t, found)
}

func TestTranslateTermFuzzyClause(t *testing.T) {
	settings := document.Settings{SearchableAttributes: []string{"name"}}
	m := query.Build("laptop", query.PrefixNone, settings)

	q := translateMatcher(m)
	found := findClause(q, func(c *Query) bool {
		f, ok := c.Fuzzy["name"]
		return ok && f.Fuzziness == 1
	})
	assert.True(t, found)
}

func TestTranslateWildcardPathUsesMultiMatch(t *testing.T) {
	m := query.Build("laptop", query.PrefixNone, document.Settings{})

	q := translateMatcher(m)
	found := findClause(q, func(c *Query) bool {
		return c.MultiMatch != nil
	})
	assert.True(t, found)
}

func TestTranslateFilterTextEqualsTargetsExactSubfield(t *testing.T) {
	node := filter.Equals("brand", filter.TextValue("acme"))
	q := translateFilter(node)
	require.NotNil(t, q)
	assert.Equal(t, "acme", q.Term["brand.exact"])
}

func TestTranslateFilterTagsSkipExactSubfield(t *testing.T) {
	q := translateFilter(filter.Tag("clearance"))
	require.NotNil(t, q)
	assert.Equal(t, "clearance", q.Term["_tags"])
}

func TestTranslateFilterNumericRange(t *testing.T) {
	node, err := filter.ParseString("price > 50 AND price <= 100")
	require.NoError(t, err)

	q := translateFilter(node)
	require.NotNil(t, q.Bool)
	require.Len(t, q.Bool.Filter, 2)
	gt := q.Bool.Filter[0].Range["price"]
	require.NotNil(t, gt.Gt)
	assert.Equal(t, 50.0, *gt.Gt)
	lte := q.Bool.Filter[1].Range["price"]
	require.NotNil(t, lte.Lte)
	assert.Equal(t, 100.0, *lte.Lte)
}

func TestTranslateFilterNotBecomesMustNot(t *testing.T) {
	node, err := filter.ParseString(`NOT (brand = "acme")`)
	require.NoError(t, err)

	q := translateFilter(node)
	require.NotNil(t, q.Bool)
	require.Len(t, q.Bool.MustNot, 1)
}

func TestDecodeSourceRebuildsDocument(t *testing.T) {
	doc := decodeSource("5", []byte(`{"name":"laptop","price":42}`))
	assert.Equal(t, "5", doc.ObjectID)
	name, _ := doc.Get("name")
	assert.Equal(t, "laptop", name.Text)
	price, _ := doc.Get("price")
	assert.Equal(t, int64(42), price.Integer)
}

func TestDecodeFacetAggs(t *testing.T) {
	raw := []byte(`{"brand":{"buckets":[{"key":"acme","doc_count":3},{"key":"globex","doc_count":1}]}}`)
	out := decodeFacetAggs(raw, []searchindex.FacetRequest{{Field: "brand"}})
	require.Contains(t, out, "brand")
	require.Len(t, out["brand"], 2)
	assert.Equal(t, "acme", out["brand"][0].Value)
	assert.Equal(t, 3, out["brand"][0].Count)
}

func TestRegexEscape(t *testing.T) {
	assert.Equal(t, `a\.b`, regexEscape("a.b"))
	assert.Equal(t, "plain", regexEscape("plain"))
}

// findClause walks the query tree looking for a clause matching pred.
func findClause(q *Query, pred func(*Query) bool) bool {
	if q == nil {
		return false
	}
	if pred(q) {
		return true
	}
	if q.Bool == nil {
		return false
	}
	for _, group := range [][]Query{q.Bool.Must, q.Bool.Should, q.Bool.MustNot, q.Bool.Filter} {
		for i := range group {
			if findClause(&group[i], pred) {
				return true
			}
		}
	}
	return false
}
