package legacyfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flapjackhq/flapjack/filter"
)

func TestFacetFilterMatchesStringFilterAST(t *testing.T) {
	fromDialect := ParseFacetFilters("color:red")
	fromString, err := filter.ParseString(`color = "red"`)
	require.NoError(t, err)
	assert.Equal(t, fromString.String(), fromDialect.String())
}

func TestFacetFilterNestedArrays(t *testing.T) {
	node := ParseFacetFilters([]any{
		[]any{"color:red", "color:blue"},
		"size:S",
	})
	require.NotNil(t, node)
	require.Equal(t, filter.NodeAnd, node.Kind)
	require.Len(t, node.Children, 2)
	assert.Equal(t, filter.NodeOr, node.Children[0].Kind)
	assert.Equal(t, filter.NodeCompare, node.Children[1].Kind)
}

func TestFacetFilterNegation(t *testing.T) {
	node := ParseFacetFilters("-color:red")
	require.NotNil(t, node)
	assert.Equal(t, filter.NodeNot, node.Kind)
}

func TestFacetFilterStripsQuotes(t *testing.T) {
	node := ParseFacetFilters(`color:"dark red"`)
	require.NotNil(t, node)
	assert.Equal(t, "dark red", node.Value.Text)

	node = ParseFacetFilters("color:'blue'")
	require.NotNil(t, node)
	assert.Equal(t, "blue", node.Value.Text)
}

func TestNumericFilterMatchesStringFilterAST(t *testing.T) {
	fromDialect := ParseNumericFilters("price >= 10")
	fromString, err := filter.ParseString("price >= 10")
	require.NoError(t, err)
	assert.Equal(t, fromString.String(), fromDialect.String())
}

func TestNumericFilterBadLeafSilentlyDropped(t *testing.T) {
	node := ParseNumericFilters([]any{"price >= 10", "price >= banana"})
	require.NotNil(t, node)
	// The unparsable leaf drops; only the valid comparison remains.
	assert.Equal(t, filter.NodeCompare, node.Kind)
}

func TestTagFilterBuildsTagEquality(t *testing.T) {
	node := ParseTagFilters("clearance")
	require.NotNil(t, node)
	assert.Equal(t, "_tags", node.Field)
	assert.Equal(t, "clearance", node.Value.Text)
}

func TestTagFilterNesting(t *testing.T) {
	node := ParseTagFilters([]any{[]any{"a", "b"}, "c"})
	require.NotNil(t, node)
	require.Equal(t, filter.NodeAnd, node.Kind)
	assert.Equal(t, filter.NodeOr, node.Children[0].Kind)
}

func TestNonStringInputYieldsNoFilter(t *testing.T) {
	assert.Nil(t, ParseFacetFilters(42))
	assert.Nil(t, ParseNumericFilters(nil))
	assert.Nil(t, ParseTagFilters(map[string]any{}))
}
