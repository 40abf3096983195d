package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStringSimpleComparisons(t *testing.T) {
	node, err := ParseString(`color = "red"`)
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, NodeCompare, node.Kind)
	assert.Equal(t, "color", node.Field)
	assert.Equal(t, OpEquals, node.Op)
	assert.Equal(t, "red", node.Value.Text)
}

func TestParseStringAndOrNotPrecedence(t *testing.T) {
	node, err := ParseString(`a = 1 OR b = 2 AND NOT c = 3`)
	require.NoError(t, err)
	require.Equal(t, NodeOr, node.Kind)
	require.Len(t, node.Children, 2)
	and := node.Children[1]
	require.Equal(t, NodeAnd, and.Kind)
	require.Equal(t, NodeNot, and.Children[1].Kind)
}

func TestParseStringParentheses(t *testing.T) {
	node, err := ParseString(`(a = 1 OR b = 2) AND c = 3`)
	require.NoError(t, err)
	require.Equal(t, NodeAnd, node.Kind)
	require.Equal(t, NodeOr, node.Children[0].Kind)
}

func TestParseStringNumericLiterals(t *testing.T) {
	node, err := ParseString(`price >= 9.99`)
	require.NoError(t, err)
	assert.Equal(t, OpGreaterThanOrEqual, node.Op)
	assert.Equal(t, ValueFloat, node.Value.Kind)
	assert.InDelta(t, 9.99, node.Value.Float, 0.0001)

	node, err = ParseString(`stock < 10`)
	require.NoError(t, err)
	assert.Equal(t, ValueInteger, node.Value.Kind)
	assert.Equal(t, int64(10), node.Value.Integer)
}

func TestParseStringEmptyYieldsNoFilter(t *testing.T) {
	node, err := ParseString("")
	require.NoError(t, err)
	assert.Nil(t, node)
}

func TestParseStringSyntaxErrorIsInvalidQuery(t *testing.T) {
	_, err := ParseString(`color = `)
	require.Error(t, err)
}

func TestParseStringIdempotentRoundTrip(t *testing.T) {
	cases := []string{
		`a = 1`,
		`a != "x"`,
		`a > 1 AND b < 2`,
		`a >= 1 OR b <= 2`,
		`NOT (a = 1)`,
	}
	for _, src := range cases {
		node, err := ParseString(src)
		require.NoError(t, err)
		printed := node.String()
		reparsed, err := ParseString(printed)
		require.NoError(t, err)
		assert.Equal(t, printed, reparsed.String(), "round-trip for %q", src)
	}
}

func TestCacheReturnsSameResultAsDirectParse(t *testing.T) {
	c := NewCache(8, 0)
	node1, err1 := c.Parse(`a = 1`)
	node2, err2 := c.Parse(`a = 1`)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, node1.String(), node2.String())
}
