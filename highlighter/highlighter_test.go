package highlighter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHighlightTextExactSubstring(t *testing.T) {
	h := New()
	r := h.highlightText("a red laptop", []string{"red"})
	assert.Equal(t, "a <em>red</em> laptop", r.Value)
	assert.Equal(t, MatchFull, r.MatchLevel)
}

func TestHighlightTextSplitForm(t *testing.T) {
	h := New()
	r := h.highlightText("ear buds are great", []string{"earbuds"})
	assert.Contains(t, r.Value, "<em>ear buds</em>")
}

func TestHighlightTextConcatForm(t *testing.T) {
	h := New()
	r := h.highlightText("earbuds are great", []string{"ear", "buds"})
	assert.Contains(t, r.Value, "<em>earbuds</em>")
}

func TestHighlightTextFuzzyWordBoundary(t *testing.T) {
	h := New()
	r := h.highlightText("this is a laptp for sale", []string{"laptop"})
	require.NotEqual(t, MatchNone, r.MatchLevel)
	assert.Contains(t, r.Value, "<em>")
}

func TestHighlightTextNoMatch(t *testing.T) {
	h := New()
	r := h.highlightText("nothing here", []string{"zzz"})
	assert.Equal(t, MatchNone, r.MatchLevel)
	assert.Equal(t, "nothing here", r.Value)
	assert.Empty(t, r.MatchedWords)
}

func TestHighlightTextFullyHighlightedInvariant(t *testing.T) {
	h := New()
	r := h.highlightText("red", []string{"red"})
	require.NotNil(t, r.FullyHighlighted)
	if *r.FullyHighlighted {
		marked := 0
		for _, part := range strings.Split(r.Value, h.PreTag)[1:] {
			marked += strings.Index(part, h.PostTag)
		}
		assert.GreaterOrEqual(t, marked, len("red"))
	}
}

func TestMergePositionsJoinsOverlapping(t *testing.T) {
	merged := mergePositions([]span{{0, 3}, {2, 5}, {10, 12}})
	assert.Equal(t, []span{{0, 5}, {10, 12}}, merged)
}

func TestDamerauLevenshteinTransposition(t *testing.T) {
	assert.Equal(t, 1, DamerauLevenshtein("ab", "ba"))
	assert.Equal(t, 0, DamerauLevenshtein("same", "same"))
	assert.Equal(t, 3, DamerauLevenshtein("kitten", "sitting"))
}
