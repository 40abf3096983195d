package query

import (
	"testing"

	"github.com/flapjackhq/flapjack/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settingsWithPaths(paths ...string) document.Settings {
	return document.Settings{SearchableAttributes: paths}
}

func TestTokenizeCJKAware(t *testing.T) {
	tokens, trailing := Tokenize("hello 世界")
	assert.Equal(t, []string{"hello", "世", "界"}, tokens)
	assert.False(t, trailing)
}

func TestTokenizeTrailingSpace(t *testing.T) {
	_, trailing := Tokenize("aa ")
	assert.True(t, trailing)
}

func TestBuildEmptyQueryIsIdentity(t *testing.T) {
	m := Build("", PrefixLast, settingsWithPaths("name"))
	assert.Equal(t, NodeAll, m.Kind)
}

func TestBuildShortTokenWithoutTrailingSpaceIsPlaceholder(t *testing.T) {
	m := Build("aa", PrefixLast, settingsWithPaths("name"))
	require.Equal(t, NodeShortToken, m.Kind)
	assert.Equal(t, "aa", m.Token)
}

func TestBuildShortTokenWithTrailingSpaceIsExactDisjunction(t *testing.T) {
	m := Build("aa ", PrefixLast, settingsWithPaths("name"))
	require.Equal(t, NodeDisjunction, m.Kind)
	require.Len(t, m.Children, 1)
	leaf := unwrapBoost(m.Children[0])
	assert.Equal(t, NodeTerm, leaf.Kind)
	assert.Equal(t, FieldExact, leaf.Field)
}

func TestBuildLastTokenIsPrefixByDefault(t *testing.T) {
	m := Build("laptop", PrefixLast, settingsWithPaths("name"))
	require.Equal(t, NodeConjunction, m.Kind)
	disj := m.Children[0]
	require.Equal(t, NodeDisjunction, disj.Kind)
	leaf := unwrapBoost(disj.Children[0])
	assert.Equal(t, FieldSearch, leaf.Field)
	assert.Equal(t, 1, leaf.Distance) // len >= 4
}

func TestBuildPluralExpansion(t *testing.T) {
	settings := settingsWithPaths("name")
	settings.PluralMap = map[string][]string{"shoe": {"shoe", "shoes"}}
	m := Build("shoe", PrefixNone, settings)
	disj := m.Children[0]
	leaf := unwrapBoost(disj.Children[0])
	require.Equal(t, NodeDisjunction, leaf.Kind)
	require.Len(t, leaf.Children, 2)
}

func unwrapBoost(m *Matcher) *Matcher {
	if m.Kind == NodeBoost {
		return m.Child
	}
	return m
}
