// Package legacyfilter folds the three legacy JSON-encoded filter dialects
// (facetFilters, numericFilters, tagFilters) into the filter.Node AST so
// they combine uniformly with the string filter grammar (§4.1).
package legacyfilter

import (
	"strconv"
	"strings"

	"github.com/flapjackhq/flapjack/filter"
)

// ParseFacetFilters folds the facetFilters dialect: a leaf is "[-]field:value";
// an array of leaves AND-combines; a nested array OR-combines its own
// elements before conjuncting with its siblings.
func ParseFacetFilters(raw any) *filter.Node {
	return parseDialect(raw, parseFacetLeaf)
}

// ParseTagFilters folds the tagFilters dialect: every leaf becomes
// Equals(_tags, text), with the same array/nested-array AND/OR structure.
func ParseTagFilters(raw any) *filter.Node {
	return parseDialect(raw, parseTagLeaf)
}

// ParseNumericFilters folds the numericFilters dialect: a leaf is
// "field OP number" with the same operator set as the string grammar.
func ParseNumericFilters(raw any) *filter.Node {
	return parseDialect(raw, parseNumericLeaf)
}

type leafParser func(s string) *filter.Node

// parseDialect walks the generic facet/numeric/tag array shape. Per-leaf
// parse failures silently drop the offending clause (§7) rather than
// failing the request.
func parseDialect(raw any, leaf leafParser) *filter.Node {
	switch v := raw.(type) {
	case string:
		return leaf(v)
	case []any:
		var ands []*filter.Node
		for _, item := range v {
			switch inner := item.(type) {
			case string:
				ands = append(ands, leaf(inner))
			case []any:
				var ors []*filter.Node
				for _, orItem := range inner {
					if s, ok := orItem.(string); ok {
						ors = append(ors, leaf(s))
					}
				}
				ands = append(ands, filter.Or(ors...))
			}
		}
		return filter.And(ands...)
	default:
		return nil
	}
}

func parseFacetLeaf(s string) *filter.Node {
	negate := false
	if strings.HasPrefix(s, "-") {
		negate = true
		s = s[1:]
	}
	field, value, ok := splitOnce(s, ":")
	if !ok {
		return nil
	}
	value = unquote(value)
	node := filter.Equals(field, filter.TextValue(value))
	if negate {
		return filter.Not(node)
	}
	return node
}

func parseTagLeaf(s string) *filter.Node {
	return filter.Tag(unquote(s))
}

func parseNumericLeaf(s string) *filter.Node {
	for _, op := range []struct {
		token string
		build func(string, filter.Value) *filter.Node
	}{
		{">=", filter.GreaterThanOrEqual},
		{"<=", filter.LessThanOrEqual},
		{"!=", filter.NotEquals},
		{">", filter.GreaterThan},
		{"<", filter.LessThan},
		{"=", filter.Equals},
	} {
		field, value, ok := splitOnce(s, op.token)
		if !ok {
			continue
		}
		field = strings.TrimSpace(field)
		value = strings.TrimSpace(value)
		num, err := parseNumber(value)
		if err != nil {
			return nil
		}
		return op.build(field, num)
	}
	return nil
}

func parseNumber(s string) (filter.Value, error) {
	if strings.ContainsAny(s, ".eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return filter.Value{}, err
		}
		return filter.FloatValue(f), nil
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return filter.Value{}, err
	}
	return filter.IntegerValue(i), nil
}

// splitOnce splits s at the first occurrence of sep. It does no trimming;
// callers trim the halves they need (numeric filters trim both).
func splitOnce(s, sep string) (string, string, bool) {
	idx := strings.Index(s, sep)
	if idx < 0 {
		return "", "", false
	}
	return s[:idx], s[idx+len(sep):], true
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
