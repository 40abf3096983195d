package osindex

import (
	"github.com/flapjackhq/flapjack/document"
	"github.com/flapjackhq/flapjack/filter"
	"github.com/flapjackhq/flapjack/query"
)

// translateMatcher lowers the matcher tree into the OpenSearch query DSL.
// Conjunctions become bool.must, disjunctions bool.should, boosts a
// wrapping bool with a boost factor. Term leaves target the analyzed parent
// field; prefix semantics use match_phrase_prefix (single-term phrase
// prefix, i.e. any token with that prefix), fuzzy leaves add a fuzzy clause.
// Short-token placeholders expand to per-path prefix clauses right here —
// the term-dictionary enumeration contract is satisfied by the engine's own
// inverted index.
func translateMatcher(m *query.Matcher) *Query {
	if m == nil {
		return matchAll()
	}
	switch m.Kind {
	case query.NodeAll:
		return matchAll()
	case query.NodeConjunction:
		must := make([]Query, 0, len(m.Children))
		for _, c := range m.Children {
			must = append(must, *translateMatcher(c))
		}
		return &Query{Bool: &Bool{Must: must}}
	case query.NodeDisjunction:
		should := make([]Query, 0, len(m.Children))
		for _, c := range m.Children {
			should = append(should, *translateMatcher(c))
		}
		return &Query{Bool: &Bool{Should: should, MinimumShouldMatch: 1}}
	case query.NodeBoost:
		return &Query{Bool: &Bool{
			Must:  []Query{*translateMatcher(m.Child)},
			Boost: boostPtr(m.Weight),
		}}
	case query.NodeTerm:
		return translateTerm(m)
	case query.NodeShortToken:
		return translateShortToken(m)
	default:
		return matchAll()
	}
}

func translateTerm(m *query.Matcher) *Query {
	var should []Query
	if m.Path == query.AllPaths {
		// No searchable attributes configured: search every field through
		// a multi_match, with fuzziness folded in rather than a separate
		// clause.
		mm := map[string]any{"query": m.Token, "fields": []string{"*"}}
		if m.Field == query.FieldSearch {
			mm["type"] = "phrase_prefix"
		}
		should = append(should, Query{MultiMatch: mm})
		if m.Distance > 0 {
			should = append(should, Query{MultiMatch: map[string]any{
				"query":     m.Token,
				"fields":    []string{"*"},
				"fuzziness": m.Distance,
			}})
		}
	} else {
		if m.Field == query.FieldSearch {
			should = append(should, Query{
				MatchPhrasePrefix: map[string]Match{m.Path: {Query: m.Token}},
			})
		} else {
			should = append(should, Query{
				Match: map[string]Match{m.Path: {Query: m.Token}},
			})
		}
		if m.Distance > 0 {
			should = append(should, Query{
				Fuzzy: map[string]Fuzzy{m.Path: {Value: m.Token, Fuzziness: m.Distance}},
			})
		}
	}
	if len(should) == 1 {
		return &should[0]
	}
	return &Query{Bool: &Bool{Should: should, MinimumShouldMatch: 1}}
}

func translateShortToken(m *query.Matcher) *Query {
	should := make([]Query, 0, len(m.Paths))
	for i, path := range m.Paths {
		weight := 1
		if i < len(m.Weights) {
			weight = m.Weights[i]
		}
		if path == query.AllPaths {
			should = append(should, Query{MultiMatch: map[string]any{
				"query":  m.Token,
				"fields": []string{"*"},
				"type":   "phrase_prefix",
			}})
			continue
		}
		should = append(should, Query{
			MatchPhrasePrefix: map[string]Match{path: {Query: m.Token, Boost: boostPtr(weight)}},
		})
	}
	return &Query{Bool: &Bool{Should: should, MinimumShouldMatch: 1}}
}

// translateFilter lowers the filter AST. Text equality targets the .exact
// keyword subfield (the reserved _tags field is already a keyword);
// numeric comparisons use term and range clauses on the typed field.
func translateFilter(n *filter.Node) *Query {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case filter.NodeAnd:
		clauses := make([]Query, 0, len(n.Children))
		for _, c := range n.Children {
			if q := translateFilter(c); q != nil {
				clauses = append(clauses, *q)
			}
		}
		return &Query{Bool: &Bool{Filter: clauses}}
	case filter.NodeOr:
		should := make([]Query, 0, len(n.Children))
		for _, c := range n.Children {
			if q := translateFilter(c); q != nil {
				should = append(should, *q)
			}
		}
		return &Query{Bool: &Bool{Should: should, MinimumShouldMatch: 1}}
	case filter.NodeNot:
		child := translateFilter(n.Child)
		if child == nil {
			return nil
		}
		return &Query{Bool: &Bool{MustNot: []Query{*child}}}
	case filter.NodeCompare:
		return translateCompare(n)
	default:
		return nil
	}
}

func translateCompare(n *filter.Node) *Query {
	if n.Value.Kind == filter.ValueText {
		field := exactField(n.Field)
		if n.Field == document.ReservedTagsField {
			field = n.Field
		}
		eq := Query{Term: map[string]any{field: n.Value.Text}}
		if n.Op == filter.OpNotEquals {
			return &Query{Bool: &Bool{MustNot: []Query{eq}}}
		}
		return &eq
	}

	num := n.Value.Float
	if n.Value.Kind == filter.ValueInteger {
		num = float64(n.Value.Integer)
	}

	switch n.Op {
	case filter.OpEquals:
		return &Query{Term: map[string]any{n.Field: num}}
	case filter.OpNotEquals:
		return &Query{Bool: &Bool{MustNot: []Query{{Term: map[string]any{n.Field: num}}}}}
	case filter.OpGreaterThan:
		return &Query{Range: map[string]Range{n.Field: {Gt: &num}}}
	case filter.OpGreaterThanOrEqual:
		return &Query{Range: map[string]Range{n.Field: {Gte: &num}}}
	case filter.OpLessThan:
		return &Query{Range: map[string]Range{n.Field: {Lt: &num}}}
	case filter.OpLessThanOrEqual:
		return &Query{Range: map[string]Range{n.Field: {Lte: &num}}}
	default:
		return nil
	}
}
