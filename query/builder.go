package query

import (
	"github.com/flapjackhq/flapjack/document"
)

// Build turns a raw query string into a request-scoped Matcher tree per the
// algorithm in §4.3, grounded on QueryParser::parse in the original
// tokenizer. Empty input yields the identity matcher.
func Build(rawQuery string, queryType QueryType, settings document.Settings) *Matcher {
	tokens, hasTrailingSpace := Tokenize(rawQuery)
	if len(tokens) == 0 {
		return all()
	}

	paths := settings.SearchableAttributes
	if len(paths) == 0 {
		paths = []string{AllPaths}
	}
	weights := make([]int, len(paths))
	for i, p := range paths {
		weights[i] = settings.PathWeight(p)
	}

	// Short single-token case (§4.3).
	if len(tokens) == 1 && runeLen(tokens[0]) <= 2 {
		token := tokens[0]
		if hasTrailingSpace {
			children := make([]*Matcher, 0, len(paths))
			for i, path := range paths {
				leaf := term(path, FieldExact, token, 0)
				children = append(children, boost(leaf, weights[i]))
			}
			return disjunction(children...)
		}
		return shortToken(token, paths, weights)
	}

	lastIdx := len(tokens) - 1
	tokenMatchers := make([]*Matcher, 0, len(tokens))

	for tokenIdx, token := range tokens {
		isLast := tokenIdx == lastIdx
		isPrefix := resolvePrefix(queryType, isLast, hasTrailingSpace)

		if runeLen(token) <= 2 && isPrefix {
			tokenMatchers = append(tokenMatchers, shortToken(token, paths, weights))
			continue
		}

		variant := FieldExact
		if isPrefix {
			variant = FieldSearch
		}

		distance := 0
		if runeLen(token) >= 4 {
			distance = 1
		}

		pluralForms := settings.PluralForms(token)

		pathMatchers := make([]*Matcher, 0, len(paths))
		for i, path := range paths {
			leaf := term(path, variant, token, distance)
			if len(pluralForms) > 0 {
				disjuncts := make([]*Matcher, 0, len(pluralForms)+1)
				disjuncts = append(disjuncts, leaf)
				for _, plural := range pluralForms {
					disjuncts = append(disjuncts, term(path, variant, plural, 0))
				}
				leaf = disjunction(disjuncts...)
			}
			pathMatchers = append(pathMatchers, boost(leaf, weights[i]))
		}
		tokenMatchers = append(tokenMatchers, disjunction(pathMatchers...))
	}

	return conjunction(tokenMatchers...)
}

func resolvePrefix(qt QueryType, isLast, hasTrailingSpace bool) bool {
	switch qt {
	case PrefixAll:
		return true
	case PrefixNone:
		return false
	default: // PrefixLast
		return isLast && !hasTrailingSpace
	}
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
