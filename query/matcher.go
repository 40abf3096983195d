package query

// QueryType selects how the last/every/no token is treated as a prefix
// (§4.3).
type QueryType int

const (
	PrefixLast QueryType = iota // default: only the last token, and only without a trailing space
	PrefixAll
	PrefixNone
)

// NodeKind tags a Matcher variant. The set is closed (§9 "Dynamic trait
// objects" — the closed sum is preferred here because the variants are
// bounded).
type NodeKind int

const (
	NodeAll        NodeKind = iota // identity matcher: matches every document
	NodeConjunction                // AND of children (across tokens)
	NodeDisjunction                // OR of children (across searchable paths)
	NodeTerm                       // leaf: term on (path, field variant) with optional fuzzy distance
	NodeShortToken                 // leaf: short-token placeholder, resolved by the index
	NodeBoost                      // decorates a child with a weight multiplier
)

// FieldVariant selects which of the index's two analyzer variants a Term
// leaf targets (§4.3: "the external index is expected to expose two
// analyzer variants").
type FieldVariant int

const (
	FieldSearch FieldVariant = iota // prefix-enabled variant
	FieldExact                      // exact-match variant
)

// Matcher is the closed-sum query matcher tree (§3 "Query matcher").
type Matcher struct {
	Kind NodeKind

	// NodeConjunction / NodeDisjunction
	Children []*Matcher

	// NodeTerm
	Path     string
	Field    FieldVariant
	Token    string // the literal token text this leaf was built for
	Distance int    // bounded edit distance; 0 means exact-only

	// NodeShortToken
	Paths   []string
	Weights []int

	// NodeBoost
	Child  *Matcher
	Weight int
}

// AllPaths is the wildcard path a matcher carries when an index has no
// searchable attributes configured: every text field is searchable, with
// uniform weight. Index implementations expand it against their own field
// inventory.
const AllPaths = "*"

// TermKey builds the path-qualified term key the external index looks up:
// "{path}\0s{token}" (§4.3).
func TermKey(path, token string) string {
	return path + "\x00s" + token
}

func all() *Matcher { return &Matcher{Kind: NodeAll} }

func conjunction(children ...*Matcher) *Matcher {
	return &Matcher{Kind: NodeConjunction, Children: children}
}

func disjunction(children ...*Matcher) *Matcher {
	return &Matcher{Kind: NodeDisjunction, Children: children}
}

func boost(child *Matcher, weight int) *Matcher {
	if weight == 1 {
		return child
	}
	return &Matcher{Kind: NodeBoost, Child: child, Weight: weight}
}

func term(path string, field FieldVariant, token string, distance int) *Matcher {
	return &Matcher{Kind: NodeTerm, Path: path, Field: field, Token: token, Distance: distance}
}

func shortToken(token string, paths []string, weights []int) *Matcher {
	return &Matcher{Kind: NodeShortToken, Token: token, Paths: paths, Weights: weights}
}
