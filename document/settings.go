package document

// Settings holds the per-index configuration consulted by the core but owned
// by an external settings store.
type Settings struct {
	// SearchableAttributes lists dotted field paths in priority order.
	SearchableAttributes []string
	// AttributesForFaceting lists the fields eligible for facet filters and
	// facet counting.
	AttributesForFaceting []string
	// AttributeForDistinct names the distinct-by field, if any.
	AttributeForDistinct string
	// DistinctCount is the default hits-per-distinct-value cap.
	DistinctCount int
	// AttributesToRetrieve is the projection whitelist. A nil slice means
	// "all fields"; an empty (non-nil) slice means "id only".
	AttributesToRetrieve []string
	// PluralMap maps a token to its equivalence class (including itself).
	PluralMap map[string][]string
	// MaxValuesPerFacet bounds facet distribution size. Zero means the
	// index's own default.
	MaxValuesPerFacet int
}

// PathWeight returns the boost multiplier for a searchable path: position 0
// in SearchableAttributes gets the highest weight. Ties never occur because
// SearchableAttributes is a priority-ordered list.
func (s Settings) PathWeight(path string) int {
	for i, p := range s.SearchableAttributes {
		if p == path {
			return len(s.SearchableAttributes) - i
		}
	}
	return 1
}

// IsFacetable reports whether a field is declared in AttributesForFaceting.
func (s Settings) IsFacetable(field string) bool {
	for _, f := range s.AttributesForFaceting {
		if f == field {
			return true
		}
	}
	return false
}

// PluralForms returns every equivalence form of token other than token
// itself, or nil when no plural map entry exists.
func (s Settings) PluralForms(token string) []string {
	forms, ok := s.PluralMap[token]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(forms))
	for _, f := range forms {
		if f != token {
			out = append(out, f)
		}
	}
	return out
}
