package searchindex

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/flapjackhq/flapjack/document"
	"github.com/flapjackhq/flapjack/filter"
	"github.com/flapjackhq/flapjack/query"
)

// MemoryIndex is a reference Index implementation that evaluates the filter
// AST and matcher tree directly against an in-memory document set. It
// exists to exercise the orchestrator end-to-end in tests without an
// external engine; production deployments use package osindex.
type MemoryIndex struct {
	mu       sync.RWMutex
	tenants  map[string]*tenant
}

type tenant struct {
	mu       sync.RWMutex
	docs     map[string]*document.Document
	settings document.Settings
}

// NewMemoryIndex builds an empty reference index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{tenants: map[string]*tenant{}}
}

// SetSettings installs the settings snapshot a tenant's searches use, the
// way settingsstore would project one for production use.
func (m *MemoryIndex) SetSettings(indexName string, settings document.Settings) {
	t := m.tenantFor(indexName)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.settings = settings
}

func (m *MemoryIndex) tenantFor(indexName string) *tenant {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[indexName]
	if !ok {
		t = &tenant{docs: map[string]*document.Document{}}
		m.tenants[indexName] = t
	}
	return t
}

func (m *MemoryIndex) CreateTenant(_ context.Context, indexName string) error {
	m.tenantFor(indexName)
	return nil
}

func (m *MemoryIndex) DeleteTenant(_ context.Context, indexName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tenants, indexName)
	return nil
}

func (m *MemoryIndex) GetSettings(_ context.Context, indexName string) (document.Settings, error) {
	t := m.tenantFor(indexName)
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.settings, nil
}

func (m *MemoryIndex) AddDocuments(_ context.Context, indexName string, docs []*document.Document) error {
	t := m.tenantFor(indexName)
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, d := range docs {
		t.docs[d.ObjectID] = d
	}
	return nil
}

func (m *MemoryIndex) DeleteDocumentsSync(_ context.Context, indexName string, objectIDs []string) error {
	t := m.tenantFor(indexName)
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range objectIDs {
		delete(t.docs, id)
	}
	return nil
}

func (m *MemoryIndex) GetDocument(_ context.Context, indexName, objectID string) (*document.Document, bool, error) {
	t := m.tenantFor(indexName)
	t.mu.RLock()
	defer t.mu.RUnlock()
	d, ok := t.docs[objectID]
	return d, ok, nil
}

func (m *MemoryIndex) ResolveShortToken(_ context.Context, indexName, token string, paths []string, weights []int) ([]string, error) {
	t := m.tenantFor(indexName)
	t.mu.RLock()
	defer t.mu.RUnlock()
	var matches []string
	tokenLower := strings.ToLower(token)
	for _, d := range t.docs {
		for _, path := range paths {
			for _, v := range textFieldsFor(d, path) {
				for _, word := range strings.Fields(strings.ToLower(v.Text)) {
					if strings.HasPrefix(word, tokenLower) {
						matches = append(matches, query.TermKey(path, word))
					}
				}
			}
		}
	}
	return matches, nil
}

func (m *MemoryIndex) Search(_ context.Context, req SearchRequest) (SearchResult, error) {
	t := m.tenantFor(req.Index)
	t.mu.RLock()
	docs := make([]*document.Document, 0, len(t.docs))
	for _, d := range t.docs {
		docs = append(docs, d)
	}
	t.mu.RUnlock()

	var scored []ScoredDocument
	for _, d := range docs {
		if req.Filter != nil && !evalFilter(req.Filter, d) {
			continue
		}
		score, matched := evalMatcher(req.Matcher, d)
		if !matched {
			continue
		}
		scored = append(scored, ScoredDocument{Document: d, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	for _, s := range req.Sort {
		field := s.Field
		ascending := s.Ascending
		sort.SliceStable(scored, func(i, j int) bool {
			vi, _ := scored[i].Document.Get(field)
			vj, _ := scored[j].Document.Get(field)
			less := compareFieldValues(vi, vj)
			if ascending {
				return less < 0
			}
			return less > 0
		})
	}

	total := len(scored)
	facets := computeFacets(scored, req.Facets)

	from := req.Offset
	if from > len(scored) {
		from = len(scored)
	}
	to := from + req.Limit
	if req.Limit <= 0 || to > len(scored) {
		to = len(scored)
	}

	return SearchResult{
		Hits:       scored[from:to],
		TotalHits:  total,
		Exhaustive: true,
		Facets:     facets,
	}, nil
}

func computeFacets(scored []ScoredDocument, requests []FacetRequest) map[string][]FacetCount {
	if len(requests) == 0 {
		return nil
	}
	out := make(map[string][]FacetCount, len(requests))
	for _, fr := range requests {
		counts := map[string]int{}
		for _, s := range scored {
			v, ok := s.Document.Get(fr.Field)
			if !ok {
				continue
			}
			value := v.AsString()
			if v.Kind == document.KindArray {
				for _, item := range v.Array {
					counts[item.AsString()]++
				}
				continue
			}
			counts[value]++
		}
		var list []FacetCount
		for value, count := range counts {
			list = append(list, FacetCount{Value: value, Count: count})
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].Count != list[j].Count {
				return list[i].Count > list[j].Count
			}
			return list[i].Value < list[j].Value
		})
		if fr.MaxValues > 0 && len(list) > fr.MaxValues {
			list = list[:fr.MaxValues]
		}
		out[fr.Field] = list
	}
	return out
}

func compareFieldValues(a, b document.FieldValue) int {
	as, bs := a.AsString(), b.AsString()
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func evalFilter(n *filter.Node, d *document.Document) bool {
	if n == nil {
		return true
	}
	switch n.Kind {
	case filter.NodeAnd:
		for _, c := range n.Children {
			if !evalFilter(c, d) {
				return false
			}
		}
		return true
	case filter.NodeOr:
		for _, c := range n.Children {
			if evalFilter(c, d) {
				return true
			}
		}
		return false
	case filter.NodeNot:
		return !evalFilter(n.Child, d)
	case filter.NodeCompare:
		return evalCompare(n, d)
	default:
		return true
	}
}

func evalCompare(n *filter.Node, d *document.Document) bool {
	if n.Field == document.ReservedTagsField {
		for _, tag := range d.Tags() {
			if tag == n.Value.Text {
				return n.Op == filter.OpEquals
			}
		}
		return n.Op == filter.OpNotEquals
	}

	v, ok := d.Get(n.Field)
	if !ok {
		return false
	}

	switch n.Value.Kind {
	case filter.ValueText:
		var text string
		switch v.Kind {
		case document.KindText:
			text = v.Text
		case document.KindFacet:
			text = v.Facet
		default:
			return false
		}
		switch n.Op {
		case filter.OpEquals:
			return text == n.Value.Text
		case filter.OpNotEquals:
			return text != n.Value.Text
		default:
			return false
		}
	case filter.ValueInteger, filter.ValueFloat:
		var num float64
		switch v.Kind {
		case document.KindInteger:
			num = float64(v.Integer)
		case document.KindFloat:
			num = v.Float
		case document.KindDate:
			num = float64(v.Date)
		default:
			return false
		}
		target := n.Value.Float
		if n.Value.Kind == filter.ValueInteger {
			target = float64(n.Value.Integer)
		}
		switch n.Op {
		case filter.OpEquals:
			return num == target
		case filter.OpNotEquals:
			return num != target
		case filter.OpGreaterThan:
			return num > target
		case filter.OpGreaterThanOrEqual:
			return num >= target
		case filter.OpLessThan:
			return num < target
		case filter.OpLessThanOrEqual:
			return num <= target
		}
	}
	return false
}

func evalMatcher(m *query.Matcher, d *document.Document) (float64, bool) {
	if m == nil {
		return 1, true
	}
	switch m.Kind {
	case query.NodeAll:
		return 1, true
	case query.NodeConjunction:
		total := 0.0
		for _, c := range m.Children {
			score, ok := evalMatcher(c, d)
			if !ok {
				return 0, false
			}
			total += score
		}
		return total, true
	case query.NodeDisjunction:
		best := 0.0
		matched := false
		for _, c := range m.Children {
			score, ok := evalMatcher(c, d)
			if ok {
				matched = true
				if score > best {
					best = score
				}
			}
		}
		return best, matched
	case query.NodeBoost:
		score, ok := evalMatcher(m.Child, d)
		return score * float64(m.Weight), ok
	case query.NodeTerm:
		return evalTerm(m, d)
	case query.NodeShortToken:
		return evalShortToken(m, d)
	default:
		return 0, false
	}
}

// textFieldsFor resolves a matcher path against a document: the wildcard
// path expands to every text field.
func textFieldsFor(d *document.Document, path string) []document.FieldValue {
	if path != query.AllPaths {
		v, ok := d.Get(path)
		if !ok || v.Kind != document.KindText {
			return nil
		}
		return []document.FieldValue{v}
	}
	var out []document.FieldValue
	for _, name := range d.FieldOrder {
		if v := d.Fields[name]; v.Kind == document.KindText {
			out = append(out, v)
		}
	}
	return out
}

func evalTerm(m *query.Matcher, d *document.Document) (float64, bool) {
	tokenLower := strings.ToLower(m.Token)
	for _, v := range textFieldsFor(d, m.Path) {
		for _, word := range strings.Fields(strings.ToLower(v.Text)) {
			if m.Field == query.FieldSearch {
				if strings.HasPrefix(word, tokenLower) {
					return 1, true
				}
			}
			if word == tokenLower {
				return 1, true
			}
			if m.Distance > 0 {
				if editDistanceWithinBound(tokenLower, word, m.Distance) {
					return 1, true
				}
			}
		}
	}
	return 0, false
}

func evalShortToken(m *query.Matcher, d *document.Document) (float64, bool) {
	tokenLower := strings.ToLower(m.Token)
	for i, path := range m.Paths {
		for _, v := range textFieldsFor(d, path) {
			for _, word := range strings.Fields(strings.ToLower(v.Text)) {
				if strings.HasPrefix(word, tokenLower) {
					weight := 1.0
					if i < len(m.Weights) {
						weight = float64(m.Weights[i])
					}
					return weight, true
				}
			}
		}
	}
	return 0, false
}

// editDistanceWithinBound is a cheap bounded Levenshtein check used only by
// the reference in-memory matcher; production fuzzy matching is delegated
// to the external index's own term dictionary (§9).
func editDistanceWithinBound(a, b string, bound int) bool {
	if abs(len(a)-len(b)) > bound {
		return false
	}
	d := make([]int, len(b)+1)
	for j := range d {
		d[j] = j
	}
	for i := 1; i <= len(a); i++ {
		prev := d[0]
		d[0] = i
		for j := 1; j <= len(b); j++ {
			temp := d[j]
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			d[j] = min3i(d[j]+1, d[j-1]+1, prev+cost)
			prev = temp
		}
	}
	return d[len(b)] <= bound
}

func min3i(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
