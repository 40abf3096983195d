// Package highlighter implements the multi-strategy text highlighter of
// §4.5: exact substring, split-form, concat-form, and per-word fuzzy
// matching, merged into non-overlapping spans. Grounded directly on
// flapjack's original highlighter (src/query/highlighter.rs).
package highlighter

import (
	"sort"
	"strings"

	"github.com/flapjackhq/flapjack/document"
)

// MatchLevel classifies how completely a highlight matched the query.
type MatchLevel int

const (
	MatchNone MatchLevel = iota
	MatchPartial
	MatchFull
)

func (m MatchLevel) String() string {
	switch m {
	case MatchFull:
		return "full"
	case MatchPartial:
		return "partial"
	default:
		return "none"
	}
}

// Result is the highlight outcome for one text value (§3 "Highlight
// result").
type Result struct {
	Value            string
	MatchLevel       MatchLevel
	MatchedWords     []string
	FullyHighlighted *bool
}

// ValueKind tags a Value variant: a single field, an array of fields, or a
// nested object of fields.
type ValueKind int

const (
	ValueSingle ValueKind = iota
	ValueArray
	ValueObject
)

// Value is the recursive highlight output shape mirroring document.FieldValue
// (§3): single / array / object.
type Value struct {
	Kind   ValueKind
	Single Result
	Array  []Result
	Object map[string]Value
}

// Highlighter applies pre/post markers around matched spans.
type Highlighter struct {
	PreTag  string
	PostTag string
}

// New builds a Highlighter with the default <em>/</em> markers.
func New() Highlighter {
	return Highlighter{PreTag: "<em>", PostTag: "</em>"}
}

// HighlightDocument runs highlight_field_value over every non-id field of
// doc whose name is, or is nested under, a searchable path. An empty
// searchablePaths list is treated as "every field is searchable".
func (h Highlighter) HighlightDocument(doc *document.Document, queryWords []string, searchablePaths []string) map[string]Value {
	result := make(map[string]Value)
	for _, name := range doc.FieldOrder {
		if name == "objectID" {
			continue
		}
		if !isSearchable(name, searchablePaths) {
			continue
		}
		result[name] = h.highlightFieldValue(doc.Fields[name], queryWords, name, searchablePaths)
	}
	return result
}

func isSearchable(fieldName string, searchablePaths []string) bool {
	if len(searchablePaths) == 0 {
		return true
	}
	for _, p := range searchablePaths {
		if p == fieldName || strings.HasPrefix(fieldName, p+".") {
			return true
		}
	}
	return false
}

func (h Highlighter) highlightFieldValue(v document.FieldValue, queryWords []string, fieldPath string, searchablePaths []string) Value {
	switch v.Kind {
	case document.KindText:
		return Value{Kind: ValueSingle, Single: h.highlightText(v.Text, queryWords)}
	case document.KindArray:
		results := make([]Result, len(v.Array))
		for i, item := range v.Array {
			if item.Kind == document.KindText {
				results[i] = h.highlightText(item.Text, queryWords)
			} else {
				results[i] = noMatch(item.AsString())
			}
		}
		return Value{Kind: ValueArray, Array: results}
	case document.KindObject:
		obj := make(map[string]Value, len(v.Object))
		for k, nested := range v.Object {
			obj[k] = h.highlightFieldValue(nested, queryWords, fieldPath+"."+k, searchablePaths)
		}
		return Value{Kind: ValueObject, Object: obj}
	default:
		return Value{Kind: ValueSingle, Single: noMatch(v.AsString())}
	}
}

type span struct{ start, end int }

func (h Highlighter) highlightText(text string, queryWords []string) Result {
	textLower := strings.ToLower(text)
	var matchedWords []string
	var positions []span

	// 1. Exact substring matching.
	for _, word := range queryWords {
		wordLower := strings.ToLower(word)
		if wordLower == "" {
			continue
		}
		start := 0
		for {
			idx := strings.Index(textLower[start:], wordLower)
			if idx < 0 {
				break
			}
			abs := start + idx
			matchedWords = append(matchedWords, word)
			positions = append(positions, span{abs, abs + len(wordLower)})
			start = abs + len(wordLower)
		}
	}

	// 2. Split forms: query word >= 4 codepoints, insert a space at each
	// split position with suffix length >= 2.
	for _, word := range queryWords {
		wordLower := strings.ToLower(word)
		chars := []rune(wordLower)
		if len(chars) < 4 {
			continue
		}
		for splitPos := 2; splitPos < len(chars)-1; splitPos++ {
			first := string(chars[:splitPos])
			second := string(chars[splitPos:])
			if len(second) < 2 {
				continue
			}
			splitForm := first + " " + second
			start := 0
			for {
				idx := strings.Index(textLower[start:], splitForm)
				if idx < 0 {
					break
				}
				abs := start + idx
				matchedWords = append(matchedWords, word)
				positions = append(positions, span{abs, abs + len(splitForm)})
				start = abs + len(splitForm)
			}
		}
	}

	// 3. Concat forms: adjacent query word pairs.
	if len(queryWords) >= 2 {
		for i := 0; i < len(queryWords)-1; i++ {
			concat := strings.ToLower(queryWords[i]) + strings.ToLower(queryWords[i+1])
			start := 0
			for {
				idx := strings.Index(textLower[start:], concat)
				if idx < 0 {
					break
				}
				abs := start + idx
				matchedWords = append(matchedWords, queryWords[i], queryWords[i+1])
				positions = append(positions, span{abs, abs + len(concat)})
				start = abs + len(concat)
			}
		}
	}

	textWords := alphanumericWords(text)

	// 4. Per-word-boundary fuzzy matching.
	for _, tw := range textWords {
		textWordLower := strings.ToLower(tw.text)
		for _, queryWord := range queryWords {
			queryLower := strings.ToLower(queryWord)
			if runeCount(queryLower) >= 4 && runeCount(textWordLower) >= 4 {
				distance := DamerauLevenshtein(queryLower, textWordLower)
				maxDistance := 1
				if runeCount(queryLower) >= 8 {
					maxDistance = 2
				}
				if distance <= maxDistance && distance > 0 {
					matchedWords = append(matchedWords, queryWord)
					highlightLen := min(len(queryLower), len(tw.text))
					positions = append(positions, span{tw.start, tw.start + highlightLen})
				} else if runeCount(textWordLower) > runeCount(queryLower) {
					prefix := runePrefix(textWordLower, runeCount(queryLower))
					prefixDistance := DamerauLevenshtein(queryLower, prefix)
					if prefixDistance <= maxDistance {
						matchedWords = append(matchedWords, queryWord)
						end := runeByteOffset(tw.text, runeCount(queryLower))
						positions = append(positions, span{tw.start, tw.start + end})
					}
				}
				if runeCount(queryLower) >= 4 {
					queryRunes := []rune(queryLower)
					querySuffix := string(queryRunes[1:])
					suffixLen := runeCount(querySuffix)
					if runeCount(textWordLower) >= suffixLen && suffixLen >= 3 {
						textPrefix := runePrefix(textWordLower, suffixLen)
						suffixDistance := DamerauLevenshtein(querySuffix, textPrefix)
						if suffixDistance <= 1 {
							matchedWords = append(matchedWords, queryWord)
							end := runeByteOffset(tw.text, suffixLen)
							positions = append(positions, span{tw.start, tw.start + end})
						}
					}
				}
			}
		}
	}

	if len(matchedWords) == 0 {
		return noMatch(text)
	}

	sort.Slice(positions, func(i, j int) bool { return positions[i].start < positions[j].start })
	positions = dedupeSpans(positions)
	merged := mergePositions(positions)

	highlighted := applyHighlights(text, merged, h.PreTag, h.PostTag)

	unique := map[string]struct{}{}
	for _, w := range matchedWords {
		unique[w] = struct{}{}
	}
	level := MatchPartial
	if len(unique) == len(queryWords) {
		level = MatchFull
	}

	totalMatchLen := 0
	for _, s := range merged {
		totalMatchLen += s.end - s.start
	}
	fully := totalMatchLen >= len(text)

	sort.Strings(matchedWords)
	matchedWords = dedupeStrings(matchedWords)

	return Result{
		Value:            highlighted,
		MatchLevel:       level,
		MatchedWords:     matchedWords,
		FullyHighlighted: &fully,
	}
}

type textWord struct {
	start int
	text  string
}

func alphanumericWords(text string) []textWord {
	var words []textWord
	currentStart := -1
	for i, r := range text {
		if !isAlphanumeric(r) {
			if currentStart >= 0 {
				words = append(words, textWord{currentStart, text[currentStart:i]})
				currentStart = -1
			}
			continue
		}
		if currentStart < 0 {
			currentStart = i
		}
	}
	if currentStart >= 0 {
		words = append(words, textWord{currentStart, text[currentStart:]})
	}
	return words
}

func isAlphanumeric(r rune) bool {
	return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') || r > 127
}

func mergePositions(positions []span) []span {
	if len(positions) == 0 {
		return nil
	}
	merged := []span{positions[0]}
	for _, s := range positions[1:] {
		last := &merged[len(merged)-1]
		if s.start <= last.end {
			if s.end > last.end {
				last.end = s.end
			}
		} else {
			merged = append(merged, s)
		}
	}
	return merged
}

func applyHighlights(text string, positions []span, preTag, postTag string) string {
	if len(positions) == 0 {
		return text
	}
	var b strings.Builder
	lastEnd := 0
	for _, s := range positions {
		if s.start < lastEnd {
			continue
		}
		b.WriteString(text[lastEnd:s.start])
		b.WriteString(preTag)
		b.WriteString(text[s.start:s.end])
		b.WriteString(postTag)
		lastEnd = s.end
	}
	b.WriteString(text[lastEnd:])
	return b.String()
}

func noMatch(value string) Result {
	return Result{Value: value, MatchLevel: MatchNone}
}

func dedupeSpans(spans []span) []span {
	out := spans[:0:0]
	seen := map[span]bool{}
	for _, s := range spans {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func dedupeStrings(words []string) []string {
	out := words[:0:0]
	var prev string
	for i, w := range words {
		if i == 0 || w != prev {
			out = append(out, w)
		}
		prev = w
	}
	return out
}

func runeCount(s string) int {
	return len([]rune(s))
}

func runePrefix(s string, n int) string {
	r := []rune(s)
	if n > len(r) {
		n = len(r)
	}
	return string(r[:n])
}

func runeByteOffset(s string, runeIdx int) int {
	count := 0
	for i := range s {
		if count == runeIdx {
			return i
		}
		count++
	}
	return len(s)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
