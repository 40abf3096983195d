package filter

// Combine ANDs together the non-nil parts from up to the four parallel
// filter specifications a request carries (§4.1): the string filter plus
// the three legacy dialects (folded to *Node by package legacyfilter before
// reaching here). Zero non-nil parts yields nil (no filter applied).
func Combine(parts ...*Node) *Node {
	return And(parts...)
}

// AndForcedFilter ANDs a secured key's forced filter onto an already parsed
// request filter (§4.1, §8 scenario 6). The forced filter itself must
// already have been parsed by the caller; pass the resulting node. The
// search orchestrator does not call it: it joins the two filter strings
// before parsing.
func AndForcedFilter(request, forced *Node) *Node {
	return And(request, forced)
}
