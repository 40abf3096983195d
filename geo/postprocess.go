package geo

import "sort"

// Candidate is one result the external index returned, carrying whatever
// opaque payload the caller needs to project/highlight later.
type Candidate[T any] struct {
	Item     T
	Points   []Center
	Distance float64 // set by the post-processor once a best point is chosen
	Bucket   float64 // bucketed distance, set when precision is active
}

// FilterPoint reports whether (lat,lng) passes the resolved geo params:
// inside any bounding box or polygon, OR (in around mode) within the
// effective radius of the center when one is set. With hasRadius false (the
// "all" sentinel, or an automatic radius not yet applied) every point passes
// in around mode and effectiveRadius is ignored.
func (p Params) FilterPoint(lat, lng float64, effectiveRadius float64, hasRadius bool) bool {
	for _, b := range p.BoundingBoxes {
		if b.Contains(lat, lng) {
			return true
		}
	}
	for _, poly := range p.Polygons {
		if poly.Contains(lat, lng) {
			return true
		}
	}
	if p.Around != nil {
		if !hasRadius {
			return true
		}
		d := HaversineMeters(*p.Around, Center{Lat: lat, Lng: lng})
		return d <= effectiveRadius
	}
	return false
}

// BestPoint picks, among a document's geo points, the one passing
// FilterPoint with minimum distance to the center (around mode), or the
// first passing point (region-only mode). ok is false when no point passes.
func (p Params) BestPoint(points []Center, effectiveRadius float64, hasRadius bool) (Center, float64, bool) {
	var best Center
	bestDist := 0.0
	found := false
	for _, pt := range points {
		if !p.FilterPoint(pt.Lat, pt.Lng, effectiveRadius, hasRadius) {
			continue
		}
		if p.Around == nil {
			return pt, 0, true
		}
		d := HaversineMeters(*p.Around, pt)
		if !found || d < bestDist {
			best, bestDist, found = pt, d, true
		}
	}
	return best, bestDist, found
}

// densityTarget is the max candidate count examined when computing the
// automatic radius (§4.4 step 7).
const densityTarget = 1000

// AutomaticRadius computes the effective radius when around mode is active
// and no explicit radius was requested: sort candidates by distance, take
// min(1000, total) as the density target, and use that candidate's
// distance as the radius, applying the MinimumAroundRadius floor.
func AutomaticRadius(distances []float64, minimum *float64) float64 {
	if len(distances) == 0 {
		return 0
	}
	sorted := append([]float64(nil), distances...)
	sort.Float64s(sorted)
	idx := len(sorted)
	if idx > densityTarget {
		idx = densityTarget
	}
	radius := sorted[idx-1]
	if minimum != nil && *minimum > radius {
		radius = *minimum
	}
	return radius
}

// radiusTolerance is the +1m slack applied when retaining candidates within
// the automatic radius (§4.4 step 7, §8 invariant).
const radiusTolerance = 1.0

// WithinAutomaticRadius reports whether distance is retained under the
// automatic radius plus its 1m tolerance.
func WithinAutomaticRadius(distance, radius float64) bool {
	return distance <= radius+radiusTolerance
}

// Bucket divides a distance by the active precision bucket size. Fixed
// precision uses FixedPrecision directly; range precision finds the last
// rule whose From <= distance (rules are expected ascending by From).
func (p Params) Bucket(distance float64) float64 {
	switch p.PrecisionMode {
	case PrecisionFixed:
		if p.FixedPrecision <= 0 {
			return distance
		}
		return distance / p.FixedPrecision
	case PrecisionRanges:
		bucket := 0.0
		for _, rule := range p.PrecisionRules {
			if distance >= rule.From {
				bucket = rule.Value
			}
		}
		if bucket <= 0 {
			return distance
		}
		return distance / bucket
	default:
		return distance
	}
}

// SortCandidates orders candidates by bucketed distance when precision is
// active, otherwise by raw distance (§4.4 step 7 "Precision sort").
func (p Params) SortCandidates(distances []float64) []int {
	idx := make([]int, len(distances))
	keys := make([]float64, len(distances))
	for i := range distances {
		idx[i] = i
		if p.PrecisionMode == PrecisionNone {
			keys[i] = distances[i]
		} else {
			keys[i] = p.Bucket(distances[i])
		}
	}
	sort.SliceStable(idx, func(a, b int) bool { return keys[idx[a]] < keys[idx[b]] })
	return idx
}
