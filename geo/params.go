// Package geo resolves the overlapping geo request parameters into a single
// normalized set (§4.2) and post-processes candidate documents against it
// (§4.4 step 7): point-in-region / around-center filtering, automatic
// density radius, haversine distance, and precision bucketing.
package geo

import (
	"math"
	"strconv"
	"strings"
)

// EarthRadiusMeters is the sphere radius used by the haversine formula.
const EarthRadiusMeters = 6371000.0

// Center is a lat/lng pair.
type Center struct {
	Lat float64
	Lng float64
}

// BoundingBox is (lat1, lng1, lat2, lng2): two opposite corners.
type BoundingBox struct {
	Lat1, Lng1, Lat2, Lng2 float64
}

// Contains reports whether (lat, lng) falls within the box, tolerating
// either corner ordering.
func (b BoundingBox) Contains(lat, lng float64) bool {
	minLat, maxLat := minmax(b.Lat1, b.Lat2)
	minLng, maxLng := minmax(b.Lng1, b.Lng2)
	return lat >= minLat && lat <= maxLat && lng >= minLng && lng <= maxLng
}

func minmax(a, b float64) (float64, float64) {
	if a <= b {
		return a, b
	}
	return b, a
}

// Polygon is an ordered list of vertices (lat, lng pairs, even-count flat
// list on the wire); Contains uses the standard ray-casting algorithm.
type Polygon struct {
	Points []Center
}

func (p Polygon) Contains(lat, lng float64) bool {
	n := len(p.Points)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		pi, pj := p.Points[i], p.Points[j]
		if (pi.Lng > lng) != (pj.Lng > lng) {
			slope := (pj.Lat - pi.Lat) * (lng - pi.Lng) / (pj.Lng - pi.Lng)
			if lat < pi.Lat+slope {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// PrecisionMode selects how aroundPrecision was specified.
type PrecisionMode int

const (
	PrecisionNone PrecisionMode = iota
	PrecisionFixed
	PrecisionRanges
)

// PrecisionRule is one (from-distance, bucket) rule in a precision range
// list; rules apply in order, the last with From <= distance wins.
type PrecisionRule struct {
	From  float64
	Value float64
}

// Params is the normalized geo request (§3 "Geo resolved parameters").
type Params struct {
	Around              *Center
	AroundRadiusAll     bool // "all" sentinel: unbounded, never triggers automatic radius
	AroundRadiusMeters  *float64
	BoundingBoxes       []BoundingBox
	Polygons            []Polygon
	PrecisionMode       PrecisionMode
	FixedPrecision      float64
	PrecisionRules      []PrecisionRule
	MinimumAroundRadius *float64
}

// HasRadius reports whether an explicit (non-"all") radius was supplied.
func (p Params) HasRadius() bool {
	return p.AroundRadiusMeters != nil
}

// NeedsAutomaticRadius reports whether the automatic-radius computation
// (§4.4 step 7) applies: a center is present, no explicit radius, and the
// "all" sentinel was not requested.
func (p Params) NeedsAutomaticRadius() bool {
	return p.Around != nil && !p.HasRadius() && !p.AroundRadiusAll
}

// RawParams are the unparsed string/number inputs straight off the request
// (§4.2). AroundRadius and AroundPrecision are `any` because each accepts
// either a number or a sentinel/rule-list shape.
type RawParams struct {
	InsideBoundingBox   string // "lat1,lng1,lat2,lng2[,lat1,lng1,lat2,lng2...]"
	InsidePolygon       []string
	AroundLatLng        string // "lat,lng"
	AroundLatLngViaIP   bool
	AroundRadius        any // nil, float64, or "all"
	AroundPrecision     any // nil, float64, or []PrecisionRule
	MinimumAroundRadius *float64
}

// Resolve implements the precedence algorithm of §4.2.
func Resolve(raw RawParams, geoIPLookup func() (Center, bool)) Params {
	var params Params

	boxes := parseBoundingBoxes(raw.InsideBoundingBox)
	polys := parsePolygons(raw.InsidePolygon)
	params.BoundingBoxes = boxes
	params.Polygons = polys

	regionMode := len(boxes) > 0 || len(polys) > 0

	var center *Center
	if c, ok := parseLatLng(raw.AroundLatLng); ok {
		center = &c
	} else if raw.AroundLatLngViaIP && geoIPLookup != nil {
		if c, ok := geoIPLookup(); ok {
			center = &c
		}
	}

	if !regionMode {
		params.Around = center
	}

	if params.Around != nil {
		switch v := raw.AroundRadius.(type) {
		case float64:
			r := v
			params.AroundRadiusMeters = &r
		case string:
			if strings.EqualFold(v, "all") {
				params.AroundRadiusAll = true
			}
		}
		if !params.HasRadius() && !params.AroundRadiusAll {
			params.MinimumAroundRadius = raw.MinimumAroundRadius
		}
	}

	switch v := raw.AroundPrecision.(type) {
	case float64:
		params.PrecisionMode = PrecisionFixed
		params.FixedPrecision = v
	case []PrecisionRule:
		params.PrecisionMode = PrecisionRanges
		params.PrecisionRules = v
	}

	return params
}

func parseLatLng(s string) (Center, bool) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return Center{}, false
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return Center{}, false
	}
	return Center{Lat: lat, Lng: lng}, true
}

func parseBoundingBoxes(s string) []BoundingBox {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var nums []float64
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil
		}
		nums = append(nums, f)
	}
	var boxes []BoundingBox
	for i := 0; i+4 <= len(nums); i += 4 {
		boxes = append(boxes, BoundingBox{Lat1: nums[i], Lng1: nums[i+1], Lat2: nums[i+2], Lng2: nums[i+3]})
	}
	return boxes
}

func parsePolygons(raw []string) []Polygon {
	var polys []Polygon
	for _, s := range raw {
		parts := strings.Split(s, ",")
		var nums []float64
		for _, p := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				nums = nil
				break
			}
			nums = append(nums, f)
		}
		if len(nums) < 6 || len(nums)%2 != 0 {
			continue
		}
		var pts []Center
		for i := 0; i+2 <= len(nums); i += 2 {
			pts = append(pts, Center{Lat: nums[i], Lng: nums[i+1]})
		}
		polys = append(polys, Polygon{Points: pts})
	}
	return polys
}

// HaversineMeters computes great-circle distance between two points.
func HaversineMeters(a, b Center) float64 {
	const d2r = math.Pi / 180
	lat1, lat2 := a.Lat*d2r, b.Lat*d2r
	dLat := (b.Lat - a.Lat) * d2r
	dLng := (b.Lng - a.Lng) * d2r
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMeters * c
}
