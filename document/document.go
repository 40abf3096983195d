// Package document holds the data model shared by every stage of the search
// pipeline: documents, field values, and per-index settings snapshots.
package document

import "strconv"

// Kind tags the variant held by a FieldValue.
type Kind int

const (
	KindText Kind = iota
	KindInteger
	KindFloat
	KindDate
	KindFacet
	KindArray
	KindObject
)

// FieldValue is a tagged sum over the value shapes a document field can hold.
// Exactly one of the typed accessors is meaningful for a given Kind.
type FieldValue struct {
	Kind    Kind
	Text    string
	Integer int64
	Float   float64
	Date    int64 // epoch seconds
	Facet   string
	Array   []FieldValue
	Object  map[string]FieldValue
}

func Text(s string) FieldValue    { return FieldValue{Kind: KindText, Text: s} }
func Integer(i int64) FieldValue  { return FieldValue{Kind: KindInteger, Integer: i} }
func Float(f float64) FieldValue  { return FieldValue{Kind: KindFloat, Float: f} }
func Date(d int64) FieldValue     { return FieldValue{Kind: KindDate, Date: d} }
func Facet(s string) FieldValue   { return FieldValue{Kind: KindFacet, Facet: s} }
func Array(v []FieldValue) FieldValue {
	return FieldValue{Kind: KindArray, Array: v}
}
func Object(v map[string]FieldValue) FieldValue {
	return FieldValue{Kind: KindObject, Object: v}
}

// AsString renders a scalar field value for highlighting/display purposes.
// Array and Object render as empty collection literals, matching the
// behavior of a highlighter that only marks up text leaves.
func (v FieldValue) AsString() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindInteger:
		return strconv.FormatInt(v.Integer, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindDate:
		return strconv.FormatInt(v.Date, 10)
	case KindFacet:
		return v.Facet
	case KindArray:
		return "[]"
	case KindObject:
		return "{}"
	default:
		return ""
	}
}

// GeoPoint is one lat/lng pair. The reserved "_geoloc" field holds either a
// single GeoPoint or an array of them.
type GeoPoint struct {
	Lat float64
	Lng float64
}

// ReservedGeoField and ReservedTagsField name the two reserved document
// fields the pipeline treats specially.
const (
	ReservedGeoField  = "_geoloc"
	ReservedTagsField = "_tags"
)

// Document is an identified record: a unique string id plus a field mapping.
// Fields preserves insertion order because response shaping echoes it.
type Document struct {
	ObjectID string
	Fields   map[string]FieldValue
	// FieldOrder records insertion order of Fields' keys.
	FieldOrder []string
}

// NewDocument builds an empty document ready for Set calls.
func NewDocument(objectID string) *Document {
	return &Document{ObjectID: objectID, Fields: map[string]FieldValue{}}
}

// Set assigns a field, recording its position the first time it's seen.
func (d *Document) Set(name string, v FieldValue) {
	if _, exists := d.Fields[name]; !exists {
		d.FieldOrder = append(d.FieldOrder, name)
	}
	d.Fields[name] = v
}

// Get returns a field value and whether it was present.
func (d *Document) Get(name string) (FieldValue, bool) {
	v, ok := d.Fields[name]
	return v, ok
}

// GeoPoints extracts every point out of the reserved _geoloc field,
// tolerating either a single object or an array of objects.
func (d *Document) GeoPoints() []GeoPoint {
	v, ok := d.Get(ReservedGeoField)
	if !ok {
		return nil
	}
	switch v.Kind {
	case KindObject:
		if p, ok := geoPointFromObject(v.Object); ok {
			return []GeoPoint{p}
		}
	case KindArray:
		pts := make([]GeoPoint, 0, len(v.Array))
		for _, item := range v.Array {
			if item.Kind == KindObject {
				if p, ok := geoPointFromObject(item.Object); ok {
					pts = append(pts, p)
				}
			}
		}
		return pts
	}
	return nil
}

func geoPointFromObject(obj map[string]FieldValue) (GeoPoint, bool) {
	lat, latOk := numericField(obj, "lat")
	lng, lngOk := numericField(obj, "lng")
	if !latOk || !lngOk {
		return GeoPoint{}, false
	}
	return GeoPoint{Lat: lat, Lng: lng}, true
}

func numericField(obj map[string]FieldValue, name string) (float64, bool) {
	v, ok := obj[name]
	if !ok {
		return 0, false
	}
	switch v.Kind {
	case KindFloat:
		return v.Float, true
	case KindInteger:
		return float64(v.Integer), true
	default:
		return 0, false
	}
}

// Tags extracts the reserved _tags array as plain strings.
func (d *Document) Tags() []string {
	v, ok := d.Get(ReservedTagsField)
	if !ok || v.Kind != KindArray {
		return nil
	}
	tags := make([]string, 0, len(v.Array))
	for _, item := range v.Array {
		if item.Kind == KindText || item.Kind == KindFacet {
			if item.Kind == KindText {
				tags = append(tags, item.Text)
			} else {
				tags = append(tags, item.Facet)
			}
		}
	}
	return tags
}
