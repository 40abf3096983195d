package document

import (
	"github.com/threatwinds/go-sdk/catcher"
	"github.com/tidwall/gjson"
)

// FieldValueFromJSON converts one gjson value into a FieldValue. Strings
// decode as Text (Facet is a settings-level reinterpretation, not a wire
// shape), integral numbers as Integer, fractional numbers as Float, booleans
// as Integer 0/1, and arrays/objects recurse. Null has no FieldValue
// representation; callers skip null members.
func FieldValueFromJSON(value gjson.Result) (FieldValue, bool) {
	switch value.Type {
	case gjson.String:
		return Text(value.String()), true
	case gjson.Number:
		f := value.Float()
		if f == float64(int64(f)) && value.Raw != "" && !hasFraction(value.Raw) {
			return Integer(value.Int()), true
		}
		return Float(f), true
	case gjson.True:
		return Integer(1), true
	case gjson.False:
		return Integer(0), true
	case gjson.JSON:
		if value.IsArray() {
			var items []FieldValue
			value.ForEach(func(_, item gjson.Result) bool {
				if v, ok := FieldValueFromJSON(item); ok {
					items = append(items, v)
				}
				return true
			})
			return Array(items), true
		}
		obj := map[string]FieldValue{}
		value.ForEach(func(key, item gjson.Result) bool {
			if v, ok := FieldValueFromJSON(item); ok {
				obj[key.String()] = v
			}
			return true
		})
		return Object(obj), true
	default:
		return FieldValue{}, false
	}
}

func hasFraction(raw string) bool {
	for i := 0; i < len(raw); i++ {
		if raw[i] == '.' || raw[i] == 'e' || raw[i] == 'E' {
			return true
		}
	}
	return false
}

// FromJSONObject builds a Document from a parsed JSON object, pulling the id
// out of "objectID" (or the legacy "id") and decoding every other member in
// document order. A missing id is an invalid-query error.
func FromJSONObject(obj gjson.Result) (*Document, error) {
	id := obj.Get("objectID")
	if !id.Exists() {
		id = obj.Get("id")
	}
	if !id.Exists() || id.String() == "" {
		return nil, catcher.Error("missing objectID or id field", nil, map[string]any{"status": 400, "kind": "invalid_query"})
	}

	doc := NewDocument(id.String())
	obj.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if name == "objectID" || name == "id" {
			return true
		}
		if v, ok := FieldValueFromJSON(value); ok {
			doc.Set(name, v)
		}
		return true
	})
	return doc, nil
}

// FromJSONBytes parses raw JSON and builds a Document out of it.
func FromJSONBytes(raw []byte) (*Document, error) {
	parsed := gjson.ParseBytes(raw)
	if !parsed.IsObject() {
		return nil, catcher.Error("document body must be a JSON object", nil, map[string]any{"status": 400, "kind": "invalid_query"})
	}
	return FromJSONObject(parsed)
}

// ToJSONValue renders a FieldValue as the plain Go value a JSON encoder
// serializes back to the wire shape it was decoded from.
func (v FieldValue) ToJSONValue() any {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindInteger:
		return v.Integer
	case KindFloat:
		return v.Float
	case KindDate:
		return v.Date
	case KindFacet:
		return v.Facet
	case KindArray:
		items := make([]any, len(v.Array))
		for i, item := range v.Array {
			items[i] = item.ToJSONValue()
		}
		return items
	case KindObject:
		obj := make(map[string]any, len(v.Object))
		for k, item := range v.Object {
			obj[k] = item.ToJSONValue()
		}
		return obj
	default:
		return nil
	}
}

// ToJSONMap renders a document as a JSON-ready map with the id echoed as
// objectID (§4.7).
func (d *Document) ToJSONMap() map[string]any {
	out := make(map[string]any, len(d.Fields)+1)
	out["objectID"] = d.ObjectID
	for name, v := range d.Fields {
		out[name] = v.ToJSONValue()
	}
	return out
}
