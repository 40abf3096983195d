package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestFromJSONBytesDecodesKinds(t *testing.T) {
	doc, err := FromJSONBytes([]byte(`{
		"objectID": "1",
		"name": "laptop",
		"price": 42,
		"rating": 4.5,
		"inStock": true,
		"tags": ["a", "b"],
		"dimensions": {"w": 10, "h": 20}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "1", doc.ObjectID)

	name, _ := doc.Get("name")
	assert.Equal(t, KindText, name.Kind)
	assert.Equal(t, "laptop", name.Text)

	price, _ := doc.Get("price")
	assert.Equal(t, KindInteger, price.Kind)
	assert.Equal(t, int64(42), price.Integer)

	rating, _ := doc.Get("rating")
	assert.Equal(t, KindFloat, rating.Kind)
	assert.InDelta(t, 4.5, rating.Float, 1e-9)

	inStock, _ := doc.Get("inStock")
	assert.Equal(t, KindInteger, inStock.Kind)
	assert.Equal(t, int64(1), inStock.Integer)

	tags, _ := doc.Get("tags")
	require.Equal(t, KindArray, tags.Kind)
	require.Len(t, tags.Array, 2)
	assert.Equal(t, "a", tags.Array[0].Text)

	dims, _ := doc.Get("dimensions")
	require.Equal(t, KindObject, dims.Kind)
	assert.Equal(t, int64(10), dims.Object["w"].Integer)
}

func TestFromJSONBytesAcceptsLegacyID(t *testing.T) {
	doc, err := FromJSONBytes([]byte(`{"id":"7","name":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, "7", doc.ObjectID)
	_, hasID := doc.Get("id")
	assert.False(t, hasID)
}

func TestFromJSONBytesMissingIDFails(t *testing.T) {
	_, err := FromJSONBytes([]byte(`{"name":"x"}`))
	require.Error(t, err)
}

func TestFromJSONBytesRejectsNonObject(t *testing.T) {
	_, err := FromJSONBytes([]byte(`["not","an","object"]`))
	require.Error(t, err)
}

func TestFieldOrderPreserved(t *testing.T) {
	doc, err := FromJSONBytes([]byte(`{"objectID":"1","z":"1","a":"2","m":"3"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "m"}, doc.FieldOrder)
}

func TestToJSONMapRoundTrip(t *testing.T) {
	doc := NewDocument("9")
	doc.Set("name", Text("widget"))
	doc.Set("price", Integer(5))
	doc.Set("labels", Array([]FieldValue{Text("x"), Text("y")}))

	out := doc.ToJSONMap()
	assert.Equal(t, "9", out["objectID"])
	assert.Equal(t, "widget", out["name"])
	assert.Equal(t, int64(5), out["price"])
	assert.Equal(t, []any{"x", "y"}, out["labels"])
}

func TestFieldValueFromJSONSkipsNull(t *testing.T) {
	parsed := gjson.Parse(`{"a":null}`)
	_, ok := FieldValueFromJSON(parsed.Get("a"))
	assert.False(t, ok)
}
