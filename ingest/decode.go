package ingest

import (
	"github.com/threatwinds/go-sdk/catcher"
	"github.com/tidwall/gjson"
)

// Batch actions (§4.6).
const (
	ActionAddObject                   = "addObject"
	ActionUpdateObject                = "updateObject"
	ActionPartialUpdateObject         = "partialUpdateObject"
	ActionPartialUpdateObjectNoCreate = "partialUpdateObjectNoCreate"
	ActionDeleteObject                = "deleteObject"
)

// Operation is one decoded batch entry.
type Operation struct {
	Action string
	Body   gjson.Result
	// CreateIfNotExists is nil when the request didn't carry the flag; the
	// partial-update default of true applies at apply time.
	CreateIfNotExists *bool
}

// DecodeBatch accepts the three body shapes the batch endpoint takes: a
// `requests: [{action, body, createIfNotExists?}]` envelope, a legacy
// `documents: [...]` array (each an addObject), or a bare JSON object
// treated as a single addObject. Malformed JSON is fatal to the request.
func DecodeBatch(raw []byte) ([]Operation, error) {
	parsed := gjson.ParseBytes(raw)
	if !parsed.IsObject() {
		return nil, invalidBatch("batch body must be a JSON object", nil)
	}

	if requests := parsed.Get("requests"); requests.Exists() {
		if !requests.IsArray() {
			return nil, invalidBatch("requests must be an array", nil)
		}
		var ops []Operation
		var decodeErr error
		requests.ForEach(func(_, entry gjson.Result) bool {
			action := entry.Get("action")
			body := entry.Get("body")
			if !action.Exists() || !body.IsObject() {
				decodeErr = invalidBatch("each request needs an action and an object body", nil)
				return false
			}
			op := Operation{Action: action.String(), Body: body}
			if flag := entry.Get("createIfNotExists"); flag.Exists() {
				v := flag.Bool()
				op.CreateIfNotExists = &v
			}
			ops = append(ops, op)
			return true
		})
		return ops, decodeErr
	}

	if documents := parsed.Get("documents"); documents.Exists() {
		if !documents.IsArray() {
			return nil, invalidBatch("documents must be an array", nil)
		}
		var ops []Operation
		documents.ForEach(func(_, body gjson.Result) bool {
			ops = append(ops, Operation{Action: ActionAddObject, Body: body})
			return true
		})
		return ops, nil
	}

	// A body with neither envelope key is a single document.
	return []Operation{{Action: ActionAddObject, Body: parsed}}, nil
}

func invalidBatch(msg string, cause error) error {
	return catcher.Error(msg, cause, map[string]any{"status": 400, "kind": "invalid_query"})
}
