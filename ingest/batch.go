package ingest

import (
	"context"
	"fmt"

	"github.com/threatwinds/go-sdk/catcher"
	"github.com/tidwall/gjson"

	"github.com/flapjackhq/flapjack/document"
)

// BatchResult reports one applied batch: the task it published and the
// object ids touched, in operation order.
type BatchResult struct {
	Task      Task
	ObjectIDs []string
}

// ApplyBatch validates and applies one decoded batch against indexName,
// honoring the §4.6 semantics: the size cap is fatal, deletes (including
// the implicit delete a partial update performs) run before writes, and
// partial updates merge against the current document.
func (in *Ingestor) ApplyBatch(ctx context.Context, indexName string, ops []Operation) (BatchResult, error) {
	if err := in.Index.CreateTenant(ctx, indexName); err != nil {
		return BatchResult{}, err
	}

	if len(ops) > in.maxBatchSize() {
		return BatchResult{}, catcher.Error("batch too large", nil, map[string]any{
			"status": 400,
			"kind":   "invalid_query",
			"size":   len(ops),
			"max":    in.maxBatchSize(),
		})
	}

	var objectIDs []string
	var documents []*document.Document
	var deletes []string

	for _, op := range ops {
		switch op.Action {
		case ActionDeleteObject:
			id, err := operationObjectID(op, "deleteObject")
			if err != nil {
				return BatchResult{}, err
			}
			objectIDs = append(objectIDs, id)
			deletes = append(deletes, id)

		case ActionPartialUpdateObject, ActionPartialUpdateObjectNoCreate:
			id, err := operationObjectID(op, "partialUpdateObject")
			if err != nil {
				return BatchResult{}, err
			}
			objectIDs = append(objectIDs, id)

			createIfNotExists := op.Action != ActionPartialUpdateObjectNoCreate
			if op.CreateIfNotExists != nil && op.Action == ActionPartialUpdateObject {
				createIfNotExists = *op.CreateIfNotExists
			}

			existing, found, err := in.Index.GetDocument(ctx, indexName, id)
			if err != nil {
				return BatchResult{}, err
			}

			if found {
				merged := mergePartial(existing, op.Body)
				deletes = append(deletes, id)
				documents = append(documents, merged)
			} else if createIfNotExists {
				doc, err := documentFromBody(id, op.Body)
				if err != nil {
					return BatchResult{}, err
				}
				documents = append(documents, doc)
			}

		case ActionAddObject, ActionUpdateObject:
			id, err := operationObjectID(op, op.Action)
			if err != nil {
				return BatchResult{}, err
			}
			objectIDs = append(objectIDs, id)
			doc, err := documentFromBody(id, op.Body)
			if err != nil {
				return BatchResult{}, err
			}
			documents = append(documents, doc)

		default:
			return BatchResult{}, catcher.Error(fmt.Sprintf("unsupported batch action: %s", op.Action), nil, map[string]any{
				"status": 400,
				"kind":   "invalid_query",
			})
		}
	}

	if len(deletes) > 0 {
		if err := in.Index.DeleteDocumentsSync(ctx, indexName, deletes); err != nil {
			return BatchResult{}, err
		}
	}
	if len(documents) > 0 {
		if err := in.Index.AddDocuments(ctx, indexName, documents); err != nil {
			return BatchResult{}, err
		}
	}

	return BatchResult{Task: in.Tasks.Publish(indexName), ObjectIDs: objectIDs}, nil
}

func operationObjectID(op Operation, action string) (string, error) {
	id := op.Body.Get("objectID")
	if !id.Exists() {
		id = op.Body.Get("id")
	}
	if !id.Exists() || id.String() == "" {
		return "", catcher.Error(fmt.Sprintf("missing objectID in %s", action), nil, map[string]any{
			"status": 400,
			"kind":   "invalid_query",
		})
	}
	return id.String(), nil
}

func documentFromBody(id string, body gjson.Result) (*document.Document, error) {
	doc := document.NewDocument(id)
	body.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if name == "objectID" || name == "id" {
			return true
		}
		if v, ok := document.FieldValueFromJSON(value); ok {
			doc.Set(name, v)
		}
		return true
	})
	return doc, nil
}

// mergePartial overlays the update body onto the current document,
// preserving fields the body doesn't mention.
func mergePartial(existing *document.Document, body gjson.Result) *document.Document {
	merged := document.NewDocument(existing.ObjectID)
	for _, name := range existing.FieldOrder {
		merged.Set(name, existing.Fields[name])
	}
	body.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if name == "objectID" || name == "id" {
			return true
		}
		if v, ok := document.FieldValueFromJSON(value); ok {
			merged.Set(name, v)
		}
		return true
	})
	return merged
}
