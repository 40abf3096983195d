package ingest

import (
	"context"
)

// GetObjectRequest identifies one document of a batch get.
type GetObjectRequest struct {
	IndexName            string
	ObjectID             string
	AttributesToRetrieve []string
}

// GetObjects fetches each requested document and renders it as a JSON-ready
// map; a missing or unreadable document yields a nil entry in-band rather
// than an error (§7).
func (in *Ingestor) GetObjects(ctx context.Context, requests []GetObjectRequest) []map[string]any {
	results := make([]map[string]any, 0, len(requests))
	for _, req := range requests {
		doc, found, err := in.Index.GetDocument(ctx, req.IndexName, req.ObjectID)
		if err != nil || !found {
			results = append(results, nil)
			continue
		}

		obj := map[string]any{"objectID": doc.ObjectID}
		for _, name := range doc.FieldOrder {
			if len(req.AttributesToRetrieve) > 0 && !containsString(req.AttributesToRetrieve, name) {
				continue
			}
			obj[name] = doc.Fields[name].ToJSONValue()
		}
		results = append(results, obj)
	}
	return results
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
