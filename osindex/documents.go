package osindex

import (
	"context"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
	"github.com/threatwinds/go-sdk/catcher"

	"github.com/flapjackhq/flapjack/document"
)

// AddDocuments queues every document as an index operation and flushes the
// bulk queue synchronously, so a completed call means the writes reached the
// engine (reads after the batch observe them, modulo the engine's own
// refresh interval).
func (x *Index) AddDocuments(_ context.Context, indexName string, docs []*document.Document) error {
	for _, d := range docs {
		source := make(map[string]any, len(d.Fields))
		for name, v := range d.Fields {
			source[name] = v.ToJSONValue()
		}
		x.bulk.AddWithID(indexName, d.ObjectID, source)
	}
	return x.bulk.Flush()
}

// DeleteDocumentsSync queues deletes and flushes, honoring the
// delete-before-write ordering the ingestion orchestrator relies on.
func (x *Index) DeleteDocumentsSync(_ context.Context, indexName string, objectIDs []string) error {
	for _, id := range objectIDs {
		x.bulk.AddDelete(indexName, id)
	}
	return x.bulk.Flush()
}

// GetDocument fetches one document by id, using an ids query so reads go
// through the same search surface as everything else.
func (x *Index) GetDocument(ctx context.Context, indexName, objectID string) (*document.Document, bool, error) {
	body := SearchBody{
		Size:  1,
		Query: &Query{Ids: &Ids{Values: []string{objectID}}},
	}
	resp, err := x.search(ctx, indexName, body)
	if err != nil {
		return nil, false, err
	}
	if len(resp.Hits.Hits) == 0 {
		return nil, false, nil
	}
	hit := resp.Hits.Hits[0]
	return decodeSource(hit.ID, hit.Source), true, nil
}

// GetSettings serves the per-request immutable settings snapshot out of the
// composed settings store.
func (x *Index) GetSettings(ctx context.Context, indexName string) (document.Settings, error) {
	return x.settings.Get(ctx, indexName)
}

// CreateTenant provisions the engine index with flapjack's mapping plus the
// settings store's directory. An index that already exists is not an error.
func (x *Index) CreateTenant(ctx context.Context, indexName string) error {
	if err := x.settings.CreateTenant(ctx, indexName); err != nil {
		return err
	}

	raw, err := sonic.Marshal(indexMapping())
	if err != nil {
		return catcher.Error("failed to marshal index mapping", err, map[string]any{"status": 500, "kind": "index_error"})
	}

	_, err = x.api.Indices.Create(ctx, opensearchapi.IndicesCreateReq{
		Index: indexName,
		Body:  strings.NewReader(string(raw)),
	})
	if err != nil {
		if strings.Contains(err.Error(), "resource_already_exists_exception") {
			return nil
		}
		return catcher.Error("failed to create index", err, map[string]any{
			"status": 500,
			"kind":   "index_error",
			"index":  indexName,
		})
	}
	return nil
}

// DeleteTenant drops the engine index and the settings store entry.
func (x *Index) DeleteTenant(ctx context.Context, indexName string) error {
	if _, err := x.api.Indices.Delete(ctx, opensearchapi.IndicesDeleteReq{
		Indices: []string{indexName},
	}); err != nil && !strings.Contains(err.Error(), "index_not_found_exception") {
		return catcher.Error("failed to delete index", err, map[string]any{
			"status": 500,
			"kind":   "index_error",
			"index":  indexName,
		})
	}
	return x.settings.DeleteTenant(ctx, indexName)
}
