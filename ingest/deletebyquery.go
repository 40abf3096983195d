package ingest

import (
	"context"

	"github.com/threatwinds/go-sdk/catcher"

	"github.com/flapjackhq/flapjack/filter"
	"github.com/flapjackhq/flapjack/searchindex"
)

// deleteByQueryPageSize bounds each selection page while walking the full
// match set.
const deleteByQueryPageSize = 1000

// DeleteByQuery deletes every document matching the filter expression. The
// filter is required and parses with the same grammar as search filters; a
// parse failure is fatal. Selection pages through the index before a single
// synchronous delete pass.
func (in *Ingestor) DeleteByQuery(ctx context.Context, indexName, filters string) (Task, int, error) {
	if filters == "" {
		return Task{}, 0, catcher.Error("filters parameter required", nil, map[string]any{
			"status": 400,
			"kind":   "invalid_query",
		})
	}

	node, err := filter.ParseString(filters)
	if err != nil {
		return Task{}, 0, catcher.Error("invalid filter expression", err, map[string]any{
			"status": 400,
			"kind":   "invalid_query",
		})
	}

	var allIDs []string
	offset := 0
	for {
		result, err := in.Index.Search(ctx, searchindex.SearchRequest{
			Index:  indexName,
			Filter: node,
			Limit:  deleteByQueryPageSize,
			Offset: offset,
		})
		if err != nil {
			return Task{}, 0, err
		}
		if len(result.Hits) == 0 {
			break
		}
		for _, hit := range result.Hits {
			allIDs = append(allIDs, hit.Document.ObjectID)
		}
		offset += len(result.Hits)
		if len(result.Hits) < deleteByQueryPageSize || offset >= result.TotalHits {
			break
		}
	}

	if len(allIDs) > 0 {
		if err := in.Index.DeleteDocumentsSync(ctx, indexName, allIDs); err != nil {
			return Task{}, 0, err
		}
	}

	return in.Tasks.Publish(indexName), len(allIDs), nil
}
