package osindex

import (
	"context"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
	"github.com/threatwinds/go-sdk/catcher"
)

func (bq *BulkQueue) worker() {
	defer bq.wg.Done()

	for {
		select {
		case <-bq.ticker.C:
			_ = bq.processBulk()
		case <-bq.stopCh:
			// Process any remaining items before stopping
			_ = bq.processBulk()
			return
		}
	}
}

func (bq *BulkQueue) processBulk() error {
	bq.mutex.Lock()
	if len(bq.queue) == 0 {
		bq.mutex.Unlock()
		return nil
	}

	// Move all items from queue to a local slice (atomic swap)
	items := make([]BulkItem, len(bq.queue))
	copy(items, bq.queue)
	bq.queue = bq.queue[:0]
	bq.mutex.Unlock()

	return catcher.Retry(func() error {
		return bq.sendBulkRequest(items)
	}, &catcher.RetryConfig{
		MaxRetries: bq.config.MaxRetries + 1,
		WaitTime:   bq.config.RetryDelay,
	})
}

func (bq *BulkQueue) sendBulkRequest(items []BulkItem) error {
	if len(items) == 0 {
		return nil
	}

	var body strings.Builder
	indexCounts := make(map[string]int)

	for i, item := range items {
		indexCounts[item.Index]++

		action := map[string]any{
			string(item.Operation): map[string]any{
				"_index": item.Index,
				"_id":    item.DocumentID,
			},
		}
		actionBytes, err := sonic.Marshal(action)
		if err != nil {
			return catcher.Error("failed to marshal bulk action", err, map[string]any{
				"item_index": i,
				"index":      item.Index,
				"operation":  item.Operation,
			})
		}
		body.Write(actionBytes)
		body.WriteByte('\n')

		// Delete operations don't have a document body
		if item.Operation != BulkOperationDelete {
			docBytes, err := sonic.Marshal(item.Document)
			if err != nil {
				return catcher.Error("failed to marshal bulk document", err, map[string]any{
					"item_index": i,
					"index":      item.Index,
				})
			}
			body.Write(docBytes)
			body.WriteByte('\n')
		}
	}

	resp, err := bq.client.Bulk(context.Background(), opensearchapi.BulkReq{
		Body: strings.NewReader(body.String()),
	})
	if err != nil {
		return catcher.Error("bulk request failed", err, map[string]any{
			"status":       500,
			"kind":         "index_error",
			"items_count":  len(items),
			"index_counts": indexCounts,
		})
	}

	if resp.Errors {
		failed := 0
		for _, responseItem := range resp.Items {
			for _, itemResp := range responseItem {
				if itemResp.Error != nil {
					failed++
				}
			}
		}
		return catcher.Error("bulk request had partial failures", nil, map[string]any{
			"status":        500,
			"kind":          "index_error",
			"success_count": len(items) - failed,
			"failed_count":  failed,
		})
	}

	catcher.Info("processed bulk request", map[string]any{
		"items_count":  len(items),
		"index_counts": indexCounts,
	})

	return nil
}
