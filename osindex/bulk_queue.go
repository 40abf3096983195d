package osindex

import (
	"sync"
	"time"

	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
)

// BulkOperation is the engine-side bulk action type.
type BulkOperation string

const (
	// BulkOperationIndex creates or replaces a document.
	BulkOperationIndex BulkOperation = "index"
	// BulkOperationDelete deletes a document.
	BulkOperationDelete BulkOperation = "delete"
)

// BulkItem is a single queued write.
type BulkItem struct {
	Index      string
	DocumentID string
	Operation  BulkOperation
	// Document is the source body; unused for deletes.
	Document any
}

// BulkQueueConfig tunes flushing and retry behavior.
type BulkQueueConfig struct {
	// FlushInterval is how often the background worker flushes (default 10s).
	FlushInterval time.Duration
	// MaxRetries is the number of retries for a failed bulk request.
	MaxRetries int
	// RetryDelay is the base delay between retries, doubled each attempt.
	RetryDelay time.Duration
}

// DefaultBulkQueueConfig returns the defaults the Index constructor uses.
func DefaultBulkQueueConfig() BulkQueueConfig {
	return BulkQueueConfig{
		FlushInterval: 10 * time.Second,
		MaxRetries:    2,
		RetryDelay:    time.Second,
	}
}

// BulkQueue batches writes into OpenSearch _bulk requests. Ingestion flushes
// it synchronously after queueing a batch; the background worker is a
// safety net for anything left behind.
type BulkQueue struct {
	client *opensearchapi.Client
	config BulkQueueConfig
	queue  []BulkItem
	mutex  sync.Mutex
	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
}

func newBulkQueue(client *opensearchapi.Client, config BulkQueueConfig) *BulkQueue {
	if config.FlushInterval <= 0 {
		config.FlushInterval = 10 * time.Second
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = time.Second
	}

	bq := &BulkQueue{
		client: client,
		config: config,
		ticker: time.NewTicker(config.FlushInterval),
		stopCh: make(chan struct{}),
	}

	bq.wg.Add(1)
	go bq.worker()

	return bq
}

// AddWithID queues a create-or-replace write.
func (bq *BulkQueue) AddWithID(index, docID string, doc any) {
	bq.addItem(BulkItem{Index: index, DocumentID: docID, Operation: BulkOperationIndex, Document: doc})
}

// AddDelete queues a delete.
func (bq *BulkQueue) AddDelete(index, docID string) {
	bq.addItem(BulkItem{Index: index, DocumentID: docID, Operation: BulkOperationDelete})
}

func (bq *BulkQueue) addItem(item BulkItem) {
	bq.mutex.Lock()
	bq.queue = append(bq.queue, item)
	bq.mutex.Unlock()
}

// Size returns the number of queued items.
func (bq *BulkQueue) Size() int {
	bq.mutex.Lock()
	defer bq.mutex.Unlock()
	return len(bq.queue)
}

// Flush processes everything currently queued, blocking until the bulk
// request completes.
func (bq *BulkQueue) Flush() error {
	return bq.processBulk()
}

// Stop flushes remaining items and stops the worker.
func (bq *BulkQueue) Stop() {
	close(bq.stopCh)
	bq.ticker.Stop()
	bq.wg.Wait()
}
