// Package ingest implements the batch write surface (§4.6): the
// polymorphic batch request decode, the per-action apply loop with
// delete-before-write ordering, batch get with in-band nulls, and
// delete-by-query. It owns the task registry the /1/tasks endpoint reads.
package ingest

import (
	"github.com/flapjackhq/flapjack/searchindex"
)

// DefaultMaxBatchSize caps one batch's operation count unless overridden by
// configuration.
const DefaultMaxBatchSize = 10_000

// Ingestor applies batch writes against the index collaborator.
type Ingestor struct {
	Index        searchindex.Index
	Tasks        *TaskRegistry
	MaxBatchSize int
}

// New builds an Ingestor with the default batch cap.
func New(index searchindex.Index) *Ingestor {
	return &Ingestor{
		Index:        index,
		Tasks:        NewTaskRegistry(),
		MaxBatchSize: DefaultMaxBatchSize,
	}
}

func (in *Ingestor) maxBatchSize() int {
	if in.MaxBatchSize > 0 {
		return in.MaxBatchSize
	}
	return DefaultMaxBatchSize
}
