// Package osindex implements the external index collaborator contract
// (package searchindex) on top of OpenSearch. It owns the index mappings,
// the matcher/filter translation into the OpenSearch query DSL, and a
// background bulk queue for writes; per-index settings live in a
// settingsstore.Store it composes.
package osindex

import (
	"crypto/tls"
	"net/http"

	"github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
	"github.com/threatwinds/go-sdk/catcher"

	"github.com/flapjackhq/flapjack/settingsstore"
)

// Config carries the OpenSearch connection parameters.
type Config struct {
	Nodes    []string
	User     string
	Password string
	// InsecureSkipVerify disables TLS certificate verification, for
	// self-signed development clusters.
	InsecureSkipVerify bool
}

// Index is the OpenSearch-backed implementation of searchindex.Index.
type Index struct {
	api      *opensearchapi.Client
	settings *settingsstore.Store
	bulk     *BulkQueue
}

// New connects to OpenSearch and wires the settings store in. The bulk
// queue starts immediately; call Close to flush and stop it.
func New(cfg Config, settings *settingsstore.Store) (*Index, error) {
	api, err := opensearchapi.NewClient(opensearchapi.Config{
		Client: opensearch.Config{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify},
			},
			Addresses: cfg.Nodes,
			Username:  cfg.User,
			Password:  cfg.Password,
		},
	})
	if err != nil {
		return nil, catcher.Error("failed to connect to OpenSearch", err, map[string]any{
			"status": 500,
			"kind":   "index_error",
			"nodes":  cfg.Nodes,
		})
	}

	idx := &Index{api: api, settings: settings}
	idx.bulk = newBulkQueue(api, DefaultBulkQueueConfig())
	return idx, nil
}

// Close flushes pending writes and stops the bulk worker.
func (x *Index) Close() {
	if x.bulk != nil {
		x.bulk.Stop()
	}
}
