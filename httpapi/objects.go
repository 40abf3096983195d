package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/threatwinds/go-sdk/catcher"
	"github.com/tidwall/gjson"

	"github.com/flapjackhq/flapjack/ingest"
)

// batch handles POST /1/indexes/{indexName}/batch.
func (s *Server) batch(c *gin.Context) {
	if !s.requireACL(c, "addObject") {
		return
	}
	indexName := c.Param("indexName")

	raw, err := readBody(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if !gjson.ValidBytes(raw) {
		respondError(c, catcher.Error("invalid JSON body", nil, map[string]any{"status": 400, "kind": "invalid_query"}))
		return
	}

	ops, err := ingest.DecodeBatch(raw)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := s.Ingestor.ApplyBatch(c.Request.Context(), indexName, ops)
	if err != nil {
		respondError(c, err)
		return
	}

	objectIDs := result.ObjectIDs
	if objectIDs == nil {
		objectIDs = []string{}
	}
	ok(c, gin.H{
		"taskID":    result.Task.ID,
		"objectIDs": objectIDs,
	})
}

// getObjects handles POST /1/indexes/{indexName}/objects: batch get with
// in-band nulls for missing documents.
func (s *Server) getObjects(c *gin.Context) {
	if !s.requireACL(c, "search") {
		return
	}
	defaultIndex := c.Param("indexName")

	raw, err := readBody(c)
	if err != nil {
		respondError(c, err)
		return
	}
	requests := gjson.GetBytes(raw, "requests")
	if !requests.IsArray() {
		respondError(c, catcher.Error("requests must be an array", nil, map[string]any{"status": 400, "kind": "invalid_query"}))
		return
	}

	var gets []ingest.GetObjectRequest
	requests.ForEach(func(_, entry gjson.Result) bool {
		indexName := entry.Get("indexName").String()
		if indexName == "" {
			indexName = defaultIndex
		}
		gets = append(gets, ingest.GetObjectRequest{
			IndexName:            indexName,
			ObjectID:             entry.Get("objectID").String(),
			AttributesToRetrieve: stringList(entry.Get("attributesToRetrieve")),
		})
		return true
	})

	results := s.Ingestor.GetObjects(c.Request.Context(), gets)
	out := make([]any, len(results))
	for i, r := range results {
		if r == nil {
			out[i] = nil
		} else {
			out[i] = r
		}
	}
	ok(c, gin.H{"results": out})
}

// deleteByQuery handles POST /1/indexes/{indexName}/deleteByQuery.
func (s *Server) deleteByQuery(c *gin.Context) {
	if !s.requireACL(c, "deleteObject") {
		return
	}
	indexName := c.Param("indexName")

	raw, err := readBody(c)
	if err != nil {
		respondError(c, err)
		return
	}
	filters := gjson.GetBytes(raw, "filters").String()
	if filters == "" {
		// The filter may also travel inside a params envelope.
		if params := gjson.GetBytes(raw, "params").String(); params != "" {
			filters = queryUnescapeFilters(params)
		}
	}

	task, deleted, err := s.Ingestor.DeleteByQuery(c.Request.Context(), indexName, filters)
	if err != nil {
		respondError(c, err)
		return
	}

	ok(c, gin.H{
		"taskID":    task.ID,
		"deletedAt": time.Now().UTC().Format(time.RFC3339),
		"nbDeleted": deleted,
	})
}
