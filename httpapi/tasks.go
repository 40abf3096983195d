package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"
	"github.com/threatwinds/go-sdk/catcher"
)

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// getTask handles GET /1/tasks/{taskID}. Batches apply synchronously, so a
// known task is always already published.
func (s *Server) getTask(c *gin.Context) {
	if !s.requireACL(c, "search") {
		return
	}

	var taskID int64
	err := runtime.BindStyledParameterWithOptions("simple", "taskID", c.Param("taskID"), &taskID, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Required:      true,
	})
	if err != nil {
		respondError(c, catcher.Error("invalid task id", err, map[string]any{"status": 400, "kind": "invalid_query"}))
		return
	}

	task, found := s.Ingestor.Tasks.Get(taskID)
	if !found {
		respondError(c, catcher.Error("task not found", nil, map[string]any{"status": 404, "kind": "not_found"}))
		return
	}

	ok(c, gin.H{
		"status":      task.Status,
		"pendingTask": false,
		"updatedAt":   task.CreatedAt.Format(time.RFC3339),
	})
}
