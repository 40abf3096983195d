// Package httpapi wires the Algolia-compatible HTTP surface (§6) over the
// search core. The core itself is transport-independent; everything
// Gin-specific lives here: routing, the body-size bound, authentication,
// OpenAPI request validation, and response serialization.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/threatwinds/go-sdk/catcher"

	"github.com/flapjackhq/flapjack/ingest"
	"github.com/flapjackhq/flapjack/keystore"
	"github.com/flapjackhq/flapjack/orchestrator"
	"github.com/flapjackhq/flapjack/searchindex"
	"github.com/flapjackhq/flapjack/settingsstore"
)

// maxBodyBytes bounds request bodies (§5).
const maxBodyBytes = 10 << 20

// Server holds the collaborators every handler needs.
type Server struct {
	Orchestrator *orchestrator.Orchestrator
	Ingestor     *ingest.Ingestor
	Index        searchindex.Index
	Settings     *settingsstore.Store
	Keys         keystore.Store
	// AdminKey is the master key; empty disables authentication entirely
	// (development mode).
	AdminKey string

	engine *gin.Engine
}

// New builds the Gin engine with every route of the surface registered.
func New(orc *orchestrator.Orchestrator, ing *ingest.Ingestor, index searchindex.Index, settings *settingsstore.Store, keys keystore.Store, adminKey string) *Server {
	s := &Server{
		Orchestrator: orc,
		Ingestor:     ing,
		Index:        index,
		Settings:     settings,
		Keys:         keys,
		AdminKey:     adminKey,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), bodyLimit(maxBodyBytes))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/1")
	v1.Use(openAPIValidator(), s.authenticate())

	v1.POST("/indexes", s.createIndex)
	v1.GET("/indexes", s.listIndexes)
	v1.DELETE("/indexes/:indexName", s.deleteIndex)

	v1.POST("/indexes/:indexName/batch", s.batch)
	v1.POST("/indexes/:indexName/query", s.query)
	v1.POST("/indexes/:indexName/queries", s.queries)
	v1.POST("/indexes/:indexName/objects", s.getObjects)
	v1.POST("/indexes/:indexName/deleteByQuery", s.deleteByQuery)
	v1.POST("/indexes/:indexName/facets/:facetName/query", s.searchFacetValues)

	v1.GET("/indexes/:indexName/settings", s.getSettings)
	v1.PUT("/indexes/:indexName/settings", s.putSettings)
	v1.POST("/indexes/:indexName/settings", s.putSettings)

	v1.GET("/tasks/:taskID", s.getTask)

	v1.GET("/keys", s.listKeys)
	v1.POST("/keys", s.createKey)
	v1.GET("/keys/:keyID", s.getKey)
	v1.PUT("/keys/:keyID", s.updateKey)
	v1.DELETE("/keys/:keyID", s.deleteKey)

	s.engine = engine
	return s
}

// Handler exposes the engine for http.Server wiring and tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until the listener fails.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// bodyLimit caps the request body size before any handler reads it.
func bodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// respondError maps an error onto the wire shape of §7: the SdkError's
// status selects the HTTP code, the body carries message and status, and
// the x-error headers travel the way the catcher package sets them.
func respondError(c *gin.Context, err error) {
	sdk := catcher.ToSdkError(err)
	if sdk == nil {
		sdk = catcher.Error("internal error", err, map[string]any{"status": 500, "kind": "internal"})
	}
	status := http.StatusInternalServerError
	if v, ok := sdk.Args["status"]; ok {
		if n, ok := v.(int); ok {
			status = n
		}
	}
	c.Header("x-error-id", sdk.Code)
	c.Header("x-error", sdk.Msg)
	c.AbortWithStatusJSON(status, gin.H{"message": sdk.Msg, "status": status})
}
