package httpapi

import (
	"context"
	_ "embed"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/gin-gonic/gin"
	"github.com/threatwinds/go-sdk/catcher"
)

//go:embed openapi.yaml
var openapiSpec []byte

var (
	oapiOnce   sync.Once
	oapiRouter routers.Router
)

// loadRouter compiles the embedded OpenAPI description once. A broken
// embedded document disables validation rather than taking the service
// down: the handlers still parse defensively on their own.
func loadRouter() routers.Router {
	oapiOnce.Do(func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(openapiSpec)
		if err != nil {
			catcher.Error("failed to load embedded openapi document", err, map[string]any{"status": 500, "kind": "internal"})
			return
		}
		if err := doc.Validate(loader.Context); err != nil {
			catcher.Error("embedded openapi document is invalid", err, map[string]any{"status": 500, "kind": "internal"})
			return
		}
		router, err := gorillamux.NewRouter(doc)
		if err != nil {
			catcher.Error("failed to build openapi router", err, map[string]any{"status": 500, "kind": "internal"})
			return
		}
		oapiRouter = router
	})
	return oapiRouter
}

// openAPIValidator validates inbound requests against the embedded surface
// description before they reach handlers: unknown paths and malformed path
// or query parameters are rejected up front. Request bodies are excluded —
// several endpoints take deliberately polymorphic bodies (§4.6, §4.1) that
// the handlers decode themselves.
func openAPIValidator() gin.HandlerFunc {
	return func(c *gin.Context) {
		router := loadRouter()
		if router == nil {
			c.Next()
			return
		}

		route, pathParams, err := router.FindRoute(c.Request)
		if err != nil {
			respondError(c, catcher.Error("unknown route", err, map[string]any{"status": 404, "kind": "not_found"}))
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    c.Request,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				ExcludeRequestBody: true,
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
			},
		}
		if err := openapi3filter.ValidateRequest(context.Background(), input); err != nil {
			respondError(c, catcher.Error("request does not match api description", err, map[string]any{"status": 400, "kind": "invalid_query"}))
			return
		}
		c.Next()
	}
}
