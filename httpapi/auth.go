package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/threatwinds/go-sdk/catcher"

	"github.com/flapjackhq/flapjack/keystore"
	"github.com/flapjackhq/flapjack/orchestrator"
)

const (
	headerAppID  = "x-algolia-application-id"
	headerAPIKey = "x-algolia-api-key"

	ctxKeyACL     = "flapjack.acl"
	ctxKeySecured = "flapjack.secured"
)

// authenticate resolves the x-algolia-* headers into a request identity:
// the admin key grants everything; a secured key derived from the admin key
// attaches its restrictions; a stored key authenticates as (application-id,
// api-key) against the key store and carries its ACL. With no admin key and
// no key store configured, authentication is disabled.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.AdminKey == "" && s.Keys == nil {
			c.Next()
			return
		}

		apiKey := c.GetHeader(headerAPIKey)
		if apiKey == "" {
			respondError(c, catcher.Error("missing api key", nil, map[string]any{"status": 401, "kind": "auth_error"}))
			return
		}

		if s.AdminKey != "" && apiKey == s.AdminKey {
			c.Set(ctxKeyACL, []string{"admin"})
			c.Next()
			return
		}

		if s.AdminKey != "" {
			if r, err := keystore.ValidateSecuredKey(s.AdminKey, apiKey); err == nil {
				if r.ValidUntil != 0 && time.Now().Unix() > r.ValidUntil {
					respondError(c, catcher.Error("secured key expired", nil, map[string]any{"status": 401, "kind": "auth_error"}))
					return
				}
				c.Set(ctxKeySecured, &r)
				c.Set(ctxKeyACL, []string{"search"})
				c.Next()
				return
			}
		}

		if s.Keys != nil {
			appID := c.GetHeader(headerAppID)
			if key, ok, err := s.Keys.Authenticate(c.Request.Context(), appID, apiKey); err == nil && ok {
				c.Set(ctxKeyACL, key.ACL)
				c.Next()
				return
			}
		}

		respondError(c, catcher.Error("invalid api key", nil, map[string]any{"status": 403, "kind": "auth_error"}))
	}
}

// requireACL aborts unless the request identity carries acl (or admin).
// Open mode (no ACL in context because auth is disabled) allows everything.
func (s *Server) requireACL(c *gin.Context, acl string) bool {
	v, exists := c.Get(ctxKeyACL)
	if !exists {
		return s.AdminKey == "" && s.Keys == nil
	}
	granted, _ := v.([]string)
	for _, g := range granted {
		if g == "admin" || g == acl {
			return true
		}
	}
	respondError(c, catcher.Error("api key lacks required acl", nil, map[string]any{
		"status": 403,
		"kind":   "auth_error",
		"acl":    acl,
	}))
	return false
}

// securedRestriction pulls the secured-key restriction for the request, if
// any, and enforces its index scoping (§7: a secured-key rejection of an
// index is an invalid-query error).
func securedRestriction(c *gin.Context, indexName string) (*orchestrator.SecuredKeyRestriction, error) {
	v, exists := c.Get(ctxKeySecured)
	if !exists {
		return nil, nil
	}
	r, ok := v.(*keystore.Restriction)
	if !ok {
		return nil, nil
	}
	if len(r.RestrictIndices) > 0 && !indexAllowed(r.RestrictIndices, indexName) {
		return nil, catcher.Error("index not allowed by secured key", nil, map[string]any{
			"status": 400,
			"kind":   "invalid_query",
			"index":  indexName,
		})
	}
	return &orchestrator.SecuredKeyRestriction{
		ForcedFilters:     r.Filters,
		MaxHitsPerPage:    r.MaxHitsPerPage,
		AllowedIndexGlobs: r.RestrictIndices,
	}, nil
}

// indexAllowed matches name against the restriction patterns; a trailing
// '*' is a prefix glob, anything else matches exactly.
func indexAllowed(patterns []string, name string) bool {
	for _, p := range patterns {
		if p == name {
			return true
		}
		if n := len(p); n > 0 && p[n-1] == '*' && len(name) >= n-1 && name[:n-1] == p[:n-1] {
			return true
		}
	}
	return false
}
