package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/threatwinds/go-sdk/catcher"
	"github.com/tidwall/gjson"

	"github.com/flapjackhq/flapjack/keystore"
)

func (s *Server) keysConfigured(c *gin.Context) bool {
	if s.Keys == nil {
		respondError(c, catcher.Error("key store is not configured", nil, map[string]any{"status": 404, "kind": "not_found"}))
		return false
	}
	return true
}

// listKeys handles GET /1/keys.
func (s *Server) listKeys(c *gin.Context) {
	if !s.requireACL(c, "admin") || !s.keysConfigured(c) {
		return
	}
	keys, err := s.Keys.ListKeys(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	items := make([]any, 0, len(keys))
	for _, k := range keys {
		items = append(items, keyJSON(k))
	}
	ok(c, gin.H{"keys": items})
}

// createKey handles POST /1/keys. The generated secret is returned exactly
// once; only its bcrypt hash is stored.
func (s *Server) createKey(c *gin.Context) {
	if !s.requireACL(c, "admin") || !s.keysConfigured(c) {
		return
	}

	raw, err := readBody(c)
	if err != nil {
		respondError(c, err)
		return
	}
	body := gjson.ParseBytes(raw)

	secret := uuid.NewString()
	key, err := s.Keys.CreateKey(
		c.Request.Context(),
		secret,
		body.Get("description").String(),
		stringList(body.Get("acl")),
		stringList(body.Get("indexes")),
	)
	if err != nil {
		respondError(c, err)
		return
	}

	out := keyJSON(key)
	out["value"] = secret
	ok(c, out)
}

// getKey handles GET /1/keys/{keyID}.
func (s *Server) getKey(c *gin.Context) {
	if !s.requireACL(c, "admin") || !s.keysConfigured(c) {
		return
	}
	key, found, err := s.Keys.GetKey(c.Request.Context(), c.Param("keyID"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		respondError(c, catcher.Error("key not found", nil, map[string]any{"status": 404, "kind": "not_found"}))
		return
	}
	ok(c, keyJSON(key))
}

// updateKey handles PUT /1/keys/{keyID} by replacing the stored key's
// metadata: delete then re-create under a fresh secret.
func (s *Server) updateKey(c *gin.Context) {
	if !s.requireACL(c, "admin") || !s.keysConfigured(c) {
		return
	}
	keyID := c.Param("keyID")

	_, found, err := s.Keys.GetKey(c.Request.Context(), keyID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		respondError(c, catcher.Error("key not found", nil, map[string]any{"status": 404, "kind": "not_found"}))
		return
	}

	raw, err := readBody(c)
	if err != nil {
		respondError(c, err)
		return
	}
	body := gjson.ParseBytes(raw)

	if err := s.Keys.DeleteKey(c.Request.Context(), keyID); err != nil {
		respondError(c, err)
		return
	}
	secret := uuid.NewString()
	key, err := s.Keys.CreateKey(
		c.Request.Context(),
		secret,
		body.Get("description").String(),
		stringList(body.Get("acl")),
		stringList(body.Get("indexes")),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	out := keyJSON(key)
	out["value"] = secret
	ok(c, out)
}

// deleteKey handles DELETE /1/keys/{keyID}.
func (s *Server) deleteKey(c *gin.Context) {
	if !s.requireACL(c, "admin") || !s.keysConfigured(c) {
		return
	}
	if err := s.Keys.DeleteKey(c.Request.Context(), c.Param("keyID")); err != nil {
		respondError(c, err)
		return
	}
	ok(c, gin.H{"deletedAt": nowRFC3339()})
}

func keyJSON(k keystore.Key) map[string]any {
	return map[string]any{
		"id":          k.ID,
		"description": k.Description,
		"acl":         emptyIfNil(k.ACL),
		"indexes":     emptyIfNil(k.Indexes),
		"createdAt":   k.CreatedAt.Format(time.RFC3339),
	}
}
