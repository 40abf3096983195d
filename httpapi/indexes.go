package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/threatwinds/go-sdk/catcher"
	"github.com/tidwall/gjson"

	"github.com/flapjackhq/flapjack/document"
)

// createIndex handles POST /1/indexes.
func (s *Server) createIndex(c *gin.Context) {
	if !s.requireACL(c, "addObject") {
		return
	}

	raw, err := readBody(c)
	if err != nil {
		respondError(c, err)
		return
	}
	name := gjson.GetBytes(raw, "name").String()
	if name == "" {
		name = gjson.GetBytes(raw, "indexName").String()
	}
	if name == "" {
		respondError(c, catcher.Error("missing index name", nil, map[string]any{"status": 400, "kind": "invalid_query"}))
		return
	}

	if err := s.Index.CreateTenant(c.Request.Context(), name); err != nil {
		respondError(c, err)
		return
	}
	if err := s.Settings.CreateTenant(c.Request.Context(), name); err != nil {
		respondError(c, err)
		return
	}

	if settings := gjson.GetBytes(raw, "settings"); settings.IsObject() {
		if err := s.Settings.Put(c.Request.Context(), name, decodeSettings(settings)); err != nil {
			respondError(c, err)
			return
		}
	}

	ok(c, gin.H{"name": name, "createdAt": nowRFC3339()})
}

// listIndexes handles GET /1/indexes.
func (s *Server) listIndexes(c *gin.Context) {
	if !s.requireACL(c, "listIndexes") {
		return
	}
	names, err := s.Settings.ListTenants(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	items := make([]any, 0, len(names))
	for _, name := range names {
		items = append(items, gin.H{"name": name})
	}
	ok(c, gin.H{"items": items, "nbPages": 1})
}

// deleteIndex handles DELETE /1/indexes/{indexName}.
func (s *Server) deleteIndex(c *gin.Context) {
	if !s.requireACL(c, "deleteIndex") {
		return
	}
	indexName := c.Param("indexName")
	if err := s.Index.DeleteTenant(c.Request.Context(), indexName); err != nil {
		respondError(c, err)
		return
	}
	if err := s.Settings.DeleteTenant(c.Request.Context(), indexName); err != nil {
		respondError(c, err)
		return
	}
	ok(c, gin.H{"taskID": s.Ingestor.Tasks.Publish(indexName).ID, "deletedAt": nowRFC3339()})
}

// getSettings handles GET /1/indexes/{indexName}/settings.
func (s *Server) getSettings(c *gin.Context) {
	if !s.requireACL(c, "settings") {
		return
	}
	settings, err := s.Settings.Get(c.Request.Context(), c.Param("indexName"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, settingsJSON(settings))
}

// putSettings handles PUT and POST /1/indexes/{indexName}/settings.
func (s *Server) putSettings(c *gin.Context) {
	if !s.requireACL(c, "settings") {
		return
	}
	indexName := c.Param("indexName")

	raw, err := readBody(c)
	if err != nil {
		respondError(c, err)
		return
	}
	body := gjson.ParseBytes(raw)
	if !body.IsObject() {
		respondError(c, catcher.Error("settings body must be a JSON object", nil, map[string]any{"status": 400, "kind": "invalid_query"}))
		return
	}

	if err := s.Index.CreateTenant(c.Request.Context(), indexName); err != nil {
		respondError(c, err)
		return
	}
	if err := s.Settings.Put(c.Request.Context(), indexName, decodeSettings(body)); err != nil {
		respondError(c, err)
		return
	}
	ok(c, gin.H{"taskID": s.Ingestor.Tasks.Publish(indexName).ID, "updatedAt": nowRFC3339()})
}

// decodeSettings maps the wire settings object onto document.Settings.
func decodeSettings(body gjson.Result) document.Settings {
	settings := document.Settings{
		SearchableAttributes:  stringList(body.Get("searchableAttributes")),
		AttributesForFaceting: stringList(body.Get("attributesForFaceting")),
		AttributeForDistinct:  body.Get("attributeForDistinct").String(),
		DistinctCount:         int(body.Get("distinct").Int()),
		AttributesToRetrieve:  stringList(body.Get("attributesToRetrieve")),
		MaxValuesPerFacet:     int(body.Get("maxValuesPerFacet").Int()),
	}
	if plural := body.Get("pluralMap"); plural.IsObject() {
		settings.PluralMap = map[string][]string{}
		plural.ForEach(func(key, forms gjson.Result) bool {
			settings.PluralMap[key.String()] = stringList(forms)
			return true
		})
	}
	return settings
}

func settingsJSON(settings document.Settings) map[string]any {
	out := map[string]any{
		"searchableAttributes":  emptyIfNil(settings.SearchableAttributes),
		"attributesForFaceting": emptyIfNil(settings.AttributesForFaceting),
		"attributeForDistinct":  settings.AttributeForDistinct,
		"distinct":              settings.DistinctCount,
		"maxValuesPerFacet":     settings.MaxValuesPerFacet,
	}
	if settings.AttributesToRetrieve != nil {
		out["attributesToRetrieve"] = settings.AttributesToRetrieve
	}
	if settings.PluralMap != nil {
		out["pluralMap"] = settings.PluralMap
	}
	return out
}

func emptyIfNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
