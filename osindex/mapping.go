package osindex

import "github.com/flapjackhq/flapjack/document"

// exactSuffix names the keyword subfield every text field carries for
// exact-match, sorting, faceting, and prefix enumeration. Filters and
// facets always target "<field>.exact"; full-text matching targets the
// analyzed parent field.
const exactSuffix = ".exact"

func exactField(path string) string {
	return path + exactSuffix
}

// indexMapping is the mapping body CreateTenant installs: dynamic templates
// give every string field a text + .exact keyword pair, numbers take the
// engine's default dynamic mapping, _tags is a keyword field, and the
// reserved _geoloc field becomes a geo_point so the
// engine-side pre-filtering stays coarse while the core's geo post-processor
// (package geo) does the exact work.
func indexMapping() map[string]any {
	return map[string]any{
		"mappings": map[string]any{
			"dynamic_templates": []map[string]any{
				{
					"strings_with_exact": map[string]any{
						"match_mapping_type": "string",
						"mapping": map[string]any{
							"type": "text",
							"fields": map[string]any{
								"exact": map[string]any{
									"type":         "keyword",
									"ignore_above": 8191,
								},
							},
						},
					},
				},
			},
			"properties": map[string]any{
				document.ReservedGeoField: map[string]any{"type": "geo_point"},
				document.ReservedTagsField: map[string]any{
					"type": "keyword",
				},
			},
		},
	}
}
