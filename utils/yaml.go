package utils

import (
	"os"

	"github.com/threatwinds/go-sdk/catcher"
	"gopkg.in/yaml.v3"
)

// ReadYAML reads a YAML file and parses its content into the specified
// type, returning a pointer to the parsed value.
func ReadYAML[t any](f string) (*t, error) {
	content, err := os.ReadFile(f)
	if err != nil {
		return nil, catcher.Error("error reading YAML file", err, map[string]any{"file": f})
	}

	var value = new(t)

	err = yaml.Unmarshal(content, value)
	if err != nil {
		return nil, catcher.Error("error parsing YAML file", err, map[string]any{"file": f})
	}

	return value, nil
}

// WriteYAML marshals value and writes it to f with mode 0644.
func WriteYAML[t any](f string, value *t) error {
	content, err := yaml.Marshal(value)
	if err != nil {
		return catcher.Error("error marshaling YAML", err, map[string]any{"file": f})
	}

	if err := os.WriteFile(f, content, 0o644); err != nil {
		return catcher.Error("error writing YAML file", err, map[string]any{"file": f})
	}

	return nil
}
