package utils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string
	Count int
}

func TestYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.yaml")

	in := sample{Name: "widget", Count: 3}
	require.NoError(t, WriteYAML(path, &in))

	out, err := ReadYAML[sample](path)
	require.NoError(t, err)
	assert.Equal(t, in, *out)
}

func TestReadYAMLMissingFile(t *testing.T) {
	_, err := ReadYAML[sample](filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestPointerOf(t *testing.T) {
	p := PointerOf(42)
	require.NotNil(t, p)
	assert.Equal(t, 42, *p)
}
