package settingsstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flapjackhq/flapjack/document"
)

func TestCreateTenantSeedsDefaultSettings(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.CreateTenant(context.Background(), "products"))

	settings, err := store.Get(context.Background(), "products")
	require.NoError(t, err)
	assert.Empty(t, settings.SearchableAttributes)
}

func TestPutGetRoundTrips(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	settings := document.Settings{
		SearchableAttributes:  []string{"name", "description"},
		AttributesForFaceting: []string{"brand"},
		MaxValuesPerFacet:     100,
	}
	require.NoError(t, store.Put(context.Background(), "products", settings))

	got, err := store.Get(context.Background(), "products")
	require.NoError(t, err)
	assert.Equal(t, settings, got)
}

func TestGetMissingIndexReturnsZeroValue(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	got, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, document.Settings{}, got)
}

func TestDeleteTenantRemovesSettings(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.CreateTenant(context.Background(), "products"))
	require.NoError(t, store.DeleteTenant(context.Background(), "products"))

	tenants, err := store.ListTenants(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, tenants, "products")
}

func TestListTenantsDiscoversExistingDirectory(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, store.CreateTenant(context.Background(), "a"))
	require.NoError(t, store.CreateTenant(context.Background(), "b"))

	reopened, err := New(dir)
	require.NoError(t, err)
	tenants, err := reopened.ListTenants(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, tenants)
}
