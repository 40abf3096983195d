package keystore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateProductionAdminKeyRequiresKey(t *testing.T) {
	err := ValidateProductionAdminKey("production", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required in production mode")
}

func TestValidateProductionAdminKeyRequiresLength(t *testing.T) {
	err := ValidateProductionAdminKey("production", "tooshort")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 16 characters")
}

func TestValidateProductionAdminKeyAcceptsValidKey(t *testing.T) {
	assert.NoError(t, ValidateProductionAdminKey("production", "abcdef0123456789"))
}

func TestValidateProductionAdminKeyDevelopmentAllowsMissing(t *testing.T) {
	assert.NoError(t, ValidateProductionAdminKey("development", ""))
}

func TestGenerateAndValidateSecuredKeyRoundTrips(t *testing.T) {
	key := GenerateSecuredKey("parent-secret", Restriction{Filters: "tenant=42", MaxHitsPerPage: 10})
	restriction, err := ValidateSecuredKey("parent-secret", key)
	require.NoError(t, err)
	assert.Equal(t, "tenant=42", restriction.Filters)
	assert.Equal(t, 10, restriction.MaxHitsPerPage)
}

func TestValidateSecuredKeyRejectsWrongParent(t *testing.T) {
	key := GenerateSecuredKey("parent-secret", Restriction{Filters: "tenant=42"})
	_, err := ValidateSecuredKey("wrong-secret", key)
	require.Error(t, err)
}

func TestFileStoreCreateGetAuthenticateDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "keys.yaml"))
	require.NoError(t, err)

	key, err := store.CreateKey(context.Background(), "s3cr3t-value", "test key", []string{"search"}, []string{"products"})
	require.NoError(t, err)

	fetched, ok, err := store.GetKey(context.Background(), key.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "test key", fetched.Description)

	_, ok, err = store.Authenticate(context.Background(), key.ID, "s3cr3t-value")
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = store.Authenticate(context.Background(), key.ID, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.DeleteKey(context.Background(), key.ID))
	_, ok, err = store.GetKey(context.Background(), key.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStorePersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keys.yaml")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	key, err := store.CreateKey(context.Background(), "s3cr3t-value", "persisted", nil, nil)
	require.NoError(t, err)

	reloaded, err := NewFileStore(path)
	require.NoError(t, err)
	fetched, ok, err := reloaded.GetKey(context.Background(), key.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "persisted", fetched.Description)
}
