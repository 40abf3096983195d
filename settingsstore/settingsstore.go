// Package settingsstore persists per-index document.Settings snapshots and
// serves them through a read-mostly LRU cache (§5 "settings are read far
// more often than written"). The settings store itself is an external
// collaborator per §1/§6; this package is the concrete file-backed
// implementation the rest of flapjackd wires in.
package settingsstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/threatwinds/go-sdk/catcher"

	"github.com/flapjackhq/flapjack/document"
	"github.com/flapjackhq/flapjack/utils"
)

// Store persists and serves document.Settings per index, plus tenant
// lifecycle (create/delete) bookkeeping for the data directory layout.
type Store struct {
	mu       sync.RWMutex
	dataDir  string
	cache    *lru.LRU[string, document.Settings]
	tenants  map[string]bool
}

// cacheSize and cacheTTL bound the read-mostly settings cache; settings
// change rarely relative to search volume, so a generous TTL is safe.
const (
	cacheSize = 1024
	cacheTTL  = 10 * time.Minute
)

// New opens (or initializes) a settings store rooted at dataDir, one YAML
// file per index under dataDir/<index>/settings.yaml, discovering existing
// tenants from the directory layout.
func New(dataDir string) (*Store, error) {
	s := &Store{
		dataDir: dataDir,
		cache:   lru.NewLRU[string, document.Settings](cacheSize, nil, cacheTTL),
		tenants: map[string]bool{},
	}
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, catcher.Error("failed to read data directory", err, map[string]any{"status": 500, "kind": "settings_store_error"})
	}
	for _, e := range entries {
		if e.IsDir() {
			s.tenants[e.Name()] = true
		}
	}
	return s, nil
}

func (s *Store) tenantDir(indexName string) string {
	return filepath.Join(s.dataDir, indexName)
}

func (s *Store) settingsPath(indexName string) string {
	return filepath.Join(s.tenantDir(indexName), "settings.yaml")
}

// CreateTenant provisions an index's data directory and seeds default
// settings if none exist yet (§6 "create_tenant").
func (s *Store) CreateTenant(_ context.Context, indexName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.tenantDir(indexName), 0o755); err != nil {
		return catcher.Error("failed to create tenant directory", err, map[string]any{"status": 500, "kind": "settings_store_error"})
	}
	s.tenants[indexName] = true

	if _, err := os.Stat(s.settingsPath(indexName)); os.IsNotExist(err) {
		return s.writeLocked(indexName, document.Settings{})
	}
	return nil
}

// DeleteTenant removes an index's settings and marks it gone.
func (s *Store) DeleteTenant(_ context.Context, indexName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tenants, indexName)
	s.cache.Remove(indexName)
	if err := os.RemoveAll(s.tenantDir(indexName)); err != nil {
		return catcher.Error("failed to remove tenant directory", err, map[string]any{"status": 500, "kind": "settings_store_error"})
	}
	return nil
}

// ListTenants returns the known index names.
func (s *Store) ListTenants(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.tenants))
	for name := range s.tenants {
		out = append(out, name)
	}
	return out, nil
}

// Get returns the cached settings for indexName, loading from disk on a
// cache miss.
func (s *Store) Get(_ context.Context, indexName string) (document.Settings, error) {
	if cached, ok := s.cache.Get(indexName); ok {
		return cached, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := os.Stat(s.settingsPath(indexName)); os.IsNotExist(err) {
		return document.Settings{}, nil
	}
	settings, err := utils.ReadYAML[document.Settings](s.settingsPath(indexName))
	if err != nil {
		return document.Settings{}, err
	}
	s.cache.Add(indexName, *settings)
	return *settings, nil
}

// Put replaces an index's settings, persisting to disk and replacing the
// cache entry with the new value.
func (s *Store) Put(_ context.Context, indexName string, settings document.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(indexName, settings)
}

func (s *Store) writeLocked(indexName string, settings document.Settings) error {
	if err := os.MkdirAll(s.tenantDir(indexName), 0o755); err != nil {
		return catcher.Error("failed to create tenant directory", err, map[string]any{"status": 500, "kind": "settings_store_error"})
	}
	if err := utils.WriteYAML(s.settingsPath(indexName), &settings); err != nil {
		return err
	}
	s.tenants[indexName] = true
	s.cache.Add(indexName, settings)
	return nil
}
