package keystore

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/threatwinds/go-sdk/catcher"
	"golang.org/x/crypto/bcrypt"
	"sigs.k8s.io/yaml"
)

// Key is one stored API key. Secret is never persisted in the clear; only
// HashedSecret is, via bcrypt (the same library the teacher uses for
// credential hashing elsewhere in its auth surface).
type Key struct {
	ID           string    `json:"id"`
	HashedSecret string    `json:"hashedSecret"`
	Description  string    `json:"description"`
	ACL          []string  `json:"acl"`
	Indexes      []string  `json:"indexes"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Store is the key-management collaborator the HTTP layer's /1/keys
// endpoints depend on.
type Store interface {
	CreateKey(ctx context.Context, secret, description string, acl, indexes []string) (Key, error)
	GetKey(ctx context.Context, id string) (Key, bool, error)
	DeleteKey(ctx context.Context, id string) error
	ListKeys(ctx context.Context) ([]Key, error)
	Authenticate(ctx context.Context, id, secret string) (Key, bool, error)
}

// FileStore is a bcrypt-hashed, YAML-persisted key store guarded by a
// single mutex — the default backend (§5: the key store is internally
// synchronized and shared across handlers).
type FileStore struct {
	mu   sync.RWMutex
	path string
	keys map[string]Key
}

// NewFileStore loads path if it exists, or starts empty.
func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path, keys: map[string]Key{}}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		return nil, catcher.Error("failed to read key store file", err, map[string]any{"status": 500, "kind": "keystore_error"})
	}
	var keys []Key
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return nil, catcher.Error("failed to parse key store file", err, map[string]any{"status": 500, "kind": "keystore_error"})
	}
	for _, k := range keys {
		fs.keys[k.ID] = k
	}
	return fs, nil
}

func (fs *FileStore) persistLocked() error {
	list := make([]Key, 0, len(fs.keys))
	for _, k := range fs.keys {
		list = append(list, k)
	}
	data, err := yaml.Marshal(list)
	if err != nil {
		return catcher.Error("failed to marshal key store", err, map[string]any{"status": 500, "kind": "keystore_error"})
	}
	if err := os.WriteFile(fs.path, data, 0o600); err != nil {
		return catcher.Error("failed to write key store file", err, map[string]any{"status": 500, "kind": "keystore_error"})
	}
	return nil
}

func (fs *FileStore) CreateKey(_ context.Context, secret, description string, acl, indexes []string) (Key, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return Key{}, catcher.Error("failed to hash key secret", err, map[string]any{"status": 500, "kind": "keystore_error"})
	}
	key := Key{
		ID:           uuid.NewString(),
		HashedSecret: string(hashed),
		Description:  description,
		ACL:          acl,
		Indexes:      indexes,
		CreatedAt:    time.Now().UTC(),
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.keys[key.ID] = key
	if err := fs.persistLocked(); err != nil {
		return Key{}, err
	}
	return key, nil
}

func (fs *FileStore) GetKey(_ context.Context, id string) (Key, bool, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	k, ok := fs.keys[id]
	return k, ok, nil
}

func (fs *FileStore) DeleteKey(_ context.Context, id string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.keys, id)
	return fs.persistLocked()
}

func (fs *FileStore) ListKeys(_ context.Context) ([]Key, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	out := make([]Key, 0, len(fs.keys))
	for _, k := range fs.keys {
		out = append(out, k)
	}
	return out, nil
}

func (fs *FileStore) Authenticate(_ context.Context, id, secret string) (Key, bool, error) {
	fs.mu.RLock()
	k, ok := fs.keys[id]
	fs.mu.RUnlock()
	if !ok {
		return Key{}, false, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(k.HashedSecret), []byte(secret)); err != nil {
		return Key{}, false, nil
	}
	return k, true, nil
}
