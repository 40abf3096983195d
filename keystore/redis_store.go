package keystore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/threatwinds/go-sdk/catcher"
	"golang.org/x/crypto/bcrypt"
)

// RedisStore is the distributed key-store backend: useful when multiple
// flapjackd processes share one key namespace (§5 "internally synchronized
// and shared" applies across instances too, not just goroutines, when this
// backend is selected instead of FileStore).
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing client; prefix namespaces keys so the
// store can share a Redis instance with other consumers.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (rs *RedisStore) keyOf(id string) string {
	return rs.prefix + ":key:" + id
}

func (rs *RedisStore) setKey() string {
	return rs.prefix + ":keys"
}

func (rs *RedisStore) CreateKey(ctx context.Context, secret, description string, acl, indexes []string) (Key, error) {
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
	data, err := json.Marshal(key)
	if err != nil {
		return Key{}, catcher.Error("failed to marshal key", err, map[string]any{"status": 500, "kind": "keystore_error"})
	}
	pipe := rs.client.TxPipeline()
	pipe.Set(ctx, rs.keyOf(key.ID), data, 0)
	pipe.SAdd(ctx, rs.setKey(), key.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return Key{}, catcher.Error("failed to store key in redis", err, map[string]any{"status": 500, "kind": "keystore_error"})
	}
	return key, nil
}

func (rs *RedisStore) GetKey(ctx context.Context, id string) (Key, bool, error) {
	data, err := rs.client.Get(ctx, rs.keyOf(id)).Bytes()
	if err == redis.Nil {
		return Key{}, false, nil
	}
	if err != nil {
		return Key{}, false, catcher.Error("failed to fetch key from redis", err, map[string]any{"status": 500, "kind": "keystore_error"})
	}
	var k Key
	if err := json.Unmarshal(data, &k); err != nil {
		return Key{}, false, catcher.Error("failed to unmarshal key", err, map[string]any{"status": 500, "kind": "keystore_error"})
	}
	return k, true, nil
}

func (rs *RedisStore) DeleteKey(ctx context.Context, id string) error {
	pipe := rs.client.TxPipeline()
	pipe.Del(ctx, rs.keyOf(id))
	pipe.SRem(ctx, rs.setKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return catcher.Error("failed to delete key from redis", err, map[string]any{"status": 500, "kind": "keystore_error"})
	}
	return nil
}

func (rs *RedisStore) ListKeys(ctx context.Context) ([]Key, error) {
	ids, err := rs.client.SMembers(ctx, rs.setKey()).Result()
	if err != nil {
		return nil, catcher.Error("failed to list keys from redis", err, map[string]any{"status": 500, "kind": "keystore_error"})
	}
	out := make([]Key, 0, len(ids))
	for _, id := range ids {
		k, ok, err := rs.GetKey(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, k)
		}
	}
	return out, nil
}

func (rs *RedisStore) Authenticate(ctx context.Context, id, secret string) (Key, bool, error) {
	k, ok, err := rs.GetKey(ctx, id)
	if err != nil || !ok {
		return Key{}, false, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(k.HashedSecret), []byte(secret)); err != nil {
		return Key{}, false, nil
	}
	return k, true, nil
}
