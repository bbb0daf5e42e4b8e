// Package cache holds rendered read views keyed by the gym or owner they belong
// to, so a write can drop exactly the views it affects.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache stores JSON-encodable views with a TTL and prefix invalidation
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Invalidate(ctx context.Context, prefix string) error
}

// GymKey is the cache key of one view of one gym. Every gym view shares the
// prefix GymPrefix(gymID).
func GymKey(gymID, view string) string { return GymPrefix(gymID) + view }

// GymPrefix covers every cached view of a gym
func GymPrefix(gymID string) string { return "gym:" + gymID + ":" }

// OwnerKey is the cache key of an owner-global view (branding)
func OwnerKey(ownerID, view string) string { return OwnerPrefix(ownerID) + view }

// OwnerPrefix covers every cached view of an owner
func OwnerPrefix(ownerID string) string { return "owner:" + ownerID + ":" }

// ProfileKey is the cache key of a resolved profile
func ProfileKey(profileID string) string { return ProfilePrefix(profileID) + "self" }

// ProfilePrefix covers every cached entry of a profile
func ProfilePrefix(profileID string) string { return "profile:" + profileID + ":" }

// Memory is an in-process Cache backed by an expirable LRU
type Memory struct {
	items *lru.LRU[string, []byte]
}

// NewMemory creates a cache holding at most size entries, each for at most
// maxTTL. Per-entry TTLs shorter than maxTTL are enforced on read.
func NewMemory(size int, maxTTL time.Duration) *Memory {
	if size <= 0 {
		size = 1024
	}
	return &Memory{items: lru.NewLRU[string, []byte](size, nil, maxTTL)}
}

type entry struct {
	ExpiresAt time.Time       `json:"e"`
	Value     json.RawMessage `json:"v"`
}

// Get decodes the cached value into dest if present and not expired
func (c *Memory) Get(_ context.Context, key string, dest any) (bool, error) {
	raw, ok := c.items.Get(key)
	if !ok {
		return false, nil
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		c.items.Remove(key)
		return false, nil
	}
	if time.Now().After(e.ExpiresAt) {
		c.items.Remove(key)
		return false, nil
	}
	if err := json.Unmarshal(e.Value, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

// Set stores value under key for ttl
func (c *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	raw, err := json.Marshal(entry{ExpiresAt: time.Now().Add(ttl), Value: data})
	if err != nil {
		return err
	}
	c.items.Add(key, raw)
	return nil
}

// Invalidate removes all items whose key starts with prefix
func (c *Memory) Invalidate(_ context.Context, prefix string) error {
	for _, key := range c.items.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.items.Remove(key)
		}
	}
	return nil
}
