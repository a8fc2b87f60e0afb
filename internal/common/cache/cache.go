// Package cache is the read-through TTL store shared by the resolver and the
// page extractor. Entries are process-wide, keyed by input parameters, and
// expire on their TTL only.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"perfume-studio/internal/common/metrics"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Key builds a fixed-length key from a namespace and the parts that identify an entry.
func Key(namespace string, parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return namespace + ":" + hex.EncodeToString(sum[:16])
}

func GetJSON(ctx context.Context, c Cache, key string, dst interface{}) (bool, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func SetJSON(ctx context.Context, c Cache, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.Set(ctx, key, data, ttl)
}

type instrumented struct {
	name  string
	inner Cache
}

// Instrumented counts hits, misses and errors under the given cache name.
func Instrumented(name string, c Cache) Cache {
	return &instrumented{name: name, inner: c}
}

func (i *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := i.inner.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues(i.name, "error").Inc()
	case ok:
		metrics.CacheLookups.WithLabelValues(i.name, "hit").Inc()
	default:
		metrics.CacheLookups.WithLabelValues(i.name, "miss").Inc()
	}
	return data, ok, err
}

func (i *instrumented) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return i.inner.Set(ctx, key, value, ttl)
}
