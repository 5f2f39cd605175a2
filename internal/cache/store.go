// Package cache provides the namespaced key/value Cache Layer (C1):
// a pluggable Store interface, an in-memory LRU implementation grounded on
// the teacher's sessions/memory.go clone-on-read map store, a Redis-backed
// implementation, and the air-quality-domain FreshnessPolicy.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/aqagent/aqagent/pkg/models"
)

// Store is the Cache Layer's contract. Implementations never surface
// backend errors to the caller — any storage failure degrades to a miss,
// per spec's stated failure mode.
type Store interface {
	Get(ctx context.Context, namespace, key string) (models.CacheEntry, bool)
	Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, namespace, key string)
	ClearNamespace(ctx context.Context, namespace string)
}

// HashParams builds a stable hex cache key from an ordered set of
// key/value pairs. crypto/sha256 is used directly: no ecosystem hashing
// library in the pack does anything this simple better, and a stable hash
// of short strings has no meaningful throughput requirement that would
// justify reaching past the standard library.
func HashParams(kv map[string]string) string {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%s;", k, kv[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}
