package cache

import (
	"context"
	"sync"
	"time"

	"github.com/aqagent/aqagent/pkg/models"
)

// MemoryStore is a sharded-by-namespace, mutex-guarded map cache with a
// soft per-namespace LRU cap and a background hard-wall sweep. Grounded on
// the teacher's sessions/memory.go (clone-on-read map store) and
// sessions/expiry.go (ticker-driven sweep).
type MemoryStore struct {
	mu         sync.Mutex
	namespaces map[string]map[string]*models.CacheEntry
	order      map[string][]string // per-namespace insertion order, oldest first

	maxPerNamespace int
	hardWall        time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

// MemoryStoreOptions configures MemoryStore eviction behavior.
type MemoryStoreOptions struct {
	// MaxPerNamespace is the soft cap before the oldest entries are evicted.
	MaxPerNamespace int
	// HardWall is the max age an entry is allowed regardless of its TTL.
	HardWall time.Duration
	// SweepInterval is how often the background sweep runs.
	SweepInterval time.Duration
}

// DefaultMemoryStoreOptions matches spec §4.1's defaults: 1000 entries per
// namespace, 4-hour hard wall, swept at most once every 5 minutes.
func DefaultMemoryStoreOptions() MemoryStoreOptions {
	return MemoryStoreOptions{
		MaxPerNamespace: 1000,
		HardWall:        4 * time.Hour,
		SweepInterval:   5 * time.Minute,
	}
}

// NewMemoryStore creates a MemoryStore and starts its background sweep
// goroutine. Call Close to stop the sweep.
func NewMemoryStore(opts MemoryStoreOptions) *MemoryStore {
	if opts.MaxPerNamespace <= 0 {
		opts.MaxPerNamespace = 1000
	}
	if opts.HardWall <= 0 {
		opts.HardWall = 4 * time.Hour
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 5 * time.Minute
	}

	s := &MemoryStore{
		namespaces:      make(map[string]map[string]*models.CacheEntry),
		order:           make(map[string][]string),
		maxPerNamespace: opts.MaxPerNamespace,
		hardWall:        opts.HardWall,
		stop:            make(chan struct{}),
	}
	go s.sweepLoop(opts.SweepInterval)
	return s
}

// Get returns a deep-copied snapshot of the entry; callers never see a live
// pointer into the store.
func (s *MemoryStore) Get(_ context.Context, namespace, key string) (models.CacheEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.namespaces[namespace]
	if !ok {
		return models.CacheEntry{}, false
	}
	entry, ok := ns[key]
	if !ok {
		return models.CacheEntry{}, false
	}
	if time.Since(entry.CreatedAt) > s.hardWall {
		delete(ns, key)
		return models.CacheEntry{}, false
	}
	return *entry, true
}

// Set stores a value, evicting the oldest entry in the namespace if the
// soft cap is exceeded.
func (s *MemoryStore) Set(_ context.Context, namespace, key string, value []byte, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.namespaces[namespace]
	if !ok {
		ns = make(map[string]*models.CacheEntry)
		s.namespaces[namespace] = ns
	}

	if _, exists := ns[key]; !exists {
		s.order[namespace] = append(s.order[namespace], key)
	}

	ns[key] = &models.CacheEntry{
		Namespace: namespace,
		Key:       key,
		Value:     append([]byte(nil), value...),
		CreatedAt: time.Now(),
		TTL:       ttl,
	}

	s.evictOverflow(namespace)
}

func (s *MemoryStore) evictOverflow(namespace string) {
	ns := s.namespaces[namespace]
	order := s.order[namespace]
	for len(ns) > s.maxPerNamespace && len(order) > 0 {
		oldest := order[0]
		order = order[1:]
		delete(ns, oldest)
	}
	s.order[namespace] = order
}

// Delete removes a single key.
func (s *MemoryStore) Delete(_ context.Context, namespace, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ns, ok := s.namespaces[namespace]; ok {
		delete(ns, key)
	}
}

// ClearNamespace removes every entry in a namespace.
func (s *MemoryStore) ClearNamespace(_ context.Context, namespace string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.namespaces, namespace)
	delete(s.order, namespace)
}

// Close stops the background sweep goroutine.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *MemoryStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for namespace, ns := range s.namespaces {
		var kept []string
		for _, key := range s.order[namespace] {
			entry, ok := ns[key]
			if !ok {
				continue
			}
			if now.Sub(entry.CreatedAt) > s.hardWall {
				delete(ns, key)
				continue
			}
			kept = append(kept, key)
		}
		s.order[namespace] = kept
	}
}
