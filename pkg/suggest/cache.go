package suggest

import (
	"sync"

	"github.com/charmbracelet/log"
)

// PrefixCache keeps recent completion results keyed by prefix and
// evicts the least recently used key when full.
type PrefixCache struct {
	entries     map[string][]Item
	accessTime  map[string]int64
	accessCount int64
	maxEntries  int
	hits        int64
	mu          sync.Mutex
}

// NewPrefixCache returns a cache holding up to maxEntries prefixes.
func NewPrefixCache(maxEntries int) *PrefixCache {
	return &PrefixCache{
		entries:    make(map[string][]Item, maxEntries),
		accessTime: make(map[string]int64, maxEntries),
		maxEntries: maxEntries,
	}
}

// Get returns a copy of the cached items for key.
func (pc *PrefixCache) Get(key string) ([]Item, bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	items, ok := pc.entries[key]
	if !ok {
		return nil, false
	}
	pc.hits++
	pc.markAccessed(key)
	return append([]Item(nil), items...), true
}

// Put stores items under key.
func (pc *PrefixCache) Put(key string, items []Item) {
	if pc.maxEntries <= 0 {
		return
	}
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if _, ok := pc.entries[key]; !ok && len(pc.entries) >= pc.maxEntries {
		pc.evictLRU()
	}
	pc.entries[key] = append([]Item(nil), items...)
	pc.markAccessed(key)
}

// Stats reports cache usage.
func (pc *PrefixCache) Stats() map[string]int {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	return map[string]int{
		"cachedPrefixes": len(pc.entries),
		"maxPrefixes":    pc.maxEntries,
		"cacheHits":      int(pc.hits),
	}
}

func (pc *PrefixCache) markAccessed(key string) {
	pc.accessCount++
	pc.accessTime[key] = pc.accessCount
}

func (pc *PrefixCache) evictLRU() {
	var oldestKey string
	var oldestTime int64 = 1<<63 - 1

	for key, t := range pc.accessTime {
		if t < oldestTime {
			oldestTime = t
			oldestKey = key
		}
	}

	if oldestKey != "" {
		delete(pc.entries, oldestKey)
		delete(pc.accessTime, oldestKey)
		log.Debugf("Evicted prefix '%s' from cache", oldestKey)
	}
}
