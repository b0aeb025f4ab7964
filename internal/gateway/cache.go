package gateway

import (
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

const DefaultCacheTTL = 10 * time.Minute

const (
	cacheKeyProducts   = "products"
	cacheKeyCategories = "categories"
)

// listCache holds the product and category listings. Each key carries a
// generation; a fill started before an invalidation is discarded so a slow
// read cannot put stale rows back.
type listCache struct {
	c   *ristretto.Cache[string, any]
	ttl time.Duration

	mu  sync.Mutex
	gen map[string]uint64
}

func newListCache(ttl time.Duration) (*listCache, error) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, any]{
		NumCounters:        100,
		MaxCost:            16,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create list cache: %w", err)
	}
	return &listCache{c: c, ttl: ttl, gen: map[string]uint64{}}, nil
}

func (lc *listCache) get(key string) (any, bool) {
	v, ok := lc.c.Get(key)
	if ok {
		cacheHitsTotal.WithLabelValues(key).Inc()
	} else {
		cacheMissesTotal.WithLabelValues(key).Inc()
	}
	return v, ok
}

func (lc *listCache) generation(key string) uint64 {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.gen[key]
}

// fill stores v unless key was invalidated since gen was read.
func (lc *listCache) fill(key string, gen uint64, v any) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if lc.gen[key] != gen {
		return
	}
	lc.c.SetWithTTL(key, v, 1, lc.ttl)
	lc.c.Wait()
}

func (lc *listCache) invalidate(key string) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.gen[key]++
	lc.c.Del(key)
}

func (lc *listCache) close() {
	lc.c.Close()
}
