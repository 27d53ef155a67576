package product

import (
	"strings"
	"sync"
	"time"
)

// nameCache holds the product-name list used by autocomplete so every
// keystroke does not hit the database. Entries expire after the TTL and the
// cache is invalidated whenever a product changes.
type nameCache struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	names     []string
	fetchedAt time.Time
}

func newNameCache(ttl time.Duration) *nameCache {
	return &nameCache{ttl: ttl, now: time.Now}
}

// get returns the cached name list, refreshing it through fetch when the
// entry is missing or older than the TTL.
func (c *nameCache) get(fetch func() ([]string, error)) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.names != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		return c.names, nil
	}

	names, err := fetch()
	if err != nil {
		return nil, err
	}
	c.names = names
	c.fetchedAt = c.now()
	return names, nil
}

func (c *nameCache) invalidate() {
	c.mu.Lock()
	c.names = nil
	c.mu.Unlock()
}

// filterNames returns names containing the term, case-insensitive.
func filterNames(names []string, term string) []string {
	term = strings.ToLower(term)
	matches := make([]string, 0)
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), term) {
			matches = append(matches, n)
		}
	}
	return matches
}
