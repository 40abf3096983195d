package filter

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// compiled pairs a parsed filter AST with the error the parse produced, so a
// cache hit can replay either outcome without re-tokenizing.
type compiled struct {
	node *Node
	err  error
}

// Cache memoizes ParseString results keyed by the raw filter string. Filter
// strings repeat heavily across requests against the same index (the same
// secured-key forced filter, the same dashboard query), so caching the parse
// avoids re-tokenizing on every request. Modeled on the teacher's CELCache
// pattern (an expirable LRU guarding a CPU-bound parse/compile step).
type Cache struct {
	entries *lru.LRU[string, compiled]
}

// NewCache builds a filter parse cache holding up to size entries, each
// expiring after ttl.
func NewCache(size int, ttl time.Duration) *Cache {
	return &Cache{entries: lru.NewLRU[string, compiled](size, nil, ttl)}
}

// Parse parses src, consulting and populating the cache.
func (c *Cache) Parse(src string) (*Node, error) {
	if c == nil {
		return ParseString(src)
	}
	if hit, ok := c.entries.Get(src); ok {
		return hit.node, hit.err
	}
	node, err := ParseString(src)
	c.entries.Add(src, compiled{node: node, err: err})
	return node, err
}
