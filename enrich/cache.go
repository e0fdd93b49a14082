/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package enrich

import (
	"sync"

	"github.com/Seednode/pokenator/pokeapi"
)

// Cache memoizes lookup outcomes by normalized key for the lifetime of one
// widget. A nil record marks a key known to have no detail. Entries are never
// evicted.
type Cache struct {
	mu sync.RWMutex
	m  map[string]*pokeapi.Pokemon
}

func NewCache() *Cache {
	return &Cache{m: make(map[string]*pokeapi.Pokemon)}
}

// Get returns the cached record and whether the key has been resolved at all.
// A resolved key with a nil record is a cached not-found.
func (c *Cache) Get(key string) (*pokeapi.Pokemon, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.m[key]
	return p, ok
}

func (c *Cache) Put(key string, p *pokeapi.Pokemon) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = p
}

func (c *Cache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
