package octree

import (
	"github.com/golang/groupcache/lru"
)

// Cache keeps loaded nodes in least-recently-visible order and unloads the oldest ones once the
// number of cached points goes over budget.
type Cache struct {
	budget    int
	numPoints int
	entries   *lru.Cache
	onEvict   func(*Node)
}

// NewCache returns a cache holding at most budget points. onEvict, if set, runs after a node has
// been unloaded.
func NewCache(budget int, onEvict func(*Node)) *Cache {
	c := &Cache{budget: budget, entries: lru.New(0), onEvict: onEvict}
	c.entries.OnEvicted = func(key lru.Key, _ interface{}) {
		n := key.(*Node)
		c.numPoints -= len(n.Positions)
		n.Unload()
		if c.onEvict != nil {
			c.onEvict(n)
		}
	}
	return c
}

// Touch marks n as the most recently visible node, adding it if needed.
func (c *Cache) Touch(n *Node) {
	if _, ok := c.entries.Get(n); ok {
		return
	}
	c.entries.Add(n, struct{}{})
	c.numPoints += len(n.Positions)
}

// Remove unloads n and its cached descendants.
func (c *Cache) Remove(n *Node) {
	n.Traverse(func(d *Node) bool {
		c.entries.Remove(d)
		return true
	})
}

// Len returns the number of cached nodes.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// NumPoints returns the number of cached points.
func (c *Cache) NumPoints() int {
	return c.numPoints
}

// Evict unloads least recently visible nodes until the cache is within budget, and returns how
// many were unloaded.
func (c *Cache) Evict() int {
	evicted := 0
	for c.numPoints > c.budget && c.entries.Len() > 0 {
		c.entries.RemoveOldest()
		evicted++
	}
	return evicted
}

// Clear unloads everything.
func (c *Cache) Clear() {
	c.entries.Clear()
	c.numPoints = 0
}
