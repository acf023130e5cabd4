package memcache

import (
	"sync"

	"github.com/trezcool/masomo/core/enrollment"
)

// Cache keeps the marks in memory only; they are lost with the process.
type Cache struct {
	mu  sync.RWMutex
	ids enrollment.IDSet
}

var _ enrollment.DurableCache = (*Cache)(nil) // interface compliance check

func New(ids ...int) *Cache {
	return &Cache{ids: enrollment.NewIDSet(ids...)}
}

func (c *Cache) Get() enrollment.IDSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return enrollment.NewIDSet(c.ids.Sorted()...)
}

func (c *Cache) Set(ids enrollment.IDSet) error {
	c.mu.Lock()
	c.ids = enrollment.NewIDSet(ids.Sorted()...)
	c.mu.Unlock()
	return nil
}
