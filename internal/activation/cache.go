// Package activation tracks which instances a single resolution pass has
// activated or deactivated, and which contexts are still being built.
package activation

import (
	"sync"

	"github.com/danpasecinic/awl/internal/reflect"
)

// Cache holds two identity sets. Membership is by object identity, so two
// equal but distinct objects are tracked independently.
type Cache struct {
	mu          sync.Mutex
	activated   map[any]struct{}
	deactivated map[any]struct{}
}

func NewCache() *Cache {
	return &Cache{
		activated:   make(map[any]struct{}),
		deactivated: make(map[any]struct{}),
	}
}

// AddActivated records instance and reports whether it was newly added.
// Adding an instance twice is a no-op.
func (c *Cache) AddActivated(instance any) bool {
	return c.add(c.activated, instance)
}

func (c *Cache) AddDeactivated(instance any) bool {
	return c.add(c.deactivated, instance)
}

func (c *Cache) IsActivated(instance any) bool {
	return c.has(c.activated, instance)
}

func (c *Cache) IsDeactivated(instance any) bool {
	return c.has(c.deactivated, instance)
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.activated)
	clear(c.deactivated)
}

func (c *Cache) Len() (activated, deactivated int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.activated), len(c.deactivated)
}

func (c *Cache) add(set map[any]struct{}, instance any) bool {
	key, ok := reflect.Identity(instance)
	if !ok {
		// no identity: every occurrence counts as new
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := set[key]; exists {
		return false
	}
	set[key] = struct{}{}
	return true
}

func (c *Cache) has(set map[any]struct{}, instance any) bool {
	key, ok := reflect.Identity(instance)
	if !ok {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, exists := set[key]
	return exists
}
