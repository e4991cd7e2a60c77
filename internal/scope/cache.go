package scope

import (
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/danpasecinic/awl/internal/reflect"
)

// Entry is one cached instance. Seq orders entries across every cache of a
// table so teardown can run in reverse activation order.
type Entry struct {
	Key      string
	Instance any
	Seq      uint64
	Data     any
}

// Cache maps binding keys to the instances created for one scope owner.
// It holds no reference to the owner itself.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	flight  singleflight.Group
	seq     func() uint64
	waits   *waits
}

func newCache(seq func() uint64, ws *waits) *Cache {
	return &Cache{
		entries: make(map[string]*Entry),
		seq:     seq,
		waits:   ws,
	}
}

func (c *Cache) Lookup(key string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	return e, ok
}

// GetOrCreate returns the entry for key, calling create at most once per key
// even when callers race. Concurrent callers for the same key wait for the
// first one and share its result; other keys are not blocked. Before waiting,
// w is checked against the other passes of the table: if the creator of key
// is itself blocked on something w is creating, a *CycleError is returned.
func (c *Cache) GetOrCreate(key string, w Waiter, create func() (any, any, error)) (*Entry, bool, error) {
	if e, ok := c.Lookup(key); ok {
		return e, false, nil
	}

	s := slot{cache: c, key: key}
	tracked := c.waits != nil && w.ID != ""
	if tracked {
		if err := c.waits.wait(s, w); err != nil {
			return nil, false, err
		}
		defer c.waits.done(s, w)
	}

	created := false
	v, err, _ := c.flight.Do(
		key, func() (any, error) {
			if e, ok := c.Lookup(key); ok {
				return e, nil
			}
			if tracked {
				c.waits.hold(s, w)
				defer c.waits.release(s)
			}

			instance, data, err := create()
			if err != nil {
				return nil, err
			}

			e := &Entry{Key: key, Instance: instance, Data: data, Seq: c.seq()}
			c.mu.Lock()
			c.entries[key] = e
			c.mu.Unlock()
			created = true
			return e, nil
		},
	)
	if err != nil {
		return nil, false, err
	}
	return v.(*Entry), created, nil
}

// Remove drops the entry holding instance (by identity) and returns it.
func (c *Cache) Remove(instance any) (*Entry, bool) {
	id, ok := reflect.Identity(instance)
	if !ok {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if eid, ok := reflect.Identity(e.Instance); ok && eid == id {
			delete(c.entries, key)
			return e, true
		}
	}
	return nil, false
}

// Drain empties the cache and returns its entries, newest first.
func (c *Cache) Drain() []*Entry {
	c.mu.Lock()
	entries := make([]*Entry, 0, len(c.entries))
	for _, e := range c.entries {
		entries = append(entries, e)
	}
	clear(c.entries)
	c.mu.Unlock()

	SortNewestFirst(entries)
	return entries
}

// Entries returns a snapshot of the cache, oldest first.
func (c *Cache) Entries() []*Entry {
	c.mu.RLock()
	entries := make([]*Entry, 0, len(c.entries))
	for _, e := range c.entries {
		entries = append(entries, e)
	}
	c.mu.RUnlock()

	slices.SortFunc(entries, func(a, b *Entry) int { return compareSeq(a.Seq, b.Seq) })
	return entries
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

func SortNewestFirst(entries []*Entry) {
	slices.SortFunc(entries, func(a, b *Entry) int { return compareSeq(b.Seq, a.Seq) })
}

func compareSeq(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
