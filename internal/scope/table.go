package scope

import (
	"fmt"
	"reflect"
	"runtime"
	"sync"
	"sync/atomic"
	"weak"

	ireflect "github.com/danpasecinic/awl/internal/reflect"
)

// Table associates scope owners with their caches without keeping the owners
// alive. Pointer owners are keyed by a weak pointer and their cache is evicted
// once the owner is collected. Comparable non-pointer owners (names, ids) have
// no lifetime and are keyed by value until removed explicitly.
//
// Eviction cannot see through the cache itself: an owner referenced by one of
// its cached instances stays reachable through the table and is only dropped
// by Remove.
type Table struct {
	mu      sync.Mutex
	weak    map[weak.Pointer[byte]]*Cache
	values  map[any]*Cache
	seq     atomic.Uint64
	evicted atomic.Uint64
	waits   *waits
}

func NewTable() *Table {
	return &Table{
		weak:   make(map[weak.Pointer[byte]]*Cache),
		values: make(map[any]*Cache),
		waits:  newWaits(),
	}
}

type ownerKey struct {
	ptr   *byte
	weak  weak.Pointer[byte]
	value any
}

func keyOf(owner any) (ownerKey, error) {
	if owner == nil {
		return ownerKey{}, fmt.Errorf("scope owner is nil")
	}
	if p, ok := ireflect.Pointer(owner); ok {
		ptr := (*byte)(p)
		return ownerKey{ptr: ptr, weak: weak.Make(ptr)}, nil
	}
	if !reflect.TypeOf(owner).Comparable() {
		return ownerKey{}, fmt.Errorf("scope owner of type %T is neither a pointer nor comparable", owner)
	}
	return ownerKey{value: owner}, nil
}

// Get returns the cache for owner if one exists.
func (t *Table) Get(owner any) (*Cache, bool) {
	k, err := keyOf(owner)
	if err != nil {
		return nil, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if k.ptr != nil {
		c, ok := t.weak[k.weak]
		return c, ok
	}
	c, ok := t.values[k.value]
	return c, ok
}

// GetOrCreate returns the cache for owner, creating it on first use.
func (t *Table) GetOrCreate(owner any) (*Cache, error) {
	k, err := keyOf(owner)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if k.ptr == nil {
		c, ok := t.values[k.value]
		if !ok {
			c = newCache(t.next, t.waits)
			t.values[k.value] = c
		}
		return c, nil
	}

	if c, ok := t.weak[k.weak]; ok {
		return c, nil
	}

	c := newCache(t.next, t.waits)
	t.weak[k.weak] = c
	runtime.AddCleanup(k.ptr, t.evict, k.weak)
	return c, nil
}

// Remove detaches the cache of owner and returns it.
func (t *Table) Remove(owner any) (*Cache, bool) {
	k, err := keyOf(owner)
	if err != nil {
		return nil, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if k.ptr != nil {
		c, ok := t.weak[k.weak]
		delete(t.weak, k.weak)
		return c, ok
	}
	c, ok := t.values[k.value]
	delete(t.values, k.value)
	return c, ok
}

// Caches returns every live cache.
func (t *Table) Caches() []*Cache {
	t.mu.Lock()
	defer t.mu.Unlock()

	caches := make([]*Cache, 0, len(t.weak)+len(t.values))
	for _, c := range t.weak {
		caches = append(caches, c)
	}
	for _, c := range t.values {
		caches = append(caches, c)
	}
	return caches
}

// Len is the number of owners with a cache.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.weak) + len(t.values)
}

// Evicted counts caches dropped because their owner was collected.
func (t *Table) Evicted() uint64 {
	return t.evicted.Load()
}

func (t *Table) next() uint64 {
	return t.seq.Add(1)
}

func (t *Table) evict(key weak.Pointer[byte]) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.weak[key]; ok {
		delete(t.weak, key)
		t.evicted.Add(1)
	}
}
