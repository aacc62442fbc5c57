package cache

import (
	"container/list"
	"sync"
)

type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

// LRUCache is a bounded, thread-safe map that evicts the least recently used
// entry once it holds more than its capacity.
type LRUCache[K comparable, V any] struct {
	capacity int
	items    map[K]*list.Element
	eviction *list.List
	mu       sync.Mutex
	onEvict  func(key K, value V)
}

// NewLRUCache creates a cache holding at most capacity entries.
// It panics if capacity is not positive.
func NewLRUCache[K comparable, V any](capacity int) *LRUCache[K, V] {
	if capacity <= 0 {
		panic("LRU cache capacity must be positive")
	}
	return &LRUCache[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element),
		eviction: list.New(),
	}
}

// SetEvictCallback registers fn to run for every entry dropped by eviction,
// Remove or Clear. The callback runs after the cache lock is released, so it
// may call back into the cache.
func (c *LRUCache[K, V]) SetEvictCallback(fn func(key K, value V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// Get returns the value for key and marks it as recently used.
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.eviction.MoveToFront(elem)
		return elem.Value.(*lruEntry[K, V]).value, true
	}

	var zero V
	return zero, false
}

// Put stores value under key and returns the previous value, if any.
func (c *LRUCache[K, V]) Put(key K, value V) (V, bool) {
	c.mu.Lock()

	if elem, ok := c.items[key]; ok {
		c.eviction.MoveToFront(elem)
		entry := elem.Value.(*lruEntry[K, V])
		old := entry.value
		entry.value = value
		c.mu.Unlock()
		return old, true
	}

	evicted := c.insert(key, value)
	cb := c.onEvict
	c.mu.Unlock()

	c.notify(cb, evicted)

	var zero V
	return zero, false
}

// GetOrCreate returns the cached value for key, or stores and returns the
// result of create when the key is absent. The boolean reports whether the
// value already existed. create runs under the cache lock and must not use
// the cache.
func (c *LRUCache[K, V]) GetOrCreate(key K, create func() (V, error)) (V, bool, error) {
	c.mu.Lock()

	if elem, ok := c.items[key]; ok {
		c.eviction.MoveToFront(elem)
		v := elem.Value.(*lruEntry[K, V]).value
		c.mu.Unlock()
		return v, true, nil
	}

	value, err := create()
	if err != nil {
		c.mu.Unlock()
		var zero V
		return zero, false, err
	}

	evicted := c.insert(key, value)
	cb := c.onEvict
	c.mu.Unlock()

	c.notify(cb, evicted)
	return value, false, nil
}

// Remove deletes key and returns the value it held.
func (c *LRUCache[K, V]) Remove(key K) (V, bool) {
	c.mu.Lock()

	elem, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		var zero V
		return zero, false
	}

	entry := c.unlink(elem)
	cb := c.onEvict
	c.mu.Unlock()

	c.notify(cb, []*lruEntry[K, V]{entry})
	return entry.value, true
}

// Len returns the number of cached entries.
func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eviction.Len()
}

// Range calls fn for a snapshot of the entries, most recently used first,
// until fn returns false. Recency is not updated.
func (c *LRUCache[K, V]) Range(fn func(key K, value V) bool) {
	c.mu.Lock()
	snapshot := make([]*lruEntry[K, V], 0, c.eviction.Len())
	for elem := c.eviction.Front(); elem != nil; elem = elem.Next() {
		e := elem.Value.(*lruEntry[K, V])
		snapshot = append(snapshot, &lruEntry[K, V]{key: e.key, value: e.value})
	}
	c.mu.Unlock()

	for _, e := range snapshot {
		if !fn(e.key, e.value) {
			return
		}
	}
}

// Clear drops every entry, running the evict callback for each.
func (c *LRUCache[K, V]) Clear() {
	c.mu.Lock()
	evicted := make([]*lruEntry[K, V], 0, c.eviction.Len())
	for elem := c.eviction.Front(); elem != nil; elem = elem.Next() {
		evicted = append(evicted, elem.Value.(*lruEntry[K, V]))
	}
	c.items = make(map[K]*list.Element)
	c.eviction.Init()
	cb := c.onEvict
	c.mu.Unlock()

	c.notify(cb, evicted)
}

// Must be called with lock held.
func (c *LRUCache[K, V]) insert(key K, value V) []*lruEntry[K, V] {
	c.items[key] = c.eviction.PushFront(&lruEntry[K, V]{key: key, value: value})

	var evicted []*lruEntry[K, V]
	for c.eviction.Len() > c.capacity {
		evicted = append(evicted, c.unlink(c.eviction.Back()))
	}
	return evicted
}

// Must be called with lock held.
func (c *LRUCache[K, V]) unlink(elem *list.Element) *lruEntry[K, V] {
	c.eviction.Remove(elem)
	entry := elem.Value.(*lruEntry[K, V])
	delete(c.items, entry.key)
	return entry
}

func (c *LRUCache[K, V]) notify(cb func(K, V), entries []*lruEntry[K, V]) {
	if cb == nil {
		return
	}
	for _, e := range entries {
		cb(e.key, e.value)
	}
}
