package cache

import (
	"container/list"
	"errors"
	"sync"
)

// ErrItemTooLarge is returned when a value exceeds the cache capacity
// outright and could never be stored.
var ErrItemTooLarge = errors.New("item exceeds cache capacity")

// Memory is a byte-bounded in-memory cache with LRU eviction.
type Memory struct {
	capacity int64
	size     int64

	items    map[string]*list.Element
	eviction *list.List

	mu sync.Mutex
}

type memoryEntry struct {
	key   string
	value []byte
}

// NewMemory creates a cache holding at most capacity bytes of values.
func NewMemory(capacity int64) *Memory {
	return &Memory{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
	}
}

// Get retrieves a value and marks it most recently used.
func (c *Memory) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}

	c.eviction.MoveToFront(elem)
	return elem.Value.(*memoryEntry).value, true
}

// Put stores a value, evicting least recently used entries until it fits.
func (c *Memory) Put(key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	valueSize := int64(len(value))
	if valueSize > c.capacity {
		return ErrItemTooLarge
	}

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*memoryEntry)
		c.size += valueSize - int64(len(entry.value))
		entry.value = value
		c.eviction.MoveToFront(elem)
		return nil
	}

	for c.size+valueSize > c.capacity && c.eviction.Len() > 0 {
		c.evictOldest()
	}

	elem := c.eviction.PushFront(&memoryEntry{key: key, value: value})
	c.items[key] = elem
	c.size += valueSize
	return nil
}

// Delete removes an entry if present.
func (c *Memory) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

// Clear removes all entries.
func (c *Memory) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.eviction.Init()
	c.size = 0
}

// Len returns the number of cached entries.
func (c *Memory) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Size returns the total bytes of cached values.
func (c *Memory) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// evictOldest removes the least recently used entry. Lock must be held.
func (c *Memory) evictOldest() {
	if elem := c.eviction.Back(); elem != nil {
		c.removeElement(elem)
	}
}

// removeElement unlinks an element. Lock must be held.
func (c *Memory) removeElement(elem *list.Element) {
	c.eviction.Remove(elem)
	entry := elem.Value.(*memoryEntry)
	delete(c.items, entry.key)
	c.size -= int64(len(entry.value))
}
