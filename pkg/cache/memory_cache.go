package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/XiaoConstantine/evolve-go/pkg/errors"
)

// MemoryCache implements an in-memory score cache with LRU eviction. It is
// the default backend: scores persist for the lifetime of the process, which
// covers repeated evaluations within one search run.
type MemoryCache struct {
	config    Config
	mu        sync.RWMutex
	entries   map[string]*memoryEntry
	lru       *lruList
	stats     Stats
	closeChan chan struct{}
	cleanupWG sync.WaitGroup
}

type memoryEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
	createdAt time.Time
	size      int64
	element   *lruElement
}

type lruElement struct {
	key  string
	prev *lruElement
	next *lruElement
}

type lruList struct {
	head *lruElement
	tail *lruElement
	size int
}

func newLRUList() *lruList {
	head := &lruElement{}
	tail := &lruElement{}
	head.next = tail
	tail.prev = head
	return &lruList{head: head, tail: tail}
}

func (l *lruList) moveToFront(elem *lruElement) {
	if elem.prev == l.head {
		return
	}
	elem.prev.next = elem.next
	elem.next.prev = elem.prev
	elem.prev = l.head
	elem.next = l.head.next
	l.head.next.prev = elem
	l.head.next = elem
}

func (l *lruList) pushFront(key string) *lruElement {
	elem := &lruElement{key: key}
	elem.prev = l.head
	elem.next = l.head.next
	l.head.next.prev = elem
	l.head.next = elem
	l.size++
	return elem
}

func (l *lruList) removeElement(elem *lruElement) {
	elem.prev.next = elem.next
	elem.next.prev = elem.prev
	l.size--
}

func (l *lruList) back() *lruElement {
	if l.tail.prev == l.head {
		return nil
	}
	return l.tail.prev
}

// NewMemoryCache creates a new in-memory score cache.
func NewMemoryCache(config Config) (*MemoryCache, error) {
	if config.Memory.CleanupInterval == 0 {
		config.Memory.CleanupInterval = time.Minute
	}

	cache := &MemoryCache{
		config:    config,
		entries:   make(map[string]*memoryEntry),
		lru:       newLRUList(),
		closeChan: make(chan struct{}),
		stats: Stats{
			MaxSize: config.MaxSize,
		},
	}

	cache.cleanupWG.Add(1)
	go cache.cleanupRoutine()

	return cache, nil
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		atomic.AddInt64(&c.stats.Misses, 1)
		return nil, false, nil
	}

	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		c.lru.removeElement(entry.element)
		atomic.AddInt64(&c.stats.Size, -entry.size)
		atomic.AddInt64(&c.stats.Misses, 1)
		return nil, false, nil
	}

	c.lru.moveToFront(entry.element)

	atomic.AddInt64(&c.stats.Hits, 1)
	c.stats.LastAccess = time.Now() // protected by c.mu

	return entry.value, true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	size := int64(len(value))

	if c.config.MaxSize > 0 && size > c.config.MaxSize {
		return errors.Newf(errors.CacheFailed, "value size %d exceeds max cache size %d", size, c.config.MaxSize)
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	} else if c.config.DefaultTTL > 0 {
		expiresAt = time.Now().Add(c.config.DefaultTTL)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, exists := c.entries[key]; exists {
		atomic.AddInt64(&c.stats.Size, size-existing.size)
		existing.value = value
		existing.size = size
		existing.expiresAt = expiresAt
		c.lru.moveToFront(existing.element)
	} else {
		currentSize := atomic.LoadInt64(&c.stats.Size)
		if c.config.MaxSize > 0 && currentSize+size > c.config.MaxSize {
			c.evictLRU(size)
		}

		element := c.lru.pushFront(key)
		c.entries[key] = &memoryEntry{
			key:       key,
			value:     value,
			expiresAt: expiresAt,
			createdAt: time.Now(),
			size:      size,
			element:   element,
		}
		atomic.AddInt64(&c.stats.Size, size)
	}

	atomic.AddInt64(&c.stats.Sets, 1)
	c.stats.LastAccess = time.Now() // protected by c.mu

	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.entries[key]; exists {
		delete(c.entries, key)
		c.lru.removeElement(entry.element)
		atomic.AddInt64(&c.stats.Size, -entry.size)
		atomic.AddInt64(&c.stats.Deletes, 1)
	}

	return nil
}

func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*memoryEntry)
	c.lru = newLRUList()

	atomic.StoreInt64(&c.stats.Hits, 0)
	atomic.StoreInt64(&c.stats.Misses, 0)
	atomic.StoreInt64(&c.stats.Sets, 0)
	atomic.StoreInt64(&c.stats.Deletes, 0)
	atomic.StoreInt64(&c.stats.Size, 0)

	return nil
}

func (c *MemoryCache) Stats() Stats {
	c.mu.RLock()
	lastAccess := c.stats.LastAccess
	c.mu.RUnlock()

	return Stats{
		Hits:       atomic.LoadInt64(&c.stats.Hits),
		Misses:     atomic.LoadInt64(&c.stats.Misses),
		Sets:       atomic.LoadInt64(&c.stats.Sets),
		Deletes:    atomic.LoadInt64(&c.stats.Deletes),
		Size:       atomic.LoadInt64(&c.stats.Size),
		MaxSize:    c.config.MaxSize,
		LastAccess: lastAccess,
	}
}

func (c *MemoryCache) Close() error {
	close(c.closeChan)
	c.cleanupWG.Wait()
	return nil
}

func (c *MemoryCache) evictLRU(neededSpace int64) {
	currentSize := atomic.LoadInt64(&c.stats.Size)
	targetSize := c.config.MaxSize - neededSpace

	for currentSize > targetSize && c.lru.size > 0 {
		elem := c.lru.back()
		if elem == nil {
			break
		}

		if entry, exists := c.entries[elem.key]; exists {
			delete(c.entries, elem.key)
			c.lru.removeElement(elem)
			currentSize -= entry.size
			atomic.AddInt64(&c.stats.Size, -entry.size)
		}
	}
}

func (c *MemoryCache) cleanupRoutine() {
	defer c.cleanupWG.Done()

	ticker := time.NewTicker(c.config.Memory.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.closeChan:
			return
		case <-ticker.C:
			c.cleanupExpired()
		}
	}
}

func (c *MemoryCache) cleanupExpired() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			delete(c.entries, key)
			c.lru.removeElement(entry.element)
			atomic.AddInt64(&c.stats.Size, -entry.size)
		}
	}
}

// Export streams entries for backup or migration to another backend.
func (c *MemoryCache) Export(ctx context.Context, writer func(entry Entry) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for key, entry := range c.entries {
		e := Entry{
			Key:       key,
			Value:     entry.value,
			ExpiresAt: entry.expiresAt,
			CreatedAt: entry.createdAt,
			Size:      entry.size,
		}

		if err := writer(e); err != nil {
			return err
		}
	}

	return nil
}

// Import loads entries from another backend, skipping already expired ones.
func (c *MemoryCache) Import(ctx context.Context, entries []Entry) error {
	for _, entry := range entries {
		var ttl time.Duration
		if !entry.ExpiresAt.IsZero() {
			ttl = time.Until(entry.ExpiresAt)
			if ttl <= 0 {
				continue
			}
		}

		if err := c.Set(ctx, entry.Key, entry.Value, ttl); err != nil {
			return err
		}
	}

	return nil
}
