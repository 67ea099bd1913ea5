package xlru

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// maxSize 缓存最大条目数上限。
const maxSize = 1 << 24 // 16,777,216

// Config 定义缓存配置。
type Config struct {
	// Size 缓存最大条目数。
	// 必须大于 0 且不超过 16,777,216。
	Size int

	// TTL 条目默认过期时间。
	// 0 表示永不过期，不允许负值。
	TTL time.Duration
}

// Option 定义缓存可选配置函数类型。
type Option[K comparable, V any] func(*options[K, V])

type options[K comparable, V any] struct {
	onEvicted func(key K, value V)
	now       func() time.Time
}

// WithOnEvicted 设置条目被移除时的回调函数。
//
// 回调在缓存互斥锁内同步执行（LRU 淘汰、Delete、Clear、过期清理均会触发）。
// 严禁在回调中调用 Cache 自身的任何方法，否则会死锁。
func WithOnEvicted[K comparable, V any](fn func(key K, value V)) Option[K, V] {
	return func(o *options[K, V]) {
		o.onEvicted = fn
	}
}

// WithClock 注入时钟，默认使用 time.Now。
// 主要用于测试 TTL 边界。
func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(o *options[K, V]) {
		if now != nil {
			o.now = now
		}
	}
}

// Entry 是缓存条目的快照。
type Entry[V any] struct {
	Value          V
	InsertedAt     time.Time
	LastAccessedAt time.Time
	// TTL 为 0 表示永不过期。
	TTL time.Duration
}

// ExpiresAt 返回过期时间点，永不过期时返回零值。
func (e Entry[V]) ExpiresAt() time.Time {
	if e.TTL <= 0 {
		return time.Time{}
	}
	return e.InsertedAt.Add(e.TTL)
}

// Expired 判断条目在 now 时刻是否已过期。
// 条目有效当且仅当 now - InsertedAt < TTL。
func (e Entry[V]) Expired(now time.Time) bool {
	return e.TTL > 0 && now.Sub(e.InsertedAt) >= e.TTL
}

// Stats 缓存统计信息。
// Hits/Misses/Evictions 自创建或上次 Clear 起单调累加。
type Stats struct {
	Size      int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRatio 返回命中率，无访问时为 0。
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache 是带 TTL 的 LRU 缓存。
// 必须通过 [New] 函数创建，零值不可用。
// 所有方法都是并发安全的，内部使用单个互斥锁保护有序结构。
type Cache[K comparable, V any] struct {
	mu        sync.Mutex
	lru       *simplelru.LRU[K, *Entry[V]]
	capacity  int
	ttl       time.Duration
	now       func() time.Time
	hits      uint64
	misses    uint64
	evictions uint64
}

// New 创建新的 LRU 缓存。
//
// 如果 cfg.Size <= 0，返回 ErrInvalidSize。
// 如果 cfg.Size > maxSize (16,777,216)，返回 ErrSizeExceedsMax。
// 如果 cfg.TTL < 0，返回 ErrInvalidTTL。
func New[K comparable, V any](cfg Config, opts ...Option[K, V]) (*Cache[K, V], error) {
	if cfg.Size <= 0 {
		return nil, ErrInvalidSize
	}
	if cfg.Size > maxSize {
		return nil, ErrSizeExceedsMax
	}
	if cfg.TTL < 0 {
		return nil, ErrInvalidTTL
	}

	o := &options[K, V]{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	var onEvict simplelru.EvictCallback[K, *Entry[V]]
	if o.onEvicted != nil {
		fn := o.onEvicted
		onEvict = func(key K, e *Entry[V]) {
			fn(key, e.Value)
		}
	}

	lru, err := simplelru.NewLRU(cfg.Size, onEvict)
	if err != nil {
		return nil, err
	}

	return &Cache[K, V]{
		lru:      lru,
		capacity: cfg.Size,
		ttl:      cfg.TTL,
		now:      o.now,
	}, nil
}

// Get 获取缓存值。
// 命中时将条目标记为最近使用；键不存在或已过期时返回零值和 false，
// 过期条目在此时被移除。
func (c *Cache[K, V]) Get(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.lru.Get(key)
	if !found {
		c.misses++
		return value, false
	}
	now := c.now()
	if e.Expired(now) {
		c.lru.Remove(key)
		c.misses++
		return value, false
	}
	e.LastAccessedAt = now
	c.hits++
	return e.Value, true
}

// GetStale 获取缓存值，过期条目也会返回但不会被移除。
//
// 未过期时行为与 Get 相同（计为命中并提升为最近使用）。
// 已过期时返回值和 stale=true，计为未命中且不调整顺序，
// 供上游不可用时降级使用。
func (c *Cache[K, V]) GetStale(key K) (value V, stale, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.lru.Peek(key)
	if !found {
		c.misses++
		return value, false, false
	}
	now := c.now()
	if e.Expired(now) {
		c.misses++
		return e.Value, true, true
	}
	c.lru.Get(key)
	e.LastAccessedAt = now
	c.hits++
	return e.Value, false, true
}

// Set 使用默认 TTL 设置缓存值。返回值表示是否触发了 LRU 淘汰。
func (c *Cache[K, V]) Set(key K, value V) bool {
	return c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL 使用指定 TTL 设置缓存值，ttl <= 0 表示永不过期。
//
//   - 如果 key 已存在，替换值并重置插入时间，返回 false
//   - 如果 key 不存在且缓存已满，淘汰最久未访问的条目，返回 true
func (c *Cache[K, V]) SetWithTTL(key K, value V, ttl time.Duration) bool {
	if ttl < 0 {
		ttl = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	evicted := c.lru.Add(key, &Entry[V]{
		Value:          value,
		InsertedAt:     now,
		LastAccessedAt: now,
		TTL:            ttl,
	})
	if evicted {
		c.evictions++
	}
	return evicted
}

// Delete 删除缓存条目，返回 true 表示键存在并被删除。
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Remove(key)
}

// Clear 清空所有缓存条目并重置统计计数。
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
	c.hits, c.misses, c.evictions = 0, 0, 0
}

// Peek 获取未过期的缓存值，不更新 LRU 顺序和统计。
func (c *Cache[K, V]) Peek(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.lru.Peek(key)
	if !found || e.Expired(c.now()) {
		return value, false
	}
	return e.Value, true
}

// Inspect 返回条目快照（包括已过期条目），不更新 LRU 顺序和统计。
func (c *Cache[K, V]) Inspect(key K) (Entry[V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.lru.Peek(key)
	if !found {
		return Entry[V]{}, false
	}
	return *e, true
}

// Contains 检查未过期的键是否存在（不更新访问时间）。
func (c *Cache[K, V]) Contains(key K) bool {
	_, ok := c.Peek(key)
	return ok
}

// Len 返回当前条目数。
//
// 注意：可能包含已过期但尚未被访问清理的条目。
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Keys 返回所有键，按从最旧到最新的顺序排列。
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Keys()
}

// RemoveExpired 移除所有已过期条目，返回移除数量。
// 复杂度 O(n)，用于后台清理，正确性不依赖此方法。
func (c *Cache[K, V]) RemoveExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for _, key := range c.lru.Keys() {
		e, ok := c.lru.Peek(key)
		if ok && e.Expired(now) {
			c.lru.Remove(key)
			removed++
		}
	}
	return removed
}

// Stats 返回统计信息快照。
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Size:      c.lru.Len(),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}
