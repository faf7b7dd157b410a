// Package mediacache holds decoded thumbnails and waveform blocks in memory,
// bounded by total byte size.
package mediacache

import (
	"container/list"

	"github.com/mmcdole/splice/internal/domain"
)

// DefaultCapacity is the default byte budget (3 MiB)
const DefaultCapacity int64 = 3 << 20

type entry struct {
	key   domain.CacheKey
	asset domain.Asset
}

// Cache is a least-recently-used cache of assets keyed by (item, kind, index).
//
// Cache is not safe for concurrent use. Callers serialize access, which the
// TUI does by touching it only from its update loop.
type Cache struct {
	capacity int64
	size     int64

	ll     *list.List // front = most recently used
	items  map[domain.CacheKey]*list.Element
	byItem map[string]map[domain.CacheKey]*list.Element

	// Per-item epochs used to reject deliveries issued before an invalidation
	epochs map[string]uint64
}

// New creates a cache bounded to capacity bytes. Non-positive capacities use
// DefaultCapacity.
func New(capacity int64) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[domain.CacheKey]*list.Element),
		byItem:   make(map[string]map[domain.CacheKey]*list.Element),
		epochs:   make(map[string]uint64),
	}
}

// Get returns the asset for key and marks it most recently used
func (c *Cache) Get(key domain.CacheKey) (domain.Asset, bool) {
	el, ok := c.items[key]
	if !ok {
		return domain.Asset{}, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*entry).asset, true
}

// Put inserts or replaces the asset for key. An asset larger than the whole
// capacity is not stored and any previous value for key is dropped with it.
// Otherwise least recently used entries are evicted until it fits.
func (c *Cache) Put(key domain.CacheKey, asset domain.Asset) {
	if el, ok := c.items[key]; ok {
		c.remove(el)
	}

	size := asset.Size()
	if size > c.capacity {
		return
	}

	for c.size+size > c.capacity {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.remove(oldest)
	}

	el := c.ll.PushFront(&entry{key: key, asset: asset})
	c.items[key] = el
	slots, ok := c.byItem[key.ItemID]
	if !ok {
		slots = make(map[domain.CacheKey]*list.Element)
		c.byItem[key.ItemID] = slots
	}
	slots[key] = el
	c.size += size
}

// InvalidateForItem drops every asset of itemID and starts a new epoch for it
func (c *Cache) InvalidateForItem(itemID string) {
	for _, el := range c.byItem[itemID] {
		c.remove(el)
	}
	c.epochs[itemID]++
}

// Epoch returns the current epoch of itemID. Asset requests carry it as
// their token.
func (c *Cache) Epoch(itemID string) uint64 {
	return c.epochs[itemID]
}

// Deliver stores an asynchronously generated asset unless it was requested
// under an older epoch. Returns whether the asset was accepted.
func (c *Cache) Deliver(key domain.CacheKey, asset domain.Asset, token uint64) bool {
	if token != c.epochs[key.ItemID] {
		return false
	}
	c.Put(key, asset)
	return true
}

// Len returns the number of resident entries
func (c *Cache) Len() int { return c.ll.Len() }

// Size returns the total byte size of resident entries
func (c *Cache) Size() int64 { return c.size }

// Capacity returns the configured byte budget
func (c *Cache) Capacity() int64 { return c.capacity }

func (c *Cache) remove(el *list.Element) {
	e := c.ll.Remove(el).(*entry)
	delete(c.items, e.key)
	if slots := c.byItem[e.key.ItemID]; slots != nil {
		delete(slots, e.key)
		if len(slots) == 0 {
			delete(c.byItem, e.key.ItemID)
		}
	}
	c.size -= e.asset.Size()
}
