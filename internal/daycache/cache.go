// Package daycache holds the per-day file contents fetched from the remote
// store, indexed by calendar date, and aggregates arbitrary date ranges into
// ordered record sets.
package daycache

import (
	"errors"
	"sort"
	"sync"

	"github.com/greenhollow/envfetch/internal/types"
)

var (
	// ErrInvalidRange is returned when a range's start date falls after its
	// end date.
	ErrInvalidRange = errors.New("invalid range: start date is after end date")
	// ErrEmptyResult is returned when a range contains no parseable primary
	// records.
	ErrEmptyResult = errors.New("no records found in range")
)

// Cache is the date-indexed store for raw day-file contents. All methods are
// safe for concurrent use. Contents are replaced whole on Put; a reader never
// observes a partially written entry.
type Cache struct {
	mu        sync.RWMutex
	primary   map[types.DateKey]string
	secondary map[types.DateKey]string
	dates     []types.DateKey
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		primary:   make(map[types.DateKey]string),
		secondary: make(map[types.DateKey]string),
	}
}

// Put stores the content for one day and variant, overwriting any previous
// content for that key. The sorted date index tracks days that have a
// primary entry; secondary-only days are retrievable but not listed.
func (c *Cache) Put(date types.DateKey, variant types.Variant, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch variant {
	case types.VariantSecondary:
		c.secondary[date] = content
	default:
		if _, exists := c.primary[date]; !exists {
			c.dates = append(c.dates, date)
			sort.Slice(c.dates, func(i, j int) bool {
				return c.dates[i].Before(c.dates[j])
			})
		}
		c.primary[date] = content
	}
}

// Get returns the stored content for one day and variant.
func (c *Cache) Get(date types.DateKey, variant types.Variant) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	content, ok := c.contents(variant)[date]
	return content, ok
}

// Dates returns a copy of the sorted list of days holding primary content.
func (c *Cache) Dates() []types.DateKey {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]types.DateKey, len(c.dates))
	copy(out, c.dates)
	return out
}

// Bounds returns the first and last cached primary days. ok is false when
// the cache is empty.
func (c *Cache) Bounds() (first, last types.DateKey, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.dates) == 0 {
		return types.DateKey{}, types.DateKey{}, false
	}
	return c.dates[0], c.dates[len(c.dates)-1], true
}

// Counts returns the number of cached days per variant.
func (c *Cache) Counts() (primary, secondary int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.primary), len(c.secondary)
}

// GetRange returns the cached contents for every day in the inclusive range
// start..end, in calendar order. Days with no cached content are skipped.
// A start after end is an error; an empty result is not.
func (c *Cache) GetRange(start, end types.DateKey, variant types.Variant) ([]types.DayContent, error) {
	if end.Before(start) {
		return nil, ErrInvalidRange
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	contents := c.contents(variant)
	var out []types.DayContent
	for d := start; !d.After(end); d = d.Next() {
		if content, ok := contents[d]; ok {
			out = append(out, types.DayContent{Date: d, Content: content})
		}
	}
	return out, nil
}

// Snapshot deep-copies the cache state. The caller owns the result; later
// cache mutations never show through.
func (c *Cache) Snapshot() *types.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := &types.Snapshot{
		Primary:   make(map[types.DateKey]string, len(c.primary)),
		Secondary: make(map[types.DateKey]string, len(c.secondary)),
		Dates:     make([]types.DateKey, len(c.dates)),
	}
	for k, v := range c.primary {
		snap.Primary[k] = v
	}
	for k, v := range c.secondary {
		snap.Secondary[k] = v
	}
	copy(snap.Dates, c.dates)
	return snap
}

// contents must be called with the mutex held.
func (c *Cache) contents(variant types.Variant) map[types.DateKey]string {
	if variant == types.VariantSecondary {
		return c.secondary
	}
	return c.primary
}
