package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rentwise/api/internal/model"
)

// CityStateSource loads the city lookup table
type CityStateSource interface {
	CityStates(ctx context.Context) ([]model.CityState, error)
}

// CityStateCache holds the city lookup table in memory.
// The table is loaded once on first use; concurrent first callers share
// that load. A failed load leaves the cache empty so the next call retries.
type CityStateCache struct {
	source CityStateSource

	loadMu sync.Mutex
	mu     sync.RWMutex
	rows   []model.CityState
	loaded bool
}

// NewCityStateCache creates an empty cache over source
func NewCityStateCache(source CityStateSource) *CityStateCache {
	return &CityStateCache{source: source}
}

// Search returns up to model.MaxCityStateResults rows whose "City, ST"
// label contains city, case-insensitively
func (c *CityStateCache) Search(ctx context.Context, city string) ([]model.CityState, error) {
	needle := strings.ToLower(strings.TrimSpace(city))
	if needle == "" {
		return nil, ErrCityRequired
	}

	rows, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]model.CityState, 0, model.MaxCityStateResults)
	for _, row := range rows {
		if strings.Contains(strings.ToLower(row.CityState), needle) {
			out = append(out, row)
			if len(out) == model.MaxCityStateResults {
				break
			}
		}
	}
	return out, nil
}

// Refresh drops the cached table and loads it again.
// It returns the number of rows loaded.
func (c *CityStateCache) Refresh(ctx context.Context) (int, error) {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	c.mu.Lock()
	c.rows, c.loaded = nil, false
	c.mu.Unlock()

	return c.load(ctx)
}

// snapshot returns the cached rows, loading them on first use
func (c *CityStateCache) snapshot(ctx context.Context) ([]model.CityState, error) {
	c.mu.RLock()
	if c.loaded {
		rows := c.rows
		c.mu.RUnlock()
		return rows, nil
	}
	c.mu.RUnlock()

	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	// another caller may have finished loading while we waited
	c.mu.RLock()
	if c.loaded {
		rows := c.rows
		c.mu.RUnlock()
		return rows, nil
	}
	c.mu.RUnlock()

	if _, err := c.load(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rows, nil
}

// load reads the table; callers hold loadMu
func (c *CityStateCache) load(ctx context.Context) (int, error) {
	rows, err := c.source.CityStates(ctx)
	if err != nil {
		return 0, fmt.Errorf("load city states: %w", err)
	}
	for i := range rows {
		if rows[i].CityState == "" {
			rows[i].CityState = rows[i].Label()
		}
	}

	c.mu.Lock()
	c.rows, c.loaded = rows, true
	c.mu.Unlock()
	return len(rows), nil
}
