package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// CityCacheReloader is implemented by service.CityStateCache
type CityCacheReloader interface {
	Refresh(ctx context.Context) (int, error)
}

// CityCacheRefresher reloads the city/state lookup cache on an interval
type CityCacheRefresher struct {
	cache    CityCacheReloader
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// NewCityCacheRefresher creates a refresher; interval defaults to six hours
func NewCityCacheRefresher(cache CityCacheReloader, interval time.Duration) *CityCacheRefresher {
	if interval == 0 {
		interval = 6 * time.Hour
	}
	return &CityCacheRefresher{
		cache:    cache,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the refresh loop
func (r *CityCacheRefresher) Start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run()
	slog.Info("city cache refresher started", slog.Duration("interval", r.interval))
}

// Stop gracefully stops the refresh loop
func (r *CityCacheRefresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	close(r.stopCh)
	r.wg.Wait()
	slog.Info("city cache refresher stopped")
}

func (r *CityCacheRefresher) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = r.RunOnce()
		case <-r.stopCh:
			return
		}
	}
}

// RunOnce reloads the cache once
func (r *CityCacheRefresher) RunOnce() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := r.cache.Refresh(ctx)
	if err != nil {
		slog.Error("city cache refresh failed", slog.String("error", err.Error()))
		return err
	}
	slog.Info("city cache refreshed", slog.Int("entries", n))
	return nil
}
