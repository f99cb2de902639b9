package predict

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ErlanBelekov/stockbetting/internal/metrics"
	"github.com/robfig/cron/v3"
)

// Sweeper evicts expired cache entries on a cron schedule.
type Sweeper struct {
	cache  *Cache
	cron   *cron.Cron
	logger *slog.Logger
}

// NewSweeper parses spec (standard cron or a descriptor such as
// "@every 1m") and binds it to cache.
func NewSweeper(cache *Cache, spec string, logger *slog.Logger) (*Sweeper, error) {
	s := &Sweeper{
		cache:  cache,
		cron:   cron.New(),
		logger: logger.With("component", "cache_sweeper"),
	}
	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return nil, fmt.Errorf("parse sweep schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the schedule until ctx is cancelled, then waits for an
// in-flight sweep to finish.
func (s *Sweeper) Start(ctx context.Context) {
	s.cron.Start()
	s.logger.Info("cache sweeper started")

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("cache sweeper shut down")
}

func (s *Sweeper) sweep() {
	removed := s.cache.Sweep()
	metrics.PredictionCacheEvictedTotal.Add(float64(removed))
	metrics.PredictionCacheEntries.Set(float64(s.cache.Len()))
	if removed > 0 {
		s.logger.Debug("cache swept", "evicted", removed)
	}
}
