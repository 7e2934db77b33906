package metrics

import (
	"context"
	"time"

	"github.com/solstice-fi/gaugex/pkg/cache"
	"go.uber.org/zap"
)

const statsCacheKey = "gaugex:protocol_stats"

// ChainStats is the per-chain aggregate over the persisted gauge set.
type ChainStats struct {
	Chain       string  `json:"chain"`
	GaugeCount  int     `json:"gaugeCount"`
	ActiveCount int     `json:"activeCount"`
	CappedCount int     `json:"cappedCount"`
	TotalWeight float64 `json:"totalWeight"`
}

// StatsSource computes the aggregates, typically backed by postgres.
type StatsSource interface {
	GaugeStats(ctx context.Context) ([]ChainStats, error)
}

// Service serves protocol metrics through the tiered cache so the expensive
// aggregation query runs at most once per TTL window.
type Service struct {
	source StatsSource
	cache  *cache.TieredCache
	logger *zap.Logger
}

func NewService(source StatsSource, c *cache.TieredCache, logger *zap.Logger) *Service {
	return &Service{source: source, cache: c, logger: logger}
}

// ProtocolStats returns per-chain gauge aggregates, cached.
func (s *Service) ProtocolStats(ctx context.Context) ([]ChainStats, error) {
	return cache.GetOrCompute(ctx, s.cache, statsCacheKey, func(ctx context.Context) ([]ChainStats, error) {
		start := time.Now()
		stats, err := s.source.GaugeStats(ctx)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("Computed protocol stats",
			zap.Int("chains", len(stats)),
			zap.Duration("took", time.Since(start)))
		return stats, nil
	})
}

// Refresh recomputes the aggregates and replaces the cached value. The
// scheduler calls this after each reconciliation run so readers see fresh
// numbers without waiting for TTL expiry.
func (s *Service) Refresh(ctx context.Context) error {
	s.cache.Invalidate(ctx, statsCacheKey)
	_, err := s.ProtocolStats(ctx)
	return err
}
