package postgres

import (
	"context"

	"github.com/solstice-fi/gaugex/pkg/metrics"
)

// GaugeStats aggregates the persisted gauge set per chain.
func (c *Client) GaugeStats(ctx context.Context) ([]metrics.ChainStats, error) {
	query := `
		SELECT
			chain,
			COUNT(*) AS gauge_count,
			COUNT(*) FILTER (WHERE is_active) AS active_count,
			COUNT(weight_cap) AS capped_count,
			COALESCE(SUM(weight), 0) AS total_weight
		FROM gauges
		GROUP BY chain
		ORDER BY chain
	`

	rows, err := c.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make([]metrics.ChainStats, 0)
	for rows.Next() {
		var s metrics.ChainStats
		var gaugeCount, activeCount, cappedCount int64
		if err := rows.Scan(&s.Chain, &gaugeCount, &activeCount, &cappedCount, &s.TotalWeight); err != nil {
			return nil, err
		}
		s.GaugeCount = int(gaugeCount)
		s.ActiveCount = int(activeCount)
		s.CappedCount = int(cappedCount)
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
