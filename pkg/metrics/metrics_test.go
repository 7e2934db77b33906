package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/solstice-fi/gaugex/pkg/cache"
	"github.com/solstice-fi/gaugex/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	stats []metrics.ChainStats
	calls int
}

func (f *fakeSource) GaugeStats(ctx context.Context) ([]metrics.ChainStats, error) {
	f.calls++
	return f.stats, nil
}

func newService(source *fakeSource) *metrics.Service {
	c := cache.New(nil, time.Minute, time.Hour, zap.NewNop())
	return metrics.NewService(source, c, zap.NewNop())
}

// TestProtocolStats_ServedFromCache checks the aggregation query runs once
// per TTL window.
func TestProtocolStats_ServedFromCache(t *testing.T) {
	source := &fakeSource{stats: []metrics.ChainStats{
		{Chain: "mainnet", GaugeCount: 12, ActiveCount: 10, TotalWeight: 0.93},
		{Chain: "polygon", GaugeCount: 4, ActiveCount: 4, TotalWeight: 0.07},
	}}
	svc := newService(source)

	first, err := svc.ProtocolStats(context.Background())
	require.NoError(t, err)
	second, err := svc.ProtocolStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, source.calls)
}

// TestRefresh_ForcesRecompute checks the post-run refresh path bypasses the
// cached value.
func TestRefresh_ForcesRecompute(t *testing.T) {
	source := &fakeSource{stats: []metrics.ChainStats{{Chain: "mainnet", GaugeCount: 1}}}
	svc := newService(source)

	_, err := svc.ProtocolStats(context.Background())
	require.NoError(t, err)

	source.stats = []metrics.ChainStats{{Chain: "mainnet", GaugeCount: 2}}
	require.NoError(t, svc.Refresh(context.Background()))

	stats, err := svc.ProtocolStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].GaugeCount)
	assert.Equal(t, 2, source.calls)
}
