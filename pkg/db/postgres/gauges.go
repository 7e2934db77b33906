package postgres

import (
	"context"

	"github.com/solstice-fi/gaugex/pkg/gauges"
)

// UpsertGauge inserts or updates one reconciled gauge keyed by
// (chain, address). All mutable fields are overwritten so re-running a
// reconciliation with unchanged inputs is a no-op on row content.
func (c *Client) UpsertGauge(ctx context.Context, g *gauges.Gauge) error {
	query := `
		INSERT INTO gauges (
			chain, address, is_active, weight, weight_cap,
			recipient, staking_id, first_seen_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (chain, address) DO UPDATE SET
			is_active = EXCLUDED.is_active,
			weight = EXCLUDED.weight,
			weight_cap = EXCLUDED.weight_cap,
			recipient = EXCLUDED.recipient,
			staking_id = EXCLUDED.staking_id,
			first_seen_at = EXCLUDED.first_seen_at,
			updated_at = NOW()
	`

	var recipient *string
	if g.Recipient != "" {
		recipient = &g.Recipient
	}

	_, err := c.Pool.Exec(ctx, query,
		g.Chain.String(), g.Address, g.IsActive, g.Weight, g.WeightCap,
		recipient, g.StakingID, g.FirstSeenAt,
	)
	return err
}
