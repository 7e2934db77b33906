package postgres

import "context"

// initGauges creates the gauges table. (chain, address) is the reconciliation
// primary key; staking_id is nullable because ineligible gauges may have no
// staking row yet.
func (c *Client) initGauges(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS gauges (
			chain         TEXT NOT NULL,
			address       TEXT NOT NULL,
			is_active     BOOLEAN NOT NULL DEFAULT TRUE,
			weight        DOUBLE PRECISION NOT NULL DEFAULT 0,
			weight_cap    DOUBLE PRECISION,
			recipient     TEXT,
			staking_id    BIGINT,
			first_seen_at TIMESTAMP WITH TIME ZONE,
			created_at    TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			PRIMARY KEY (chain, address)
		);

		CREATE INDEX IF NOT EXISTS idx_gauges_staking ON gauges(staking_id);
	`

	return c.Exec(ctx, query)
}

// initStaking creates the staking table if absent. The table is populated by
// the pool-sync service; it is created here only so a fresh database comes up
// with the full schema.
func (c *Client) initStaking(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS staking (
			id         BIGSERIAL PRIMARY KEY,
			chain      TEXT NOT NULL,
			address    TEXT NOT NULL,
			pool_id    TEXT,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			UNIQUE (chain, address)
		)
	`

	return c.Exec(ctx, query)
}

// InitSchema ensures all tables this service touches exist.
func (c *Client) InitSchema(ctx context.Context) error {
	if err := c.initStaking(ctx); err != nil {
		return err
	}
	return c.initGauges(ctx)
}
