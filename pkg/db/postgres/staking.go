package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/solstice-fi/gaugex/pkg/chains"
)

// FindStakingID looks up the staking row for (chain, address). A missing row
// is not an error here; the reconciler decides whether absence is fatal.
func (c *Client) FindStakingID(ctx context.Context, chain chains.Chain, address string) (*int64, error) {
	query := `SELECT id FROM staking WHERE chain = $1 AND address = $2`

	var id int64
	err := c.Pool.QueryRow(ctx, query, chain.String(), address).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}
