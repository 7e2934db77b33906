package subgraph

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/solstice-fi/gaugex/pkg/chains"
	"github.com/solstice-fi/gaugex/pkg/utils"
	"go.uber.org/zap"
)

// Entry is the normalized index record for one gauge. Both subgraph shapes
// (root gauges routing to another network, and gauges on the home chain)
// collapse into this before the reconciler sees them.
type Entry struct {
	Address     string
	Chain       chains.Chain
	Recipient   string // set only for root gauges; empty otherwise
	FirstSeenAt *time.Time
}

// rootGaugeRecord is a gauge whose controller entry is a local proxy for a
// gauge deployed on another network. The chain field is authoritative.
type rootGaugeRecord struct {
	ID             string  `json:"id"`
	Chain          string  `json:"chain"`
	Recipient      string  `json:"recipient"`
	AddedTimestamp *string `json:"addedTimestamp"`
}

// liquidityGaugeRecord is a gauge deployed on the home chain itself.
type liquidityGaugeRecord struct {
	ID             string  `json:"id"`
	AddedTimestamp *string `json:"addedTimestamp"`
}

const gaugesQuery = `query ($addresses: [String!]!) {
  rootGauges(first: 1000, where: { id_in: $addresses }) {
    id
    chain
    recipient
    addedTimestamp
  }
  liquidityGauges(first: 1000, where: { id_in: $addresses }) {
    id
    addedTimestamp
  }
}`

// GaugesByAddress fetches index records for the given controller addresses and
// normalizes them into Entries. Addresses absent from the index simply do not
// appear in the result; the caller decides what that means.
func (c *Client) GaugesByAddress(ctx context.Context, addresses []string) ([]Entry, error) {
	lowered := make([]string, len(addresses))
	for i, a := range addresses {
		lowered[i] = utils.LowerAddress(a)
	}

	entries := make([]Entry, 0, len(addresses))
	for _, chunk := range utils.Chunk(lowered, c.pageSize) {
		var data struct {
			RootGauges      []rootGaugeRecord      `json:"rootGauges"`
			LiquidityGauges []liquidityGaugeRecord `json:"liquidityGauges"`
		}
		if err := c.query(ctx, gaugesQuery, map[string]any{"addresses": chunk}, &data); err != nil {
			return nil, fmt.Errorf("fetch gauges for %d addresses: %w", len(chunk), err)
		}

		for _, rec := range data.RootGauges {
			chain, err := chains.Parse(rec.Chain)
			if err != nil {
				return nil, fmt.Errorf("root gauge %s: %w", rec.ID, err)
			}
			entries = append(entries, Entry{
				Address:     utils.LowerAddress(rec.ID),
				Chain:       chain,
				Recipient:   utils.LowerAddress(rec.Recipient),
				FirstSeenAt: parseTimestamp(rec.AddedTimestamp),
			})
		}
		for _, rec := range data.LiquidityGauges {
			entries = append(entries, Entry{
				Address:     utils.LowerAddress(rec.ID),
				Chain:       c.homeChain,
				FirstSeenAt: parseTimestamp(rec.AddedTimestamp),
			})
		}
	}

	c.logger.Debug("Fetched subgraph gauge records",
		zap.Int("requested", len(addresses)),
		zap.Int("found", len(entries)))

	return entries, nil
}

// parseTimestamp converts the subgraph's string-encoded unix seconds. A
// missing or malformed value is dropped rather than failed: the timestamp is
// informational only.
func parseTimestamp(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	secs, err := strconv.ParseInt(*s, 10, 64)
	if err != nil {
		return nil
	}
	t := time.Unix(secs, 0).UTC()
	return &t
}
