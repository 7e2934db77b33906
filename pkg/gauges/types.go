package gauges

import (
	"time"

	"github.com/solstice-fi/gaugex/pkg/chains"
)

// RegistryEntry is one gauge as reported by the on-chain controller, before
// any index data is merged in. Address is lowercase.
type RegistryEntry struct {
	Address   string
	TypeName  string
	Killed    bool
	Weight    float64  // relative weight normalized to [0,1]
	WeightCap *float64 // nil when the gauge does not implement the cap
}

// Gauge is the reconciled record persisted per (chain, address).
type Gauge struct {
	Address     string
	Chain       chains.Chain
	IsActive    bool
	Weight      float64
	WeightCap   *float64
	Recipient   string // set for root gauges routing to another network
	StakingID   *int64
	FirstSeenAt *time.Time
}

// Eligible reports whether the gauge must remain visible to voters. A killed
// gauge that still holds weight stays eligible so holders can reallocate
// away from it.
func (g *Gauge) Eligible() bool {
	return g.IsActive || g.Weight > 0
}
