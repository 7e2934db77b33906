package gauges

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/solstice-fi/gaugex/pkg/chains"
	"github.com/solstice-fi/gaugex/pkg/subgraph"
	"go.uber.org/zap"
)

var (
	// ErrUnmappedGaugeType means a gauge has no subgraph record and its
	// on-chain type name is absent from the configured mapping. The run fails
	// closed: an unmapped chain means the system cannot route the gauge.
	ErrUnmappedGaugeType = errors.New("gauge type name not mapped to a chain")

	// ErrMissingStakingRecord means an eligible gauge has no row in the
	// staking table. The table is populated upstream and must be consistent
	// before reconciliation runs; retrying will not help.
	ErrMissingStakingRecord = errors.New("no staking record for eligible gauge")
)

// Registry produces the authoritative on-chain snapshot.
type Registry interface {
	ReadAll(ctx context.Context) ([]RegistryEntry, error)
}

// Index fetches subgraph records for a set of controller addresses.
type Index interface {
	GaugesByAddress(ctx context.Context, addresses []string) ([]subgraph.Entry, error)
}

// Store is the durable-store surface the reconciler writes through. The
// staking table is read-only from here.
type Store interface {
	FindStakingID(ctx context.Context, chain chains.Chain, address string) (*int64, error)
	UpsertGauge(ctx context.Context, g *Gauge) error
}

// Config carries the reconciliation inputs that have no defaults.
type Config struct {
	HomeChain chains.Chain
	TypeNames chains.TypeNameMapping
}

// Reconciler merges registry and index records by address identity and makes
// the store reflect the result. It is the only component with cross-source
// logic; callers must not run it concurrently for the same home chain.
type Reconciler struct {
	registry Registry
	index    Index
	store    Store
	cfg      Config
	logger   *zap.Logger
}

func NewReconciler(registry Registry, index Index, store Store, cfg Config, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		registry: registry,
		index:    index,
		store:    store,
		cfg:      cfg,
		logger:   logger,
	}
}

// ReconcileAll runs one full pass: snapshot the registry, fetch matching
// index records, merge, resolve staking links, and upsert each gauge as it is
// produced. Upserts already committed stay committed if a later gauge fails
// fatally; re-running after a transient failure is safe because writes are
// idempotent per (chain, address).
//
// Gauges that leave the registry are not pruned here; their rows simply stop
// being refreshed.
func (r *Reconciler) ReconcileAll(ctx context.Context) ([]Gauge, error) {
	start := time.Now()

	entries, err := r.registry.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}

	addrs := make([]string, len(entries))
	for i, e := range entries {
		addrs[i] = e.Address
	}

	indexed, err := r.index.GaugesByAddress(ctx, addrs)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	byAddr := make(map[string]subgraph.Entry, len(indexed))
	for _, e := range indexed {
		byAddr[e.Address] = e
	}

	report := RunReport{Registry: len(entries), Indexed: len(indexed)}
	out := make([]Gauge, 0, len(entries))
	for _, entry := range entries {
		g, err := r.merge(ctx, entry, byAddr)
		if err != nil {
			return nil, err
		}
		if !g.Eligible() {
			report.Ineligible++
		}

		// Per-gauge write failures are isolated: log and keep going so one
		// bad row cannot block the rest of the run.
		if err := r.store.UpsertGauge(ctx, &g); err != nil {
			r.logger.Error("Failed to persist gauge",
				zap.String("chain", g.Chain.String()),
				zap.String("address", g.Address),
				zap.Error(err))
			report.WriteFailures++
		} else {
			report.Persisted++
		}

		out = append(out, g)
	}

	report.Duration = time.Since(start)
	r.logger.Info("Reconciliation run complete", report.Fields()...)

	return out, nil
}

// merge builds the canonical gauge for one registry entry. The index record's
// chain wins whenever one exists; the type-name mapping is only a fallback.
func (r *Reconciler) merge(ctx context.Context, entry RegistryEntry, byAddr map[string]subgraph.Entry) (Gauge, error) {
	g := Gauge{
		Address:   entry.Address,
		IsActive:  !entry.Killed,
		Weight:    entry.Weight,
		WeightCap: entry.WeightCap,
	}

	idx, found := byAddr[entry.Address]
	if found {
		g.Chain = idx.Chain
		g.Recipient = idx.Recipient
		g.FirstSeenAt = idx.FirstSeenAt
	} else {
		chain, ok := r.cfg.TypeNames.Resolve(entry.TypeName)
		if !ok {
			return Gauge{}, fmt.Errorf("%w: gauge %s with type %q", ErrUnmappedGaugeType, entry.Address, entry.TypeName)
		}
		g.Chain = chain
	}

	// Root gauges are local proxies; their staking row lives under the
	// remote recipient, not the proxy address.
	stakingKey := g.Address
	if g.Chain != r.cfg.HomeChain && g.Recipient != "" {
		stakingKey = g.Recipient
	}

	id, err := r.store.FindStakingID(ctx, g.Chain, stakingKey)
	if err != nil {
		return Gauge{}, fmt.Errorf("staking lookup for gauge %s on %s: %w", g.Address, g.Chain, err)
	}
	if id == nil && g.Eligible() {
		return Gauge{}, fmt.Errorf("%w: gauge %s on %s (key %s)", ErrMissingStakingRecord, g.Address, g.Chain, stakingKey)
	}
	g.StakingID = id

	return g, nil
}
