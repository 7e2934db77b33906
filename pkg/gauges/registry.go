package gauges

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/alitto/pond/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/solstice-fi/gaugex/pkg/evm"
	"github.com/solstice-fi/gaugex/pkg/utils"
	"go.uber.org/zap"
)

// BatchCaller is the slice of the evm.Caller surface the registry reader uses.
type BatchCaller interface {
	Execute(ctx context.Context, calls []evm.Call) ([]evm.Result, error)
	ExecuteOne(ctx context.Context, call evm.Call) (evm.Result, error)
}

// RegistryReader pulls the full gauge snapshot from the controller contract.
//
// Every required read uses AllowFailure=false: the controller is the
// authoritative registry and a hole in its data means the snapshot cannot be
// trusted. Only the relative-weight cap is optional, because older gauge
// deployments predate the cap and do not implement the method.
type RegistryReader struct {
	caller        BatchCaller
	controller    common.Address
	adminTypeName string
	pool          pond.Pool
	logger        *zap.Logger
}

// NewRegistryReader builds a reader against the given controller address.
// Gauges whose type name equals adminTypeName are internal bookkeeping slots
// and are dropped before the snapshot is returned.
func NewRegistryReader(caller BatchCaller, controller common.Address, adminTypeName string, logger *zap.Logger) *RegistryReader {
	return &RegistryReader{
		caller:        caller,
		controller:    controller,
		adminTypeName: adminTypeName,
		pool:          pond.NewPool(4),
		logger:        logger,
	}
}

var weightScale = new(big.Float).SetFloat64(1e18)

// normalizeWeight converts an 1e18 fixed-point relative weight to [0,1].
func normalizeWeight(w *big.Int) float64 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(w), weightScale).Float64()
	return f
}

// ReadAll returns the current registry snapshot, one entry per non-admin
// gauge, addresses lowercased.
func (r *RegistryReader) ReadAll(ctx context.Context) ([]RegistryEntry, error) {
	count, err := r.readCount(ctx, sigGaugeCount)
	if err != nil {
		return nil, fmt.Errorf("registry size: %w", err)
	}
	typeCount, err := r.readCount(ctx, sigTypeCount)
	if err != nil {
		return nil, fmt.Errorf("registry type count: %w", err)
	}

	typeNames, err := r.readTypeNames(ctx, typeCount)
	if err != nil {
		return nil, err
	}

	addrs, err := r.readAddresses(ctx, count)
	if err != nil {
		return nil, err
	}

	// The four per-address passes are independent of each other; each pass
	// preserves call order internally so results zip back onto addrs by index.
	var (
		typeRes, weightRes, killedRes, capRes []evm.Result
		typeErr, weightErr, killedErr, capErr error
	)

	group := r.pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	group.Submit(func() {
		typeRes, typeErr = r.caller.Execute(groupCtx, r.controllerCalls(sigGaugeType, addrs))
	})
	group.Submit(func() {
		weightRes, weightErr = r.caller.Execute(groupCtx, r.controllerCalls(sigRelativeWeight, addrs))
	})
	group.Submit(func() {
		killedRes, killedErr = r.caller.Execute(groupCtx, gaugeCalls(sigIsKilled, addrs, false))
	})
	group.Submit(func() {
		capRes, capErr = r.caller.Execute(groupCtx, gaugeCalls(sigWeightCap, addrs, true))
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		r.logger.Warn("Registry pass group reported error", zap.Error(err))
	}
	for _, passErr := range []error{typeErr, weightErr, killedErr, capErr} {
		if passErr != nil {
			return nil, fmt.Errorf("registry pass: %w", passErr)
		}
	}

	entries := make([]RegistryEntry, 0, len(addrs))
	dropped := 0
	for i, addr := range addrs {
		typeIdx, err := typeRes[i].BigInt()
		if err != nil {
			return nil, fmt.Errorf("gauge type for %s: %w", addr.Hex(), err)
		}
		idx := typeIdx.Int64()
		if idx < 0 || idx >= int64(len(typeNames)) {
			return nil, fmt.Errorf("gauge %s has type index %d outside [0,%d)", addr.Hex(), idx, len(typeNames))
		}
		typeName := typeNames[idx]

		weight, err := weightRes[i].BigInt()
		if err != nil {
			return nil, fmt.Errorf("relative weight for %s: %w", addr.Hex(), err)
		}
		killed, err := killedRes[i].Bool()
		if err != nil {
			return nil, fmt.Errorf("killed flag for %s: %w", addr.Hex(), err)
		}

		var weightCap *float64
		if capRes[i].Ok {
			raw, err := capRes[i].BigInt()
			if err != nil {
				return nil, fmt.Errorf("weight cap for %s: %w", addr.Hex(), err)
			}
			v := normalizeWeight(raw)
			weightCap = &v
		}

		if typeName == r.adminTypeName {
			dropped++
			continue
		}

		entries = append(entries, RegistryEntry{
			Address:   utils.LowerAddress(addr.Hex()),
			TypeName:  typeName,
			Killed:    killed,
			Weight:    normalizeWeight(weight),
			WeightCap: weightCap,
		})
	}

	r.logger.Info("Registry snapshot complete",
		zap.Int("gauges", len(entries)),
		zap.Int("admin_dropped", dropped),
		zap.Int("types", len(typeNames)))

	return entries, nil
}

// readCount issues a single required int128 counter call on the controller.
func (r *RegistryReader) readCount(ctx context.Context, signature string) (int, error) {
	res, err := r.caller.ExecuteOne(ctx, evm.Call{Target: r.controller, Signature: signature})
	if err != nil {
		return 0, err
	}
	n, err := res.BigInt()
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}

// readTypeNames fetches the name of every gauge type. Type names are required
// for fallback chain derivation, so failures here abort the snapshot.
func (r *RegistryReader) readTypeNames(ctx context.Context, typeCount int) ([]string, error) {
	calls := make([]evm.Call, typeCount)
	for i := range calls {
		calls[i] = evm.Call{Target: r.controller, Signature: sigTypeName, Args: []any{big.NewInt(int64(i))}}
	}
	results, err := r.caller.Execute(ctx, calls)
	if err != nil {
		return nil, fmt.Errorf("gauge type names: %w", err)
	}

	names := make([]string, typeCount)
	for i, res := range results {
		name, err := res.Text()
		if err != nil {
			return nil, fmt.Errorf("gauge type name %d: %w", i, err)
		}
		names[i] = name
	}
	return names, nil
}

// readAddresses enumerates every registered gauge address.
func (r *RegistryReader) readAddresses(ctx context.Context, count int) ([]common.Address, error) {
	calls := make([]evm.Call, count)
	for i := range calls {
		calls[i] = evm.Call{Target: r.controller, Signature: sigGaugeAt, Args: []any{big.NewInt(int64(i))}}
	}
	results, err := r.caller.Execute(ctx, calls)
	if err != nil {
		return nil, fmt.Errorf("gauge addresses: %w", err)
	}

	addrs := make([]common.Address, count)
	for i, res := range results {
		addr, err := res.Address()
		if err != nil {
			return nil, fmt.Errorf("gauge address %d: %w", i, err)
		}
		addrs[i] = addr
	}
	return addrs, nil
}

// controllerCalls builds one required per-address call against the controller.
func (r *RegistryReader) controllerCalls(signature string, addrs []common.Address) []evm.Call {
	calls := make([]evm.Call, len(addrs))
	for i, addr := range addrs {
		calls[i] = evm.Call{Target: r.controller, Signature: signature, Args: []any{addr}}
	}
	return calls
}

// gaugeCalls builds one no-argument call against each gauge contract itself.
func gaugeCalls(signature string, addrs []common.Address, allowFailure bool) []evm.Call {
	calls := make([]evm.Call, len(addrs))
	for i, addr := range addrs {
		calls[i] = evm.Call{Target: addr, Signature: signature, AllowFailure: allowFailure}
	}
	return calls
}
