package evm

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/solstice-fi/gaugex/pkg/retry"
	"go.uber.org/zap"
)

// Transport is the JSON-RPC batching capability the caller needs from the
// node client. *rpc.Client satisfies it.
type Transport interface {
	BatchCallContext(ctx context.Context, b []rpc.BatchElem) error
}

// Caller groups independent eth_call reads into batches of at most batchSize
// elements per round trip. A transport-level failure (timeout, connection
// reset) is transient and retried for the whole batch; a per-element failure
// is the call's own outcome and is mapped through AllowFailure instead.
type Caller struct {
	transport Transport
	methods   map[string]abi.Method // keyed by canonical signature
	batchSize int
	retryCfg  retry.Config
	logger    *zap.Logger
}

// Opts configures a Caller.
type Opts struct {
	BatchSize int
	Retry     *retry.Config
}

// NewCaller builds a Caller over the given transport and contract interface.
// All methods of the interface become addressable by canonical signature.
func NewCaller(transport Transport, contract abi.ABI, logger *zap.Logger, opts Opts) *Caller {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	cfg := retry.BatchConfig()
	if opts.Retry != nil {
		cfg = *opts.Retry
	}

	methods := make(map[string]abi.Method, len(contract.Methods))
	for _, m := range contract.Methods {
		methods[m.Sig] = m
	}

	return &Caller{
		transport: transport,
		methods:   methods,
		batchSize: opts.BatchSize,
		retryCfg:  cfg,
		logger:    logger,
	}
}

// callArg is the eth_call parameter object.
type callArg struct {
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}

// Execute dispatches the calls in input order and returns one Result per
// call, in the same order. It returns an error only for systemic problems:
// an unknown signature, argument packing, exhausted transport retries, or a
// failed call whose AllowFailure is false.
func (c *Caller) Execute(ctx context.Context, calls []Call) ([]Result, error) {
	if len(calls) == 0 {
		return nil, nil
	}

	elems := make([]rpc.BatchElem, len(calls))
	methods := make([]abi.Method, len(calls))
	for i, call := range calls {
		m, ok := c.methods[call.Signature]
		if !ok {
			return nil, fmt.Errorf("no contract method with signature %q", call.Signature)
		}
		input, err := m.Inputs.Pack(call.Args...)
		if err != nil {
			return nil, fmt.Errorf("pack %s args for %s: %w", call.Signature, call.Target.Hex(), err)
		}
		data := make([]byte, 0, len(m.ID)+len(input))
		data = append(append(data, m.ID...), input...)

		elems[i] = rpc.BatchElem{
			Method: "eth_call",
			Args:   []any{callArg{To: call.Target, Data: data}, "latest"},
			Result: new(hexutil.Bytes),
		}
		methods[i] = m
	}

	results := make([]Result, len(calls))
	for start := 0; start < len(elems); start += c.batchSize {
		end := start + c.batchSize
		if end > len(elems) {
			end = len(elems)
		}
		chunk := elems[start:end]

		err := retry.WithBackoff(ctx, c.retryCfg, c.logger, "eth_call_batch", func() error {
			return c.transport.BatchCallContext(ctx, chunk)
		})
		if err != nil {
			return nil, fmt.Errorf("batch of %d calls starting at index %d: %w", len(chunk), start, err)
		}

		for i := range chunk {
			idx := start + i
			res, err := decodeElem(&chunk[i], methods[idx])
			if err != nil {
				if !calls[idx].AllowFailure {
					return nil, fmt.Errorf("required call %s on %s (index %d): %w",
						calls[idx].Signature, calls[idx].Target.Hex(), idx, err)
				}
				c.logger.Debug("Optional call failed",
					zap.String("signature", calls[idx].Signature),
					zap.String("target", calls[idx].Target.Hex()),
					zap.Int("index", idx),
					zap.Error(err))
				results[idx] = Failure(err)
				continue
			}
			results[idx] = res
		}
	}

	return results, nil
}

// ExecuteOne runs a single required call and returns its result.
func (c *Caller) ExecuteOne(ctx context.Context, call Call) (Result, error) {
	call.AllowFailure = false
	res, err := c.Execute(ctx, []Call{call})
	if err != nil {
		return Result{}, err
	}
	return res[0], nil
}

// decodeElem turns a completed batch element into a Result. Reverts,
// unimplemented methods (empty return data) and undecodable payloads are all
// call-level failures.
func decodeElem(elem *rpc.BatchElem, method abi.Method) (Result, error) {
	if elem.Error != nil {
		return Result{}, elem.Error
	}
	raw := *(elem.Result.(*hexutil.Bytes))
	if len(raw) == 0 {
		return Result{}, fmt.Errorf("empty return data for %s", method.Sig)
	}
	values, err := method.Outputs.Unpack(raw)
	if err != nil {
		return Result{}, fmt.Errorf("unpack %s output: %w", method.Sig, err)
	}
	return Success(values...), nil
}
