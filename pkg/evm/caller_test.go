package evm_test

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/solstice-fi/gaugex/pkg/evm"
	"github.com/solstice-fi/gaugex/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testABIJSON carries an overloaded method on purpose: value(uint256) and
// value() must resolve to different selectors when picked by full signature.
const testABIJSON = `[
  {"name":"value","type":"function","stateMutability":"view","inputs":[{"name":"idx","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"value","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"flag","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]}
]`

var testTarget = common.HexToAddress("0x00000000000000000000000000000000000000aa")

func testABI(t *testing.T) abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(testABIJSON))
	require.NoError(t, err)
	return parsed
}

// fakeTransport scripts per-element outcomes and records every round trip.
type fakeTransport struct {
	batches   [][]rpc.BatchElem
	transient int // number of whole-batch failures before succeeding
	handle    func(selector string, input []byte, elem *rpc.BatchElem)
}

func (f *fakeTransport) BatchCallContext(ctx context.Context, b []rpc.BatchElem) error {
	f.batches = append(f.batches, b)
	if f.transient > 0 {
		f.transient--
		return errors.New("read timeout")
	}
	for i := range b {
		selector, input := decodeCallData(&b[i])
		f.handle(selector, input, &b[i])
	}
	return nil
}

// decodeCallData pulls the 4-byte selector and argument payload out of the
// eth_call parameter object.
func decodeCallData(elem *rpc.BatchElem) (string, []byte) {
	raw, err := json.Marshal(elem.Args[0])
	if err != nil {
		panic(err)
	}
	var arg struct {
		Data hexutil.Bytes `json:"data"`
	}
	if err := json.Unmarshal(raw, &arg); err != nil {
		panic(err)
	}
	return hexutil.Encode(arg.Data[:4]), arg.Data[4:]
}

func respond(elem *rpc.BatchElem, payload []byte) {
	*(elem.Result.(*hexutil.Bytes)) = payload
}

func fastRetry() *retry.Config {
	return &retry.Config{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   1.0,
	}
}

// TestCaller_PartialFailureIsolation checks that a batch of optional calls
// returns one ordered result per call, with exactly the scripted indices
// failed and no batch-level error.
func TestCaller_PartialFailureIsolation(t *testing.T) {
	contract := testABI(t)
	method := contract.Methods["value"] // value(uint256)
	failing := map[string]bool{"2": true, "5": true}

	transport := &fakeTransport{
		handle: func(selector string, input []byte, elem *rpc.BatchElem) {
			args, err := method.Inputs.Unpack(input)
			require.NoError(t, err)
			idx := args[0].(*big.Int)
			if failing[idx.String()] {
				elem.Error = errors.New("execution reverted")
				return
			}
			out, err := method.Outputs.Pack(new(big.Int).Mul(idx, big.NewInt(2)))
			require.NoError(t, err)
			respond(elem, out)
		},
	}
	caller := evm.NewCaller(transport, contract, zap.NewNop(), evm.Opts{BatchSize: 100, Retry: fastRetry()})

	calls := make([]evm.Call, 10)
	for i := range calls {
		calls[i] = evm.Call{
			Target:       testTarget,
			Signature:    "value(uint256)",
			Args:         []any{big.NewInt(int64(i))},
			AllowFailure: true,
		}
	}

	results, err := caller.Execute(context.Background(), calls)
	require.NoError(t, err)
	require.Len(t, results, 10)

	for i, res := range results {
		if i == 2 || i == 5 {
			assert.False(t, res.Ok, "index %d should have failed", i)
			continue
		}
		require.True(t, res.Ok, "index %d should have succeeded", i)
		v, err := res.BigInt()
		require.NoError(t, err)
		assert.Equal(t, int64(i*2), v.Int64())
	}
}

// TestCaller_RequiredCallFailureFailsBatch checks that a failing call with
// AllowFailure=false aborts the whole batch with call context in the error.
func TestCaller_RequiredCallFailureFailsBatch(t *testing.T) {
	contract := testABI(t)
	transport := &fakeTransport{
		handle: func(selector string, input []byte, elem *rpc.BatchElem) {
			elem.Error = errors.New("execution reverted")
		},
	}
	caller := evm.NewCaller(transport, contract, zap.NewNop(), evm.Opts{Retry: fastRetry()})

	_, err := caller.Execute(context.Background(), []evm.Call{
		{Target: testTarget, Signature: "flag()"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flag()")
	assert.Contains(t, err.Error(), "index 0")
}

// TestCaller_ChunksByBatchSize checks round-trip chunking: 10 calls at batch
// size 3 need exactly 4 transport invocations.
func TestCaller_ChunksByBatchSize(t *testing.T) {
	contract := testABI(t)
	method := contract.Methods["flag"]
	out, err := method.Outputs.Pack(true)
	require.NoError(t, err)

	transport := &fakeTransport{
		handle: func(selector string, input []byte, elem *rpc.BatchElem) {
			respond(elem, out)
		},
	}
	caller := evm.NewCaller(transport, contract, zap.NewNop(), evm.Opts{BatchSize: 3, Retry: fastRetry()})

	calls := make([]evm.Call, 10)
	for i := range calls {
		calls[i] = evm.Call{Target: testTarget, Signature: "flag()"}
	}

	results, err := caller.Execute(context.Background(), calls)
	require.NoError(t, err)
	require.Len(t, results, 10)

	require.Len(t, transport.batches, 4)
	assert.Len(t, transport.batches[0], 3)
	assert.Len(t, transport.batches[3], 1)
}

// TestCaller_OverloadResolution checks that full-signature dispatch selects
// the right overload; the two forms of value must hit different selectors.
func TestCaller_OverloadResolution(t *testing.T) {
	contract := testABI(t)
	withArg := contract.Methods["value"]
	noArg := contract.Methods["value0"]
	require.NotEqual(t, withArg.ID, noArg.ID)

	seen := map[string]int{}
	transport := &fakeTransport{
		handle: func(selector string, input []byte, elem *rpc.BatchElem) {
			seen[selector]++
			out, err := noArg.Outputs.Pack(big.NewInt(7))
			require.NoError(t, err)
			respond(elem, out)
		},
	}
	caller := evm.NewCaller(transport, contract, zap.NewNop(), evm.Opts{Retry: fastRetry()})

	_, err := caller.Execute(context.Background(), []evm.Call{
		{Target: testTarget, Signature: "value(uint256)", Args: []any{big.NewInt(1)}},
		{Target: testTarget, Signature: "value()"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, seen[hexutil.Encode(withArg.ID)])
	assert.Equal(t, 1, seen[hexutil.Encode(noArg.ID)])
}

// TestCaller_UnknownSignature checks that an unconfigured signature is a
// systemic error, not a per-call failure.
func TestCaller_UnknownSignature(t *testing.T) {
	caller := evm.NewCaller(&fakeTransport{}, testABI(t), zap.NewNop(), evm.Opts{})

	_, err := caller.Execute(context.Background(), []evm.Call{
		{Target: testTarget, Signature: "missing()", AllowFailure: true},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing()")
}

// TestCaller_RetriesTransientTransportFailure checks that a transport-level
// error retries the whole batch, distinct from per-call failures.
func TestCaller_RetriesTransientTransportFailure(t *testing.T) {
	contract := testABI(t)
	method := contract.Methods["flag"]
	out, err := method.Outputs.Pack(true)
	require.NoError(t, err)

	transport := &fakeTransport{
		transient: 2,
		handle: func(selector string, input []byte, elem *rpc.BatchElem) {
			respond(elem, out)
		},
	}
	caller := evm.NewCaller(transport, contract, zap.NewNop(), evm.Opts{Retry: fastRetry()})

	res, err := caller.ExecuteOne(context.Background(), evm.Call{Target: testTarget, Signature: "flag()"})
	require.NoError(t, err)

	v, err := res.Bool()
	require.NoError(t, err)
	assert.True(t, v)
	assert.Len(t, transport.batches, 3)
}

// TestCaller_EmptyReturnDataIsFailure checks that a call returning no data
// (typically a non-contract target) is treated as a call failure.
func TestCaller_EmptyReturnDataIsFailure(t *testing.T) {
	contract := testABI(t)
	transport := &fakeTransport{
		handle: func(selector string, input []byte, elem *rpc.BatchElem) {
			respond(elem, nil)
		},
	}
	caller := evm.NewCaller(transport, contract, zap.NewNop(), evm.Opts{Retry: fastRetry()})

	results, err := caller.Execute(context.Background(), []evm.Call{
		{Target: testTarget, Signature: "flag()", AllowFailure: true},
	})
	require.NoError(t, err)
	assert.False(t, results[0].Ok)
}
