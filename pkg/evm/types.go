package evm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Call is a single read-only contract call to be dispatched as part of a batch.
//
// Signature is the full canonical signature (e.g. "gauge_relative_weight(address)"),
// not just the method name: the controller interface carries overloaded methods,
// and name-based dispatch would pick an arbitrary overload.
type Call struct {
	Target       common.Address
	Signature    string
	Args         []any
	AllowFailure bool
}

// Result is the per-call outcome of a batch. A failed call with
// AllowFailure=true is reported in-band here and never as an error from
// Execute; Err records the cause for logging only.
type Result struct {
	Ok     bool
	Err    error
	values []any
}

// Success builds a successful Result from decoded output values.
func Success(values ...any) Result {
	return Result{Ok: true, values: values}
}

// Failure builds an in-band failed Result.
func Failure(err error) Result {
	return Result{Ok: false, Err: err}
}

// Value returns the i-th decoded output of a successful call.
func (r Result) Value(i int) any {
	if !r.Ok || i >= len(r.values) {
		return nil
	}
	return r.values[i]
}

// BigInt returns the first output as *big.Int.
func (r Result) BigInt() (*big.Int, error) {
	v, ok := r.Value(0).(*big.Int)
	if !ok {
		return nil, fmt.Errorf("output is %T, not *big.Int", r.Value(0))
	}
	return v, nil
}

// Address returns the first output as a contract address.
func (r Result) Address() (common.Address, error) {
	v, ok := r.Value(0).(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("output is %T, not common.Address", r.Value(0))
	}
	return v, nil
}

// Text returns the first output as a string.
func (r Result) Text() (string, error) {
	v, ok := r.Value(0).(string)
	if !ok {
		return "", fmt.Errorf("output is %T, not string", r.Value(0))
	}
	return v, nil
}

// Bool returns the first output as a bool.
func (r Result) Bool() (bool, error) {
	v, ok := r.Value(0).(bool)
	if !ok {
		return false, fmt.Errorf("output is %T, not bool", r.Value(0))
	}
	return v, nil
}
