// Package chaintest provides an in-memory ethereum.ContractCaller for tests.
// Handlers receive decoded inputs and return Go values that are ABI-encoded
// as the method outputs, so tests never hand-craft calldata.
package chaintest

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Handler answers one contract method.
type Handler func(args []any) ([]any, error)

type route struct {
	method  abi.Method
	handler Handler
}

// Backend dispatches calls by (address, selector).
type Backend struct {
	mu     sync.RWMutex
	routes map[common.Address][]route
	hung   map[common.Address]bool
	calls  atomic.Int64
}

// NewBackend creates an empty backend. Unhandled calls fail like a revert.
func NewBackend() *Backend {
	return &Backend{
		routes: make(map[common.Address][]route),
		hung:   make(map[common.Address]bool),
	}
}

// Handle registers fn for method of contract at addr.
func (b *Backend) Handle(addr common.Address, contract abi.ABI, method string, fn Handler) {
	m, ok := contract.Methods[method]
	if !ok {
		panic(fmt.Sprintf("chaintest: abi has no method %q", method))
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[addr] = append(b.routes[addr], route{method: m, handler: fn})
}

// Returns registers a handler with fixed outputs.
func (b *Backend) Returns(addr common.Address, contract abi.ABI, method string, out ...any) {
	b.Handle(addr, contract, method, func([]any) ([]any, error) { return out, nil })
}

// Hang makes every call to addr block until the caller's context is done.
func (b *Backend) Hang(addr common.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hung[addr] = true
}

// Calls reports how many calls reached the backend.
func (b *Backend) Calls() int {
	return int(b.calls.Load())
}

// CallContract implements ethereum.ContractCaller.
func (b *Backend) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	b.calls.Add(1)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if msg.To == nil || len(msg.Data) < 4 {
		return nil, fmt.Errorf("execution reverted: bad call")
	}

	b.mu.RLock()
	routes := b.routes[*msg.To]
	hung := b.hung[*msg.To]
	b.mu.RUnlock()

	if hung {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	for _, r := range routes {
		if !bytes.Equal(r.method.ID, msg.Data[:4]) {
			continue
		}
		args, err := r.method.Inputs.Unpack(msg.Data[4:])
		if err != nil {
			return nil, fmt.Errorf("chaintest: unpack %s: %w", r.method.Name, err)
		}
		out, err := r.handler(args)
		if err != nil {
			return nil, err
		}
		return r.method.Outputs.Pack(out...)
	}

	return nil, fmt.Errorf("execution reverted: no handler on %s", msg.To.Hex())
}

// Field reads a named field from a decoded tuple argument.
func Field(tuple any, name string) any {
	return reflect.ValueOf(tuple).FieldByName(name).Interface()
}

// Index reads element i of a decoded array argument.
func Index(list any, i int) any {
	return reflect.ValueOf(list).Index(i).Interface()
}

// Len returns the length of a decoded array argument.
func Len(list any) int {
	return reflect.ValueOf(list).Len()
}
