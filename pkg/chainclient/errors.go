package chainclient

import "errors"

var (
	// ErrTxNotFound is returned by GetTransactionReceipt when the chain has
	// no receipt yet for the given hash — the transaction is still
	// pending, not failed.
	ErrTxNotFound = errors.New("chainclient: transaction not found")

	// ErrChainRPC wraps any other JSON-RPC failure.
	ErrChainRPC = errors.New("chainclient: rpc call failed")
)
