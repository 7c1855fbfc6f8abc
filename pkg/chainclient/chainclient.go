// Package chainclient is the thin JSON-RPC client the auction house uses to
// talk to the underlying chain node: estimate_gas at admission, receipts
// and block number for the cleanup loop, and raw broadcast for expired
// transactions flushed to the public mempool.
package chainclient

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// CallMsg is the argument to EstimateGas, mirroring the JSON shape the
// eth_estimateGas RPC method expects.
type CallMsg struct {
	From     *common.Address
	To       *common.Address
	Gas      uint64
	GasPrice *big.Int
	Value    *big.Int
	Data     []byte
}

// MarshalJSON renders CallMsg the way eth_estimateGas expects its single
// object parameter, omitting nil pointers, a zero gas limit and empty data.
func (m CallMsg) MarshalJSON() ([]byte, error) {
	arg := map[string]interface{}{}
	if m.From != nil {
		arg["from"] = m.From
	}
	if m.To != nil {
		arg["to"] = m.To
	}
	if m.Gas != 0 {
		arg["gas"] = hexutil.Uint64(m.Gas)
	}
	if m.GasPrice != nil {
		arg["gasPrice"] = (*hexutil.Big)(m.GasPrice)
	}
	if m.Value != nil {
		arg["value"] = (*hexutil.Big)(m.Value)
	}
	if len(m.Data) > 0 {
		arg["data"] = hexutil.Bytes(m.Data)
	}
	return json.Marshal(arg)
}

// Receipt is the subset of an on-chain transaction receipt the cleanup loop
// needs: whether it exists at all.
type Receipt struct {
	TxHash      common.Hash `json:"transactionHash"`
	BlockNumber *hexutil.Big `json:"blockNumber"`
	Status      hexutil.Uint64 `json:"status"`
}

// ChainClient is the external chain surface the auction house core
// consumes: gas estimation for reserve pricing, receipt lookups and block
// height for the cleanup loop, and raw broadcast for expired transactions.
type ChainClient interface {
	EstimateGas(ctx context.Context, msg CallMsg) (uint64, error)
	GetTransactionReceipt(ctx context.Context, hash common.Hash) (*Receipt, error)
	SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// RPCClient implements ChainClient over a JSON-RPC endpoint.
type RPCClient struct {
	c *rpc.Client
}

// Dial connects to the JSON-RPC endpoint at rawurl (the configured
// PROVIDER).
func Dial(ctx context.Context, rawurl string) (*RPCClient, error) {
	c, err := rpc.DialContext(ctx, rawurl)
	if err != nil {
		return nil, err
	}
	return &RPCClient{c: c}, nil
}

// EstimateGas calls eth_estimateGas.
func (r *RPCClient) EstimateGas(ctx context.Context, msg CallMsg) (uint64, error) {
	var result hexutil.Uint64
	if err := r.c.CallContext(ctx, &result, "eth_estimateGas", msg); err != nil {
		return 0, fmt.Errorf("%w: eth_estimateGas: %v", ErrChainRPC, err)
	}
	return uint64(result), nil
}

// GetTransactionReceipt calls eth_getTransactionReceipt. A null result
// means the transaction is still pending and is reported as ErrTxNotFound.
func (r *RPCClient) GetTransactionReceipt(ctx context.Context, hash common.Hash) (*Receipt, error) {
	var raw json.RawMessage
	if err := r.c.CallContext(ctx, &raw, "eth_getTransactionReceipt", hash); err != nil {
		return nil, fmt.Errorf("%w: eth_getTransactionReceipt: %v", ErrChainRPC, err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, ErrTxNotFound
	}
	var rcpt Receipt
	if err := json.Unmarshal(raw, &rcpt); err != nil {
		return nil, err
	}
	return &rcpt, nil
}

// SendRawTransaction calls eth_sendRawTransaction.
func (r *RPCClient) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	var hash common.Hash
	if err := r.c.CallContext(ctx, &hash, "eth_sendRawTransaction", hexutil.Encode(raw)); err != nil {
		return common.Hash{}, fmt.Errorf("%w: eth_sendRawTransaction: %v", ErrChainRPC, err)
	}
	return hash, nil
}

// BlockNumber calls eth_blockNumber.
func (r *RPCClient) BlockNumber(ctx context.Context) (uint64, error) {
	var result hexutil.Uint64
	if err := r.c.CallContext(ctx, &result, "eth_blockNumber"); err != nil {
		return 0, fmt.Errorf("%w: eth_blockNumber: %v", ErrChainRPC, err)
	}
	return uint64(result), nil
}

// Close shuts down the underlying RPC connection.
func (r *RPCClient) Close() { r.c.Close() }
