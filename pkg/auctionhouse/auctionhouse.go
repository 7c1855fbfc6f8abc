// Package auctionhouse implements the synchronous request API (C4):
// register, get_status, submit_tx, get_txpool, submit_bid, get_results.
// It is the one component that touches the pool's three locks from the
// request-handling side and the only caller of the chain client outside the
// background loops.
package auctionhouse

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/flashhouse/auctionhouse/pkg/auction"
	"github.com/flashhouse/auctionhouse/pkg/chainclient"
	"github.com/flashhouse/auctionhouse/pkg/log"
	"github.com/flashhouse/auctionhouse/pkg/pool"
	"github.com/flashhouse/auctionhouse/pkg/slotclock"
	"github.com/flashhouse/auctionhouse/pkg/txcodec"
	"github.com/flashhouse/auctionhouse/pkg/types"
)

// AuctionHouse wires the pool and chain client behind the six synchronous
// operations the HTTP layer dispatches to.
type AuctionHouse struct {
	Pool  *pool.Pool
	Chain chainclient.ChainClient
	log   *log.Logger
	clock slotclock.Clock
}

// New constructs an AuctionHouse over an existing pool and chain client,
// deriving slot numbers from the configured genesisTime
// (CHAIN.genesis_time).
func New(p *pool.Pool, chain chainclient.ChainClient, logger *log.Logger, genesisTime int64) *AuctionHouse {
	if logger == nil {
		logger = log.Default()
	}
	return &AuctionHouse{Pool: p, Chain: chain, log: logger.Module("auctionhouse"), clock: slotclock.NewClock(genesisTime)}
}

// Register creates a new builder with access granted.
//
// TODO: validate if pubkey is registered in flashbots boost relay.
func (ah *AuctionHouse) Register(pubkey []byte) error {
	return ah.Pool.RegisterBuilder(pubkey)
}

// GetStatus returns a builder's access flag and pending payment.
func (ah *AuctionHouse) GetStatus(pubkey []byte) (access bool, pendingPayment *uint256.Int, err error) {
	access, pendingPayment, ok := ah.Pool.GetBuilder(pubkey)
	if !ok {
		return false, nil, pool.ErrNotRegistered
	}
	return access, pendingPayment, nil
}

// SubmitTx decodes a raw signed transaction, estimates its gas via the
// chain client, computes its reserve, and admits it to the pool.
//
// TODO: check if that works — estimate_gas is called against the decoded
// fields directly; unclear whether every node accepts this shape for an
// unbroadcast transaction.
func (ah *AuctionHouse) SubmitTx(ctx context.Context, raw []byte) error {
	submitted := slotclock.Now()

	data, from, err := txcodec.Decode(raw)
	if err != nil {
		return err
	}
	hash, err := txcodec.Hash(data)
	if err != nil {
		return err
	}
	if _, ok := ah.Pool.GetTx(hash); ok {
		return pool.ErrDuplicate
	}

	estimated, err := ah.Chain.EstimateGas(ctx, callMsgFor(data, from))
	if err != nil {
		ah.log.Warn("estimate_gas failed", "hash", hash, "err", err)
		return ErrInvalidTx
	}

	reserve := computeReserve(data, estimated)

	tx := types.NewTransaction(data, hash, reserve, submitted)
	tx.SetSender(from)
	return ah.Pool.AddTx(tx)
}

// GetTxPool returns every unsold transaction with signature fields
// redacted, paired with its reserve. Order is unspecified.
func (ah *AuctionHouse) GetTxPool(pubkey []byte) ([]TxPoolEntry, error) {
	if err := ah.requireAccess(pubkey); err != nil {
		return nil, err
	}
	unsold := ah.Pool.ListUnsold()
	out := make([]TxPoolEntry, 0, len(unsold))
	for _, tx := range unsold {
		out = append(out, TxPoolEntry{
			Data:    types.RedactSignature(tx.Inner),
			Reserve: tx.Reserve.Clone(),
		})
	}
	return out, nil
}

// TxPoolEntry is one row of get_txpool's response.
type TxPoolEntry struct {
	Data    types.TxData
	Reserve *uint256.Int
}

// SubmitBid validates and records a bid, returning the slot in which it is
// expected to settle. The return value is advisory only.
func (ah *AuctionHouse) SubmitBid(pubkey []byte, txHash common.Hash, value *uint256.Int) (uint64, error) {
	submitted := slotclock.Now()

	if err := ah.requireAccess(pubkey); err != nil {
		return 0, err
	}

	tx, ok := ah.Pool.GetTx(txHash)
	if !ok {
		return 0, pool.ErrNotFound
	}
	if tx.Sold {
		return 0, pool.ErrSoldAlready
	}
	if value.Cmp(tx.Reserve) < 0 {
		return 0, auction.ErrBelowReserve
	}

	bid := types.Bid{BuilderPubkey: pubkey, TxHash: txHash, Value: value, Submitted: submitted}
	if err := ah.Pool.SubmitBid(tx, bid); err != nil {
		return 0, err
	}

	slot := ah.clock.Slot(submitted)
	tooYoung := (submitted - tx.Submitted) < slotclock.MinTimeInTxPool
	alreadySettled := ah.Pool.ResultsForSlot(slot) != nil
	if tooYoung || alreadySettled {
		slot++
	}
	return slot, nil
}

// GetResults filters a slot's settled results to those the caller won.
func (ah *AuctionHouse) GetResults(pubkey []byte, slot uint64) ([]types.SlotResult, *uint256.Int, error) {
	if err := ah.requireAccess(pubkey); err != nil {
		return nil, nil, err
	}

	all := ah.Pool.ResultsForSlot(slot)
	total := uint256.NewInt(0)
	if all == nil {
		return nil, total, nil
	}

	key := string(pubkey)
	var mine []types.SlotResult
	for _, r := range all {
		if string(r.Result.WinnerPubkey) == key {
			mine = append(mine, r)
			total.Add(total, r.Result.Payment)
		}
	}
	return mine, total, nil
}

func (ah *AuctionHouse) requireAccess(pubkey []byte) error {
	registered, access := ah.Pool.HasAccess(pubkey)
	if !registered {
		return pool.ErrNotRegistered
	}
	if !access {
		return ErrAccessRestricted
	}
	return nil
}

// computeReserve is maxPriorityFeePerGas * estimated_gas for EIP-1559
// transactions. Legacy and EIP-2930 transactions have no separate tip, so
// the spec's "legacy equivalent" is their flat gas price (see DESIGN.md's
// resolution of this open question).
func computeReserve(data types.TxData, estimatedGas uint64) *uint256.Int {
	feePerGas := types.GasTipCap(data)
	if feePerGas == nil {
		feePerGas = big.NewInt(0)
	}
	reserveBig := new(big.Int).Mul(feePerGas, new(big.Int).SetUint64(estimatedGas))
	reserve, _ := uint256.FromBig(reserveBig)
	return reserve
}

func callMsgFor(data types.TxData, from common.Address) chainclient.CallMsg {
	return chainclient.CallMsg{
		From:     &from,
		To:       types.To(data),
		Gas:      types.Gas(data),
		GasPrice: types.GasPrice(data),
		Value:    types.Value(data),
		Data:     types.InputData(data),
	}
}
