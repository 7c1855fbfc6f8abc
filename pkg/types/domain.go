package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Builder is a registered block builder. Pubkey is its opaque identifier;
// Access gates every auction-side operation; PendingPayment accrues wei
// credited by settled auctions this builder won.
type Builder struct {
	Pubkey         []byte
	Access         bool
	PendingPayment *uint256.Int
}

// NewBuilder creates a builder with access granted and no payment owed.
//
// TODO: validate if pubkey is registered in flashbots boost relay.
func NewBuilder(pubkey []byte) *Builder {
	return &Builder{
		Pubkey:         pubkey,
		Access:         true,
		PendingPayment: uint256.NewInt(0),
	}
}

// Bid is a sealed offer from a builder for the exclusive right to include a
// transaction. Bids are immutable after creation.
type Bid struct {
	BuilderPubkey []byte
	TxHash        common.Hash
	Value         *uint256.Int
	Submitted     float64
}

// Result is the settled outcome of one transaction's auction.
type Result struct {
	WinnerPubkey []byte
	TxHash       common.Hash
	Payment      *uint256.Int
}

// SlotResult pairs a settled Result with the transaction data it settled,
// the shape returned to builders via get_results and stored per slot.
type SlotResult struct {
	Result Result
	Tx     TxData
}
