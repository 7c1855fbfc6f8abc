// Package auction implements the per-transaction sealed-bid second-price
// auction: builders submit bids against a reserve price, and settlement
// picks the highest bidder while charging the second-highest (Vickrey)
// price.
package auction

import (
	"sort"

	"github.com/flashhouse/auctionhouse/pkg/types"
)

// Auction tracks the open bids for a single transaction. Bids accumulate
// append-only until Settle is called; an Auction is created on the first
// valid bid for its transaction and destroyed at settlement.
type Auction struct {
	Tx   *types.Transaction
	Bids []types.Bid
}

// New creates an auction seeded with its first bid. Callers validate the
// bid with Submit's rules before constructing the auction — New itself
// does not re-validate.
func New(tx *types.Transaction, first types.Bid) *Auction {
	return &Auction{Tx: tx, Bids: []types.Bid{first}}
}

// Submit appends bid after validating it against this auction's
// transaction. Repeated bids from the same builder are allowed and each
// counts separately in settlement ordering.
func (a *Auction) Submit(bid types.Bid) error {
	if bid.TxHash != a.Tx.Hash {
		return ErrBidMismatch
	}
	if bid.Value.Cmp(a.Tx.Reserve) < 0 {
		return ErrBelowReserve
	}
	a.Bids = append(a.Bids, bid)
	return nil
}

// Settle computes the outcome of the sealed-bid auction. With exactly one
// bid, payment equals the transaction's reserve and that bidder wins. With
// two or more bids, the highest-value bid wins and pays the second-highest
// value (Vickrey); ties on value are broken by earliest submission
// timestamp. The reserve does not participate in pricing once two or more
// bids exist.
func (a *Auction) Settle() (types.Result, error) {
	if len(a.Bids) == 0 {
		return types.Result{}, ErrNoBids
	}

	if len(a.Bids) == 1 {
		winner := a.Bids[0]
		return types.Result{
			WinnerPubkey: winner.BuilderPubkey,
			TxHash:       winner.TxHash,
			Payment:      a.Tx.Reserve.Clone(),
		}, nil
	}

	ordered := make([]types.Bid, len(a.Bids))
	copy(ordered, a.Bids)
	sort.SliceStable(ordered, func(i, j int) bool {
		cmp := ordered[i].Value.Cmp(ordered[j].Value)
		if cmp != 0 {
			return cmp > 0 // value descending
		}
		return ordered[i].Submitted < ordered[j].Submitted // earliest first
	})

	winner := ordered[0]
	second := ordered[1]
	return types.Result{
		WinnerPubkey: winner.BuilderPubkey,
		TxHash:       winner.TxHash,
		Payment:      second.Value.Clone(),
	}, nil
}
