package auction

import "errors"

var (
	// ErrBidMismatch is returned when a bid's tx hash does not match the
	// auction's transaction.
	ErrBidMismatch = errors.New("auction: bid tx hash does not match auction")

	// ErrBelowReserve is returned when a bid's value is below the
	// transaction's reserve price.
	ErrBelowReserve = errors.New("auction: bid below reserve")

	// ErrNoBids is returned by Settle when called on an auction with no
	// bids — callers must never do this, as settlement only visits
	// auctions that exist, and an auction is only created with its first
	// bid already appended.
	ErrNoBids = errors.New("auction: settle called with no bids")
)
