package auctionhouse

import "errors"

var (
	// ErrAccessRestricted is returned when a registered builder's access
	// flag is false.
	ErrAccessRestricted = errors.New("auctionhouse: access restricted")

	// ErrInvalidTx is returned by SubmitTx when the chain client rejects
	// the transaction at admission (estimate_gas failed).
	ErrInvalidTx = errors.New("auctionhouse: invalid transaction")
)
