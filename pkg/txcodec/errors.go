package txcodec

import "errors"

var (
	// ErrUnknownTxType is returned when the EIP-2718 type selector byte does
	// not match any of the supported typed transaction schemas.
	ErrUnknownTxType = errors.New("txcodec: unknown transaction type")

	// ErrEncodeMismatch is returned by EncodeVerify when the keccak256 of the
	// freshly re-encoded bytes does not match the transaction's stored hash.
	ErrEncodeMismatch = errors.New("txcodec: re-encoded hash does not match")

	// ErrMissingFeeFields is returned by Encode when the TxData is not one of
	// the three supported transaction structs. Encode does not check whether
	// fee fields are set.
	ErrMissingFeeFields = errors.New("txcodec: no usable fee fields")

	// ErrInvalidSignature is returned when a signature cannot be used to
	// recover a sender address.
	ErrInvalidSignature = errors.New("txcodec: invalid signature")
)
