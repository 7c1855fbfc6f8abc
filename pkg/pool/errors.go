package pool

import "errors"

var (
	// ErrAlreadyRegistered is returned by RegisterBuilder when the pubkey
	// is already present.
	ErrAlreadyRegistered = errors.New("pool: builder already registered")

	// ErrNotRegistered is returned when a pubkey has no builder entry.
	ErrNotRegistered = errors.New("pool: builder not registered")

	// ErrDuplicate is returned by AddTx when the hash already exists.
	ErrDuplicate = errors.New("pool: transaction already known")

	// ErrNotFound is returned when a transaction hash is absent from the
	// pool.
	ErrNotFound = errors.New("pool: transaction not found")

	// ErrSoldAlready is returned when an operation targets a transaction
	// that has already settled.
	ErrSoldAlready = errors.New("pool: transaction already sold")
)
