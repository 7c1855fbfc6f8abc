// Package types defines the core data structures shared across the auction
// house: decoded transactions, builders, bids, and settlement results.
package types

import (
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Transaction type constants, matching the EIP-2718 type selector.
const (
	LegacyTxType     = 0x00
	AccessListTxType = 0x01
	DynamicFeeTxType = 0x02
)

// Transaction is a decoded, signed Ethereum transaction plus the bookkeeping
// the auction house attaches at admission (reserve, submission time, sale
// and execution flags).
type Transaction struct {
	Inner TxData

	// Hash is the keccak256 of the transaction's canonical re-encoding,
	// computed once at admission by pkg/txcodec and stored verbatim
	// thereafter — it is the pool's key.
	Hash common.Hash

	// Reserve is the minimum acceptable bid (wei), computed at admission.
	Reserve *uint256.Int

	// Submitted is the monotonic wall-clock second at which submit_tx
	// admitted this transaction.
	Submitted float64

	// Sold is flipped by the settlement loop once an auction for this
	// transaction has settled.
	Sold bool

	// Executed is set by the cleanup loop when a receipt is observed. The
	// transaction is removed from the pool in the same pass, so this flag
	// is transient and need not be persisted.
	Executed bool

	from atomic.Pointer[common.Address]
}

// NewTransaction wraps decoded tx data with admission bookkeeping.
func NewTransaction(inner TxData, hash common.Hash, reserve *uint256.Int, submitted float64) *Transaction {
	return &Transaction{Inner: inner, Hash: hash, Reserve: reserve, Submitted: submitted}
}

// SetSender caches the sender address recovered from the signature.
func (tx *Transaction) SetSender(addr common.Address) {
	a := addr
	tx.from.Store(&a)
}

// Sender returns the cached sender address, or nil if not yet recovered.
func (tx *Transaction) Sender() *common.Address {
	return tx.from.Load()
}

// TxData is the type-specific payload of a transaction, covering the three
// wire formats the codec supports: legacy/EIP-155, EIP-2930, EIP-1559.
type TxData interface {
	txType() byte
	chainID() *big.Int
	accessList() AccessList
	data() []byte
	gas() uint64
	gasPrice() *big.Int
	gasTipCap() *big.Int
	gasFeeCap() *big.Int
	value() *big.Int
	nonce() uint64
	to() *common.Address
	rawSignature() (v, r, s *big.Int)
}

// TxType returns the EIP-2718 type selector for d (0x00 for legacy).
func TxType(d TxData) byte { return d.txType() }

// ChainID returns the chain ID encoded in or derivable from d.
func ChainID(d TxData) *big.Int { return d.chainID() }

// AccessListOf returns the access list carried by d, or nil.
func AccessListOf(d TxData) AccessList { return d.accessList() }

// InputData returns the raw calldata/input carried by d.
func InputData(d TxData) []byte { return d.data() }

// Gas returns the gas limit of d.
func Gas(d TxData) uint64 { return d.gas() }

// GasPrice returns the effective gas price of d (legacy) or the fee cap
// (typed transactions), matching go-ethereum's GasPrice() convention.
func GasPrice(d TxData) *big.Int { return d.gasPrice() }

// GasTipCap returns maxPriorityFeePerGas (or gasPrice for legacy/2930).
func GasTipCap(d TxData) *big.Int { return d.gasTipCap() }

// GasFeeCap returns maxFeePerGas (or gasPrice for legacy/2930).
func GasFeeCap(d TxData) *big.Int { return d.gasFeeCap() }

// Value returns the wei value transferred by d.
func Value(d TxData) *big.Int { return d.value() }

// Nonce returns the sender-scoped nonce of d.
func Nonce(d TxData) uint64 { return d.nonce() }

// To returns the recipient address of d, or nil for contract creation.
func To(d TxData) *common.Address { return d.to() }

// RawSignature returns the v, r, s signature components of d verbatim.
func RawSignature(d TxData) (v, r, s *big.Int) { return d.rawSignature() }

// AccessList is a list of address-slot pairs accessed by a transaction.
type AccessList []AccessTuple

// AccessTuple is a single address and its accessed storage slots.
type AccessTuple struct {
	Address     common.Address
	StorageKeys []common.Hash
}

// LegacyTx represents a legacy or EIP-155 (type 0x00) transaction.
type LegacyTx struct {
	Nonce    uint64
	GasPrice *big.Int
	Gas      uint64
	To       *common.Address
	Value    *big.Int
	Data     []byte
	V, R, S  *big.Int
}

func (tx *LegacyTx) txType() byte               { return LegacyTxType }
func (tx *LegacyTx) chainID() *big.Int          { return deriveChainID(tx.V) }
func (tx *LegacyTx) accessList() AccessList     { return nil }
func (tx *LegacyTx) data() []byte               { return tx.Data }
func (tx *LegacyTx) gas() uint64                { return tx.Gas }
func (tx *LegacyTx) gasPrice() *big.Int         { return tx.GasPrice }
func (tx *LegacyTx) gasTipCap() *big.Int        { return tx.GasPrice }
func (tx *LegacyTx) gasFeeCap() *big.Int        { return tx.GasPrice }
func (tx *LegacyTx) value() *big.Int            { return tx.Value }
func (tx *LegacyTx) nonce() uint64              { return tx.Nonce }
func (tx *LegacyTx) to() *common.Address        { return tx.To }
func (tx *LegacyTx) rawSignature() (v, r, s *big.Int) { return tx.V, tx.R, tx.S }

// AccessListTx represents an EIP-2930 (type 0x01) transaction.
type AccessListTx struct {
	ChainID    *big.Int
	Nonce      uint64
	GasPrice   *big.Int
	Gas        uint64
	To         *common.Address
	Value      *big.Int
	Data       []byte
	AccessList AccessList
	V, R, S    *big.Int
}

func (tx *AccessListTx) txType() byte               { return AccessListTxType }
func (tx *AccessListTx) chainID() *big.Int          { return tx.ChainID }
func (tx *AccessListTx) accessList() AccessList     { return tx.AccessList }
func (tx *AccessListTx) data() []byte               { return tx.Data }
func (tx *AccessListTx) gas() uint64                { return tx.Gas }
func (tx *AccessListTx) gasPrice() *big.Int         { return tx.GasPrice }
func (tx *AccessListTx) gasTipCap() *big.Int        { return tx.GasPrice }
func (tx *AccessListTx) gasFeeCap() *big.Int        { return tx.GasPrice }
func (tx *AccessListTx) value() *big.Int            { return tx.Value }
func (tx *AccessListTx) nonce() uint64              { return tx.Nonce }
func (tx *AccessListTx) to() *common.Address        { return tx.To }
func (tx *AccessListTx) rawSignature() (v, r, s *big.Int) { return tx.V, tx.R, tx.S }

// DynamicFeeTx represents an EIP-1559 (type 0x02) transaction.
type DynamicFeeTx struct {
	ChainID    *big.Int
	Nonce      uint64
	GasTipCap  *big.Int // maxPriorityFeePerGas
	GasFeeCap  *big.Int // maxFeePerGas
	Gas        uint64
	To         *common.Address
	Value      *big.Int
	Data       []byte
	AccessList AccessList
	V, R, S    *big.Int
}

func (tx *DynamicFeeTx) txType() byte               { return DynamicFeeTxType }
func (tx *DynamicFeeTx) chainID() *big.Int          { return tx.ChainID }
func (tx *DynamicFeeTx) accessList() AccessList     { return tx.AccessList }
func (tx *DynamicFeeTx) data() []byte               { return tx.Data }
func (tx *DynamicFeeTx) gas() uint64                { return tx.Gas }
func (tx *DynamicFeeTx) gasPrice() *big.Int         { return tx.GasFeeCap }
func (tx *DynamicFeeTx) gasTipCap() *big.Int        { return tx.GasTipCap }
func (tx *DynamicFeeTx) gasFeeCap() *big.Int        { return tx.GasFeeCap }
func (tx *DynamicFeeTx) value() *big.Int            { return tx.Value }
func (tx *DynamicFeeTx) nonce() uint64              { return tx.Nonce }
func (tx *DynamicFeeTx) to() *common.Address        { return tx.To }
func (tx *DynamicFeeTx) rawSignature() (v, r, s *big.Int) { return tx.V, tx.R, tx.S }

// RedactSignature returns a shallow copy of d with its signature fields
// zeroed (v=0, r=nil, s=nil), the shape get_txpool returns to builders so
// a leaked private tx body cannot be rebroadcast by whoever read it.
func RedactSignature(d TxData) TxData {
	switch tx := d.(type) {
	case *LegacyTx:
		cpy := *tx
		cpy.V, cpy.R, cpy.S = big.NewInt(0), nil, nil
		return &cpy
	case *AccessListTx:
		cpy := *tx
		cpy.V, cpy.R, cpy.S = big.NewInt(0), nil, nil
		return &cpy
	case *DynamicFeeTx:
		cpy := *tx
		cpy.V, cpy.R, cpy.S = big.NewInt(0), nil, nil
		return &cpy
	default:
		return d
	}
}

// deriveChainID extracts the EIP-155 chain ID from a legacy V value, or nil
// if V indicates an unprotected (pre-EIP-155) transaction.
func deriveChainID(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	if v.BitLen() <= 8 {
		vi := v.Uint64()
		if vi == 27 || vi == 28 {
			return nil
		}
		return new(big.Int).SetUint64((vi - 35) / 2)
	}
	vCopy := new(big.Int).Sub(v, big.NewInt(35))
	return vCopy.Rsh(vCopy, 1)
}
