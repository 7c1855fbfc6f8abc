package txcodec

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/flashhouse/auctionhouse/pkg/rlp"
	"github.com/flashhouse/auctionhouse/pkg/types"
)

// Encode reconstructs a raw transaction byte string from decoded fields.
// The output format follows d's concrete type: *types.DynamicFeeTx encodes
// as EIP-1559, *types.AccessListTx as EIP-2930 and *types.LegacyTx as
// legacy. Fee fields are not checked for presence; a nil fee field encodes
// as zero. Any other TxData fails with ErrMissingFeeFields. The signature
// triple is attached verbatim.
func Encode(d types.TxData) ([]byte, error) {
	switch tx := d.(type) {
	case *types.LegacyTx:
		return encodeLegacyTx(tx), nil
	case *types.AccessListTx:
		return encodeAccessListTx(tx), nil
	case *types.DynamicFeeTx:
		return encodeDynamicFeeTx(tx), nil
	default:
		return nil, ErrMissingFeeFields
	}
}

// EncodeVerify re-encodes d and confirms its keccak256 matches wantHash,
// the invariant C1 owes the rest of the system (hash(encode(decode(raw))) ==
// hash(raw)).
func EncodeVerify(d types.TxData, wantHash common.Hash) ([]byte, error) {
	raw, err := Encode(d)
	if err != nil {
		return nil, err
	}
	if crypto.Keccak256Hash(raw) != wantHash {
		return nil, ErrEncodeMismatch
	}
	return raw, nil
}

// Hash computes the canonical keccak256 hash of d's raw encoding, the value
// stored as a Transaction's identifying hash.
func Hash(d types.TxData) (common.Hash, error) {
	raw, err := Encode(d)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(raw), nil
}

func encodeLegacyTx(tx *types.LegacyTx) []byte {
	var payload []byte
	payload = append(payload, encodeUint64(tx.Nonce)...)
	payload = append(payload, encodeBigInt(tx.GasPrice)...)
	payload = append(payload, encodeUint64(tx.Gas)...)
	payload = append(payload, encodeAddress(tx.To)...)
	payload = append(payload, encodeBigInt(tx.Value)...)
	payload = append(payload, encodeBytesField(tx.Data)...)
	payload = append(payload, encodeBigInt(tx.V)...)
	payload = append(payload, encodeBigInt(tx.R)...)
	payload = append(payload, encodeBigInt(tx.S)...)
	return rlp.WrapList(payload)
}

func encodeAccessListTx(tx *types.AccessListTx) []byte {
	var payload []byte
	payload = append(payload, encodeBigInt(tx.ChainID)...)
	payload = append(payload, encodeUint64(tx.Nonce)...)
	payload = append(payload, encodeBigInt(tx.GasPrice)...)
	payload = append(payload, encodeUint64(tx.Gas)...)
	payload = append(payload, encodeAddress(tx.To)...)
	payload = append(payload, encodeBigInt(tx.Value)...)
	payload = append(payload, encodeBytesField(tx.Data)...)
	payload = append(payload, encodeAccessList(tx.AccessList)...)
	payload = append(payload, encodeBigInt(tx.V)...)
	payload = append(payload, encodeBigInt(tx.R)...)
	payload = append(payload, encodeBigInt(tx.S)...)
	body := rlp.WrapList(payload)
	return append([]byte{types.AccessListTxType}, body...)
}

func encodeDynamicFeeTx(tx *types.DynamicFeeTx) []byte {
	var payload []byte
	payload = append(payload, encodeBigInt(tx.ChainID)...)
	payload = append(payload, encodeUint64(tx.Nonce)...)
	payload = append(payload, encodeBigInt(tx.GasTipCap)...)
	payload = append(payload, encodeBigInt(tx.GasFeeCap)...)
	payload = append(payload, encodeUint64(tx.Gas)...)
	payload = append(payload, encodeAddress(tx.To)...)
	payload = append(payload, encodeBigInt(tx.Value)...)
	payload = append(payload, encodeBytesField(tx.Data)...)
	payload = append(payload, encodeAccessList(tx.AccessList)...)
	payload = append(payload, encodeBigInt(tx.V)...)
	payload = append(payload, encodeBigInt(tx.R)...)
	payload = append(payload, encodeBigInt(tx.S)...)
	body := rlp.WrapList(payload)
	return append([]byte{types.DynamicFeeTxType}, body...)
}

// legacyUnsignedHash computes the EIP-155 (or pre-155, when chainID is nil)
// signing hash: keccak256 of the RLP list with v/r/s replaced by either
// nothing (pre-155) or (chainID, 0, 0).
func legacyUnsignedHash(tx *types.LegacyTx, chainID *big.Int) common.Hash {
	var payload []byte
	payload = append(payload, encodeUint64(tx.Nonce)...)
	payload = append(payload, encodeBigInt(tx.GasPrice)...)
	payload = append(payload, encodeUint64(tx.Gas)...)
	payload = append(payload, encodeAddress(tx.To)...)
	payload = append(payload, encodeBigInt(tx.Value)...)
	payload = append(payload, encodeBytesField(tx.Data)...)
	if chainID != nil {
		payload = append(payload, encodeBigInt(chainID)...)
		payload = append(payload, encodeBigInt(big.NewInt(0))...)
		payload = append(payload, encodeBigInt(big.NewInt(0))...)
	}
	return crypto.Keccak256Hash(rlp.WrapList(payload))
}

// typedUnsignedHash computes the EIP-2930/EIP-1559 signing hash: keccak256
// of (type byte || RLP list of fields preceding v/r/s).
func typedUnsignedHash(txType byte, d types.TxData) common.Hash {
	var payload []byte
	payload = append(payload, encodeBigInt(types.ChainID(d))...)
	payload = append(payload, encodeUint64(types.Nonce(d))...)
	if txType == types.DynamicFeeTxType {
		payload = append(payload, encodeBigInt(types.GasTipCap(d))...)
		payload = append(payload, encodeBigInt(types.GasFeeCap(d))...)
	} else {
		payload = append(payload, encodeBigInt(types.GasPrice(d))...)
	}
	payload = append(payload, encodeUint64(types.Gas(d))...)
	payload = append(payload, encodeAddress(types.To(d))...)
	payload = append(payload, encodeBigInt(types.Value(d))...)
	payload = append(payload, encodeBytesField(types.InputData(d))...)
	payload = append(payload, encodeAccessList(types.AccessListOf(d))...)
	body := rlp.WrapList(payload)
	return crypto.Keccak256Hash(append([]byte{txType}, body...))
}
