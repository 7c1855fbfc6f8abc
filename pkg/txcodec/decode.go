// Package txcodec decodes raw signed Ethereum transactions (legacy,
// EIP-2930, EIP-1559) into structured records, and re-encodes structured
// records back into raw broadcastable bytes.
package txcodec

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/flashhouse/auctionhouse/pkg/rlp"
	"github.com/flashhouse/auctionhouse/pkg/types"
)

// Decode classifies raw by its first byte and RLP-decodes it into TxData.
// A first byte above 0x7f means legacy/EIP-155; otherwise the byte is an
// EIP-2718 type selector (0x01 access-list, 0x02 dynamic-fee). The sender
// is recovered from the signature and returned alongside the decoded data.
func Decode(raw []byte) (types.TxData, common.Address, error) {
	if len(raw) == 0 {
		return nil, common.Address{}, fmt.Errorf("txcodec: empty transaction")
	}

	if raw[0] > 0x7f {
		return decodeLegacy(raw)
	}

	switch raw[0] {
	case types.AccessListTxType:
		return decodeAccessList(raw[1:])
	case types.DynamicFeeTxType:
		return decodeDynamicFee(raw[1:])
	default:
		return nil, common.Address{}, ErrUnknownTxType
	}
}

func decodeLegacy(raw []byte) (types.TxData, common.Address, error) {
	s := rlp.NewStream(bytesReader(raw))
	if _, err := s.List(); err != nil {
		return nil, common.Address{}, err
	}
	tx := &types.LegacyTx{}
	var err error
	if tx.Nonce, err = s.Uint64(); err != nil {
		return nil, common.Address{}, err
	}
	if tx.GasPrice, err = s.BigInt(); err != nil {
		return nil, common.Address{}, err
	}
	if tx.Gas, err = s.Uint64(); err != nil {
		return nil, common.Address{}, err
	}
	if tx.To, err = readAddress(s); err != nil {
		return nil, common.Address{}, err
	}
	if tx.Value, err = s.BigInt(); err != nil {
		return nil, common.Address{}, err
	}
	if tx.Data, err = s.Bytes(); err != nil {
		return nil, common.Address{}, err
	}
	if tx.V, err = s.BigInt(); err != nil {
		return nil, common.Address{}, err
	}
	if tx.R, err = s.BigInt(); err != nil {
		return nil, common.Address{}, err
	}
	if tx.S, err = s.BigInt(); err != nil {
		return nil, common.Address{}, err
	}
	if err := s.ListEnd(); err != nil {
		return nil, common.Address{}, err
	}

	from, err := recoverLegacySender(tx)
	if err != nil {
		return nil, common.Address{}, err
	}
	return tx, from, nil
}

func decodeAccessList(body []byte) (types.TxData, common.Address, error) {
	s := rlp.NewStream(bytesReader(body))
	if _, err := s.List(); err != nil {
		return nil, common.Address{}, err
	}
	tx := &types.AccessListTx{}
	var err error
	if tx.ChainID, err = s.BigInt(); err != nil {
		return nil, common.Address{}, err
	}
	if tx.Nonce, err = s.Uint64(); err != nil {
		return nil, common.Address{}, err
	}
	if tx.GasPrice, err = s.BigInt(); err != nil {
		return nil, common.Address{}, err
	}
	if tx.Gas, err = s.Uint64(); err != nil {
		return nil, common.Address{}, err
	}
	if tx.To, err = readAddress(s); err != nil {
		return nil, common.Address{}, err
	}
	if tx.Value, err = s.BigInt(); err != nil {
		return nil, common.Address{}, err
	}
	if tx.Data, err = s.Bytes(); err != nil {
		return nil, common.Address{}, err
	}
	if tx.AccessList, err = readAccessList(s); err != nil {
		return nil, common.Address{}, err
	}
	if tx.V, err = s.BigInt(); err != nil {
		return nil, common.Address{}, err
	}
	if tx.R, err = s.BigInt(); err != nil {
		return nil, common.Address{}, err
	}
	if tx.S, err = s.BigInt(); err != nil {
		return nil, common.Address{}, err
	}
	if err := s.ListEnd(); err != nil {
		return nil, common.Address{}, err
	}

	from, err := recoverTypedSender(types.AccessListTxType, tx, tx.ChainID, tx.V, tx.R, tx.S)
	if err != nil {
		return nil, common.Address{}, err
	}
	return tx, from, nil
}

func decodeDynamicFee(body []byte) (types.TxData, common.Address, error) {
	s := rlp.NewStream(bytesReader(body))
	if _, err := s.List(); err != nil {
		return nil, common.Address{}, err
	}
	tx := &types.DynamicFeeTx{}
	var err error
	if tx.ChainID, err = s.BigInt(); err != nil {
		return nil, common.Address{}, err
	}
	if tx.Nonce, err = s.Uint64(); err != nil {
		return nil, common.Address{}, err
	}
	if tx.GasTipCap, err = s.BigInt(); err != nil {
		return nil, common.Address{}, err
	}
	if tx.GasFeeCap, err = s.BigInt(); err != nil {
		return nil, common.Address{}, err
	}
	if tx.Gas, err = s.Uint64(); err != nil {
		return nil, common.Address{}, err
	}
	if tx.To, err = readAddress(s); err != nil {
		return nil, common.Address{}, err
	}
	if tx.Value, err = s.BigInt(); err != nil {
		return nil, common.Address{}, err
	}
	if tx.Data, err = s.Bytes(); err != nil {
		return nil, common.Address{}, err
	}
	if tx.AccessList, err = readAccessList(s); err != nil {
		return nil, common.Address{}, err
	}
	if tx.V, err = s.BigInt(); err != nil {
		return nil, common.Address{}, err
	}
	if tx.R, err = s.BigInt(); err != nil {
		return nil, common.Address{}, err
	}
	if tx.S, err = s.BigInt(); err != nil {
		return nil, common.Address{}, err
	}
	if err := s.ListEnd(); err != nil {
		return nil, common.Address{}, err
	}

	from, err := recoverTypedSender(types.DynamicFeeTxType, tx, tx.ChainID, tx.V, tx.R, tx.S)
	if err != nil {
		return nil, common.Address{}, err
	}
	return tx, from, nil
}

// recoverLegacySender derives the recovery id from v, handling both
// pre-EIP-155 (v = 27/28) and EIP-155 (v = chainId*2+35+recid) encodings.
func recoverLegacySender(tx *types.LegacyTx) (common.Address, error) {
	if tx.V == nil || tx.R == nil || tx.S == nil {
		return common.Address{}, ErrInvalidSignature
	}

	var recid uint64
	var sighash common.Hash
	if tx.V.Cmp(big.NewInt(35)) < 0 {
		recid = tx.V.Uint64() - 27
		sighash = legacyUnsignedHash(tx, nil)
	} else {
		chainID := deriveLegacyChainID(tx.V)
		recid = new(big.Int).Sub(tx.V, new(big.Int).Add(new(big.Int).Mul(chainID, big.NewInt(2)), big.NewInt(35))).Uint64()
		sighash = legacyUnsignedHash(tx, chainID)
	}
	return recoverAddress(sighash, tx.R, tx.S, recid)
}

func deriveLegacyChainID(v *big.Int) *big.Int {
	x := new(big.Int).Sub(v, big.NewInt(35))
	return x.Rsh(x, 1)
}

// recoverTypedSender handles EIP-2930/EIP-1559, where v is the recovery id
// itself (0 or 1), per EIP-2718.
func recoverTypedSender(txType byte, tx types.TxData, chainID, v, r, s *big.Int) (common.Address, error) {
	if v == nil || r == nil || s == nil {
		return common.Address{}, ErrInvalidSignature
	}
	sighash := typedUnsignedHash(txType, tx)
	return recoverAddress(sighash, r, s, v.Uint64())
}

func recoverAddress(sighash common.Hash, r, s *big.Int, recid uint64) (common.Address, error) {
	if recid > 1 {
		return common.Address{}, ErrInvalidSignature
	}
	sig := make([]byte, 65)
	r.FillBytes(sig[0:32])
	s.FillBytes(sig[32:64])
	sig[64] = byte(recid)

	pub, err := crypto.SigToPub(sighash.Bytes(), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

func bytesReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}
