package httpapi

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flashhouse/auctionhouse/pkg/types"
)

// txJSON is the wire shape of a decoded transaction's data field. It is a
// dispatcher-layer concern, not a core type — pkg/types carries no JSON
// tags of its own.
type txJSON struct {
	Type       int               `json:"type"`
	ChainID    string            `json:"chainId,omitempty"`
	Nonce      uint64            `json:"nonce"`
	GasPrice   string            `json:"gasPrice,omitempty"`
	GasTipCap  string            `json:"maxPriorityFeePerGas,omitempty"`
	GasFeeCap  string            `json:"maxFeePerGas,omitempty"`
	Gas        uint64            `json:"gas"`
	To         string            `json:"to,omitempty"`
	Value      string            `json:"value"`
	Input      string            `json:"input"`
	AccessList []accessTupleJSON `json:"accessList,omitempty"`
	V          string            `json:"v"`
	R          string            `json:"r"`
	S          string            `json:"s"`
}

type accessTupleJSON struct {
	Address     string   `json:"address"`
	StorageKeys []string `json:"storageKeys"`
}

func toTxJSON(d types.TxData) txJSON {
	out := txJSON{
		Type:  int(types.TxType(d)),
		Nonce: types.Nonce(d),
		Gas:   types.Gas(d),
		Value: decOrZero(types.Value(d)),
		Input: hexEncode(types.InputData(d)),
	}
	if cid := types.ChainID(d); cid != nil {
		out.ChainID = cid.String()
	}
	if to := types.To(d); to != nil {
		out.To = to.Hex()
	}

	switch out.Type {
	case types.DynamicFeeTxType:
		out.GasTipCap = decOrZero(types.GasTipCap(d))
		out.GasFeeCap = decOrZero(types.GasFeeCap(d))
	default:
		out.GasPrice = decOrZero(types.GasPrice(d))
	}

	if al := types.AccessListOf(d); al != nil {
		out.AccessList = make([]accessTupleJSON, len(al))
		for i, tuple := range al {
			keys := make([]string, len(tuple.StorageKeys))
			for j, k := range tuple.StorageKeys {
				keys[j] = k.Hex()
			}
			out.AccessList[i] = accessTupleJSON{Address: tuple.Address.Hex(), StorageKeys: keys}
		}
	}

	v, r, s := types.RawSignature(d)
	out.V = decOrZero(v)
	out.R = hexFromBig(r)
	out.S = hexFromBig(s)
	return out
}

func decOrZero(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func hexFromBig(v *big.Int) string {
	if v == nil {
		return "0x"
	}
	return "0x" + v.Text(16)
}

func hexEncode(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

func hexDecode(s string) ([]byte, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return hex.DecodeString(s)
}

func parseHash(s string) (common.Hash, error) {
	b, err := hexDecode(s)
	if err != nil {
		return common.Hash{}, fmt.Errorf("httpapi: invalid hash %q: %w", s, err)
	}
	return common.BytesToHash(b), nil
}
