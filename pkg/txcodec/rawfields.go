package txcodec

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flashhouse/auctionhouse/pkg/rlp"
	"github.com/flashhouse/auctionhouse/pkg/types"
)

// encodeAddress returns the RLP string encoding of an optional address: the
// empty string for contract creation (to == nil), 20 raw bytes otherwise.
func encodeAddress(to *common.Address) []byte {
	if to == nil {
		enc, _ := rlp.EncodeToBytes([]byte(nil))
		return enc
	}
	enc, _ := rlp.EncodeToBytes(to.Bytes())
	return enc
}

// readAddress reads an optional address field: nil for the empty string,
// otherwise the 20-byte address.
func readAddress(s *rlp.Stream) (*common.Address, error) {
	b, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, nil
	}
	addr := common.BytesToAddress(b)
	return &addr, nil
}

// encodeAccessList RLP-encodes an EIP-2930 access list as a list of
// (address, [storageKeys...]) tuples.
func encodeAccessList(al types.AccessList) []byte {
	var payload []byte
	for _, tuple := range al {
		addrEnc, _ := rlp.EncodeToBytes(tuple.Address.Bytes())
		var keysPayload []byte
		for _, k := range tuple.StorageKeys {
			keyEnc, _ := rlp.EncodeToBytes(k.Bytes())
			keysPayload = append(keysPayload, keyEnc...)
		}
		tuplePayload := append(addrEnc, rlp.WrapList(keysPayload)...)
		payload = append(payload, rlp.WrapList(tuplePayload)...)
	}
	return rlp.WrapList(payload)
}

// readAccessList reads an EIP-2930 access list from the stream.
func readAccessList(s *rlp.Stream) (types.AccessList, error) {
	if _, err := s.List(); err != nil {
		return nil, err
	}
	var al types.AccessList
	for s.Remaining() {
		if _, err := s.List(); err != nil {
			return nil, err
		}
		addrBytes, err := s.Bytes()
		if err != nil {
			return nil, err
		}
		if _, err := s.List(); err != nil {
			return nil, err
		}
		var keys []common.Hash
		for s.Remaining() {
			kb, err := s.Bytes()
			if err != nil {
				return nil, err
			}
			keys = append(keys, common.BytesToHash(kb))
		}
		if err := s.ListEnd(); err != nil {
			return nil, err
		}
		al = append(al, types.AccessTuple{
			Address:     common.BytesToAddress(addrBytes),
			StorageKeys: keys,
		})
		if err := s.ListEnd(); err != nil {
			return nil, err
		}
	}
	if err := s.ListEnd(); err != nil {
		return nil, err
	}
	return al, nil
}

func encodeUint64(u uint64) []byte {
	enc, _ := rlp.EncodeToBytes(u)
	return enc
}

func encodeBigInt(i *big.Int) []byte {
	enc, _ := rlp.EncodeToBytes(i)
	return enc
}

func encodeBytesField(b []byte) []byte {
	enc, _ := rlp.EncodeToBytes(b)
	return enc
}
