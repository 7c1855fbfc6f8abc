package rlp

import (
	"fmt"
	"math/big"
)

// EncodeToBytes returns the RLP encoding of val. The tx codec is the only
// caller, and it only ever hands this three concrete shapes — a raw byte
// string, a uint64 field, or a *big.Int field — so encoding is a direct
// type switch rather than the reflection walk a general-purpose RLP codec
// would need for arbitrary structs and slices.
func EncodeToBytes(val interface{}) ([]byte, error) {
	switch v := val.(type) {
	case []byte:
		return encodeBytes(v), nil
	case uint64:
		return encodeUint(v), nil
	case *big.Int:
		return encodeBigInt(v), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, val)
	}
}

// WrapList wraps an already RLP-encoded payload (the concatenation of a
// field list's individual encodings) in a list header. The tx codec uses
// this to assemble both the 9-field legacy envelope and the typed
// EIP-2930/1559 envelopes.
func WrapList(payload []byte) []byte {
	n := len(payload)
	if n <= 55 {
		buf := make([]byte, 1+n)
		buf[0] = 0xc0 + byte(n)
		copy(buf[1:], payload)
		return buf
	}
	lenBytes := bigEndianBytes(uint64(n))
	buf := make([]byte, 1+len(lenBytes)+n)
	buf[0] = 0xf7 + byte(len(lenBytes))
	copy(buf[1:], lenBytes)
	copy(buf[1+len(lenBytes):], payload)
	return buf
}

func encodeUint(u uint64) []byte {
	if u == 0 {
		return []byte{0x80}
	}
	if u < 128 {
		return []byte{byte(u)}
	}
	return encodeBytes(bigEndianBytes(u))
}

func encodeBigInt(i *big.Int) []byte {
	if i == nil || i.Sign() == 0 {
		return []byte{0x80}
	}
	return encodeBytes(i.Bytes())
}

func encodeBytes(data []byte) []byte {
	n := len(data)
	if n == 1 && data[0] <= 0x7f {
		return data
	}
	if n <= 55 {
		buf := make([]byte, 1+n)
		buf[0] = 0x80 + byte(n)
		copy(buf[1:], data)
		return buf
	}
	lenBytes := bigEndianBytes(uint64(n))
	buf := make([]byte, 1+len(lenBytes)+n)
	buf[0] = 0xb7 + byte(len(lenBytes))
	copy(buf[1:], lenBytes)
	copy(buf[1+len(lenBytes):], data)
	return buf
}

// bigEndianBytes trims u down to its minimal big-endian representation,
// the form every RLP length and integer field requires.
func bigEndianBytes(u uint64) []byte {
	var tmp [8]byte
	tmp[0] = byte(u >> 56)
	tmp[1] = byte(u >> 48)
	tmp[2] = byte(u >> 40)
	tmp[3] = byte(u >> 32)
	tmp[4] = byte(u >> 24)
	tmp[5] = byte(u >> 16)
	tmp[6] = byte(u >> 8)
	tmp[7] = byte(u)
	i := 0
	for i < 7 && tmp[i] == 0 {
		i++
	}
	return tmp[i:]
}
