package rlp

import (
	"bytes"
	"io"
	"math/big"
)

// Stream provides sequential, scope-aware access to RLP-encoded data. The
// tx codec walks a transaction's fields directly through Bytes/Uint64/
// BigInt/List/ListEnd rather than decoding into a Go value by reflection —
// the wire layout of a legacy or typed transaction is fixed and known at
// compile time, so there is nothing for a reflection-based decoder to earn
// its keep against.
type Stream struct {
	data  []byte
	pos   int
	stack []int // exclusive end offset of each open list, innermost last
}

// NewStream reads r fully and returns a Stream over its bytes.
func NewStream(r io.Reader) *Stream {
	data, _ := io.ReadAll(r)
	return &Stream{data: data}
}

// header describes the item at the stream's current position without
// consuming it: whether it's a list, and the start/end offsets of its
// content (the string bytes, or the concatenated encodings of a list's
// elements).
type header struct {
	isList                   bool
	contentStart, contentEnd int
}

func (s *Stream) peekHeader() (header, error) {
	lim := s.limit()
	if s.pos >= lim {
		return header{}, io.EOF
	}
	prefix := s.data[s.pos]

	switch {
	case prefix <= 0x7f:
		return header{contentStart: s.pos, contentEnd: s.pos + 1}, nil

	case prefix <= 0xb7:
		size := int(prefix - 0x80)
		start := s.pos + 1
		end := start + size
		if end > lim {
			return header{}, io.ErrUnexpectedEOF
		}
		return header{contentStart: start, contentEnd: end}, nil

	case prefix <= 0xbf:
		size, contentStart, err := s.longFormSize(prefix-0xb7, lim)
		if err != nil {
			return header{}, err
		}
		if size <= 55 {
			return header{}, ErrNonCanonicalSize
		}
		end := contentStart + size
		if end > lim {
			return header{}, io.ErrUnexpectedEOF
		}
		return header{contentStart: contentStart, contentEnd: end}, nil

	case prefix <= 0xf7:
		size := int(prefix - 0xc0)
		start := s.pos + 1
		end := start + size
		if end > lim {
			return header{}, io.ErrUnexpectedEOF
		}
		return header{isList: true, contentStart: start, contentEnd: end}, nil

	default:
		size, contentStart, err := s.longFormSize(prefix-0xf7, lim)
		if err != nil {
			return header{}, err
		}
		if size <= 55 {
			return header{}, ErrNonCanonicalSize
		}
		end := contentStart + size
		if end > lim {
			return header{}, io.ErrUnexpectedEOF
		}
		return header{isList: true, contentStart: contentStart, contentEnd: end}, nil
	}
}

// longFormSize reads the lenOfLen-byte big-endian size that follows a
// long-form string/list prefix, returning the decoded size and the offset
// where its content begins.
func (s *Stream) longFormSize(lenOfLen byte, lim int) (size, contentStart int, err error) {
	n := int(lenOfLen)
	if s.pos+1+n > lim {
		return 0, 0, io.ErrUnexpectedEOF
	}
	sizeBytes := s.data[s.pos+1 : s.pos+1+n]
	if len(sizeBytes) > 0 && sizeBytes[0] == 0 {
		return 0, 0, ErrCanonInt
	}
	var v uint64
	for _, b := range sizeBytes {
		v = (v << 8) | uint64(b)
	}
	return int(v), s.pos + 1 + n, nil
}

// Bytes reads an RLP string value and returns it as []byte.
func (s *Stream) Bytes() ([]byte, error) {
	h, err := s.peekHeader()
	if err != nil {
		return nil, err
	}
	if h.isList {
		return nil, ErrExpectedString
	}
	s.pos = h.contentEnd
	return s.data[h.contentStart:h.contentEnd], nil
}

// List reads the start of an RLP list and enters a scope for reading list
// items. Subsequent Bytes/Uint64/BigInt/List calls read from within the
// list until a matching ListEnd.
func (s *Stream) List() (uint64, error) {
	h, err := s.peekHeader()
	if err != nil {
		return 0, err
	}
	if !h.isList {
		return 0, ErrExpectedList
	}
	s.stack = append(s.stack, h.contentEnd)
	s.pos = h.contentStart
	return uint64(h.contentEnd - h.contentStart), nil
}

// ListEnd closes the innermost open list scope, failing if not every byte
// of it has been consumed.
func (s *Stream) ListEnd() error {
	if len(s.stack) == 0 {
		return ErrExpectedList
	}
	end := s.stack[len(s.stack)-1]
	if s.pos != end {
		return ErrEOL
	}
	s.stack = s.stack[:len(s.stack)-1]
	return nil
}

// Remaining reports whether more bytes remain in the current scope.
func (s *Stream) Remaining() bool {
	return s.pos < s.limit()
}

func (s *Stream) limit() int {
	if n := len(s.stack); n > 0 {
		return s.stack[n-1]
	}
	return len(s.data)
}

// Uint64 reads an RLP-encoded unsigned integer.
func (s *Stream) Uint64() (uint64, error) {
	b, err := s.Bytes()
	if err != nil {
		return 0, err
	}
	if len(b) == 0 {
		return 0, nil
	}
	if len(b) > 8 {
		return 0, ErrUint64Range
	}
	if len(b) > 1 && b[0] == 0 {
		return 0, ErrCanonInt
	}
	var v uint64
	for _, x := range b {
		v = (v << 8) | uint64(x)
	}
	return v, nil
}

// BigInt reads an RLP-encoded big integer.
func (s *Stream) BigInt() (*big.Int, error) {
	b, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	if len(b) > 1 && b[0] == 0 {
		return nil, ErrCanonInt
	}
	return new(big.Int).SetBytes(bytes.Clone(b)), nil
}
