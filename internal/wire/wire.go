// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

// Package wire implements the SSH binary primitives shared by the PPK and
// OpenSSH containers: big-endian uint32, length-prefixed strings and mpints.
//
// Encoders append to a caller-supplied slice and return the extended slice,
// so every container is assembled from explicit buffers with no shared
// writer state. The Reader never corrects mpint signs: values are always
// reconstructed as unsigned magnitudes.
package wire

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/toeirei/ppkconv/internal/keyerr"
)

// TruncatedError is returned when a read needs more bytes than remain.
type TruncatedError struct {
	What string
	Want int
	Have int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("truncated %s: need %d bytes, have %d", e.What, e.Want, e.Have)
}

// Is makes truncation match keyerr.ErrFormat.
func (e *TruncatedError) Is(target error) bool { return target == keyerr.ErrFormat }

// AppendUint32 appends v in big-endian order.
func AppendUint32(b []byte, v uint32) []byte {
	return binary.BigEndian.AppendUint32(b, v)
}

// AppendString appends s with a 4-byte length prefix.
func AppendString(b, s []byte) []byte {
	b = AppendUint32(b, uint32(len(s)))
	return append(b, s...)
}

// AppendMpint appends the non-negative integer n as an SSH mpint. Zero is the
// empty string; a magnitude whose top bit is set gets a leading zero byte.
func AppendMpint(b []byte, n *big.Int) []byte {
	return AppendString(b, MpintBytes(n))
}

// MpintBytes returns the mpint body for n, without the length prefix.
func MpintBytes(n *big.Int) []byte {
	if n == nil || n.Sign() == 0 {
		return []byte{}
	}
	mag := n.Bytes()
	if mag[0]&0x80 != 0 {
		return append([]byte{0}, mag...)
	}
	return mag
}

// Reader decodes primitives from a byte slice. Slices it returns alias the
// underlying buffer.
type Reader struct {
	buf []byte
	off int
}

// NewReader returns a Reader over b.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Len reports the number of unread bytes.
func (r *Reader) Len() int { return len(r.buf) - r.off }

// Done reports whether every byte has been consumed.
func (r *Reader) Done() bool { return r.Len() == 0 }

// Rest returns the unread bytes and consumes them.
func (r *Reader) Rest() []byte {
	out := r.buf[r.off:]
	r.off = len(r.buf)
	return out
}

// Raw consumes exactly n bytes.
func (r *Reader) Raw(n int, what string) ([]byte, error) {
	if n < 0 || r.Len() < n {
		return nil, &TruncatedError{What: what, Want: n, Have: r.Len()}
	}
	out := r.buf[r.off : r.off+n]
	r.off += n
	return out, nil
}

// Uint32 reads a big-endian uint32.
func (r *Reader) Uint32(what string) (uint32, error) {
	b, err := r.Raw(4, what+" length")
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// Bytes reads a length-prefixed string.
func (r *Reader) Bytes(what string) ([]byte, error) {
	n, err := r.Uint32(what)
	if err != nil {
		return nil, err
	}
	return r.Raw(int(n), what)
}

// String reads a length-prefixed string as text.
func (r *Reader) String(what string) (string, error) {
	b, err := r.Bytes(what)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Mpint reads an mpint as an unsigned magnitude.
func (r *Reader) Mpint(what string) (*big.Int, error) {
	b, err := r.Bytes(what)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}
