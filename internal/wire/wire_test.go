// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

package wire

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/toeirei/ppkconv/internal/keyerr"
)

func TestAppendMpint(t *testing.T) {
	cases := []struct {
		name string
		in   *big.Int
		want []byte
	}{
		{"zero", big.NewInt(0), []byte{0, 0, 0, 0}},
		{"small", big.NewInt(0x7f), []byte{0, 0, 0, 1, 0x7f}},
		{"high bit", big.NewInt(0x80), []byte{0, 0, 0, 2, 0, 0x80}},
		{"two bytes", big.NewInt(0x1234), []byte{0, 0, 0, 2, 0x12, 0x34}},
		{"high bit two bytes", big.NewInt(0xdead), []byte{0, 0, 0, 3, 0, 0xde, 0xad}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AppendMpint(nil, tc.in)
			if !bytes.Equal(got, tc.want) {
				t.Fatalf("AppendMpint(%v) = %x, want %x", tc.in, got, tc.want)
			}
			r := NewReader(got)
			back, err := r.Mpint("n")
			if err != nil {
				t.Fatalf("Mpint: %v", err)
			}
			if back.Cmp(tc.in) != 0 || !r.Done() {
				t.Fatalf("read back %v (done=%v), want %v", back, r.Done(), tc.in)
			}
		})
	}
}

func TestReaderSequence(t *testing.T) {
	var b []byte
	b = AppendUint32(b, 0xdeadbeef)
	b = AppendString(b, []byte("ssh-ed25519"))
	b = AppendString(b, nil)
	b = append(b, 1, 2, 3)

	r := NewReader(b)
	v, err := r.Uint32("check")
	if err != nil || v != 0xdeadbeef {
		t.Fatalf("Uint32 = %x, %v", v, err)
	}
	s, err := r.String("type")
	if err != nil || s != "ssh-ed25519" {
		t.Fatalf("String = %q, %v", s, err)
	}
	empty, err := r.Bytes("comment")
	if err != nil || len(empty) != 0 {
		t.Fatalf("Bytes = %x, %v", empty, err)
	}
	if rest := r.Rest(); !bytes.Equal(rest, []byte{1, 2, 3}) {
		t.Fatalf("Rest = %x", rest)
	}
	if !r.Done() {
		t.Fatal("expected reader to be exhausted")
	}
}

func TestReaderTruncated(t *testing.T) {
	b := AppendUint32(nil, 10)
	b = append(b, 'a', 'b')
	_, err := NewReader(b).Bytes("public blob")

	var te *TruncatedError
	if !errors.As(err, &te) {
		t.Fatalf("expected TruncatedError, got %v", err)
	}
	if te.Want != 10 || te.Have != 2 || te.What != "public blob" {
		t.Fatalf("unexpected error fields: %+v", te)
	}
	if !errors.Is(err, keyerr.ErrFormat) {
		t.Fatal("truncation should classify as a format error")
	}

	if _, err := NewReader([]byte{0, 0}).Uint32("count"); err == nil {
		t.Fatal("expected error for short uint32")
	}
}

func TestMpintNoSignCorrection(t *testing.T) {
	// 0x80 without a leading zero would be negative in two's complement; the
	// reader still yields the magnitude.
	b := AppendString(nil, []byte{0x80})
	n, err := NewReader(b).Mpint("x")
	if err != nil {
		t.Fatal(err)
	}
	if n.Cmp(big.NewInt(0x80)) != 0 {
		t.Fatalf("got %v, want 128", n)
	}
}
