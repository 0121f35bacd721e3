// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

package keys

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"

	"golang.org/x/crypto/ssh"

	"github.com/toeirei/ppkconv/internal/keyerr"
	"github.com/toeirei/ppkconv/internal/wire"
)

type generated struct {
	name string
	priv crypto.Signer
}

func generateKeys(t *testing.T) []generated {
	t.Helper()
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa: %v", err)
	}
	out := []generated{{"rsa", rsaKey}}
	for _, c := range []elliptic.Curve{elliptic.P256(), elliptic.P384(), elliptic.P521()} {
		k, err := ecdsa.GenerateKey(c, rand.Reader)
		if err != nil {
			t.Fatalf("ecdsa %s: %v", c.Params().Name, err)
		}
		out = append(out, generated{"ecdsa-" + c.Params().Name, k})
	}
	_, edKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("ed25519: %v", err)
	}
	return append(out, generated{"ed25519", edKey})
}

func TestPublicBlobMatchesSSH(t *testing.T) {
	for _, g := range generateKeys(t) {
		t.Run(g.name, func(t *testing.T) {
			k, err := FromCryptoKey(g.priv)
			if err != nil {
				t.Fatalf("FromCryptoKey: %v", err)
			}
			pub, err := ssh.NewPublicKey(g.priv.Public())
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(k.PublicBlob(), pub.Marshal()) {
				t.Fatalf("public blob differs from x/crypto/ssh encoding")
			}
			if k.Type != pub.Type() {
				t.Fatalf("type %q, want %q", k.Type, pub.Type())
			}
			back, err := ParsePublicBlob(pub.Marshal())
			if err != nil {
				t.Fatalf("ParsePublicBlob: %v", err)
			}
			if back.HasPrivate() {
				t.Fatal("public-only key reports a private half")
			}
		})
	}
}

func TestPPKLayoutRoundTrip(t *testing.T) {
	for _, g := range generateKeys(t) {
		t.Run(g.name, func(t *testing.T) {
			k, err := FromCryptoKey(g.priv)
			if err != nil {
				t.Fatal(err)
			}
			// Trailing cipher padding must be ignored.
			priv := append(k.PPKPrivateBlob(), 4, 4, 4, 4)
			back, err := FromPPK(k.Type, k.PublicBlob(), priv)
			if err != nil {
				t.Fatalf("FromPPK: %v", err)
			}
			if !bytes.Equal(back.PPKPrivateBlob(), k.PPKPrivateBlob()) {
				t.Fatal("private blob changed across the PPK layout")
			}
			if !bytes.Equal(back.AppendOpenSSHPrivate(nil), k.AppendOpenSSHPrivate(nil)) {
				t.Fatal("openssh fields changed across the PPK layout")
			}
		})
	}
}

func TestOpenSSHLayoutRoundTrip(t *testing.T) {
	for _, g := range generateKeys(t) {
		t.Run(g.name, func(t *testing.T) {
			k, err := FromCryptoKey(g.priv)
			if err != nil {
				t.Fatal(err)
			}
			buf := k.AppendOpenSSHPrivate(nil)
			buf = wire.AppendString(buf, []byte("comment"))
			r := wire.NewReader(buf)
			back, err := ReadOpenSSHPrivate(r)
			if err != nil {
				t.Fatalf("ReadOpenSSHPrivate: %v", err)
			}
			if c, _ := r.String("comment"); c != "comment" {
				t.Fatalf("reader left at wrong offset, comment=%q", c)
			}
			if !bytes.Equal(back.PPKPrivateBlob(), k.PPKPrivateBlob()) {
				t.Fatal("private fields changed across the OpenSSH layout")
			}
		})
	}
}

func TestRSAFieldOrder(t *testing.T) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	k, err := FromCryptoKey(rsaKey)
	if err != nil {
		t.Fatal(err)
	}

	r := wire.NewReader(k.PPKPrivateBlob())
	d, _ := r.Mpint("d")
	p, _ := r.Mpint("p")
	q, _ := r.Mpint("q")
	iqmp, _ := r.Mpint("iqmp")
	if d.Cmp(rsaKey.D) != 0 || p.Cmp(rsaKey.Primes[0]) != 0 || q.Cmp(rsaKey.Primes[1]) != 0 || iqmp.Cmp(rsaKey.Precomputed.Qinv) != 0 {
		t.Fatal("PPK private layout is not d, p, q, iqmp")
	}

	r = wire.NewReader(k.AppendOpenSSHPrivate(nil))
	if typ, _ := r.String("type"); typ != "ssh-rsa" {
		t.Fatalf("type = %q", typ)
	}
	n, _ := r.Mpint("n")
	e, _ := r.Mpint("e")
	d2, _ := r.Mpint("d")
	iqmp2, _ := r.Mpint("iqmp")
	p2, _ := r.Mpint("p")
	q2, _ := r.Mpint("q")
	if n.Cmp(rsaKey.N) != 0 || e.Int64() != int64(rsaKey.E) || d2.Cmp(d) != 0 || iqmp2.Cmp(iqmp) != 0 || p2.Cmp(p) != 0 || q2.Cmp(q) != 0 {
		t.Fatal("OpenSSH private layout is not n, e, d, iqmp, p, q")
	}
}

func TestEd25519Layout(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	seed := priv.Seed()

	ppkPriv := wire.AppendString(nil, seed)
	pubBlob := wire.AppendString(wire.AppendString(nil, []byte("ssh-ed25519")), pub)
	k, err := FromPPK(TypeEd25519, pubBlob, ppkPriv)
	if err != nil {
		t.Fatalf("FromPPK: %v", err)
	}

	r := wire.NewReader(k.AppendOpenSSHPrivate(nil))
	r.String("type")
	gotPub, _ := r.Bytes("pub")
	gotPriv, _ := r.Bytes("priv")
	if !bytes.Equal(gotPub, pub) {
		t.Fatal("openssh ed25519 public field mismatch")
	}
	want := append(append([]byte{}, seed...), pub...)
	if !bytes.Equal(gotPriv, want) {
		t.Fatalf("openssh ed25519 private field = %x, want seed||pub", gotPriv)
	}
}

func TestMismatchedHalvesRejected(t *testing.T) {
	pubA, _, _ := ed25519.GenerateKey(rand.Reader)
	_, privB, _ := ed25519.GenerateKey(rand.Reader)
	pubBlob := wire.AppendString(wire.AppendString(nil, []byte("ssh-ed25519")), pubA)
	_, err := FromPPK(TypeEd25519, pubBlob, wire.AppendString(nil, privB.Seed()))
	if !errors.Is(err, keyerr.ErrFormat) {
		t.Fatalf("expected format error for mismatched ed25519 halves, got %v", err)
	}

	ecA, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	ecB, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	ka, _ := FromCryptoKey(ecA)
	kb, _ := FromCryptoKey(ecB)
	if _, err := FromPPK(TypeECDSA256, ka.PublicBlob(), kb.PPKPrivateBlob()); !errors.Is(err, keyerr.ErrFormat) {
		t.Fatalf("expected format error for mismatched ecdsa halves, got %v", err)
	}
}

func TestHeaderTypeMismatch(t *testing.T) {
	_, priv, _ := ed25519.GenerateKey(rand.Reader)
	k, _ := FromCryptoKey(priv)
	if _, err := FromPPK(TypeRSA, k.PublicBlob(), k.PPKPrivateBlob()); !errors.Is(err, keyerr.ErrFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
}

func TestUnsupportedAlgorithm(t *testing.T) {
	blob := wire.AppendString(nil, []byte("ssh-dss"))
	if _, err := ParsePublicBlob(blob); !errors.Is(err, keyerr.ErrUnsupportedAlgorithm) {
		t.Fatalf("expected unsupported algorithm, got %v", err)
	}
	if _, err := FromPPK("ssh-dss", blob, nil); !errors.Is(err, keyerr.ErrUnsupportedAlgorithm) {
		t.Fatalf("expected unsupported algorithm, got %v", err)
	}
	if _, err := FromCryptoKey("not a key"); !errors.Is(err, keyerr.ErrUnsupportedAlgorithm) {
		t.Fatalf("expected unsupported algorithm, got %v", err)
	}
}

func TestTruncatedPrivateBlob(t *testing.T) {
	_, priv, _ := ed25519.GenerateKey(rand.Reader)
	k, _ := FromCryptoKey(priv)
	blob := k.PPKPrivateBlob()
	if _, err := FromPPK(k.Type, k.PublicBlob(), blob[:10]); !errors.Is(err, keyerr.ErrFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
}
