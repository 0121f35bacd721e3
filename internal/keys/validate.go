// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

package keys

import (
	"bytes"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"fmt"
	"math/big"

	"github.com/toeirei/ppkconv/internal/keyerr"
)

var bigOne = big.NewInt(1)

// Validate checks that the private half belongs to the public half.
func (k *Key) Validate() error {
	if !k.HasPrivate() {
		return keyerr.Formatf(fieldPrivate, "%s key has no private part", k.Type)
	}
	switch {
	case k.RSA != nil:
		return k.RSA.validate()
	case k.ECDSA != nil:
		return k.ECDSA.validate(k.Type)
	default:
		return k.Ed25519.validate()
	}
}

func (r *RSA) validate() error {
	for _, n := range []*big.Int{r.N, r.E, r.D, r.P, r.Q, r.IQMP} {
		if n == nil || n.Sign() <= 0 {
			return keyerr.Formatf(fieldPrivate, "rsa key has a missing or zero component")
		}
	}
	if new(big.Int).Mul(r.P, r.Q).Cmp(r.N) != 0 {
		return keyerr.Formatf(fieldPrivate, "rsa primes do not multiply to the modulus")
	}
	check := new(big.Int).Mul(r.IQMP, r.Q)
	if check.Mod(check, r.P).Cmp(bigOne) != 0 {
		return keyerr.Formatf(fieldPrivate, "rsa iqmp is not the inverse of q mod p")
	}
	return nil
}

func (e *ECDSA) validate(keyType string) error {
	info, ok := curves[keyType]
	if !ok || info.name != e.Curve {
		return keyerr.Formatf(fieldPrivate, "curve %q does not match key type %q", e.Curve, keyType)
	}
	if e.D.BitLen() > info.scalar*8 {
		return keyerr.Formatf(fieldPrivate, "ecdsa scalar too large for %s", e.Curve)
	}
	priv, err := info.curve.NewPrivateKey(e.D.FillBytes(make([]byte, info.scalar)))
	if err != nil {
		return keyerr.Formatf(fieldPrivate, "invalid ecdsa scalar: %v", err)
	}
	if !bytes.Equal(priv.PublicKey().Bytes(), e.Point) {
		return keyerr.Formatf(fieldPrivate, "ecdsa scalar does not match the public point")
	}
	return nil
}

func (e *Ed25519) validate() error {
	if len(e.Seed) != ed25519KeySize || len(e.Public) != ed25519KeySize {
		return keyerr.Formatf(fieldPrivate, "ed25519 seed/public key must be %d bytes", ed25519KeySize)
	}
	derived := ed25519.NewKeyFromSeed(e.Seed)
	defer wipe(derived)
	if !bytes.Equal(derived[ed25519KeySize:], e.Public) {
		return keyerr.Formatf(fieldPrivate, "ed25519 seed does not match the public key")
	}
	return nil
}

// FromCryptoKey converts a standard library private key, as returned by
// golang.org/x/crypto/ssh.ParseRawPrivateKey, into explicit fields.
func FromCryptoKey(priv any) (*Key, error) {
	switch p := priv.(type) {
	case *rsa.PrivateKey:
		if len(p.Primes) != 2 {
			return nil, keyerr.Unsupported(fmt.Sprintf("rsa with %d primes", len(p.Primes)))
		}
		pp, q := p.Primes[0], p.Primes[1]
		iqmp := p.Precomputed.Qinv
		if iqmp == nil {
			iqmp = new(big.Int).ModInverse(q, pp)
		}
		k := &Key{Type: TypeRSA, RSA: &RSA{
			N:    new(big.Int).Set(p.N),
			E:    big.NewInt(int64(p.E)),
			D:    new(big.Int).Set(p.D),
			IQMP: new(big.Int).Set(iqmp),
			P:    new(big.Int).Set(pp),
			Q:    new(big.Int).Set(q),
		}}
		return validated(k)
	case *ecdsa.PrivateKey:
		ek, err := p.ECDH()
		if err != nil {
			return nil, keyerr.Unsupported(fmt.Sprintf("ecdsa curve %s", p.Curve.Params().Name))
		}
		keyType, err := ecdhKeyType(ek.Curve())
		if err != nil {
			return nil, err
		}
		k := &Key{Type: keyType, ECDSA: &ECDSA{
			Curve: curves[keyType].name,
			Point: ek.PublicKey().Bytes(),
			D:     new(big.Int).SetBytes(ek.Bytes()),
		}}
		return validated(k)
	case ed25519.PrivateKey:
		return fromEd25519(p)
	case *ed25519.PrivateKey:
		return fromEd25519(*p)
	}
	return nil, keyerr.Unsupported(fmt.Sprintf("%T", priv))
}

func fromEd25519(p ed25519.PrivateKey) (*Key, error) {
	if len(p) != ed25519.PrivateKeySize {
		return nil, keyerr.Formatf(fieldPrivate, "ed25519 private key is %d bytes", len(p))
	}
	k := &Key{Type: TypeEd25519, Ed25519: &Ed25519{
		Public: bytes.Clone(p[ed25519KeySize:]),
		Seed:   bytes.Clone(p.Seed()),
	}}
	return validated(k)
}

func validated(k *Key) (*Key, error) {
	if err := k.Validate(); err != nil {
		return nil, err
	}
	return k, nil
}

func ecdhKeyType(c ecdh.Curve) (string, error) {
	for keyType, info := range curves {
		if info.curve == c {
			return keyType, nil
		}
	}
	return "", keyerr.Unsupported(fmt.Sprintf("ecdsa curve %v", c))
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
