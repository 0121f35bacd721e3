// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

package keys

import (
	"bytes"
	"crypto/subtle"
	"math/big"

	"github.com/toeirei/ppkconv/internal/keyerr"
	"github.com/toeirei/ppkconv/internal/wire"
)

const fieldPrivate = "private section"

// AppendOpenSSHPrivate appends the key-type-tagged private fields of an
// openssh-key-v1 private section.
func (k *Key) AppendOpenSSHPrivate(b []byte) []byte {
	b = wire.AppendString(b, []byte(k.Type))
	switch {
	case k.RSA != nil:
		b = wire.AppendMpint(b, k.RSA.N)
		b = wire.AppendMpint(b, k.RSA.E)
		b = wire.AppendMpint(b, k.RSA.D)
		b = wire.AppendMpint(b, k.RSA.IQMP)
		b = wire.AppendMpint(b, k.RSA.P)
		b = wire.AppendMpint(b, k.RSA.Q)
	case k.ECDSA != nil:
		b = wire.AppendString(b, []byte(k.ECDSA.Curve))
		b = wire.AppendString(b, k.ECDSA.Point)
		b = wire.AppendMpint(b, k.ECDSA.D)
	case k.Ed25519 != nil:
		b = wire.AppendString(b, k.Ed25519.Public)
		priv := make([]byte, 0, 2*ed25519KeySize)
		priv = append(priv, k.Ed25519.Seed...)
		priv = append(priv, k.Ed25519.Public...)
		b = wire.AppendString(b, priv)
	}
	return b
}

// ReadOpenSSHPrivate reads the key-type-tagged private fields from r,
// leaving the comment and padding unread.
func ReadOpenSSHPrivate(r *wire.Reader) (*Key, error) {
	keyType, err := r.String("private key type")
	if err != nil {
		return nil, keyerr.Format(fieldPrivate, err)
	}
	if err := CheckType(keyType); err != nil {
		return nil, err
	}

	k := &Key{Type: keyType}
	switch keyType {
	case TypeRSA:
		fields := make([]*big.Int, 6)
		for i, name := range []string{"rsa n", "rsa e", "rsa d", "rsa iqmp", "rsa p", "rsa q"} {
			if fields[i], err = r.Mpint(name); err != nil {
				return nil, keyerr.Format(fieldPrivate, err)
			}
		}
		k.RSA = &RSA{N: fields[0], E: fields[1], D: fields[2], IQMP: fields[3], P: fields[4], Q: fields[5]}
	case TypeEd25519:
		pub, err := r.Bytes("ed25519 public key")
		if err != nil {
			return nil, keyerr.Format(fieldPrivate, err)
		}
		priv, err := r.Bytes("ed25519 private key")
		if err != nil {
			return nil, keyerr.Format(fieldPrivate, err)
		}
		if len(pub) != ed25519KeySize || len(priv) != 2*ed25519KeySize {
			return nil, keyerr.Formatf(fieldPrivate, "ed25519 key sizes %d/%d, want %d/%d", len(pub), len(priv), ed25519KeySize, 2*ed25519KeySize)
		}
		if subtle.ConstantTimeCompare(priv[ed25519KeySize:], pub) != 1 {
			return nil, keyerr.Formatf(fieldPrivate, "ed25519 private key does not embed its public key")
		}
		k.Ed25519 = &Ed25519{Public: bytes.Clone(pub), Seed: bytes.Clone(priv[:ed25519KeySize])}
	default:
		info := curves[keyType]
		curve, err := r.String("ecdsa curve")
		if err != nil {
			return nil, keyerr.Format(fieldPrivate, err)
		}
		if curve != info.name {
			return nil, keyerr.Formatf(fieldPrivate, "curve %q does not match key type %q", curve, keyType)
		}
		point, err := r.Bytes("ecdsa point")
		if err != nil {
			return nil, keyerr.Format(fieldPrivate, err)
		}
		d, err := r.Mpint("ecdsa private scalar")
		if err != nil {
			return nil, keyerr.Format(fieldPrivate, err)
		}
		k.ECDSA = &ECDSA{Curve: curve, Point: bytes.Clone(point), D: d}
	}

	if err := k.Validate(); err != nil {
		return nil, err
	}
	return k, nil
}
