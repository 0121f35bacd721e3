// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

// Package keys holds key material as explicit per-algorithm fields and maps
// it between the PPK and OpenSSH private layouts.
//
//	RSA      PPK private: d, p, q, iqmp        OpenSSH: n, e, d, iqmp, p, q
//	ECDSA    PPK private: d                    OpenSSH: curve, point, d
//	Ed25519  PPK private: seed (32)            OpenSSH: pub (32), seed||pub (64)
//
// The public halves (RSA e and n, the ECDSA curve and point, the Ed25519
// public key) always come from the SSH public key blob.
package keys

import (
	"bytes"
	"crypto/ecdh"
	"fmt"
	"math/big"

	"golang.org/x/crypto/ssh"

	"github.com/toeirei/ppkconv/internal/keyerr"
	"github.com/toeirei/ppkconv/internal/wire"
)

const (
	TypeRSA      = ssh.KeyAlgoRSA
	TypeECDSA256 = ssh.KeyAlgoECDSA256
	TypeECDSA384 = ssh.KeyAlgoECDSA384
	TypeECDSA521 = ssh.KeyAlgoECDSA521
	TypeEd25519  = ssh.KeyAlgoED25519

	ed25519KeySize = 32
)

type curveInfo struct {
	name   string
	curve  ecdh.Curve
	scalar int
}

var curves = map[string]curveInfo{
	TypeECDSA256: {"nistp256", ecdh.P256(), 32},
	TypeECDSA384: {"nistp384", ecdh.P384(), 48},
	TypeECDSA521: {"nistp521", ecdh.P521(), 66},
}

// CheckType returns an UnsupportedAlgorithmError unless keyType is one of
// the supported SSH key types.
func CheckType(keyType string) error {
	switch keyType {
	case TypeRSA, TypeECDSA256, TypeECDSA384, TypeECDSA521, TypeEd25519:
		return nil
	}
	return keyerr.Unsupported(keyType)
}

// RSA holds an RSA key. IQMP is q^-1 mod p in both containers.
type RSA struct {
	N, E *big.Int
	D    *big.Int
	IQMP *big.Int
	P, Q *big.Int
}

// ECDSA holds a NIST curve key. Point is the uncompressed 0x04||X||Y form.
type ECDSA struct {
	Curve string
	Point []byte
	D     *big.Int
}

// Ed25519 holds the 32-byte public key and 32-byte private seed.
type Ed25519 struct {
	Public []byte
	Seed   []byte
}

// Key is a key of one supported type. Exactly one of RSA, ECDSA and Ed25519
// is set. Private fields are nil for a key parsed from a public blob only.
type Key struct {
	Type    string
	RSA     *RSA
	ECDSA   *ECDSA
	Ed25519 *Ed25519
}

// HasPrivate reports whether the private half is present.
func (k *Key) HasPrivate() bool {
	switch {
	case k.RSA != nil:
		return k.RSA.D != nil
	case k.ECDSA != nil:
		return k.ECDSA.D != nil
	case k.Ed25519 != nil:
		return k.Ed25519.Seed != nil
	}
	return false
}

// ParsePublicBlob decodes an SSH wire-format public key.
func ParsePublicBlob(blob []byte) (*Key, error) {
	r := wire.NewReader(blob)
	keyType, err := r.String("public key type")
	if err != nil {
		return nil, keyerr.Format("Public-Lines", err)
	}
	if err := CheckType(keyType); err != nil {
		return nil, err
	}

	k := &Key{Type: keyType}
	switch keyType {
	case TypeRSA:
		e, err := r.Mpint("rsa e")
		if err != nil {
			return nil, keyerr.Format("Public-Lines", err)
		}
		n, err := r.Mpint("rsa n")
		if err != nil {
			return nil, keyerr.Format("Public-Lines", err)
		}
		k.RSA = &RSA{N: n, E: e}
	case TypeEd25519:
		pub, err := r.Bytes("ed25519 public key")
		if err != nil {
			return nil, keyerr.Format("Public-Lines", err)
		}
		if len(pub) != ed25519KeySize {
			return nil, keyerr.Formatf("Public-Lines", "ed25519 public key is %d bytes, want %d", len(pub), ed25519KeySize)
		}
		k.Ed25519 = &Ed25519{Public: bytes.Clone(pub)}
	default:
		info := curves[keyType]
		curve, err := r.String("ecdsa curve")
		if err != nil {
			return nil, keyerr.Format("Public-Lines", err)
		}
		if curve != info.name {
			return nil, keyerr.Formatf("Public-Lines", "curve %q does not match key type %q", curve, keyType)
		}
		point, err := r.Bytes("ecdsa point")
		if err != nil {
			return nil, keyerr.Format("Public-Lines", err)
		}
		if _, err := info.curve.NewPublicKey(point); err != nil {
			return nil, keyerr.Formatf("Public-Lines", "invalid %s point: %v", curve, err)
		}
		k.ECDSA = &ECDSA{Curve: curve, Point: bytes.Clone(point)}
	}
	if !r.Done() {
		return nil, keyerr.Formatf("Public-Lines", "%d trailing bytes after public key", r.Len())
	}
	return k, nil
}

// PublicBlob returns the SSH wire-format public key.
func (k *Key) PublicBlob() []byte {
	b := wire.AppendString(nil, []byte(k.Type))
	switch {
	case k.RSA != nil:
		b = wire.AppendMpint(b, k.RSA.E)
		b = wire.AppendMpint(b, k.RSA.N)
	case k.ECDSA != nil:
		b = wire.AppendString(b, []byte(k.ECDSA.Curve))
		b = wire.AppendString(b, k.ECDSA.Point)
	case k.Ed25519 != nil:
		b = wire.AppendString(b, k.Ed25519.Public)
	}
	return b
}

// SSHPublicKey returns the public half as an x/crypto/ssh key.
func (k *Key) SSHPublicKey() (ssh.PublicKey, error) {
	pub, err := ssh.ParsePublicKey(k.PublicBlob())
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s public key: %w", k.Type, err)
	}
	return pub, nil
}

// Zero drops references to private material and wipes the byte fields.
func (k *Key) Zero() {
	switch {
	case k.RSA != nil:
		for _, n := range []*big.Int{k.RSA.D, k.RSA.P, k.RSA.Q, k.RSA.IQMP} {
			if n != nil {
				n.SetInt64(0)
			}
		}
	case k.ECDSA != nil:
		if k.ECDSA.D != nil {
			k.ECDSA.D.SetInt64(0)
		}
	case k.Ed25519 != nil:
		for i := range k.Ed25519.Seed {
			k.Ed25519.Seed[i] = 0
		}
	}
}
