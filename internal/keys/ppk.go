// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

package keys

import (
	"bytes"
	"math/big"

	"github.com/toeirei/ppkconv/internal/keyerr"
	"github.com/toeirei/ppkconv/internal/wire"
)

// FromPPK combines a PPK public blob with its decrypted private blob. Bytes
// after the last private field are cipher padding and are ignored.
func FromPPK(keyType string, publicBlob, privateBlob []byte) (*Key, error) {
	if err := CheckType(keyType); err != nil {
		return nil, err
	}
	k, err := ParsePublicBlob(publicBlob)
	if err != nil {
		return nil, err
	}
	if k.Type != keyType {
		return nil, keyerr.Formatf("Public-Lines", "public key type %q does not match header type %q", k.Type, keyType)
	}

	r := wire.NewReader(privateBlob)
	switch {
	case k.RSA != nil:
		fields := make([]*big.Int, 4)
		for i, name := range []string{"rsa d", "rsa p", "rsa q", "rsa iqmp"} {
			if fields[i], err = r.Mpint(name); err != nil {
				return nil, keyerr.Format("Private-Lines", err)
			}
		}
		k.RSA.D, k.RSA.P, k.RSA.Q, k.RSA.IQMP = fields[0], fields[1], fields[2], fields[3]
	case k.ECDSA != nil:
		if k.ECDSA.D, err = r.Mpint("ecdsa private scalar"); err != nil {
			return nil, keyerr.Format("Private-Lines", err)
		}
	case k.Ed25519 != nil:
		seed, err := r.Bytes("ed25519 private seed")
		if err != nil {
			return nil, keyerr.Format("Private-Lines", err)
		}
		if len(seed) != ed25519KeySize {
			return nil, keyerr.Formatf("Private-Lines", "ed25519 seed is %d bytes, want %d", len(seed), ed25519KeySize)
		}
		k.Ed25519.Seed = bytes.Clone(seed)
	}

	if err := k.Validate(); err != nil {
		return nil, err
	}
	return k, nil
}

// PPKPrivateBlob returns the unpadded PPK private blob.
func (k *Key) PPKPrivateBlob() []byte {
	var b []byte
	switch {
	case k.RSA != nil:
		b = wire.AppendMpint(b, k.RSA.D)
		b = wire.AppendMpint(b, k.RSA.P)
		b = wire.AppendMpint(b, k.RSA.Q)
		b = wire.AppendMpint(b, k.RSA.IQMP)
	case k.ECDSA != nil:
		b = wire.AppendMpint(b, k.ECDSA.D)
	case k.Ed25519 != nil:
		b = wire.AppendString(b, k.Ed25519.Seed)
	}
	return b
}
