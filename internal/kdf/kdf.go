// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

// Package kdf turns a PPK passphrase into the cipher key, IV and MAC key for
// a given file version. Version 2 files chain SHA-1; version 3 files run one
// of the Argon2 flavours over the passphrase.
package kdf

import (
	"crypto/rand"
	"crypto/sha1"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"

	"github.com/toeirei/ppkconv/internal/keyerr"
	"github.com/toeirei/ppkconv/internal/security"
	"github.com/toeirei/ppkconv/internal/wire"
)

const (
	AESKeySize = 32
	IVSize     = 16
	// MACKeySizeV2 is the SHA-1 output length used as the v2 MAC key.
	MACKeySizeV2 = sha1.Size
	MACKeySizeV3 = 32

	// SaltSize is the salt length used for newly written v3 files.
	SaltSize = 16

	// MaxMemoryKiB and MaxPasses bound the Argon2 cost a file may ask for.
	// The parameters are read before the MAC can be checked.
	MaxMemoryKiB = 1 << 20
	MaxPasses    = 1 << 12

	macKeyPrefix = "putty-private-key-file-mac-key"
)

// Flavor names an Argon2 variant as written on the Key-Derivation line.
type Flavor string

const (
	Argon2id Flavor = "Argon2id"
	Argon2i  Flavor = "Argon2i"
	Argon2d  Flavor = "Argon2d"
)

// ParseFlavor validates a Key-Derivation value.
func ParseFlavor(s string) (Flavor, error) {
	switch f := Flavor(s); f {
	case Argon2id, Argon2i, Argon2d:
		return f, nil
	}
	return "", keyerr.Formatf("Key-Derivation", "unsupported key derivation %q", s)
}

// Argon2Params are the per-file Argon2 settings of an encrypted v3 file.
type Argon2Params struct {
	Flavor      Flavor
	MemoryKiB   uint32
	Passes      uint32
	Parallelism uint32
	Salt        []byte
}

// Validate checks that every parameter is usable.
func (p *Argon2Params) Validate() error {
	if _, err := ParseFlavor(string(p.Flavor)); err != nil {
		return err
	}
	if p.MemoryKiB == 0 || p.MemoryKiB > MaxMemoryKiB {
		return keyerr.Formatf("Argon2-Memory", "memory %d KiB out of range 1-%d", p.MemoryKiB, MaxMemoryKiB)
	}
	if p.Passes == 0 || p.Passes > MaxPasses {
		return keyerr.Formatf("Argon2-Passes", "passes %d out of range 1-%d", p.Passes, MaxPasses)
	}
	if p.Parallelism == 0 || p.Parallelism > 255 {
		return keyerr.Formatf("Argon2-Parallelism", "parallelism %d out of range 1-255", p.Parallelism)
	}
	if len(p.Salt) == 0 {
		return keyerr.Formatf("Argon2-Salt", "salt is empty")
	}
	return nil
}

// NewArgon2Params returns parameters with a fresh random salt read from r.
// A nil r uses crypto/rand.
func NewArgon2Params(flavor Flavor, memoryKiB, passes, parallelism uint32, r io.Reader) (*Argon2Params, error) {
	if r == nil {
		r = rand.Reader
	}
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(r, salt); err != nil {
		return nil, fmt.Errorf("failed to generate argon2 salt: %w", err)
	}
	p := &Argon2Params{
		Flavor:      flavor,
		MemoryKiB:   memoryKiB,
		Passes:      passes,
		Parallelism: parallelism,
		Salt:        salt,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Material is derived key material laid out as AES key, IV, MAC key.
type Material struct {
	buf security.Secret
}

// AESKey returns the 32-byte AES-256 key.
func (m *Material) AESKey() []byte { return m.buf[:AESKeySize] }

// IV returns the 16-byte CBC initialisation vector.
func (m *Material) IV() []byte { return m.buf[AESKeySize : AESKeySize+IVSize] }

// MACKey returns the HMAC key: 20 bytes for v2, 32 for v3.
func (m *Material) MACKey() []byte { return m.buf[AESKeySize+IVSize:] }

// Zero wipes the material.
func (m *Material) Zero() {
	if m != nil {
		m.buf.Zero()
	}
}

// Derive computes the key material for a file of the given version. An
// unencrypted file only needs a MAC key, which is fixed for each version.
// params must be set for encrypted version 3 files.
func Derive(version int, encrypted bool, passphrase []byte, params *Argon2Params) (*Material, error) {
	if version != 2 && version != 3 {
		return nil, keyerr.Formatf("PuTTY-User-Key-File", "unsupported version %d", version)
	}
	if encrypted && len(passphrase) == 0 {
		return nil, keyerr.PassphraseRequired("an encrypted key")
	}
	if !encrypted {
		passphrase = nil
	}

	if version == 2 {
		return deriveV2(encrypted, passphrase), nil
	}
	if !encrypted {
		return &Material{buf: make(security.Secret, AESKeySize+IVSize+MACKeySizeV3)}, nil
	}
	if params == nil {
		return nil, keyerr.Formatf("Key-Derivation", "missing argon2 parameters")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Material{buf: security.Secret(argon2Derive(params, passphrase))}, nil
}

func deriveV2(encrypted bool, passphrase []byte) *Material {
	buf := make(security.Secret, 0, AESKeySize+IVSize+MACKeySizeV2)
	if encrypted {
		var key []byte
		for seq := uint32(0); len(key) < AESKeySize; seq++ {
			h := sha1.New()
			h.Write(wire.AppendUint32(nil, seq))
			h.Write(passphrase)
			key = h.Sum(key)
		}
		buf = append(buf, key[:AESKeySize]...)
		security.Wipe(key)
	} else {
		buf = append(buf, make([]byte, AESKeySize)...)
	}
	buf = append(buf, make([]byte, IVSize)...)

	h := sha1.New()
	h.Write([]byte(macKeyPrefix))
	h.Write(passphrase)
	buf = h.Sum(buf)
	return &Material{buf: buf}
}

func argon2Derive(p *Argon2Params, passphrase []byte) []byte {
	const outLen = AESKeySize + IVSize + MACKeySizeV3
	threads := uint8(p.Parallelism)
	switch p.Flavor {
	case Argon2i:
		return argon2.Key(passphrase, p.Salt, p.Passes, p.MemoryKiB, threads, outLen)
	case Argon2d:
		return argon2DKey(passphrase, p.Salt, p.Passes, p.MemoryKiB, threads, outLen)
	default:
		return argon2.IDKey(passphrase, p.Salt, p.Passes, p.MemoryKiB, threads, outLen)
	}
}
