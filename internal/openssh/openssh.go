// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

// Package openssh builds and parses the openssh-key-v1 private key envelope.
//
// Marshal always writes an unencrypted single-key envelope. Parse also
// accepts envelopes encrypted by ssh-keygen (bcrypt KDF with AES in CTR or
// CBC mode) when given the passphrase.
package openssh

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"encoding/pem"
	"fmt"
	"io"

	"github.com/toeirei/ppkconv/internal/keyerr"
	"github.com/toeirei/ppkconv/internal/keys"
	"github.com/toeirei/ppkconv/internal/security"
	"github.com/toeirei/ppkconv/internal/wire"
)

const (
	magic     = "openssh-key-v1\x00"
	pemType   = "OPENSSH PRIVATE KEY"
	lineWidth = 70

	cipherNone = "none"
	kdfNone    = "none"
	kdfBcrypt  = "bcrypt"

	// Unencrypted private sections are padded to this size.
	plainBlockSize = 8

	fieldArmor   = "armor"
	fieldHeader  = "header"
	fieldPrivate = "private section"
)

// Marshal returns the armored unencrypted envelope for k. The two check
// integers are read from r, or crypto/rand when r is nil. The comment inside
// the private section is left empty.
func Marshal(k *keys.Key, r io.Reader) ([]byte, error) {
	if !k.HasPrivate() {
		return nil, keyerr.Usage("cannot write an OpenSSH private key without its private part")
	}
	if r == nil {
		r = rand.Reader
	}
	var check [4]byte
	if _, err := io.ReadFull(r, check[:]); err != nil {
		return nil, fmt.Errorf("failed to generate check integer: %w", err)
	}

	priv := make([]byte, 0, 512)
	priv = append(priv, check[:]...)
	priv = append(priv, check[:]...)
	priv = k.AppendOpenSSHPrivate(priv)
	priv = wire.AppendString(priv, nil)
	for i := byte(1); len(priv)%plainBlockSize != 0; i++ {
		priv = append(priv, i)
	}
	defer security.Wipe(priv)

	var b []byte
	b = append(b, magic...)
	b = wire.AppendString(b, []byte(cipherNone))
	b = wire.AppendString(b, []byte(kdfNone))
	b = wire.AppendString(b, nil)
	b = wire.AppendUint32(b, 1)
	b = wire.AppendString(b, k.PublicBlob())
	b = wire.AppendString(b, priv)
	defer security.Wipe(b)

	return armor(b), nil
}

// armor wraps data in BEGIN/END markers with base64 lines of 70 columns,
// the width ssh-keygen uses.
func armor(data []byte) []byte {
	enc := base64.StdEncoding.EncodeToString(data)
	var out bytes.Buffer
	out.Grow(len(enc) + len(enc)/lineWidth + 80)
	out.WriteString("-----BEGIN " + pemType + "-----\n")
	for len(enc) > 0 {
		n := min(lineWidth, len(enc))
		out.WriteString(enc[:n])
		out.WriteByte('\n')
		enc = enc[n:]
	}
	out.WriteString("-----END " + pemType + "-----\n")
	return out.Bytes()
}

// IsOpenSSH reports whether b contains an armored openssh-key-v1 key.
func IsOpenSSH(b []byte) bool {
	return bytes.Contains(b, []byte("-----BEGIN "+pemType+"-----"))
}

// Parse decodes an armored openssh-key-v1 envelope holding one key and
// returns the key with the comment stored in its private section. The
// passphrase is only used for encrypted envelopes.
func Parse(data, passphrase []byte) (*keys.Key, string, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, "", keyerr.Formatf(fieldArmor, "no PEM block found")
	}
	if block.Type != pemType {
		return nil, "", keyerr.Formatf(fieldArmor, "unexpected PEM type %q", block.Type)
	}
	defer security.Wipe(block.Bytes)
	return parseEnvelope(block.Bytes, passphrase)
}

type header struct {
	cipher     string
	kdf        string
	kdfOptions []byte
	publicBlob []byte
	private    []byte
}

func readHeader(data []byte) (*header, error) {
	if !bytes.HasPrefix(data, []byte(magic)) {
		return nil, keyerr.Formatf(fieldHeader, "missing openssh-key-v1 magic")
	}
	r := wire.NewReader(data[len(magic):])
	h := &header{}
	var err error
	if h.cipher, err = r.String("cipher name"); err != nil {
		return nil, keyerr.Format(fieldHeader, err)
	}
	if h.kdf, err = r.String("kdf name"); err != nil {
		return nil, keyerr.Format(fieldHeader, err)
	}
	if h.kdfOptions, err = r.Bytes("kdf options"); err != nil {
		return nil, keyerr.Format(fieldHeader, err)
	}
	count, err := r.Uint32("key count")
	if err != nil {
		return nil, keyerr.Format(fieldHeader, err)
	}
	if count != 1 {
		return nil, keyerr.Formatf(fieldHeader, "envelope holds %d keys, want exactly 1", count)
	}
	if h.publicBlob, err = r.Bytes("public key"); err != nil {
		return nil, keyerr.Format(fieldHeader, err)
	}
	if h.private, err = r.Bytes("private section"); err != nil {
		return nil, keyerr.Format(fieldHeader, err)
	}
	if !r.Done() {
		return nil, keyerr.Formatf(fieldHeader, "%d trailing bytes after private section", r.Len())
	}
	return h, nil
}

func parseEnvelope(data, passphrase []byte) (*keys.Key, string, error) {
	h, err := readHeader(data)
	if err != nil {
		return nil, "", err
	}
	pub, err := keys.ParsePublicBlob(h.publicBlob)
	if err != nil {
		return nil, "", err
	}

	priv, blockSize, err := h.decrypt(passphrase)
	if err != nil {
		return nil, "", err
	}
	defer security.Wipe(priv)
	if len(priv)%blockSize != 0 {
		return nil, "", keyerr.Formatf(fieldPrivate, "private section of %d bytes is not a multiple of %d", len(priv), blockSize)
	}

	r := wire.NewReader(priv)
	check, err := r.Raw(8, "check integers")
	if err != nil {
		return nil, "", keyerr.Format(fieldPrivate, err)
	}
	if binary.BigEndian.Uint32(check[:4]) != binary.BigEndian.Uint32(check[4:]) {
		if h.cipher == cipherNone {
			return nil, "", keyerr.Integrity("check integers differ")
		}
		return nil, "", keyerr.Integrity("check integers differ after decryption")
	}
	k, err := keys.ReadOpenSSHPrivate(r)
	if err != nil {
		return nil, "", err
	}
	if k.Type != pub.Type || !bytes.Equal(k.PublicBlob(), h.publicBlob) {
		k.Zero()
		return nil, "", keyerr.Formatf(fieldPrivate, "private key does not match the public key")
	}
	comment, err := r.String("comment")
	if err != nil {
		k.Zero()
		return nil, "", keyerr.Format(fieldPrivate, err)
	}
	for i, c := range r.Rest() {
		if c != byte(i+1) {
			k.Zero()
			return nil, "", keyerr.Formatf(fieldPrivate, "invalid padding byte %d at offset %d", c, i)
		}
	}
	return k, comment, nil
}
