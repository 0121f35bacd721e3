// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

package ppk

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"hash"

	"github.com/toeirei/ppkconv/internal/keyerr"
	"github.com/toeirei/ppkconv/internal/wire"
)

func macHash(version int) func() hash.Hash {
	if version == 3 {
		return sha256.New
	}
	return sha1.New
}

func macSize(version int) int {
	if version == 3 {
		return sha256.Size
	}
	return sha1.Size
}

// macInput is the canonical MAC input: key type, encryption, comment, public
// blob and private blob, each as an SSH string. It is rebuilt from scratch on
// every call so the verify and the write paths cannot share state.
func macInput(keyType, encryption, comment string, publicBlob, privateBlob []byte) []byte {
	n := 5*4 + len(keyType) + len(encryption) + len(comment) + len(publicBlob) + len(privateBlob)
	b := make([]byte, 0, n)
	b = wire.AppendString(b, []byte(keyType))
	b = wire.AppendString(b, []byte(encryption))
	b = wire.AppendString(b, []byte(comment))
	b = wire.AppendString(b, publicBlob)
	b = wire.AppendString(b, privateBlob)
	return b
}

// computeMAC returns the lowercase hex HMAC of the file fields. The private
// blob enters as stored, which is the ciphertext for an encrypted file.
func computeMAC(f *File, macKey []byte) string {
	m := hmac.New(macHash(f.Version), macKey)
	m.Write(macInput(f.KeyType, f.Encryption, f.Comment, f.PublicBlob, f.PrivateBlob))
	return hex.EncodeToString(m.Sum(nil))
}

// verifyMAC compares the stored MAC with the computed one in constant time.
func verifyMAC(f *File, macKey []byte) error {
	got := computeMAC(f, macKey)
	if subtle.ConstantTimeCompare([]byte(got), []byte(f.MAC)) != 1 {
		return keyerr.Integrity("MAC mismatch")
	}
	return nil
}
