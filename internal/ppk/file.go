// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

// Package ppk reads and writes PuTTY private key files (versions 2 and 3).
//
// A File is the structured form of the text container. Parse and Marshal
// convert between text and File. Decrypt verifies the MAC over the stored,
// possibly encrypted, private blob and then yields the plaintext. Seal builds
// a File from a public and private blob, encrypting and authenticating it for
// the requested version.
package ppk

import (
	"strings"

	"github.com/toeirei/ppkconv/internal/kdf"
	"github.com/toeirei/ppkconv/internal/keyerr"
)

// Field labels, in file order.
const (
	fieldHeader      = "PuTTY-User-Key-File"
	fieldEncryption  = "Encryption"
	fieldComment     = "Comment"
	fieldPublic      = "Public-Lines"
	fieldKDF         = "Key-Derivation"
	fieldMemory      = "Argon2-Memory"
	fieldPasses      = "Argon2-Passes"
	fieldParallelism = "Argon2-Parallelism"
	fieldSalt        = "Argon2-Salt"
	fieldPrivate     = "Private-Lines"
	fieldMAC         = "Private-MAC"
)

const (
	EncryptionNone   = "none"
	EncryptionAES256 = "aes256-cbc"

	// Limits PuTTY applies when loading a key.
	maxBlobSize  = 262144
	maxBlobLines = maxBlobSize / 48

	lineWidth = 64
)

// File is a parsed PPK container. PrivateBlob holds ciphertext when the file
// is encrypted and plaintext otherwise. MAC is lowercase hex.
type File struct {
	Version     int
	KeyType     string
	Encryption  string
	Comment     string
	PublicBlob  []byte
	PrivateBlob []byte
	MAC         string
	// Argon2 is set exactly when Version is 3 and the file is encrypted.
	Argon2 *kdf.Argon2Params
}

// Encrypted reports whether the private blob is encrypted.
func (f *File) Encrypted() bool { return f.Encryption != EncryptionNone }

func (f *File) check() error {
	if f.Version != 2 && f.Version != 3 {
		return keyerr.Formatf(fieldHeader, "unsupported version %d", f.Version)
	}
	switch f.Encryption {
	case EncryptionNone, EncryptionAES256:
	default:
		return keyerr.Formatf(fieldEncryption, "unsupported encryption %q", f.Encryption)
	}
	if strings.ContainsAny(f.Comment, "\r\n") {
		return keyerr.Formatf(fieldComment, "comment must be a single line")
	}
	wantArgon2 := f.Version == 3 && f.Encrypted()
	if wantArgon2 && f.Argon2 == nil {
		return keyerr.Formatf(fieldKDF, "encrypted version 3 file has no key derivation parameters")
	}
	if !wantArgon2 && f.Argon2 != nil {
		return keyerr.Formatf(fieldKDF, "key derivation parameters only apply to encrypted version 3 files")
	}
	if f.Argon2 != nil {
		if err := f.Argon2.Validate(); err != nil {
			return err
		}
	}
	if f.Encrypted() && (len(f.PrivateBlob) == 0 || len(f.PrivateBlob)%blockSize != 0) {
		return keyerr.Formatf(fieldPrivate, "encrypted private blob of %d bytes is not a whole number of cipher blocks", len(f.PrivateBlob))
	}
	return nil
}
