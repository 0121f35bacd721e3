// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

package ppk

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/toeirei/ppkconv/internal/kdf"
	"github.com/toeirei/ppkconv/internal/keyerr"
	"github.com/toeirei/ppkconv/internal/security"
)

// Decrypt verifies the MAC and returns the plaintext private blob. The MAC
// covers the private blob as stored in the file, so for an encrypted file it
// is checked over the ciphertext before anything is decrypted. A wrong
// passphrase yields a different MAC key and surfaces as an IntegrityError.
// The passphrase is ignored for unencrypted files.
func (f *File) Decrypt(passphrase []byte) ([]byte, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	m, err := kdf.Derive(f.Version, f.Encrypted(), passphrase, f.Argon2)
	if err != nil {
		return nil, err
	}
	defer m.Zero()

	if err := verifyMAC(f, m.MACKey()); err != nil {
		return nil, err
	}
	if !f.Encrypted() {
		return bytes.Clone(f.PrivateBlob), nil
	}
	return decryptCBC(m.AESKey(), m.IV(), f.PrivateBlob)
}

// SealOptions control how Seal protects the private blob.
type SealOptions struct {
	// Version is 2 or 3.
	Version int
	// Passphrase encrypts the file with AES-256-CBC when non-empty.
	Passphrase []byte
	// Argon2 is required for an encrypted version 3 file and ignored
	// otherwise.
	Argon2 *kdf.Argon2Params
}

// Seal builds a File around an unpadded plaintext private blob. An encrypted
// blob is padded to the cipher block size and encrypted, and the MAC is then
// computed over the resulting ciphertext.
func Seal(keyType, comment string, publicBlob, privateBlob []byte, opts SealOptions) (*File, error) {
	if opts.Version != 2 && opts.Version != 3 {
		return nil, keyerr.Usage(fmt.Sprintf("PPK version must be 2 or 3, got %d", opts.Version))
	}
	if strings.ContainsAny(comment, "\r\n") {
		return nil, keyerr.Usage("comment must be a single line")
	}
	encrypted := len(opts.Passphrase) > 0
	f := &File{
		Version:    opts.Version,
		KeyType:    keyType,
		Encryption: EncryptionNone,
		Comment:    comment,
		PublicBlob: bytes.Clone(publicBlob),
	}
	if encrypted {
		f.Encryption = EncryptionAES256
		if opts.Version == 3 {
			if opts.Argon2 == nil {
				return nil, keyerr.Usage("argon2 parameters are required to encrypt a version 3 file")
			}
			f.Argon2 = opts.Argon2
		}
	}

	m, err := kdf.Derive(f.Version, encrypted, opts.Passphrase, f.Argon2)
	if err != nil {
		return nil, err
	}
	defer m.Zero()

	if !encrypted {
		f.PrivateBlob = bytes.Clone(privateBlob)
	} else {
		plain := pad(privateBlob)
		defer security.Wipe(plain)
		if f.PrivateBlob, err = encryptCBC(m.AESKey(), m.IV(), plain); err != nil {
			return nil, err
		}
	}
	f.MAC = computeMAC(f, m.MACKey())
	if err := f.check(); err != nil {
		return nil, err
	}
	return f, nil
}
