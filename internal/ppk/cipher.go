// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

package ppk

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/toeirei/ppkconv/internal/keyerr"
)

const blockSize = aes.BlockSize

// decryptCBC decrypts a raw AES-256-CBC blob. No padding is removed; the
// private fields carry their own lengths.
func decryptCBC(key, iv, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%blockSize != 0 {
		return nil, keyerr.Formatf(fieldPrivate, "encrypted private blob of %d bytes is not a whole number of cipher blocks", len(ciphertext))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
	return out, nil
}

// encryptCBC encrypts an already padded plaintext with AES-256-CBC.
func encryptCBC(key, iv, plaintext []byte) ([]byte, error) {
	if len(plaintext)%blockSize != 0 {
		return nil, fmt.Errorf("plaintext of %d bytes is not padded to the block size", len(plaintext))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	out := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, plaintext)
	return out, nil
}

// pad appends 16 - len%16 bytes (1 to 16), each holding the pad length.
func pad(b []byte) []byte {
	n := blockSize - len(b)%blockSize
	out := make([]byte, len(b), len(b)+n)
	copy(out, b)
	for i := 0; i < n; i++ {
		out = append(out, byte(n))
	}
	return out
}
