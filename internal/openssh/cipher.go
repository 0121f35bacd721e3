// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

package openssh

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/toeirei/ppkconv/internal/keyerr"
	"github.com/toeirei/ppkconv/internal/security"
	"github.com/toeirei/ppkconv/internal/wire"
)

type cipherMode int

const (
	modeCTR cipherMode = iota
	modeCBC
)

type cipherSpec struct {
	keyLen int
	mode   cipherMode
}

var ciphers = map[string]cipherSpec{
	"aes128-ctr": {16, modeCTR},
	"aes192-ctr": {24, modeCTR},
	"aes256-ctr": {32, modeCTR},
	"aes128-cbc": {16, modeCBC},
	"aes192-cbc": {24, modeCBC},
	"aes256-cbc": {32, modeCBC},
}

// maxRounds bounds the bcrypt cost accepted from a file.
const maxRounds = 1 << 20

// decrypt returns the plaintext private section and the block size it is
// padded to.
func (h *header) decrypt(passphrase []byte) ([]byte, int, error) {
	if h.cipher == cipherNone {
		if h.kdf != kdfNone {
			return nil, 0, keyerr.Formatf(fieldHeader, "kdf %q without a cipher", h.kdf)
		}
		return bytes.Clone(h.private), plainBlockSize, nil
	}

	spec, ok := ciphers[h.cipher]
	if !ok {
		return nil, 0, keyerr.Formatf(fieldHeader, "unsupported cipher %q", h.cipher)
	}
	if h.kdf != kdfBcrypt {
		return nil, 0, keyerr.Formatf(fieldHeader, "unsupported kdf %q", h.kdf)
	}
	if len(passphrase) == 0 {
		return nil, 0, keyerr.PassphraseRequired("an encrypted OpenSSH key")
	}

	opts := wire.NewReader(h.kdfOptions)
	salt, err := opts.Bytes("bcrypt salt")
	if err != nil {
		return nil, 0, keyerr.Format(fieldHeader, err)
	}
	rounds, err := opts.Uint32("bcrypt rounds")
	if err != nil {
		return nil, 0, keyerr.Format(fieldHeader, err)
	}
	if rounds == 0 || rounds > maxRounds {
		return nil, 0, keyerr.Formatf(fieldHeader, "bcrypt rounds %d out of range", rounds)
	}
	if len(h.private) == 0 || len(h.private)%aes.BlockSize != 0 {
		return nil, 0, keyerr.Formatf(fieldPrivate, "encrypted private section of %d bytes is not a whole number of cipher blocks", len(h.private))
	}

	keyIV, err := bcryptPBKDF(passphrase, salt, int(rounds), spec.keyLen+aes.BlockSize)
	if err != nil {
		return nil, 0, keyerr.Format(fieldHeader, err)
	}
	defer security.Wipe(keyIV)

	block, err := aes.NewCipher(keyIV[:spec.keyLen])
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	iv := keyIV[spec.keyLen:]
	out := make([]byte, len(h.private))
	switch spec.mode {
	case modeCTR:
		cipher.NewCTR(block, iv).XORKeyStream(out, h.private)
	case modeCBC:
		cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, h.private)
	}
	return out, aes.BlockSize, nil
}
