// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

package openssh

import (
	"crypto/sha512"
	"errors"

	"golang.org/x/crypto/blowfish"
)

const bcryptBlockSize = 32

var bcryptMagic = []byte("OxychromaticBlowfishSwatDynamite")

// bcryptPBKDF derives keyLen bytes the way OpenSSH's bcrypt_pbkdf does.
func bcryptPBKDF(password, salt []byte, rounds, keyLen int) ([]byte, error) {
	switch {
	case rounds < 1:
		return nil, errors.New("bcrypt_pbkdf: number of rounds is too small")
	case len(password) == 0:
		return nil, errors.New("bcrypt_pbkdf: empty password")
	case len(salt) == 0 || len(salt) > 1<<20:
		return nil, errors.New("bcrypt_pbkdf: bad salt length")
	case keyLen < 1 || keyLen > 1024:
		return nil, errors.New("bcrypt_pbkdf: keyLen is too large")
	}

	numBlocks := (keyLen + bcryptBlockSize - 1) / bcryptBlockSize
	key := make([]byte, numBlocks*bcryptBlockSize)

	h := sha512.New()
	h.Write(password)
	shapass := h.Sum(nil)

	shasalt := make([]byte, 0, sha512.Size)
	var cnt [4]byte
	tmp := make([]byte, bcryptBlockSize)
	out := make([]byte, bcryptBlockSize)
	for block := 1; block <= numBlocks; block++ {
		h.Reset()
		h.Write(salt)
		cnt[0], cnt[1], cnt[2], cnt[3] = byte(block>>24), byte(block>>16), byte(block>>8), byte(block)
		h.Write(cnt[:])
		if err := bcryptHash(tmp, shapass, h.Sum(shasalt)); err != nil {
			return nil, err
		}
		copy(out, tmp)

		for i := 2; i <= rounds; i++ {
			h.Reset()
			h.Write(tmp)
			if err := bcryptHash(tmp, shapass, h.Sum(shasalt)); err != nil {
				return nil, err
			}
			for j := range out {
				out[j] ^= tmp[j]
			}
		}

		// Output bytes are interleaved across blocks.
		for i, v := range out {
			key[i*numBlocks+(block-1)] = v
		}
	}
	clear(shapass)
	clear(tmp)
	clear(out)
	return key[:keyLen], nil
}

func bcryptHash(out, shapass, shasalt []byte) error {
	c, err := blowfish.NewSaltedCipher(shapass, shasalt)
	if err != nil {
		return err
	}
	for i := 0; i < 64; i++ {
		blowfish.ExpandKey(shasalt, c)
		blowfish.ExpandKey(shapass, c)
	}
	copy(out, bcryptMagic)
	for i := 0; i < bcryptBlockSize; i += 8 {
		for j := 0; j < 64; j++ {
			c.Encrypt(out[i:i+8], out[i:i+8])
		}
	}
	// Blowfish works on big-endian words; bcrypt_pbkdf emits little-endian.
	for i := 0; i < bcryptBlockSize; i += 4 {
		out[i+3], out[i+2], out[i+1], out[i] = out[i], out[i+1], out[i+2], out[i+3]
	}
	return nil
}
