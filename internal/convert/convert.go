// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

// Package convert converts private keys between the PuTTY PPK format and the
// OpenSSH private key format. The conversions are pure functions over byte
// slices; reading and writing files is left to the caller.
package convert

import (
	"crypto/x509"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/ssh"

	"github.com/toeirei/ppkconv/internal/kdf"
	"github.com/toeirei/ppkconv/internal/keyerr"
	"github.com/toeirei/ppkconv/internal/keys"
	"github.com/toeirei/ppkconv/internal/openssh"
	"github.com/toeirei/ppkconv/internal/ppk"
	"github.com/toeirei/ppkconv/internal/security"
	"github.com/toeirei/ppkconv/internal/sshkey"
)

// DefaultPPKVersion is used when OpenSSHToPPK is called with version 0.
const DefaultPPKVersion = 3

// Argon2Settings are the cost parameters for newly encrypted v3 files.
type Argon2Settings struct {
	Flavor      kdf.Flavor
	MemoryKiB   uint32
	Passes      uint32
	Parallelism uint32
}

// DefaultArgon2 matches the defaults PuTTYgen uses for new keys.
var DefaultArgon2 = Argon2Settings{
	Flavor:      kdf.Argon2id,
	MemoryKiB:   8192,
	Passes:      13,
	Parallelism: 1,
}

// OpenSSHResult is the outcome of PPKToOpenSSH.
type OpenSSHResult struct {
	PrivateKeyPEM string
	PublicKeyLine string
	Fingerprint   string
	KeyType       string
	Comment       string
}

// PPKResult is the outcome of OpenSSHToPPK.
type PPKResult struct {
	PPKText       string
	PublicKeyLine string
	Fingerprint   string
	KeyType       string
	Comment       string
}

type options struct {
	rand    io.Reader
	comment *string
	argon2  Argon2Settings
}

// Option adjusts a conversion.
type Option func(*options)

// WithRand sets the source for check integers and Argon2 salts.
func WithRand(r io.Reader) Option {
	return func(o *options) { o.rand = r }
}

// WithComment replaces the comment carried over from the input.
func WithComment(comment string) Option {
	return func(o *options) { o.comment = &comment }
}

// WithArgon2 sets the Argon2 parameters used to encrypt v3 output.
func WithArgon2(s Argon2Settings) Option {
	return func(o *options) { o.argon2 = s }
}

func collect(opts []Option) *options {
	o := &options{argon2: DefaultArgon2}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) pickComment(original string) string {
	if o.comment != nil {
		return *o.comment
	}
	return original
}

// PPKToOpenSSH converts a PPK file to an unencrypted OpenSSH private key.
// The passphrase is required only if the PPK file is encrypted. The MAC is
// verified before any private field is decoded.
func PPKToOpenSSH(ppkBytes, passphrase []byte, opts ...Option) (*OpenSSHResult, error) {
	o := collect(opts)

	f, err := ppk.Parse(ppkBytes)
	if err != nil {
		return nil, err
	}
	priv, err := f.Decrypt(passphrase)
	if err != nil {
		return nil, err
	}
	defer security.Wipe(priv)

	k, err := keys.FromPPK(f.KeyType, f.PublicBlob, priv)
	if err != nil {
		return nil, err
	}
	defer k.Zero()

	pemBytes, err := openssh.Marshal(k, o.rand)
	if err != nil {
		return nil, err
	}
	comment := o.pickComment(f.Comment)
	fp, err := sshkey.Fingerprint(k)
	if err != nil {
		return nil, err
	}
	return &OpenSSHResult{
		PrivateKeyPEM: string(pemBytes),
		PublicKeyLine: sshkey.Format(k, comment),
		Fingerprint:   fp,
		KeyType:       k.Type,
		Comment:       comment,
	}, nil
}

// OpenSSHToPPK converts an OpenSSH private key to a PPK file of the given
// version (2 or 3, 0 meaning DefaultPPKVersion). sourcePassphrase decrypts
// the input if needed; a non-empty outputPassphrase encrypts the output.
// Besides openssh-key-v1 input, PKCS#1, SEC1 and PKCS#8 PEM keys are read.
func OpenSSHToPPK(pemBytes, sourcePassphrase, outputPassphrase []byte, version int, opts ...Option) (*PPKResult, error) {
	o := collect(opts)
	if version == 0 {
		version = DefaultPPKVersion
	}
	if version != 2 && version != 3 {
		return nil, keyerr.Usage(fmt.Sprintf("PPK version must be 2 or 3, got %d", version))
	}

	k, comment, err := readPrivateKey(pemBytes, sourcePassphrase)
	if err != nil {
		return nil, err
	}
	defer k.Zero()
	comment = o.pickComment(comment)

	var params *kdf.Argon2Params
	if version == 3 && len(outputPassphrase) > 0 {
		a := o.argon2
		if params, err = kdf.NewArgon2Params(a.Flavor, a.MemoryKiB, a.Passes, a.Parallelism, o.rand); err != nil {
			return nil, keyerr.Usage(fmt.Sprintf("invalid argon2 settings: %v", err))
		}
	}

	priv := k.PPKPrivateBlob()
	defer security.Wipe(priv)
	f, err := ppk.Seal(k.Type, comment, k.PublicBlob(), priv, ppk.SealOptions{
		Version:    version,
		Passphrase: outputPassphrase,
		Argon2:     params,
	})
	if err != nil {
		return nil, err
	}
	text, err := ppk.Marshal(f)
	if err != nil {
		return nil, err
	}
	fp, err := sshkey.Fingerprint(k)
	if err != nil {
		return nil, err
	}
	return &PPKResult{
		PPKText:       string(text),
		PublicKeyLine: sshkey.Format(k, comment),
		Fingerprint:   fp,
		KeyType:       k.Type,
		Comment:       comment,
	}, nil
}

// readPrivateKey reads an openssh-key-v1 envelope directly and falls back to
// x/crypto/ssh for the older PEM encodings, which carry no comment.
func readPrivateKey(data, passphrase []byte) (*keys.Key, string, error) {
	if openssh.IsOpenSSH(data) {
		return openssh.Parse(data, passphrase)
	}

	var (
		raw any
		err error
	)
	if len(passphrase) > 0 {
		raw, err = ssh.ParseRawPrivateKeyWithPassphrase(data, passphrase)
	} else {
		raw, err = ssh.ParseRawPrivateKey(data)
	}
	if err != nil {
		var missing *ssh.PassphraseMissingError
		switch {
		case errors.As(err, &missing):
			return nil, "", keyerr.PassphraseRequired("an encrypted private key")
		case errors.Is(err, x509.IncorrectPasswordError):
			return nil, "", keyerr.Integrity("PEM decryption failed")
		}
		return nil, "", keyerr.Format("PEM", err)
	}
	k, err := keys.FromCryptoKey(raw)
	if err != nil {
		return nil, "", err
	}
	return k, "", nil
}
