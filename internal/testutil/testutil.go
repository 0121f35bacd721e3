// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

// Package testutil holds key fixtures shared by the package tests.
package testutil

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/pem"
	"testing"

	"golang.org/x/crypto/ssh"
)

// Ed25519PPK is an unencrypted PPK v3 file built independently of this
// module. Its seed is Ed25519SeedHex and its comment "ppkconv-test".
const Ed25519PPK = `PuTTY-User-Key-File-3: ssh-ed25519
Encryption: none
Comment: ppkconv-test
Public-Lines: 2
AAAAC3NzaC1lZDI1NTE5AAAAIGXLEKfy2VVdp73JPSrQosyZ8sOH3DEMXdk3WfEM
RPRm
Private-Lines: 1
AAAAIMIsZhKnV7LlZXeLxs+YMOfGLWxKq8Ww3/sscusJvyQe
Private-MAC: ce5da3266e88e0ed7b9de89ee796a90cc0baaa4d5a63a3ff7425ad4b1e3ac99b
`

const (
	Ed25519SeedHex    = "c22c6612a757b2e565778bc6cf9830e7c62d6c4aabc5b0dffb2c72eb09bf241e"
	Ed25519PublicHex  = "65cb10a7f2d9555da7bdc93d2ad0a2cc99f2c387dc310c5dd93759f10c44f466"
	Ed25519PublicLine = "ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIGXLEKfy2VVdp73JPSrQosyZ8sOH3DEMXdk3WfEMRPRm ppkconv-test"
)

// Signers returns one fresh key of every supported type, keyed by a short
// name usable in subtest names.
func Signers(t testing.TB) map[string]crypto.Signer {
	t.Helper()
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	out := map[string]crypto.Signer{"rsa": rsaKey}
	for name, c := range map[string]elliptic.Curve{"p256": elliptic.P256(), "p384": elliptic.P384(), "p521": elliptic.P521()} {
		k, err := ecdsa.GenerateKey(c, rand.Reader)
		if err != nil {
			t.Fatal(err)
		}
		out[name] = k
	}
	_, ed, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	out["ed25519"] = ed
	return out
}

// OpenSSHKey marshals key as an openssh-key-v1 PEM block, encrypted when
// passphrase is non-empty.
func OpenSSHKey(t testing.TB, key crypto.PrivateKey, comment, passphrase string) []byte {
	t.Helper()
	var (
		block *pem.Block
		err   error
	)
	if passphrase == "" {
		block, err = ssh.MarshalPrivateKey(key, comment)
	} else {
		block, err = ssh.MarshalPrivateKeyWithPassphrase(key, comment, []byte(passphrase))
	}
	if err != nil {
		t.Fatal(err)
	}
	return pem.EncodeToMemory(block)
}

// NewEd25519OpenSSH returns a fresh unencrypted Ed25519 OpenSSH key.
func NewEd25519OpenSSH(t testing.TB, comment string) []byte {
	t.Helper()
	_, ed, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	return OpenSSHKey(t, ed, comment, "")
}
