// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.
package sshkey

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"

	"golang.org/x/crypto/ssh"

	"github.com/toeirei/ppkconv/internal/keyerr"
	"github.com/toeirei/ppkconv/internal/keys"
)

func TestParse_NormalLine(t *testing.T) {
	line := "ssh-rsa AAAAB3NzaC1yc2EAAAADAQABAAABAQC3 test-key@example.com"
	alg, key, comment, err := Parse(line)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if alg != "ssh-rsa" {
		t.Fatalf("unexpected alg: %s", alg)
	}
	if key == "" {
		t.Fatalf("empty key data")
	}
	if comment != "test-key@example.com" {
		t.Fatalf("unexpected comment: %s", comment)
	}
}

func TestParse_WithOptions(t *testing.T) {
	line := "no-agent-forwarding,command=\"echo hi\" ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIBk two words"
	alg, _, comment, err := Parse(line)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if alg != "ssh-ed25519" {
		t.Fatalf("unexpected alg: %s", alg)
	}
	if comment != "two words" {
		t.Fatalf("unexpected comment: %s", comment)
	}
}

func TestParse_Errors(t *testing.T) {
	for _, line := range []string{"", "just-some-text", "ssh-ed25519"} {
		if _, _, _, err := Parse(line); !errors.Is(err, keyerr.ErrFormat) {
			t.Fatalf("Parse(%q): expected format error, got %v", line, err)
		}
	}
}

func TestFormatMatchesAuthorizedKey(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(rand.Reader)
	k, err := keys.FromCryptoKey(priv)
	if err != nil {
		t.Fatal(err)
	}
	sshPub, _ := ssh.NewPublicKey(pub)
	want := string(ssh.MarshalAuthorizedKey(sshPub))
	if got := Format(k, "") + "\n"; got != want {
		t.Fatalf("Format = %q, want %q", got, want)
	}

	line := Format(k, "  me@host ")
	back, comment, err := ParseKey(line)
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	if comment != "me@host" || back.Type != keys.TypeEd25519 {
		t.Fatalf("unexpected round trip: %q %q", back.Type, comment)
	}

	fp, err := Fingerprint(k)
	if err != nil {
		t.Fatal(err)
	}
	if fp != ssh.FingerprintSHA256(sshPub) {
		t.Fatalf("fingerprint %s, want %s", fp, ssh.FingerprintSHA256(sshPub))
	}
}

func TestParseKey_TypeMismatch(t *testing.T) {
	_, priv, _ := ed25519.GenerateKey(rand.Reader)
	k, _ := keys.FromCryptoKey(priv)
	line := Format(k, "x")
	if _, _, err := ParseKey("ssh-rsa" + line[len("ssh-ed25519"):]); !errors.Is(err, keyerr.ErrFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
	if _, _, err := ParseKey("ssh-dss AAAA"); !errors.Is(err, keyerr.ErrUnsupportedAlgorithm) {
		t.Fatalf("expected unsupported algorithm, got %v", err)
	}
}
