// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

// Package sshkey formats and parses single-line SSH public keys
// ("<type> <base64> [comment]") and computes their fingerprints.
package sshkey

import (
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/toeirei/ppkconv/internal/keyerr"
	"github.com/toeirei/ppkconv/internal/keys"
)

const fieldLine = "public key line"

// Parse splits a raw public key string (like one from an authorized_keys file)
// into its three core components: algorithm, key data, and comment.
// Leading options in the line (e.g., from="...",command="...") are skipped.
func Parse(rawKey string) (algorithm, keyData, comment string, err error) {
	fields := strings.Fields(rawKey)
	if len(fields) == 0 {
		err = keyerr.Formatf(fieldLine, "empty line")
		return
	}

	keyStartIndex := -1
	for i, field := range fields {
		if strings.HasPrefix(field, "ssh-") || strings.HasPrefix(field, "ecdsa-") {
			keyStartIndex = i
			break
		}
	}

	if keyStartIndex == -1 {
		err = keyerr.Formatf(fieldLine, "no SSH key type found in line")
		return
	}

	if len(fields) < keyStartIndex+2 {
		err = keyerr.Formatf(fieldLine, "missing key data after %s", fields[keyStartIndex])
		return
	}

	algorithm = fields[keyStartIndex]
	keyData = fields[keyStartIndex+1]
	if len(fields) > keyStartIndex+2 {
		comment = strings.Join(fields[keyStartIndex+2:], " ")
	}

	return
}

// ParseKey parses a public key line into its key and comment. The type in
// front of the key data must match the type inside it.
func ParseKey(rawKey string) (*keys.Key, string, error) {
	algorithm, keyData, comment, err := Parse(rawKey)
	if err != nil {
		return nil, "", err
	}
	if err := keys.CheckType(algorithm); err != nil {
		return nil, "", err
	}
	blob, err := base64.StdEncoding.DecodeString(keyData)
	if err != nil {
		return nil, "", keyerr.Format(fieldLine, err)
	}
	k, err := keys.ParsePublicBlob(blob)
	if err != nil {
		return nil, "", err
	}
	if k.Type != algorithm {
		return nil, "", keyerr.Formatf(fieldLine, "line says %s but the key is %s", algorithm, k.Type)
	}
	return k, comment, nil
}

// Format renders the public half of k as "<type> <base64> [comment]" without
// a trailing newline.
func Format(k *keys.Key, comment string) string {
	line := k.Type + " " + base64.StdEncoding.EncodeToString(k.PublicBlob())
	if comment = strings.TrimSpace(comment); comment != "" {
		line += " " + comment
	}
	return line
}

// Fingerprint returns the OpenSSH SHA256 fingerprint of the public half of k.
func Fingerprint(k *keys.Key) (string, error) {
	pub, err := k.SSHPublicKey()
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint key: %w", err)
	}
	return ssh.FingerprintSHA256(pub), nil
}
