// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

package convert

import (
	"github.com/toeirei/ppkconv/internal/keyerr"
	"github.com/toeirei/ppkconv/internal/keys"
	"github.com/toeirei/ppkconv/internal/ppk"
	"github.com/toeirei/ppkconv/internal/sshkey"
)

// Inspection describes a PPK file without decrypting it.
type Inspection struct {
	Version       int
	KeyType       string
	Encryption    string
	Comment       string
	KeyDerivation string
	Argon2Memory  uint32
	Argon2Passes  uint32
	Argon2Threads uint32
	PublicKeyLine string
	Fingerprint   string
}

// InspectPPK reports the header fields and public key of a PPK file. The
// private blob and MAC are not checked, so no passphrase is needed.
func InspectPPK(ppkBytes []byte) (*Inspection, error) {
	f, err := ppk.Parse(ppkBytes)
	if err != nil {
		return nil, err
	}
	k, err := keys.ParsePublicBlob(f.PublicBlob)
	if err != nil {
		return nil, err
	}
	if k.Type != f.KeyType {
		return nil, keyerr.Formatf("Public-Lines", "public key type %q does not match header type %q", k.Type, f.KeyType)
	}
	fp, err := sshkey.Fingerprint(k)
	if err != nil {
		return nil, err
	}
	in := &Inspection{
		Version:       f.Version,
		KeyType:       f.KeyType,
		Encryption:    f.Encryption,
		Comment:       f.Comment,
		PublicKeyLine: sshkey.Format(k, f.Comment),
		Fingerprint:   fp,
	}
	if p := f.Argon2; p != nil {
		in.KeyDerivation = string(p.Flavor)
		in.Argon2Memory = p.MemoryKiB
		in.Argon2Passes = p.Passes
		in.Argon2Threads = p.Parallelism
	}
	return in, nil
}
