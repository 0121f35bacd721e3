// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

package ppk

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Marshal renders f as PPK text with base64 blobs wrapped at 64 columns.
func Marshal(f *File) ([]byte, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s-%d: %s\n", fieldHeader, f.Version, f.KeyType)
	fmt.Fprintf(&b, "%s: %s\n", fieldEncryption, f.Encryption)
	fmt.Fprintf(&b, "%s: %s\n", fieldComment, f.Comment)
	writeBlob(&b, fieldPublic, f.PublicBlob)
	if p := f.Argon2; p != nil {
		fmt.Fprintf(&b, "%s: %s\n", fieldKDF, p.Flavor)
		fmt.Fprintf(&b, "%s: %d\n", fieldMemory, p.MemoryKiB)
		fmt.Fprintf(&b, "%s: %d\n", fieldPasses, p.Passes)
		fmt.Fprintf(&b, "%s: %d\n", fieldParallelism, p.Parallelism)
		fmt.Fprintf(&b, "%s: %s\n", fieldSalt, hex.EncodeToString(p.Salt))
	}
	writeBlob(&b, fieldPrivate, f.PrivateBlob)
	fmt.Fprintf(&b, "%s: %s\n", fieldMAC, f.MAC)
	return b.Bytes(), nil
}

func writeBlob(b *bytes.Buffer, label string, blob []byte) {
	enc := base64.StdEncoding.EncodeToString(blob)
	lines := (len(enc) + lineWidth - 1) / lineWidth
	fmt.Fprintf(b, "%s: %d\n", label, lines)
	for len(enc) > 0 {
		n := min(lineWidth, len(enc))
		b.WriteString(enc[:n])
		b.WriteByte('\n')
		enc = enc[n:]
	}
}
