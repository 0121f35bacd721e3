// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

package ppk

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/toeirei/ppkconv/internal/kdf"
	"github.com/toeirei/ppkconv/internal/keyerr"
	"github.com/toeirei/ppkconv/internal/keys"
)

// lineReader hands out the lines of a PPK file one at a time.
type lineReader struct {
	sc *bufio.Scanner
}

func newLineReader(b []byte) *lineReader {
	sc := bufio.NewScanner(bytes.NewReader(b))
	sc.Buffer(make([]byte, 0, 4096), maxBlobSize)
	return &lineReader{sc: sc}
}

func (lr *lineReader) next(field string) (string, error) {
	if !lr.sc.Scan() {
		if err := lr.sc.Err(); err != nil {
			return "", keyerr.Format(field, err)
		}
		return "", keyerr.Formatf(field, "unexpected end of file")
	}
	return lr.sc.Text(), nil
}

// field reads the next line and requires it to be "<name>: <value>".
func (lr *lineReader) field(name string) (string, error) {
	line, err := lr.next(name)
	if err != nil {
		return "", err
	}
	if line == name+":" {
		return "", nil
	}
	label, value, ok := strings.Cut(line, ": ")
	if !ok || label != name {
		return "", keyerr.Formatf(name, "expected %q line, got %q", name, truncate(line))
	}
	return value, nil
}

func (lr *lineReader) number(name string) (uint32, error) {
	v, err := lr.field(name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, keyerr.Formatf(name, "invalid number %q", v)
	}
	return uint32(n), nil
}

// blob reads a line count followed by that many base64 lines.
func (lr *lineReader) blob(name string) ([]byte, error) {
	n, err := lr.number(name)
	if err != nil {
		return nil, err
	}
	if n >= maxBlobLines {
		return nil, keyerr.Formatf(name, "%d lines exceeds the limit of %d", n, maxBlobLines-1)
	}
	var sb strings.Builder
	for i := uint32(0); i < n; i++ {
		line, err := lr.next(name)
		if err != nil {
			return nil, err
		}
		if len(line)%4 != 0 || len(line) > lineWidth {
			return nil, keyerr.Formatf(name, "line %d has invalid length %d", i+1, len(line))
		}
		sb.WriteString(line)
	}
	out, err := base64.StdEncoding.DecodeString(sb.String())
	if err != nil {
		return nil, keyerr.Format(name, err)
	}
	return out, nil
}

// Parse reads a PPK file. Fields must appear in the fixed PuTTY order and
// the version is checked before anything else is read.
func Parse(b []byte) (*File, error) {
	lr := newLineReader(b)
	f := &File{}

	line, err := lr.next(fieldHeader)
	if err != nil {
		return nil, err
	}
	label, keyType, ok := strings.Cut(line, ": ")
	version, found := strings.CutPrefix(label, fieldHeader+"-")
	if !ok || !found {
		return nil, keyerr.Formatf(fieldHeader, "not a PuTTY private key file")
	}
	switch version {
	case "2":
		f.Version = 2
	case "3":
		f.Version = 3
	default:
		return nil, keyerr.Formatf(fieldHeader, "unsupported version %q", version)
	}
	if err := keys.CheckType(keyType); err != nil {
		return nil, err
	}
	f.KeyType = keyType

	if f.Encryption, err = lr.field(fieldEncryption); err != nil {
		return nil, err
	}
	switch f.Encryption {
	case EncryptionNone, EncryptionAES256:
	default:
		return nil, keyerr.Formatf(fieldEncryption, "unsupported encryption %q", f.Encryption)
	}
	if f.Comment, err = lr.field(fieldComment); err != nil {
		return nil, err
	}
	if f.PublicBlob, err = lr.blob(fieldPublic); err != nil {
		return nil, err
	}
	if f.Version == 3 && f.Encrypted() {
		if f.Argon2, err = lr.argon2(); err != nil {
			return nil, err
		}
	}
	if f.PrivateBlob, err = lr.blob(fieldPrivate); err != nil {
		return nil, err
	}
	if f.MAC, err = lr.mac(f.Version); err != nil {
		return nil, err
	}

	for lr.sc.Scan() {
		if strings.TrimSpace(lr.sc.Text()) != "" {
			return nil, keyerr.Formatf(fieldMAC, "unexpected content after %s", fieldMAC)
		}
	}
	if err := lr.sc.Err(); err != nil {
		return nil, keyerr.Format(fieldMAC, err)
	}

	if err := f.check(); err != nil {
		return nil, err
	}
	return f, nil
}

func (lr *lineReader) argon2() (*kdf.Argon2Params, error) {
	v, err := lr.field(fieldKDF)
	if err != nil {
		return nil, err
	}
	p := &kdf.Argon2Params{}
	if p.Flavor, err = kdf.ParseFlavor(v); err != nil {
		return nil, err
	}
	if p.MemoryKiB, err = lr.number(fieldMemory); err != nil {
		return nil, err
	}
	if p.Passes, err = lr.number(fieldPasses); err != nil {
		return nil, err
	}
	if p.Parallelism, err = lr.number(fieldParallelism); err != nil {
		return nil, err
	}
	salt, err := lr.field(fieldSalt)
	if err != nil {
		return nil, err
	}
	if p.Salt, err = hex.DecodeString(salt); err != nil {
		return nil, keyerr.Format(fieldSalt, err)
	}
	return p, nil
}

func (lr *lineReader) mac(version int) (string, error) {
	v, err := lr.field(fieldMAC)
	if err != nil {
		return "", err
	}
	raw, err := hex.DecodeString(v)
	if err != nil {
		return "", keyerr.Format(fieldMAC, err)
	}
	if want := macSize(version); len(raw) != want {
		return "", keyerr.Formatf(fieldMAC, "MAC is %d bytes, want %d", len(raw), want)
	}
	return strings.ToLower(v), nil
}

func truncate(s string) string {
	const limit = 40
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

// IsPPK reports whether b starts like a PPK file of any version. It does not
// validate the rest of the file.
func IsPPK(b []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(b, "\ufeff \t\r\n"), []byte(fieldHeader+"-"))
}
