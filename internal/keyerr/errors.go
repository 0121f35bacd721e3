// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

// Package keyerr defines the error taxonomy shared by the conversion packages.
// Every failure a conversion can report is one of four kinds: a malformed
// container, a failed integrity check, an unsupported key algorithm, or a
// caller mistake. Callers match kinds with errors.Is against the sentinels.
package keyerr

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrFormat               = errors.New("invalid key file format")
	ErrIntegrity            = errors.New("wrong passphrase or corrupted/tampered file")
	ErrUnsupportedAlgorithm = errors.New("unsupported key type")
	ErrUsage                = errors.New("invalid usage")

	// ErrPassphraseRequired is a usage error matched by callers that can
	// obtain a passphrase and retry.
	ErrPassphraseRequired = errors.New("passphrase required")
)

// FormatError reports a missing, out-of-order or malformed field.
type FormatError struct {
	Field string
	Err   error
}

func (e *FormatError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %v", ErrFormat, e.Err)
	}
	return fmt.Sprintf("%v: field %q: %v", ErrFormat, e.Field, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// IntegrityError reports a MAC or check-integer mismatch. A wrong passphrase
// and a modified file cannot be told apart, so both surface as this error.
type IntegrityError struct {
	Reason string
}

func (e *IntegrityError) Error() string {
	if e.Reason == "" {
		return ErrIntegrity.Error()
	}
	return fmt.Sprintf("%v (%s)", ErrIntegrity, e.Reason)
}

func (e *IntegrityError) Is(target error) bool { return target == ErrIntegrity }

// UnsupportedAlgorithmError names a key type outside RSA, ECDSA P-256/384/521
// and Ed25519.
type UnsupportedAlgorithmError struct {
	Algorithm string
}

func (e *UnsupportedAlgorithmError) Error() string {
	return fmt.Sprintf("%v %q", ErrUnsupportedAlgorithm, e.Algorithm)
}

func (e *UnsupportedAlgorithmError) Is(target error) bool { return target == ErrUnsupportedAlgorithm }

// UsageError is a caller-correctable mistake such as a missing passphrase.
type UsageError struct {
	Msg             string
	NeedsPassphrase bool
}

func (e *UsageError) Error() string { return fmt.Sprintf("%v: %s", ErrUsage, e.Msg) }

func (e *UsageError) Is(target error) bool {
	return target == ErrUsage || (e.NeedsPassphrase && target == ErrPassphraseRequired)
}

// Format wraps err as a FormatError for field.
func Format(field string, err error) error {
	return &FormatError{Field: field, Err: err}
}

// Formatf builds a FormatError for field from a format string.
func Formatf(field, format string, args ...any) error {
	return &FormatError{Field: field, Err: fmt.Errorf(format, args...)}
}

// Integrity returns an IntegrityError carrying reason.
func Integrity(reason string) error {
	return &IntegrityError{Reason: reason}
}

// Unsupported returns an UnsupportedAlgorithmError for algo.
func Unsupported(algo string) error {
	return &UnsupportedAlgorithmError{Algorithm: algo}
}

// Usage returns a UsageError with msg.
func Usage(msg string) error {
	return &UsageError{Msg: msg}
}

// PassphraseRequired reports that what is encrypted and no passphrase was
// given. It matches both ErrUsage and ErrPassphraseRequired.
func PassphraseRequired(what string) error {
	return &UsageError{Msg: "passphrase required for " + what, NeedsPassphrase: true}
}

// Kind labels used in batch reports.
const (
	KindFormat      = "format"
	KindIntegrity   = "integrity"
	KindUnsupported = "unsupported_algorithm"
	KindUsage       = "usage"
	KindCanceled    = "canceled"
	KindInternal    = "internal"
)

// KindOf classifies err into one of the Kind labels. A nil error yields "".
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrIntegrity):
		return KindIntegrity
	case errors.Is(err, ErrUnsupportedAlgorithm):
		return KindUnsupported
	case errors.Is(err, ErrUsage):
		return KindUsage
	case errors.Is(err, ErrFormat):
		return KindFormat
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindInternal
	}
}
