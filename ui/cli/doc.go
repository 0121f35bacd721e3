// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.
//
// Package cli implements the ppkconv command-line interface using Cobra.
// It loads configuration, reads passphrases and writes files; the
// conversions themselves live in internal/convert and operate on bytes.
package cli
