// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.
//
// Package security provides the in-memory wrapper used for passphrases and
// derived key material. Secrets redact themselves when formatted or encoded
// and can be wiped once a conversion finishes with them.
package security
