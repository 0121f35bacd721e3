// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for ppkconv.
//
// Usage:
//
//	go run . [flags]
//	./ppkconv to-openssh key.ppk
//
// See --help for the available commands.
package main

import (
	"os"

	"github.com/toeirei/ppkconv/ui/cli"
)

// main runs the CLI. Cobra has already printed the error, so only the exit
// status is set here.
func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
