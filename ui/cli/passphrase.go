// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/toeirei/ppkconv/internal/i18n"
	"github.com/toeirei/ppkconv/internal/logging"
	"github.com/toeirei/ppkconv/internal/security"
)

const (
	envPassphrase    = "PPKCONV_PASSPHRASE"
	envNewPassphrase = "PPKCONV_NEW_PASSPHRASE"
)

// readPassword is replaced in tests.
var readPassword = func(fd int) ([]byte, error) { return term.ReadPassword(fd) }

// isTerminal is replaced in tests.
var isTerminal = func(fd int) bool { return term.IsTerminal(fd) }

// secretSource names where a passphrase may come from.
type secretSource struct {
	fileFlag string
	env      string
}

var (
	sourceSecret = secretSource{fileFlag: "passphrase-file", env: envPassphrase}
	outputSecret = secretSource{fileFlag: "new-passphrase-file", env: envNewPassphrase}
)

// lookup returns the passphrase from the file flag or the environment, or
// nil when neither is set.
func (s secretSource) lookup(cmd *cobra.Command) ([]byte, error) {
	if f := cmd.Flags().Lookup(s.fileFlag); f != nil && f.Value.String() != "" {
		data, err := os.ReadFile(f.Value.String())
		if err != nil {
			return nil, fmt.Errorf("could not read --%s: %w", s.fileFlag, err)
		}
		line, _, _ := bytes.Cut(data, []byte("\n"))
		line = bytes.TrimSuffix(line, []byte("\r"))
		out := bytes.Clone(line)
		security.Wipe(data)
		logging.Debugf("passphrase read from --%s", s.fileFlag)
		return out, nil
	}
	if v, ok := os.LookupEnv(s.env); ok && v != "" {
		logging.Debugf("passphrase read from $%s", s.env)
		return []byte(v), nil
	}
	return nil, nil
}

// prompt asks for a passphrase on the terminal. With confirm set it asks
// twice and requires both entries to match.
func prompt(cmd *cobra.Command, label string, confirm bool) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return nil, usageErr("passphrase.no_terminal")
	}
	out := cmd.ErrOrStderr()
	first, err := ask(out, fd, label)
	if err != nil {
		return nil, err
	}
	if !confirm {
		return first, nil
	}
	second, err := ask(out, fd, i18n.T("passphrase.confirm_prompt"))
	defer security.Wipe(second)
	if err != nil {
		security.Wipe(first)
		return nil, err
	}
	if !bytes.Equal(first, second) {
		security.Wipe(first)
		return nil, usageErr("passphrase.mismatch")
	}
	return first, nil
}

func ask(out io.Writer, fd int, label string) ([]byte, error) {
	fmt.Fprint(out, label)
	pw, err := readPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", i18n.T("passphrase.read_failed"), err)
	}
	return pw, nil
}

// sourcePassphrase returns the passphrase for an encrypted input named
// name, prompting when no file or environment value is set.
func sourcePassphrase(cmd *cobra.Command, name string) ([]byte, error) {
	pw, err := sourceSecret.lookup(cmd)
	if err != nil || pw != nil {
		return pw, err
	}
	return prompt(cmd, i18n.T("passphrase.prompt", name), false)
}

// outputPassphrase returns the passphrase for new output. It is nil unless
// a file or environment value is set or encrypt asks for a prompt.
func outputPassphrase(cmd *cobra.Command, encrypt bool) ([]byte, error) {
	pw, err := outputSecret.lookup(cmd)
	if err != nil || pw != nil || !encrypt {
		return pw, err
	}
	return prompt(cmd, i18n.T("passphrase.new_prompt"), true)
}
