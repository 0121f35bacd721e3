// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/toeirei/ppkconv/internal/convert"
	"github.com/toeirei/ppkconv/internal/i18n"
	"github.com/toeirei/ppkconv/internal/kdf"
	"github.com/toeirei/ppkconv/internal/keyerr"
	"github.com/toeirei/ppkconv/internal/logging"
	"github.com/toeirei/ppkconv/internal/security"
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

// stdioPath names stdin as an input and stdout as an output.
const stdioPath = "-"

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == stdioPath {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	return data, nil
}

// defaultOpenSSHPath strips a .ppk suffix, or appends _openssh when there
// is none. Input read from stdin goes to stdout.
func defaultOpenSSHPath(in string) string {
	if in == stdioPath {
		return stdioPath
	}
	if out, ok := strings.CutSuffix(in, ".ppk"); ok && out != "" {
		return out
	}
	return in + "_openssh"
}

func defaultPPKPath(in string) string {
	if in == stdioPath {
		return stdioPath
	}
	return in + ".ppk"
}

func commentOption(cmd *cobra.Command) []convert.Option {
	if !cmd.Flags().Changed("comment") {
		return nil
	}
	c, _ := cmd.Flags().GetString("comment")
	return []convert.Option{convert.WithComment(c)}
}

// emit writes the private and public files then reports the public key, or
// only prints the private key when out is "-".
func (a *app) emit(cmd *cobra.Command, out string, private []byte, publicLine, fingerprint string) error {
	w := cmd.OutOrStdout()
	if out == stdioPath {
		_, err := w.Write(private)
		return err
	}
	err := writeOutputs([]outputFile{
		{path: out, data: private, mode: privateFileMode},
		{path: out + ".pub", data: []byte(publicLine + "\n"), mode: publicFileMode},
	}, a.cfg.Output.Overwrite)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, i18n.T("convert.wrote", out))
	fmt.Fprintln(w, i18n.T("convert.fingerprint", fingerprint))
	fmt.Fprintln(w, i18n.T("convert.public_key", publicLine))

	if ok, _ := cmd.Flags().GetBool("clipboard"); ok {
		if err := writeClipboard(publicLine); err != nil {
			logging.Warnf("%s", i18n.T("clipboard.failed", err))
		} else {
			fmt.Fprintln(w, i18n.T("clipboard.copied"))
		}
	}
	return nil
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", `Output path ("-" for stdout)`)
	cmd.Flags().String("comment", "", "Replace the key comment")
	cmd.Flags().BoolP("force", "f", false, "Overwrite existing output files")
	cmd.Flags().Bool("clipboard", false, "Copy the public key line to the clipboard")
	cmd.Flags().String("passphrase-file", "", "Read the input passphrase from the first line of a file")
}

func newToOpenSSHCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "to-openssh <in.ppk>",
		Short: "Convert a PuTTY PPK file to an OpenSSH private key",
		Long: `Reads a PPK version 2 or 3 file, verifies its MAC and writes an
unencrypted OpenSSH private key plus a .pub file next to it. With "-" as
the input the key is read from stdin and, unless -o is given, printed.

The passphrase of an encrypted PPK file is taken from --passphrase-file,
$PPKCONV_PASSPHRASE or an interactive prompt, in that order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := args[0]
			data, err := readInput(cmd, in)
			if err != nil {
				return err
			}
			info, err := convert.InspectPPK(data)
			if err != nil {
				return err
			}
			var pass []byte
			if info.Encryption != "none" {
				if pass, err = sourcePassphrase(cmd, in); err != nil {
					return err
				}
				defer security.Wipe(pass)
			}

			res, err := convert.PPKToOpenSSH(data, pass, commentOption(cmd)...)
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("output")
			if out == "" {
				out = defaultOpenSSHPath(in)
			}
			logging.Debugf("%s: %s PPK v%d -> OpenSSH", in, res.KeyType, info.Version)
			return a.emit(cmd, out, []byte(res.PrivateKeyPEM), res.PublicKeyLine, res.Fingerprint)
		},
	}
	addOutputFlags(cmd)
	return cmd
}

func addPPKFlags(cmd *cobra.Command) {
	cmd.Flags().Int("ppk-version", convert.DefaultPPKVersion, "PPK output version (2 or 3)")
	cmd.Flags().Bool("encrypt", false, "Prompt for a passphrase to encrypt the output")
	cmd.Flags().String("new-passphrase-file", "", "Encrypt the output with the first line of a file")
	cmd.Flags().String("argon2-flavor", string(kdf.Argon2id), "Argon2 variant for v3 output (Argon2id, Argon2i, Argon2d)")
	cmd.Flags().Uint32("argon2-memory", convert.DefaultArgon2.MemoryKiB, "Argon2 memory in KiB")
	cmd.Flags().Uint32("argon2-passes", convert.DefaultArgon2.Passes, "Argon2 passes")
	cmd.Flags().Uint32("argon2-parallelism", convert.DefaultArgon2.Parallelism, "Argon2 lanes")
}

// ppkSettings returns the output passphrase and conversion options for a
// PPK-producing command.
func (a *app) ppkSettings(cmd *cobra.Command) ([]byte, []convert.Option, error) {
	settings, err := a.argon2()
	if err != nil {
		return nil, nil, err
	}
	encrypt, _ := cmd.Flags().GetBool("encrypt")
	pass, err := outputPassphrase(cmd, encrypt)
	if err != nil {
		return nil, nil, err
	}
	opts := append(commentOption(cmd), convert.WithArgon2(settings))
	return pass, opts, nil
}

func newToPPKCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "to-ppk <in>",
		Short: "Convert an OpenSSH or PEM private key to a PuTTY PPK file",
		Long: `Reads an OpenSSH private key (or a PKCS#1, SEC1 or PKCS#8 PEM key) and
writes a PPK file. The output is encrypted when --encrypt is given or a new
passphrase is supplied via --new-passphrase-file or $PPKCONV_NEW_PASSPHRASE.
Version 3 output is encrypted with AES-256-CBC keyed by Argon2.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := args[0]
			data, err := readInput(cmd, in)
			if err != nil {
				return err
			}
			newPass, opts, err := a.ppkSettings(cmd)
			if err != nil {
				return err
			}
			defer security.Wipe(newPass)

			src, err := sourceSecret.lookup(cmd)
			if err != nil {
				return err
			}
			res, err := convert.OpenSSHToPPK(data, src, newPass, a.cfg.PPK.Version, opts...)
			if src == nil && errors.Is(err, keyerr.ErrPassphraseRequired) {
				if src, err = prompt(cmd, i18n.T("passphrase.prompt", in), false); err != nil {
					return err
				}
				res, err = convert.OpenSSHToPPK(data, src, newPass, a.cfg.PPK.Version, opts...)
			}
			security.Wipe(src)
			if err != nil {
				return err
			}

			out, _ := cmd.Flags().GetString("output")
			if out == "" {
				out = defaultPPKPath(in)
			}
			logging.Debugf("%s: %s -> PPK v%d", in, res.KeyType, a.cfg.PPK.Version)
			return a.emit(cmd, out, []byte(res.PPKText), res.PublicKeyLine, res.Fingerprint)
		},
	}
	addOutputFlags(cmd)
	addPPKFlags(cmd)
	return cmd
}

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <in.ppk>",
		Short: "Show the header fields and public key of a PPK file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			info, err := convert.InspectPPK(data)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			row := func(id string, v any) { fmt.Fprintf(w, "%-18s %v\n", i18n.T(id)+":", v) }
			row("inspect.version", info.Version)
			row("inspect.key_type", info.KeyType)
			row("inspect.encryption", info.Encryption)
			row("inspect.comment", info.Comment)
			if info.KeyDerivation != "" {
				row("inspect.kdf", info.KeyDerivation)
				row("inspect.argon2", fmt.Sprintf("memory=%d KiB passes=%d parallelism=%d",
					info.Argon2Memory, info.Argon2Passes, info.Argon2Threads))
			}
			row("inspect.fingerprint", info.Fingerprint)
			fmt.Fprintln(w, info.PublicKeyLine)
			return nil
		},
	}
}
