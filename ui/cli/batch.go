// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/toeirei/ppkconv/internal/convert"
	"github.com/toeirei/ppkconv/internal/i18n"
	"github.com/toeirei/ppkconv/internal/keyerr"
	"github.com/toeirei/ppkconv/internal/logging"
	"github.com/toeirei/ppkconv/internal/report"
	"github.com/toeirei/ppkconv/internal/security"
)

var (
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// batchOutputPath places the converted form of name in dir.
func batchOutputPath(dir, name string, d convert.Direction) string {
	base := filepath.Base(name)
	if d == convert.ToOpenSSH {
		return filepath.Join(dir, defaultOpenSSHPath(base))
	}
	return filepath.Join(dir, defaultPPKPath(base))
}

func newBatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <file>...",
		Short: "Convert many keys concurrently",
		Long: `Converts every given file in the direction detected from its contents:
PPK files become OpenSSH keys, OpenSSH and PEM keys become PPK files.

A failing file never stops the others. Encrypted inputs share the
passphrase from --passphrase-file or $PPKCONV_PASSPHRASE. A JSON report is
written with --report; a path ending in .zst is zstd-compressed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			newPass, opts, err := a.ppkSettings(cmd)
			if err != nil {
				return err
			}
			defer security.Wipe(newPass)
			src, err := sourceSecret.lookup(cmd)
			if err != nil {
				return err
			}
			defer security.Wipe(src)

			items := make([]convert.Item, 0, len(args))
			var unreadable []convert.ItemResult
			for _, name := range args {
				data, err := os.ReadFile(name)
				if err != nil {
					unreadable = append(unreadable, convert.ItemResult{Name: name, Err: err})
					continue
				}
				items = append(items, convert.Item{Name: name, Data: data})
			}

			res := convert.RunBatch(ctx, items, convert.BatchOptions{
				Workers:          a.cfg.Batch.Workers,
				SourcePassphrase: src,
				OutputPassphrase: newPass,
				PPKVersion:       a.cfg.PPK.Version,
				Options:          opts,
			})
			res.Items = append(res.Items, unreadable...)
			res.Failed += len(unreadable)

			outputs := a.writeBatchOutputs(res)
			a.printSummary(cmd, res, outputs)

			if path, _ := cmd.Flags().GetString("report"); path != "" {
				rep := report.FromBatch(res, version, outputs)
				if err := report.WriteFile(path, rep); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("batch.report_written", path))
			}
			if res.Failed > 0 {
				return fmt.Errorf("%s", i18n.T("batch.failed", res.Failed, len(res.Items)))
			}
			return nil
		},
	}
	cmd.Flags().String("out-dir", ".", "Directory for converted files")
	cmd.Flags().Int("workers", 0, "Concurrent conversions (0 = number of CPUs)")
	cmd.Flags().String("report", "", "Write a JSON report to this path (.zst to compress)")
	cmd.Flags().String("comment", "", "Replace the comment of every key")
	cmd.Flags().BoolP("force", "f", false, "Overwrite existing output files")
	cmd.Flags().String("passphrase-file", "", "Read the input passphrase from the first line of a file")
	addPPKFlags(cmd)
	return cmd
}

// writeBatchOutputs writes every successful item and returns the written
// paths by item name. A failed write turns the item into a failure.
func (a *app) writeBatchOutputs(res *convert.BatchResult) map[string]string {
	dir := a.cfg.Batch.OutputDir
	if dir == "" {
		dir = "."
	}
	outputs := make(map[string]string)
	for i := range res.Items {
		it := &res.Items[i]
		if it.Err != nil {
			continue
		}
		out := batchOutputPath(dir, it.Name, it.Direction)
		err := writeOutputs([]outputFile{
			{path: out, data: it.Output, mode: privateFileMode},
			{path: out + ".pub", data: []byte(it.PublicKeyLine + "\n"), mode: publicFileMode},
		}, a.cfg.Output.Overwrite)
		security.Wipe(it.Output)
		it.Output = nil
		if err != nil {
			logging.Errorf("%s: %v", it.Name, err)
			it.Err = err
			res.Succeeded--
			res.Failed++
			continue
		}
		outputs[it.Name] = out
	}
	return outputs
}

func (a *app) printSummary(cmd *cobra.Command, res *convert.BatchResult, outputs map[string]string) {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, headerStyle.Render(i18n.T("batch.header")))
	for _, it := range res.Items {
		if it.Err != nil {
			kind := keyerr.KindOf(it.Err)
			fmt.Fprintf(w, "%s %s %s\n", failStyle.Render("FAIL"), it.Name, dimStyle.Render("("+kind+") "+it.Err.Error()))
			continue
		}
		fmt.Fprintf(w, "%s %s -> %s %s\n", okStyle.Render(" OK "), it.Name, outputs[it.Name],
			dimStyle.Render(strings.TrimSpace(it.KeyType+" "+it.Fingerprint)))
	}
	fmt.Fprintln(w, i18n.T("batch.summary", res.Succeeded, res.Failed))
}
