// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the root command, configuration loading and the version
// command. The conversion commands are defined in their own files.

package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/toeirei/ppkconv/buildvars"
	"github.com/toeirei/ppkconv/internal/config"
	"github.com/toeirei/ppkconv/internal/convert"
	"github.com/toeirei/ppkconv/internal/i18n"
	"github.com/toeirei/ppkconv/internal/kdf"
	"github.com/toeirei/ppkconv/internal/keyerr"
	"github.com/toeirei/ppkconv/internal/logging"
)

var version = buildvars.VersionOrDefault("dev")
var gitCommit = buildvars.CommitOrDefault("dev")
var buildDate = buildvars.Date

// app holds the state shared by the commands of one root command.
type app struct {
	cfgFile string
	verbose bool
	cfg     config.Config
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.cfgFile != "" {
		if _, err := os.Stat(a.cfgFile); err != nil {
			return fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
		}
	}
	cfg, err := config.Load(cmd, a.cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	a.cfg = cfg

	if a.cfg.Language == "" {
		a.cfg.Language = "en"
	}
	i18n.Init(a.cfg.Language)

	if err := logging.SetLevel(a.cfg.LogLevel); err != nil {
		logging.Warnf("ignoring log level %q: %v", a.cfg.LogLevel, err)
	}
	if a.verbose {
		logging.SetDebug(true)
	}
	logging.Debugf("config loaded: ppk version %d, workers %d", a.cfg.PPK.Version, a.cfg.Batch.Workers)
	return nil
}

// argon2 returns the configured Argon2 settings for new v3 files.
func (a *app) argon2() (convert.Argon2Settings, error) {
	c := a.cfg.PPK.Argon2
	flavor, err := kdf.ParseFlavor(c.Flavor)
	if err != nil {
		return convert.Argon2Settings{}, keyerr.Usage(fmt.Sprintf("invalid argon2 flavor %q", c.Flavor))
	}
	return convert.Argon2Settings{
		Flavor:      flavor,
		MemoryKiB:   c.Memory,
		Passes:      c.Passes,
		Parallelism: c.Parallelism,
	}, nil
}

// Execute runs the CLI entrypoint.
func Execute() error {
	return NewRootCmd().Execute()
}

// ExitCode maps an error returned by Execute to a process exit status.
func ExitCode(err error) int {
	switch keyerr.KindOf(err) {
	case "":
		return 0
	case keyerr.KindUsage:
		return 2
	case keyerr.KindFormat:
		return 3
	case keyerr.KindIntegrity:
		return 4
	case keyerr.KindUnsupported:
		return 5
	}
	return 1
}

// NewRootCmd creates and configures a new root cobra command. Every call
// returns an independent command tree, which keeps tests isolated.
func NewRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "ppkconv",
		Short: "Convert private keys between PuTTY PPK and OpenSSH formats.",
		Long: `ppkconv converts RSA, ECDSA and Ed25519 private keys between PuTTY's
PPK format (versions 2 and 3) and the OpenSSH private key format.

PPK integrity is always verified before a key is written out.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	v, c, d := resolveBuildVersion(nil)
	cmd.Version = compositeVersion(v, c, d)

	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file")
	cmd.PersistentFlags().String("lang", "en", `Message language ("en", "de")`)
	cmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			v, c, d := resolveBuildVersion(nil)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "version: %s\n", v)
			fmt.Fprintf(out, "commit: %s\n", c)
			if d != "" {
				fmt.Fprintf(out, "built: %s\n", d)
			}
		},
	}

	cmd.AddCommand(
		newToOpenSSHCmd(a),
		newToPPKCmd(a),
		newInspectCmd(a),
		newBatchCmd(a),
		newConfigCmd(a),
		versionCmd,
	)
	return cmd
}

func compositeVersion(v, c, d string) string {
	out := v
	if c != "" && c != "dev" {
		out += " (" + c + ")"
	}
	if d != "" {
		out += " built: " + d
	}
	return out
}

// resolveBuildVersion computes the best-available version, commit and build
// date for the running binary. If `info` is nil, it reads build info from
// the runtime.
func resolveBuildVersion(info *debug.BuildInfo) (versionOut, commitOut, dateOut string) {
	resolvedVersion := version
	resolvedCommit := gitCommit
	resolvedDate := buildDate

	if info == nil {
		if local, ok := debug.ReadBuildInfo(); ok {
			info = local
		}
	}
	if info != nil {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			resolvedVersion = info.Main.Version
		}
		// Some build paths only record our module as a dependency.
		if resolvedVersion == "dev" || resolvedVersion == "(devel)" {
			for _, dep := range info.Deps {
				if dep.Path == "github.com/toeirei/ppkconv" && dep.Version != "" {
					resolvedVersion = dep.Version
					break
				}
			}
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if s.Value != "" {
					resolvedCommit = s.Value
				}
			case "vcs.time":
				if s.Value != "" {
					resolvedDate = s.Value
				}
			}
		}
	}

	if resolvedVersion == "dev" && gitCommit != "dev" && gitCommit != "" {
		resolvedVersion = gitCommit
	}
	return resolvedVersion, resolvedCommit, resolvedDate
}

// usageErr wraps a translated message as a usage error.
func usageErr(id string, args ...any) error {
	return keyerr.Usage(i18n.T(id, args...))
}
