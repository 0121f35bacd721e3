// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads ppkconv settings from defaults, YAML files, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Argon2 holds the cost parameters for newly encrypted PPK v3 files.
type Argon2 struct {
	Flavor      string `mapstructure:"flavor" yaml:"flavor"`
	Memory      uint32 `mapstructure:"memory" yaml:"memory"`
	Passes      uint32 `mapstructure:"passes" yaml:"passes"`
	Parallelism uint32 `mapstructure:"parallelism" yaml:"parallelism"`
}

// Config is the ppkconv configuration file.
type Config struct {
	Language string `mapstructure:"language" yaml:"language"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	PPK      struct {
		Version int    `mapstructure:"version" yaml:"version"`
		Argon2  Argon2 `mapstructure:"argon2" yaml:"argon2"`
	} `mapstructure:"ppk" yaml:"ppk"`
	Batch struct {
		Workers   int    `mapstructure:"workers" yaml:"workers"`
		OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	} `mapstructure:"batch" yaml:"batch"`
	Output struct {
		Overwrite bool `mapstructure:"overwrite" yaml:"overwrite"`
	} `mapstructure:"output" yaml:"output"`
}

// Defaults returns the built-in values for every configuration key.
func Defaults() map[string]any {
	return map[string]any{
		"language":               "en",
		"log_level":              "info",
		"ppk.version":            3,
		"ppk.argon2.flavor":      "Argon2id",
		"ppk.argon2.memory":      8192,
		"ppk.argon2.passes":      13,
		"ppk.argon2.parallelism": 1,
		"batch.workers":          0,
		"batch.output_dir":       ".",
		"output.overwrite":       false,
	}
}

// flagKeys maps configuration keys to the command-line flags that set them.
var flagKeys = map[string]string{
	"language":               "lang",
	"log_level":              "log-level",
	"ppk.version":            "ppk-version",
	"ppk.argon2.flavor":      "argon2-flavor",
	"ppk.argon2.memory":      "argon2-memory",
	"ppk.argon2.passes":      "argon2-passes",
	"ppk.argon2.parallelism": "argon2-parallelism",
	"batch.workers":          "workers",
	"batch.output_dir":       "out-dir",
	"output.overwrite":       "force",
}

// GetConfigPath returns the full path for the configuration file.
func GetConfigPath(system bool) (string, error) {
	var configDir string
	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "ppkconv")
		default:
			configDir = "/etc/ppkconv"
		}
	} else {
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(dir, "ppkconv")
	}
	return filepath.Join(configDir, "ppkconv.yaml"), nil
}

// LoadConfig builds a T from defaults, the first ppkconv.yaml found (or
// configFile when set), a local .ppkconv.yaml, PPKCONV_* environment
// variables and the flags of cmd that have been set.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, configFile *string) (T, error) {
	var c T
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("ppkconv")
	v.SetConfigType("yaml")
	if configFile != nil && *configFile != "" {
		v.SetConfigFile(*configFile)
	}
	if p, err := GetConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(p))
	}
	if p, err := GetConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(p))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return c, fmt.Errorf("could not read config: %w", err)
		}
	}
	mergeLocalConfig(v)

	v.SetEnvPrefix("ppkconv")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		for key, name := range flagKeys {
			if f := cmd.Flags().Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return c, err
				}
			}
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("could not decode config: %w", err)
	}
	return c, nil
}

// Load is LoadConfig for the ppkconv Config with its defaults.
func Load(cmd *cobra.Command, configFile string) (Config, error) {
	return LoadConfig[Config](cmd, Defaults(), &configFile)
}

// mergeLocalConfig merges a `.ppkconv.yaml` in the current directory over
// whatever was read so far. A malformed file is ignored.
func mergeLocalConfig(v *viper.Viper) {
	const local = ".ppkconv.yaml"
	if _, err := os.Stat(local); err != nil {
		return
	}
	v.SetConfigFile(local)
	_ = v.MergeInConfig()
	v.SetConfigFile("")
}

// WriteConfigFile writes c as YAML to the user or system config path and
// returns the path written.
func WriteConfigFile[T any](c *T, system bool) (string, error) {
	path, err := GetConfigPath(system)
	if err != nil {
		return "", err
	}
	return path, WriteConfigTo(path, c)
}

// WriteConfigTo writes c as YAML to path, creating its directory.
func WriteConfigTo[T any](path string, c *T) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", dir, err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Marshal renders c as YAML.
func Marshal(c *Config) ([]byte, error) {
	return yaml.Marshal(c)
}
