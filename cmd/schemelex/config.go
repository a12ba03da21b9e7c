package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

const configFileName = "schemelex.toml"

type fileConfig struct {
	Tokenize    tokenizeConfig    `toml:"tokenize"`
	Diagnostics diagnosticsConfig `toml:"diagnostics"`
	Log         logConfig         `toml:"log"`
}

type tokenizeConfig struct {
	Mode             string `toml:"mode"`
	Format           string `toml:"format"`
	Jobs             int    `toml:"jobs"`
	NormalizeUnicode bool   `toml:"normalize_unicode"`
	KeepGoing        bool   `toml:"keep_going"`
	Cache            bool   `toml:"cache"`
}

type diagnosticsConfig struct {
	Max     int    `toml:"max"`
	Color   string `toml:"color"`
	Context int    `toml:"context"`
}

type logConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

func findConfigFile(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadConfigFile(path string) (fileConfig, error) {
	var cfg fileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return fileConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return fileConfig{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if cfg.Tokenize.Jobs < 0 {
		return fileConfig{}, fmt.Errorf("%s: [tokenize].jobs must not be negative", path)
	}
	if cfg.Diagnostics.Max < 0 {
		return fileConfig{}, fmt.Errorf("%s: [diagnostics].max must not be negative", path)
	}
	if cfg.Diagnostics.Context < 0 || cfg.Diagnostics.Context > 10 {
		return fileConfig{}, fmt.Errorf("%s: [diagnostics].context must be between 0 and 10", path)
	}
	// относительный путь лога — от каталога конфигурации
	if cfg.Log.File != "" && !filepath.IsAbs(cfg.Log.File) {
		cfg.Log.File = filepath.Join(filepath.Dir(path), cfg.Log.File)
	}
	return cfg, nil
}

// loadConfig reads --config or the nearest schemelex.toml. A missing file is not an error.
func (a *app) loadConfig(cmd *cobra.Command) error {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	if path == "" {
		found, ok, err := findConfigFile(".")
		if err != nil || !ok {
			return err
		}
		path = found
	}
	cfg, err := loadConfigFile(path)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.cfgPath = path
	return nil
}

// stringSetting returns the flag value unless the flag was left at its default and
// the config file sets the key.
func stringSetting(cmd *cobra.Command, name, fromConfig string) (string, error) {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", fmt.Errorf("failed to get %s flag: %w", name, err)
	}
	if !cmd.Flags().Changed(name) && fromConfig != "" {
		return fromConfig, nil
	}
	return v, nil
}

func intSetting(cmd *cobra.Command, name string, fromConfig int) (int, error) {
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		return 0, fmt.Errorf("failed to get %s flag: %w", name, err)
	}
	if !cmd.Flags().Changed(name) && fromConfig != 0 {
		return fromConfig, nil
	}
	return v, nil
}

func boolSetting(cmd *cobra.Command, name string, fromConfig bool) (bool, error) {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false, fmt.Errorf("failed to get %s flag: %w", name, err)
	}
	if !cmd.Flags().Changed(name) {
		return v || fromConfig, nil
	}
	return v, nil
}
