// Package config loads bomscan settings from defaults, bomscan.yaml,
// BOMSCAN_* environment variables and command-line flags.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"github.com/ukaji3/bomscan-go/internal/logging"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/cellref"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/models"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/selection"
)

const (
	// EnvPrefix prefixes every environment override. A double underscore
	// nests: BOMSCAN_SELECTION__MODE sets selection.mode.
	EnvPrefix = "BOMSCAN_"

	DefaultConfigFile  = "bomscan.yaml"
	DefaultAddr        = "127.0.0.1:8443"
	DefaultArchivePath = "bomscan.db"
)

// Config is the resolved configuration.
type Config struct {
	// Sheet is the worksheet to scan against. Empty means the first sheet.
	Sheet string `koanf:"sheet"`
	// Range is the BOM range in A1 notation. Empty means the suggested range.
	Range     string          `koanf:"range"`
	Selection SelectionConfig `koanf:"selection"`
	Server    ServerConfig    `koanf:"server"`
	Archive   ArchiveConfig   `koanf:"archive"`
	Log       LogConfig       `koanf:"log"`
	// Mapping overrides auto-detected columns, slot name to column letter.
	Mapping map[string]string `koanf:"mapping"`
}

// SelectionConfig configures the range selector.
type SelectionConfig struct {
	Mode          string        `koanf:"mode"`
	Timeout       time.Duration `koanf:"timeout"`
	MoveThreshold float64       `koanf:"move_threshold"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// ArchiveConfig configures the session archive.
type ArchiveConfig struct {
	Path string `koanf:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// flagKeys maps flag names to config keys where they differ.
var flagKeys = map[string]string{
	"mode":           "selection.mode",
	"timeout":        "selection.timeout",
	"move-threshold": "selection.move_threshold",
	"addr":           "server.addr",
	"archive":        "archive.path",
	"log-level":      "log.level",
	"log-format":     "log.format",
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"sheet":                    "",
		"range":                    "",
		"selection.mode":           selection.ModeDrag.String(),
		"selection.timeout":        selection.DefaultTimeout.String(),
		"selection.move_threshold": selection.DefaultMoveThreshold,
		"server.addr":              DefaultAddr,
		"archive.path":             DefaultArchivePath,
		"log.level":                "info",
		"log.format":               "text",
	}
}

// findConfigFile returns the explicit path, or bomscan.yaml when present.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return ""
}

// Load resolves configuration.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if path := findConfigFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// 3. Environment: BOMSCAN_LOG__LEVEL -> log.level
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags, only those explicitly set
	var mapFlags []string
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			if f.Name == "map" {
				mapFlags, _ = flags.GetStringArray("map")
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	for _, kv := range mapFlags {
		slot, col, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --map %q: want slot=COLUMN", kv)
		}
		if cfg.Mapping == nil {
			cfg.Mapping = make(map[string]string)
		}
		cfg.Mapping[strings.TrimSpace(slot)] = strings.TrimSpace(col)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerations and mapping overrides.
func (c *Config) Validate() error {
	if _, err := selection.ParseMode(c.Selection.Mode); err != nil {
		return err
	}
	if c.Selection.Timeout <= 0 {
		return fmt.Errorf("selection.timeout must be positive, got %s", c.Selection.Timeout)
	}
	if c.Selection.MoveThreshold <= 0 {
		return fmt.Errorf("selection.move_threshold must be positive, got %v", c.Selection.MoveThreshold)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Range != "" {
		if _, err := cellref.ParseRange(strings.ToUpper(c.Range)); err != nil {
			return fmt.Errorf("range: %w", err)
		}
	}
	if _, err := c.MappingOverrides(); err != nil {
		return err
	}
	return nil
}

// SelectionMode returns the parsed selection mode.
func (c *Config) SelectionMode() selection.Mode {
	m, _ := selection.ParseMode(c.Selection.Mode)
	return m
}

// MappingOverrides converts mapping entries to 1-based sheet column numbers.
func (c *Config) MappingOverrides() (map[models.Slot]int, error) {
	out := make(map[models.Slot]int, len(c.Mapping))
	for name, letters := range c.Mapping {
		slot, err := models.ParseSlot(name)
		if err != nil {
			return nil, fmt.Errorf("mapping: %w", err)
		}
		col := cellref.ColToNum(strings.ToUpper(strings.TrimSpace(letters)))
		if col == 0 {
			return nil, fmt.Errorf("mapping.%s: %w: column %q", name, cellref.ErrInvalidReference, letters)
		}
		out[slot] = col
	}
	return out, nil
}
