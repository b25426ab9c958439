// Package config loads order-analytics settings from defaults, a YAML file, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"order-analytics/pkg/calculator"
	"order-analytics/pkg/database"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "ORDER_ANALYTICS_"

// Config file names searched in the working directory.
var configFileNames = []string{"order-analytics.yaml", "order-analytics.yml"}

// Output formats.
const (
	OutputAuto     = "auto"
	OutputTable    = "table"
	OutputJSON     = "json"
	OutputCSV      = "csv"
	OutputMarkdown = "markdown"
)

// Default configuration values.
const (
	DefaultOutput = OutputAuto
	DefaultListen = ":8080"
)

// Config holds every setting of the CLI and the HTTP server.
type Config struct {
	Data           string `koanf:"data"` // CSV export path
	DSN            string `koanf:"dsn"`  // mysql://, mariadb://, postgres:// or native MySQL DSN
	Table          string `koanf:"table"`
	CategoryColumn string `koanf:"category_column"`

	Years         []int  `koanf:"years"` // empty: every year present in the data
	TopCategories int    `koanf:"top_categories"`
	TopSegments   int    `koanf:"top_segments"`
	BinPolicy     string `koanf:"bin_policy"`

	Output  string `koanf:"output"`
	Listen  string `koanf:"listen"`
	Watch   bool   `koanf:"watch"`
	Verbose bool   `koanf:"verbose"`

	// File is the config file that was read, if any.
	File string `koanf:"-"`
}

// Load builds a Config. cfgFile may be empty, in which case order-analytics.yaml or
// order-analytics.yml in the working directory is used when present. Only flags that were
// explicitly set override lower layers.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"table":           database.DefaultTable,
		"category_column": database.DefaultCategoryColumn,
		"top_categories":  calculator.DefaultTopN,
		"top_segments":    calculator.DefaultTopN,
		"bin_policy":      calculator.BinStrict.String(),
		"output":          DefaultOutput,
		"listen":          DefaultListen,
		"watch":           false,
		"verbose":         false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used := findConfigFile(cfgFile)
	if cfgFile != "" && used == "" {
		return nil, fmt.Errorf("config file %s not found", cfgFile)
	}
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Environment: ORDER_ANALYTICS_TOP_SEGMENTS -> top_segments,
	// ORDER_ANALYTICS_YEARS=2017,2018 -> years
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used
	return &cfg, nil
}

func envValue(key, value string) (string, interface{}) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if key != "years" {
		return key, value
	}
	years := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			years = append(years, part)
		}
	}
	return key, years
}

func findConfigFile(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}
	for _, name := range configFileNames {
		if _, err := os.Stat(name); err == nil {
			return filepath.Clean(name)
		}
	}
	return ""
}

// Validate checks settings shared by every command. Source presence is checked by
// ValidateSource since some commands need no data.
func (c *Config) Validate() error {
	if c.TopCategories <= 0 {
		return fmt.Errorf("%w: top_categories must be > 0, got %d", calculator.ErrInvalidParameter, c.TopCategories)
	}
	if c.TopSegments <= 0 {
		return fmt.Errorf("%w: top_segments must be > 0, got %d", calculator.ErrInvalidParameter, c.TopSegments)
	}
	if _, err := calculator.ParseBinPolicy(c.BinPolicy); err != nil {
		return err
	}
	switch c.Output {
	case OutputAuto, OutputTable, OutputJSON, OutputCSV, OutputMarkdown:
	default:
		return fmt.Errorf("unknown output format %q (auto|table|json|csv|markdown)", c.Output)
	}
	return nil
}

// ValidateSource reports a missing data source.
func (c *Config) ValidateSource() error {
	if c.Data == "" && c.DSN == "" {
		return fmt.Errorf("no data source: set --data (CSV) or --dsn")
	}
	return nil
}

// Policy returns the parsed bin policy. Call Validate first.
func (c *Config) Policy() calculator.BinPolicy {
	p, _ := calculator.ParseBinPolicy(c.BinPolicy)
	return p
}

// Query returns the SQL table settings.
func (c *Config) Query() database.Query {
	return database.Query{Table: c.Table, CategoryColumn: c.CategoryColumn}
}
