// Package config loads bsm-kernel settings from an optional YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. BSMK_PRICING_RATE.
const EnvPrefix = "BSMK"

// Output formats understood by the report package.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCSV   = "csv"
)

// Config is the complete application configuration.
type Config struct {
	Pricing PricingConfig `mapstructure:"pricing" yaml:"pricing"`
	Output  OutputConfig  `mapstructure:"output"  yaml:"output"`
	Log     LogConfig     `mapstructure:"log"     yaml:"log"`
	Market  MarketConfig  `mapstructure:"market"  yaml:"market"`
	Batch   BatchConfig   `mapstructure:"batch"   yaml:"batch"`
}

// PricingConfig holds the market parameters applied when an input row or
// flag does not carry its own.
type PricingConfig struct {
	Rate          float64 `mapstructure:"rate"           yaml:"rate"`
	DividendYield float64 `mapstructure:"dividend_yield" yaml:"dividend_yield"`
}

type OutputConfig struct {
	Format    string `mapstructure:"format"    yaml:"format"` // "table", "json" or "csv"
	Precision int32  `mapstructure:"precision" yaml:"precision"`
	Dir       string `mapstructure:"dir"       yaml:"dir"` // empty writes to stdout
}

type LogConfig struct {
	Verbosity int    `mapstructure:"verbosity" yaml:"verbosity"` // 0 error .. 3 trace
	File      string `mapstructure:"file"      yaml:"file"`
}

// MarketConfig configures the Massive market data client.
type MarketConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
}

type BatchConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers"` // 0 uses GOMAXPROCS
}

// Load reads configuration from path, or from config.yaml in the working
// directory or ./config when path is empty. A missing default file is not an
// error; a missing explicit path is.
//
// Environment variables override file values.
// Format: BSMK_<SECTION>_<KEY>, e.g. BSMK_OUTPUT_FORMAT.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pricing.rate", 0.05)
	v.SetDefault("pricing.dividend_yield", 0.0)

	v.SetDefault("output.format", FormatTable)
	v.SetDefault("output.precision", 4)
	v.SetDefault("output.dir", "")

	v.SetDefault("log.verbosity", 1) // info
	v.SetDefault("log.file", "")

	v.SetDefault("market.api_key", "")

	v.SetDefault("batch.workers", 0)
}

// overrideFromEnv falls back to the key names the Massive (formerly
// Polygon) tooling uses when no BSMK key is configured.
func overrideFromEnv(cfg *Config) {
	if cfg.Market.APIKey != "" {
		return
	}
	for _, name := range []string{"MASSIVE_API_KEY", "POLYGON_API_KEY"} {
		if key := os.Getenv(name); key != "" {
			cfg.Market.APIKey = key
			return
		}
	}
}

// Validate checks value ranges that viper cannot express.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case FormatTable, FormatJSON, FormatCSV:
	default:
		return fmt.Errorf("output.format %q: must be one of table, json, csv", c.Output.Format)
	}
	if c.Output.Precision < 0 || c.Output.Precision > 12 {
		return fmt.Errorf("output.precision %d: must be within [0, 12]", c.Output.Precision)
	}
	if c.Batch.Workers < 0 {
		return fmt.Errorf("batch.workers %d: must not be negative", c.Batch.Workers)
	}
	if c.Log.Verbosity < 0 || c.Log.Verbosity > 3 {
		return fmt.Errorf("log.verbosity %d: must be within [0, 3]", c.Log.Verbosity)
	}
	for name, f := range map[string]float64{
		"pricing.rate":           c.Pricing.Rate,
		"pricing.dividend_yield": c.Pricing.DividendYield,
	} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%s: must be finite", name)
		}
	}
	return nil
}
