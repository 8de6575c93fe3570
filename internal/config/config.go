package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/Open-Empirical-Finance/gotaq/internal/taq"
)

// Config is the complete application configuration. Values come from
// Default, may be overridden by a YAML file, and finally by TAQ_*
// environment variables.
type Config struct {
	Source  SourceConfig  `yaml:"source" envconfig:"SOURCE"`
	Clean   CleanSettings `yaml:"clean" envconfig:"CLEAN"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Output  OutputConfig  `yaml:"output" envconfig:"OUTPUT"`
}

// SourceConfig selects and configures the raw data backend.
type SourceConfig struct {
	// Backend is "postgres" or "csv".
	Backend    string `yaml:"backend" envconfig:"BACKEND"`
	DSN        string `yaml:"dsn" envconfig:"DSN"`
	Library    string `yaml:"library" envconfig:"LIBRARY"`
	ExtractDir string `yaml:"extract_dir" envconfig:"EXTRACT_DIR"`
}

// CleanSettings mirrors the cleaning configuration with file and
// environment bindings.
type CleanSettings struct {
	KeepQuoteConds []string `yaml:"keep_quote_conds" envconfig:"KEEP_QUOTE_CONDS"`

	DeleteCanceledQuotes  bool `yaml:"delete_canceled_quotes" envconfig:"DELETE_CANCELED_QUOTES"`
	DeleteEmptyQuotes     bool `yaml:"delete_empty_quotes" envconfig:"DELETE_EMPTY_QUOTES"`
	DeleteCrossedMarkets  bool `yaml:"delete_crossed_markets" envconfig:"DELETE_CROSSED_MARKETS"`
	DeleteWithdrawnQuotes bool `yaml:"delete_withdrawn_quotes" envconfig:"DELETE_WITHDRAWN_QUOTES"`
	DeleteAbnormalSpreads bool `yaml:"delete_abnormal_spreads" envconfig:"DELETE_ABNORMAL_SPREADS"`
	KeepChangesOnly       bool `yaml:"keep_changes_only" envconfig:"KEEP_CHANGES_ONLY"`
	NBBOOnly              bool `yaml:"nbbo_only" envconfig:"NBBO_ONLY"`
	OutputFlags           bool `yaml:"output_flags" envconfig:"OUTPUT_FLAGS"`
	TrackRetail           bool `yaml:"track_retail" envconfig:"TRACK_RETAIL"`

	MaxSpread      float64 `yaml:"max_spread" envconfig:"MAX_SPREAD"`
	MaxQuoteChange float64 `yaml:"max_quote_change" envconfig:"MAX_QUOTE_CHANGE"`
	CLNVThreshold  float64 `yaml:"clnv_threshold" envconfig:"CLNV_THRESHOLD"`
	Atol           float64 `yaml:"atol" envconfig:"ATOL"`

	QuoteStart time.Duration `yaml:"quote_start" envconfig:"QUOTE_START"`
	QuoteEnd   time.Duration `yaml:"quote_end" envconfig:"QUOTE_END"`
	TradeStart time.Duration `yaml:"trade_start" envconfig:"TRADE_START"`
	TradeEnd   time.Duration `yaml:"trade_end" envconfig:"TRADE_END"`

	RealizedDelay  time.Duration `yaml:"realized_delay" envconfig:"REALIZED_DELAY"`
	RealizedSuffix string        `yaml:"realized_suffix" envconfig:"REALIZED_SUFFIX"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level" envconfig:"LEVEL"`
	// Format is "json" or "text".
	Format string `yaml:"format" envconfig:"FORMAT"`
}

// OutputConfig controls where results are written.
type OutputConfig struct {
	Dir string `yaml:"dir" envconfig:"DIR"`
	// WriteTrades also exports the per-trade rows, which can be large.
	WriteTrades bool `yaml:"write_trades" envconfig:"WRITE_TRADES"`
}

// Default returns the configuration with Holden & Jacobsen cleaning
// defaults, a postgres backend and info-level JSON logging.
func Default() Config {
	c := taq.DefaultCleanConfig()
	return Config{
		Source: SourceConfig{
			Backend: "postgres",
		},
		Clean: CleanSettings{
			KeepQuoteConds:        c.KeepQuoteConds,
			DeleteCanceledQuotes:  c.DeleteCanceledQuotes,
			DeleteEmptyQuotes:     c.DeleteEmptyQuotes,
			DeleteCrossedMarkets:  c.DeleteCrossedMarkets,
			DeleteWithdrawnQuotes: c.DeleteWithdrawnQuotes,
			DeleteAbnormalSpreads: c.DeleteAbnormalSpreads,
			KeepChangesOnly:       c.KeepChangesOnly,
			NBBOOnly:              c.NBBOOnly,
			OutputFlags:           c.OutputFlags,
			TrackRetail:           c.TrackRetail,
			MaxSpread:             c.MaxSpread,
			MaxQuoteChange:        c.MaxQuoteChange,
			CLNVThreshold:         c.CLNVThreshold,
			Atol:                  c.Atol,
			QuoteStart:            c.QuoteStart,
			QuoteEnd:              c.QuoteEnd,
			TradeStart:            c.TradeStart,
			TradeEnd:              c.TradeEnd,
			RealizedDelay:         c.RealizedDelay,
			RealizedSuffix:        c.RealizedSuffix,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Output: OutputConfig{
			Dir: "out",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// if non-empty, then TAQ_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("TAQ", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// CleanConfig converts the file-facing settings into the pipeline's
// value object.
func (c *Config) CleanConfig() taq.CleanConfig {
	s := c.Clean
	return taq.CleanConfig{
		KeepQuoteConds:        s.KeepQuoteConds,
		DeleteCanceledQuotes:  s.DeleteCanceledQuotes,
		DeleteEmptyQuotes:     s.DeleteEmptyQuotes,
		DeleteCrossedMarkets:  s.DeleteCrossedMarkets,
		DeleteWithdrawnQuotes: s.DeleteWithdrawnQuotes,
		DeleteAbnormalSpreads: s.DeleteAbnormalSpreads,
		KeepChangesOnly:       s.KeepChangesOnly,
		NBBOOnly:              s.NBBOOnly,
		OutputFlags:           s.OutputFlags,
		TrackRetail:           s.TrackRetail,
		MaxSpread:             s.MaxSpread,
		MaxQuoteChange:        s.MaxQuoteChange,
		CLNVThreshold:         s.CLNVThreshold,
		Atol:                  s.Atol,
		QuoteStart:            s.QuoteStart,
		QuoteEnd:              s.QuoteEnd,
		TradeStart:            s.TradeStart,
		TradeEnd:              s.TradeEnd,
		RealizedDelay:         s.RealizedDelay,
		RealizedSuffix:        s.RealizedSuffix,
	}
}

func (c *Config) validate() error {
	switch c.Source.Backend {
	case "postgres":
		if c.Source.DSN == "" {
			return fmt.Errorf("source.dsn is required for the postgres backend")
		}
	case "csv":
		if c.Source.ExtractDir == "" {
			return fmt.Errorf("source.extract_dir is required for the csv backend")
		}
	default:
		return fmt.Errorf("unknown source.backend %q", c.Source.Backend)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging.level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown logging.format %q", c.Logging.Format)
	}

	s := c.Clean
	if s.CLNVThreshold < 0 || s.CLNVThreshold > 1 {
		return fmt.Errorf("clean.clnv_threshold %v outside [0, 1]", s.CLNVThreshold)
	}
	if s.Atol < 0 {
		return fmt.Errorf("clean.atol must be non-negative")
	}
	if s.MaxSpread <= 0 {
		return fmt.Errorf("clean.max_spread must be positive")
	}
	if s.QuoteStart >= s.QuoteEnd {
		return fmt.Errorf("clean.quote_start must precede clean.quote_end")
	}
	if s.TradeStart >= s.TradeEnd {
		return fmt.Errorf("clean.trade_start must precede clean.trade_end")
	}
	if s.RealizedDelay <= 0 {
		return fmt.Errorf("clean.realized_delay must be positive")
	}
	return nil
}
