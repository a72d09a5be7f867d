// =============================================================================
// Shop Payment Reports - Configuration Module
// =============================================================================
//
// This module is responsible for loading and validating the application
// configuration. The configuration is a single YAML file (config.yaml by
// default). Every option has a default, so the tool runs without a config
// file at all.
//
// CONFIGURATION FILE EXAMPLE:
//   customers_file: ./input/customer.csv
//   payments_file:  ./input/payments.csv
//   output_dir:     ./reports
//   top_n:          2
//   valid_shop_ids: [WS01, WS02]
//
// PRECEDENCE:
//   defaults < config file < command line flags
//   Flags are applied by the cmd package after Load returns.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application configuration.
type Config struct {
	// =========================================================================
	// INPUT SETTINGS
	// =========================================================================

	// CustomersFile is the customer source.
	// Each line: shopId;customerId;name;address
	// Default: "./input/customer.csv"
	CustomersFile string `yaml:"customers_file"`

	// PaymentsFile is the payment source.
	// Each line: shopId;customerId;method;amount;bankAccount;cardNumber;date
	// Default: "./input/payments.csv"
	PaymentsFile string `yaml:"payments_file"`

	// Delimiter separates fields within a line.
	// Default: ";"
	Delimiter string `yaml:"delimiter"`

	// DateLayout is the Go time layout of the payment date.
	// Default: "2006.01.02" (yyyy.MM.dd)
	DateLayout string `yaml:"date_layout"`

	// ValidShopIDs is the whitelist of shop identifiers accepted in the
	// customer source.
	// Default: ["WS01", "WS02"]
	ValidShopIDs []string `yaml:"valid_shop_ids"`

	// LenientSources treats an unreadable source as empty input instead of
	// failing the run. The error is still logged.
	// Default: false
	LenientSources bool `yaml:"lenient_sources"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputDir is the directory the reports are written to.
	// Default: "./reports"
	OutputDir string `yaml:"output_dir"`

	// CustomerReport is the file name of the per-customer totals report.
	// Default: "report01.csv"
	CustomerReport string `yaml:"customer_report"`

	// TopReport is the file name of the top-N customers report.
	// Default: "top.csv"
	TopReport string `yaml:"top_report"`

	// ShopReport is the file name of the per-shop totals report.
	// Default: "report02.csv"
	ShopReport string `yaml:"shop_report"`

	// TopN is the number of customers in the top report.
	// A value below 1 disables the top report.
	// Default: 2 (only applied when the key is absent)
	TopN *int `yaml:"top_n"`

	// XLSXReport additionally writes all three reports into one workbook.
	// Default: false
	XLSXReport bool `yaml:"xlsx_report"`

	// XLSXFile is the file name of the workbook.
	// Default: "reports.xlsx"
	XLSXFile string `yaml:"xlsx_file"`

	// RejectionLog writes every rejected record to rejections.log.
	// Default: false
	RejectionLog bool `yaml:"rejection_log"`

	// SummaryLog writes a run summary to run_summary.txt.
	// Default: false
	SummaryLog bool `yaml:"summary_log"`

	// ArchiveDir, when set, receives a copy of both input files after a
	// successful run, in a date-based subdirectory.
	// Default: "" (archival disabled)
	ArchiveDir string `yaml:"archive_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat selects the log line format.
	// Valid values: "text", "logfmt", "json"
	// Default: "text"
	LogFormat string `yaml:"log_format"`
}

// DefaultTopN is the size of the top report when none is configured.
const DefaultTopN = 2

// DefaultValidShopIDs is the shop whitelist used when none is configured.
var DefaultValidShopIDs = []string{"WS01", "WS02"}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the configuration from a YAML file.
//
// PARAMETERS:
//   - path: The path to the configuration file.
//   - optional: If true, a missing file yields the default configuration.
//
// RETURNS:
//   - A pointer to the Config struct with defaults applied.
//   - An error if the file cannot be read, parsed or validated.
func Load(path string, optional bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes a YAML document into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	if cfg.CustomersFile == "" {
		cfg.CustomersFile = "./input/customer.csv"
	}
	if cfg.PaymentsFile == "" {
		cfg.PaymentsFile = "./input/payments.csv"
	}
	if cfg.Delimiter == "" {
		cfg.Delimiter = ";"
	}
	if cfg.DateLayout == "" {
		cfg.DateLayout = "2006.01.02"
	}
	if len(cfg.ValidShopIDs) == 0 {
		cfg.ValidShopIDs = slices.Clone(DefaultValidShopIDs)
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./reports"
	}
	if cfg.CustomerReport == "" {
		cfg.CustomerReport = "report01.csv"
	}
	if cfg.TopReport == "" {
		cfg.TopReport = "top.csv"
	}
	if cfg.ShopReport == "" {
		cfg.ShopReport = "report02.csv"
	}
	if cfg.TopN == nil {
		n := DefaultTopN
		cfg.TopN = &n
	}
	if cfg.XLSXFile == "" {
		cfg.XLSXFile = "reports.xlsx"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
}

// Validate checks the configuration for values the pipeline cannot work with.
func (c *Config) Validate() error {
	if c.Delimiter == "" {
		return fmt.Errorf("%w: delimiter must not be empty", ErrInvalidConfig)
	}

	for _, id := range c.ValidShopIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: valid_shop_ids contains a blank entry", ErrInvalidConfig)
		}
		if strings.Contains(id, c.Delimiter) {
			return fmt.Errorf("%w: shop id %q contains the delimiter", ErrInvalidConfig, id)
		}
	}

	// A layout that cannot format and re-parse a fixed date would reject
	// every payment.
	probe := time.Date(2021, time.March, 14, 0, 0, 0, 0, time.UTC)
	if parsed, err := time.Parse(c.DateLayout, probe.Format(c.DateLayout)); err != nil || !parsed.Equal(probe) {
		return fmt.Errorf("%w: date_layout %q is not a usable date layout", ErrInvalidConfig, c.DateLayout)
	}

	reports := map[string]string{
		"customer_report": c.CustomerReport,
		"top_report":      c.TopReport,
		"shop_report":     c.ShopReport,
	}
	seen := make(map[string]string, len(reports))
	for _, key := range []string{"customer_report", "top_report", "shop_report"} {
		name := reports[key]
		if other, dup := seen[name]; dup {
			return fmt.Errorf("%w: %s and %s both write %q", ErrInvalidConfig, other, key, name)
		}
		seen[name] = key
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "logfmt", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}

	return nil
}

// TopCount returns the configured top report size.
func (c *Config) TopCount() int {
	if c.TopN == nil {
		return DefaultTopN
	}
	return *c.TopN
}

// SetTopCount overrides the top report size.
func (c *Config) SetTopCount(n int) {
	c.TopN = &n
}
