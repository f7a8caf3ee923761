package env

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrConfiguration is wrapped by every configuration error.
var ErrConfiguration = errors.New("invalid configuration")

// Environment variables read by LoadConfig.
const (
	VarConfigFile    = "EVALUATOR_CONFIG"
	VarTestTimeoutMs = "EVALUATOR_TEST_TIMEOUT_MS"
	VarHardInterrupt = "EVALUATOR_HARD_INTERRUPT"
	VarMaxParallel   = "EVALUATOR_MAX_PARALLEL"
	VarListenAddr    = "EVALUATOR_LISTEN_ADDR"
	VarBankDir       = "EVALUATOR_BANK_DIR"
	VarProgressFile  = "EVALUATOR_PROGRESS_FILE"
	VarHistoryFile   = "EVALUATOR_HISTORY_FILE"
	VarLogDir        = "EVALUATOR_LOG_DIR"
	VarLogFormat     = "EVALUATOR_LOG_FORMAT"
	VarVerbose       = "EVALUATOR_VERBOSE"
)

// Log formats.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// Config holds the evaluator binary's settings.
type Config struct {
	// TestTimeout bounds each test predicate. Default 3000ms.
	TestTimeout time.Duration `yaml:"test_timeout"`
	// HardInterrupt enables preemption of synchronous runaway
	// code.
	HardInterrupt bool `yaml:"hard_interrupt"`
	// MaxParallel bounds concurrent evaluations in batch runs and
	// in the server.
	MaxParallel int    `yaml:"max_parallel"`
	ListenAddr  string `yaml:"listen_addr"`
	BankDir     string `yaml:"bank_dir"`
	// ProgressFile enables completion tracking when set.
	ProgressFile string `yaml:"progress_file"`
	HistoryFile  string `yaml:"history_file"`
	// LogDir, when set, receives JSON log files in addition to
	// the console output.
	LogDir    string `yaml:"log_dir"`
	LogFormat string `yaml:"log_format"`
	Verbose   bool   `yaml:"verbose"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		TestTimeout: 3000 * time.Millisecond,
		MaxParallel: 4,
		ListenAddr:  ":8090",
		BankDir:     "lessons",
		LogFormat:   LogFormatConsole,
	}
}

// LoadConfig builds a Config from defaults, then the YAML file at
// path (or $EVALUATOR_CONFIG when path is empty), then
// environment overrides read through l, and validates the result.
func LoadConfig(l Loader, path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		path = l.Get(VarConfigFile)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", ErrConfiguration, path, err)
		}
	}

	if err := applyEnvOverrides(l, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(l Loader, cfg *Config) error {
	var errs []error

	if d, ok, err := lookupMillis(l, VarTestTimeoutMs); err != nil {
		errs = append(errs, err)
	} else if ok {
		cfg.TestTimeout = d
	}
	if b, ok, err := lookupBool(l, VarHardInterrupt); err != nil {
		errs = append(errs, err)
	} else if ok {
		cfg.HardInterrupt = b
	}
	if n, ok, err := lookupInt(l, VarMaxParallel); err != nil {
		errs = append(errs, err)
	} else if ok {
		cfg.MaxParallel = n
	}
	if b, ok, err := lookupBool(l, VarVerbose); err != nil {
		errs = append(errs, err)
	} else if ok {
		cfg.Verbose = b
	}

	stringVars := map[string]*string{
		VarListenAddr:   &cfg.ListenAddr,
		VarBankDir:      &cfg.BankDir,
		VarProgressFile: &cfg.ProgressFile,
		VarHistoryFile:  &cfg.HistoryFile,
		VarLogDir:       &cfg.LogDir,
		VarLogFormat:    &cfg.LogFormat,
	}
	for key, field := range stringVars {
		if v := l.Get(key); v != "" {
			*field = v
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrConfiguration, errors.Join(errs...))
	}
	return nil
}

// Validate checks the configuration. Every error wraps
// ErrConfiguration.
func (c *Config) Validate() error {
	var errs []error

	if c.TestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("test_timeout must be > 0, got %v", c.TestTimeout))
	}
	if c.MaxParallel <= 0 {
		errs = append(errs, fmt.Errorf("max_parallel must be > 0, got %d", c.MaxParallel))
	}
	switch c.LogFormat {
	case LogFormatConsole, LogFormatJSON:
	default:
		errs = append(errs, fmt.Errorf(
			"log_format must be %q or %q, got %q",
			LogFormatConsole, LogFormatJSON, c.LogFormat,
		))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrConfiguration, errors.Join(errs...))
	}
	return nil
}
