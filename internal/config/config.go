package config

import (
	"errors"
	"fmt"
	"runtime"
	"unicode/utf8"

	"github.com/screa/bc1q-miner/internal/crypto"
)

// Defaults
const (
	DefaultBatchSize      = 10000
	DefaultReportInterval = 100000
	DefaultWorkerFraction = 0.5
)

// Errors
var (
	ErrNoSuffix       = errors.New("must specify the address prefix to match")
	ErrBatchSize      = errors.New("batch size must be positive")
	ErrReportInterval = errors.New("report interval must be a positive multiple of the batch size")
)

// InvalidCharError reports the first suffix character outside the bech32 alphabet.
// Raw holds the offending bytes as they appeared in the input.
type InvalidCharError struct {
	Char rune
	Raw  string
}

func (e *InvalidCharError) Error() string {
	switch {
	case e.Raw == "":
		return fmt.Sprintf("invalid char: %c", e.Char)
	case !utf8.ValidString(e.Raw):
		return fmt.Sprintf("invalid char: %q", e.Raw)
	}
	return "invalid char: " + e.Raw
}

// NewInvalidCharError returns an error for the first invalid character of s,
// or nil when s only holds alphabet characters.
func NewInvalidCharError(s string) *InvalidCharError {
	i := crypto.FirstInvalidIndex(s)
	if i < 0 {
		return nil
	}
	r, size := utf8.DecodeRuneInString(s[i:])
	return &InvalidCharError{Char: r, Raw: s[i : i+size]}
}

// Config holds the application configuration
type Config struct {
	Suffix         string
	HasSuffix      bool // false when no positional argument was given
	Workers        int
	WorkerFraction float64
	BatchSize      uint64
	ReportInterval uint64
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		WorkerFraction: DefaultWorkerFraction,
		BatchSize:      DefaultBatchSize,
		ReportInterval: DefaultReportInterval,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if !c.HasSuffix {
		return ErrNoSuffix
	}
	if err := NewInvalidCharError(c.Suffix); err != nil {
		return err
	}
	if c.BatchSize == 0 {
		return ErrBatchSize
	}
	if c.ReportInterval == 0 || c.ReportInterval%c.BatchSize != 0 {
		return ErrReportInterval
	}
	return nil
}

// Prefix returns the full target prefix, the fixed segment followed by the suffix unmodified
func (c *Config) Prefix() string {
	return crypto.RequiredPrefix + c.Suffix
}

// WorkerCount returns Workers when set, otherwise the configured fraction of
// available CPUs, never less than one.
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	n := int(float64(runtime.NumCPU()) * c.WorkerFraction)
	if n < 1 {
		n = 1
	}
	return n
}
