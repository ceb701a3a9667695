package k720

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Verbosity controls how much of the exchange the driver logs.
// Lower values are chattier; LogNone silences the driver entirely.
type Verbosity int

const (
	LogNone Verbosity = iota
	LogTrace
	LogDebug
	LogInfo
	LogWarn
	LogError
	LogFatal
)

var verbosityNames = [...]string{"none", "trace", "debug", "info", "warn", "error", "fatal"}

func (v Verbosity) String() string {
	if v < LogNone || v > LogFatal {
		return fmt.Sprintf("Verbosity(%d)", int(v))
	}
	return verbosityNames[v]
}

// ParseVerbosity accepts the names returned by Verbosity.String.
func ParseVerbosity(s string) (Verbosity, error) {
	for i, name := range verbosityNames {
		if strings.EqualFold(s, name) {
			return Verbosity(i), nil
		}
	}
	return LogNone, fmt.Errorf("k720: unknown verbosity %q", s)
}

// Report summarizes one finished transaction for an Observer.
type Report struct {
	Command  string
	Address  Address
	State    TxState // final state, StateComplete or StateFailed
	Failed   TxState // last state reached before failing
	Duration time.Duration
	Err      error
}

// Observer receives a Report after every transaction that performed I/O.
type Observer interface {
	ObserveTransaction(Report)
}

// Config holds driver settings. Build it with DefaultConfig and Options.
type Config struct {
	Logger    *zap.Logger
	Verbosity Verbosity
	Observer  Observer
}

// Option is a functional option for configuring the driver
type Option func(*Config) error

// DefaultConfig returns a silent configuration.
func DefaultConfig() Config {
	return Config{
		Logger:    zap.NewNop(),
		Verbosity: LogNone,
	}
}

// WithLogger sets the zap logger the driver writes to.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return errors.New("k720: nil logger")
		}
		c.Logger = l
		return nil
	}
}

// WithVerbosity sets the driver verbosity.
func WithVerbosity(v Verbosity) Option {
	return func(c *Config) error {
		if v < LogNone || v > LogFatal {
			return fmt.Errorf("k720: invalid verbosity %d", int(v))
		}
		c.Verbosity = v
		return nil
	}
}

// WithObserver registers a transaction observer, e.g. a metrics collector.
func WithObserver(o Observer) Option {
	return func(c *Config) error {
		c.Observer = o
		return nil
	}
}

func newConfig(opts []Option) (Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}
