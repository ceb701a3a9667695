package serial

import (
	"fmt"
	"time"
)

// WriteMode selects whether writes return once queued or once sent
type WriteMode int

const (
	WriteModeBuffered WriteMode = iota
	WriteModeSynced             // O_SYNC
)

// MaxReadTimeout is the longest timeout VTIME can express.
const MaxReadTimeout = 25500 * time.Millisecond

// Config is the line setup applied when a port is opened
type Config struct {
	BaudRate    int
	DataBits    int
	StopBits    int
	Parity      Parity
	ReadTimeout time.Duration // 100ms resolution, 0 returns immediately
	WriteMode   WriteMode
}

// Option adjusts a Config and rejects values the line cannot take
type Option func(*Config) error

// DefaultConfig is the K720 factory setting: 9600 8N1, one second read timeout
func DefaultConfig() Config {
	return Config{
		BaudRate:    9600,
		DataBits:    8,
		StopBits:    1,
		Parity:      ParityNone,
		ReadTimeout: time.Second,
		WriteMode:   WriteModeBuffered,
	}
}

func newConfig(opts []Option) (Config, error) {
	c := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&c); err != nil {
			return Config{}, err
		}
	}
	return c, nil
}

func (c Config) readTimeoutTenths() uint8 {
	return uint8(c.ReadTimeout / (100 * time.Millisecond))
}

// WithBaudRate sets the baud rate
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if _, err := getBaudRate(rate); err != nil {
			return err
		}
		c.BaudRate = rate
		return nil
	}
}

// WithDataBits sets the character size, 5 to 8 bits
func WithDataBits(bits int) Option {
	return func(c *Config) error {
		if bits < 5 || bits > 8 {
			return fmt.Errorf("%w: %d data bits", ErrInvalidConfig, bits)
		}
		c.DataBits = bits
		return nil
	}
}

func WithStopBits(bits int) Option {
	return func(c *Config) error {
		if bits != 1 && bits != 2 {
			return fmt.Errorf("%w: %d stop bits", ErrInvalidConfig, bits)
		}
		c.StopBits = bits
		return nil
	}
}

func WithParity(parity Parity) Option {
	return func(c *Config) error {
		if parity < ParityNone || parity > ParitySpace {
			return fmt.Errorf("%w: parity %d", ErrInvalidConfig, int(parity))
		}
		c.Parity = parity
		return nil
	}
}

// WithReadTimeout sets the read timeout. It must be a multiple of 100ms
// between 0 and MaxReadTimeout.
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout < 0 || timeout > MaxReadTimeout || timeout%(100*time.Millisecond) != 0 {
			return fmt.Errorf("%w: read timeout %v", ErrInvalidConfig, timeout)
		}
		c.ReadTimeout = timeout
		return nil
	}
}

func WithWriteMode(mode WriteMode) Option {
	return func(c *Config) error {
		c.WriteMode = mode
		return nil
	}
}

// WithSyncWrite makes Write block until the bytes have left the UART
func WithSyncWrite() Option {
	return WithWriteMode(WriteModeSynced)
}
