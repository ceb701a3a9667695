package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/allbin/go-k720"
	"github.com/allbin/go-k720/serial"
)

// EnvPrefix is prepended to every environment override, e.g. K720_SERIAL_PORT.
const EnvPrefix = "K720"

// SerialConfig selects and configures the line to the dispenser
type SerialConfig struct {
	Port         string        `mapstructure:"port"`
	SerialNumber string        `mapstructure:"serialNumber"` // USB adapter serial, overrides port
	BaudRate     int           `mapstructure:"baudRate"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	Backend      string        `mapstructure:"backend"`
}

// DeviceConfig holds driver settings
type DeviceConfig struct {
	Address   int    `mapstructure:"address"`
	Verbosity string `mapstructure:"verbosity"`
}

// LumberjackConfig configures log file rotation. An empty filename disables the file sink.
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig holds log level and output settings
type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

// MetricsConfig controls the Prometheus endpoint served by operate
type MetricsConfig struct {
	Addr string `mapstructure:"addr"` // empty disables the endpoint
	Path string `mapstructure:"path"`
}

// OperateConfig paces the card-handling loop
type OperateConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	Burst        int           `mapstructure:"burst"`
	PollAttempts int           `mapstructure:"pollAttempts"`
}

// Config is the top-level CLI configuration
type Config struct {
	Serial  SerialConfig  `mapstructure:"serial"`
	Device  DeviceConfig  `mapstructure:"device"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Operate OperateConfig `mapstructure:"operate"`
}

// New returns a viper instance with defaults and K720_ environment overrides
// applied. Callers bind command-line flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path (YAML, TOML or JSON) into v and decodes the result. With an
// empty path, k720.yaml is looked up in the working directory,
// $HOME/.config/k720 and /etc/k720; a missing file there is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("k720")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/k720")
		v.AddConfigPath("/etc/k720")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the driver would otherwise reject at open time
func (c *Config) Validate() error {
	if _, err := c.Address(); err != nil {
		return err
	}
	if _, err := c.Verbosity(); err != nil {
		return err
	}
	if _, err := c.Backend(); err != nil {
		return err
	}
	if _, err := c.SerialOptions(); err != nil {
		return fmt.Errorf("serial: %w", err)
	}
	if c.Operate.Interval <= 0 {
		return fmt.Errorf("operate.interval must be positive, got %v", c.Operate.Interval)
	}
	if c.Operate.Burst < 1 {
		return fmt.Errorf("operate.burst must be at least 1, got %d", c.Operate.Burst)
	}
	if c.Operate.PollAttempts < 1 {
		return fmt.Errorf("operate.pollAttempts must be at least 1, got %d", c.Operate.PollAttempts)
	}
	return nil
}

// Address returns the configured dispenser address
func (c *Config) Address() (k720.Address, error) {
	addr := k720.Address(c.Device.Address)
	if err := addr.Validate(); err != nil {
		return 0, err
	}
	return addr, nil
}

// Verbosity returns the configured driver verbosity
func (c *Config) Verbosity() (k720.Verbosity, error) {
	return k720.ParseVerbosity(c.Device.Verbosity)
}

// Backend returns the configured serial backend
func (c *Config) Backend() (serial.Backend, error) {
	return serial.ParseBackend(c.Serial.Backend)
}

// SerialOptions converts the serial section into port options and checks them
func (c *Config) SerialOptions() ([]serial.Option, error) {
	opts := []serial.Option{
		serial.WithBaudRate(c.Serial.BaudRate),
		serial.WithReadTimeout(c.Serial.ReadTimeout),
	}
	probe := serial.DefaultConfig()
	for _, opt := range opts {
		if err := opt(&probe); err != nil {
			return nil, err
		}
	}
	return opts, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("serial.port", "/dev/ttyS0")
	v.SetDefault("serial.serialNumber", "")
	v.SetDefault("serial.baudRate", 9600)
	v.SetDefault("serial.readTimeout", "1s")
	v.SetDefault("serial.backend", string(serial.BackendTermios))

	v.SetDefault("device.address", 15)
	v.SetDefault("device.verbosity", k720.LogWarn.String())

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.maxSize", 10)
	v.SetDefault("logging.file.maxBackups", 5)
	v.SetDefault("logging.file.maxAge", 30)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("metrics.addr", "")
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("operate.interval", "500ms")
	v.SetDefault("operate.burst", 1)
	v.SetDefault("operate.pollAttempts", 20)
}
