/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/allbin/go-k720/internal/config"
	"github.com/allbin/go-k720/internal/logging"
)

var (
	cfgFile string
	v       = config.New()
	cfg     *config.Config
	logger  = zap.NewNop()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "k720",
	Short: "Drive a K720 card dispenser over RS-232",
	Long: `k720 talks to K720 card dispensers and their built-in Mifare readers.

Every command performs one or more command/ACK/ENQ/response exchanges with
the dispenser at --address on --port. Settings are read from k720.yaml
(./, $HOME/.config/k720 or /etc/k720), K720_* environment variables and
flags, in increasing order of precedence.

Examples:
  k720 list --table
  k720 sensor --port /dev/ttyUSB0
  k720 card id --type s50
  k720 operate --metrics-addr :9720`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("✗"), err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: k720.yaml in ., $HOME/.config/k720, /etc/k720)")
	pf.StringP("port", "p", "", "serial device the dispenser is attached to")
	pf.String("serial-number", "", "select the port by USB adapter serial number")
	pf.IntP("baud", "b", 0, "baud rate (default 9600)")
	pf.IntP("address", "a", 0, "dispenser address 0-15 (default 15)")
	pf.DurationP("timeout", "t", 0, "read timeout in 100ms steps (default 1s)")
	pf.String("backend", "", "serial backend: termios or portable")
	pf.StringP("verbosity", "V", "", "driver verbosity: none, trace, debug, info, warn, error, fatal")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: console or json")
	pf.String("log-file", "", "also write logs to this file, rotated")

	bindFlag(v, "serial.port", "port")
	bindFlag(v, "serial.serialNumber", "serial-number")
	bindFlag(v, "serial.baudRate", "baud")
	bindFlag(v, "device.address", "address")
	bindFlag(v, "serial.readTimeout", "timeout")
	bindFlag(v, "serial.backend", "backend")
	bindFlag(v, "device.verbosity", "verbosity")
	bindFlag(v, "logging.level", "log-level")
	bindFlag(v, "logging.format", "log-format")
	bindFlag(v, "logging.file.filename", "log-file")
}

func bindFlag(v *viper.Viper, key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

// setup loads configuration and builds the logger before any command runs
func setup() error {
	loaded, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	verbosity, err := loaded.Verbosity()
	if err != nil {
		return err
	}
	l, err := logging.New(loaded.Logging, verbosity)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}

	cfg = loaded
	logger = l
	return nil
}
