/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/allbin/go-k720"
	"github.com/allbin/go-k720/internal/config"
	"github.com/allbin/go-k720/serial"
)

var (
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("40")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// resolvePort returns the device path, looking it up by adapter serial
// number when one is configured
func resolvePort(c *config.Config) (string, error) {
	if c.Serial.SerialNumber == "" {
		return c.Serial.Port, nil
	}
	info, err := serial.FindBySerialNumber(c.Serial.SerialNumber)
	if err != nil {
		return "", err
	}
	return info.Path, nil
}

// openDevice opens the configured line and wraps it in a Device
func openDevice(c *config.Config, l *zap.Logger, extra ...k720.Option) (*k720.Device, string, error) {
	path, err := resolvePort(c)
	if err != nil {
		return nil, "", err
	}
	backend, err := c.Backend()
	if err != nil {
		return nil, "", err
	}
	serialOpts, err := c.SerialOptions()
	if err != nil {
		return nil, "", err
	}
	addr, err := c.Address()
	if err != nil {
		return nil, "", err
	}
	verbosity, err := c.Verbosity()
	if err != nil {
		return nil, "", err
	}

	port, err := serial.OpenWith(backend, path, serialOpts...)
	if err != nil {
		return nil, "", err
	}

	opts := append([]k720.Option{k720.WithLogger(l), k720.WithVerbosity(verbosity)}, extra...)
	dev, err := k720.NewDevice(port, addr, opts...)
	if err != nil {
		port.Close()
		return nil, "", err
	}

	l.Debug("device opened",
		zap.String("port", path),
		zap.String("backend", string(backend)),
		zap.Stringer("address", addr),
	)
	return dev, path, nil
}

// withDevice runs fn against the configured dispenser and closes it afterwards
func withDevice(fn func(dev *k720.Device) error) error {
	dev, _, err := openDevice(cfg, logger)
	if err != nil {
		return err
	}
	defer dev.Close()
	return fn(dev)
}

// parseHexString accepts "3b31", "3B 31" or "0x3b 0x31"
func parseHexString(hexStr string) ([]byte, error) {
	hexStr = strings.ReplaceAll(hexStr, " ", "")
	hexStr = strings.ReplaceAll(hexStr, "0x", "")
	hexStr = strings.ReplaceAll(hexStr, "0X", "")

	if len(hexStr)%2 != 0 {
		return nil, fmt.Errorf("hex string must have even length")
	}
	data, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %v", err)
	}
	return data, nil
}

// printable replaces non-printable bytes with a middle dot
func printable(data []byte) string {
	return strings.Map(func(r rune) rune {
		if r < 32 || r > 126 {
			return '·'
		}
		return r
	}, string(data))
}

func printPayload(label string, data []byte) {
	fmt.Printf("%s %s\n", successStyle.Render("✓"), label)
	fmt.Printf("  %s %s\n", labelStyle.Render("hex:  "), strings.TrimSpace(k720.FormatPacket("", data)))
	fmt.Printf("  %s %s\n", labelStyle.Render("ascii:"), printable(data))
}

func printState(state k720.SensorState) {
	fmt.Printf("%s state 0x%04x\n", successStyle.Render("✓"), uint16(state))
	descs := state.Descriptions()
	if len(descs) == 0 {
		fmt.Printf("  %s\n", labelStyle.Render("no flags set"))
		return
	}
	for _, d := range descs {
		fmt.Printf("  %s %s\n", infoStyle.Render("•"), d)
	}
}
