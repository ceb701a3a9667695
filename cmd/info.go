/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/allbin/go-k720"
	"github.com/allbin/go-k720/serial"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info [port]",
	Short: "Display details about a serial port",
	Long: `Display details about a serial port, including USB metadata read from
sysfs. Without an argument the configured port is shown.

With --probe the dispenser at --address is asked for its firmware version
over that port.

Examples:
  k720 info /dev/ttyUSB0
  k720 info --serial-number A10K5XYZ --probe`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		probe, _ := cmd.Flags().GetBool("probe")

		if len(args) == 1 {
			cfg.Serial.Port = args[0]
			cfg.Serial.SerialNumber = ""
		}
		portPath, err := resolvePort(cfg)
		if err != nil {
			return err
		}

		info, err := serial.GetPortInfo(portPath)
		if err != nil {
			return err
		}

		fmt.Printf("Port Information: %s\n\n", info.Path)
		field("Name", info.Name)
		field("Description", info.Description)

		if info.IsUSB() {
			fmt.Println("\nUSB Device Information:")
			field("Vendor ID", info.VendorID)
			field("Product ID", info.ProductID)
			field("Serial", info.SerialNumber)
			field("Interface", info.InterfaceNumber)
			field("Bus", info.BusNumber)
			field("Device", info.DeviceNumber)
			field("Manufacturer", info.Manufacturer)
			field("Product", info.Product)
		}

		if !probe {
			return nil
		}
		fmt.Println()
		return withDevice(func(dev *k720.Device) error {
			version, err := dev.GetSysVersion()
			if err != nil {
				return fmt.Errorf("probe %s: %w", dev.Address(), err)
			}
			fmt.Printf("%s dispenser %s answered\n", successStyle.Render("✓"), dev.Address())
			field("Firmware", version)
			return nil
		})
	},
}

// field prints a label/value line, skipping empty values
func field(label, value string) {
	if value == "" {
		return
	}
	fmt.Printf("  %s %s\n", labelStyle.Render(fmt.Sprintf("%-13s", label+":")), value)
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().Bool("probe", false, "Ask the dispenser for its firmware version")
}
