/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/allbin/go-k720"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Read the dispenser firmware version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(dev *k720.Device) error {
			version, err := dev.GetSysVersion()
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", successStyle.Render("✓"), version)
			return nil
		})
	},
}

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run the RF status check",
	Long: `Run the RF status check and print the folded sensor state.

The reply's status characters are folded four bits per character into a
16-bit state; each set bit is printed with its description.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(dev *k720.Device) error {
			status, err := dev.Query()
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", labelStyle.Render("status:"), printable(status))
			printState(k720.CalculateState(status))
			return nil
		})
	},
}

// sensorCmd represents the sensor command
var sensorCmd = &cobra.Command{
	Use:   "sensor",
	Short: "Run the AP advanced sensor check",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(dev *k720.Device) error {
			state, err := dev.State()
			if err != nil {
				return err
			}
			printState(state)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(sensorCmd)
}
