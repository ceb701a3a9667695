/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/allbin/go-k720"
)

// loadKeyCmd represents the loadkey command
var loadKeyCmd = &cobra.Command{
	Use:   "loadkey",
	Short: "Authenticate an S50 sector with a key",
	Long: `Load a six byte sector key into the reader and authenticate the sector
of the S50 card at the read position.

Example usage:
  k720 loadkey --sector 1 --key-type a --key FFFFFFFFFFFF`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sector, _ := cmd.Flags().GetUint8("sector")
		keyTypeName, _ := cmd.Flags().GetString("key-type")
		keyHex, _ := cmd.Flags().GetString("key")

		keyType, err := parseKeyType(keyTypeName)
		if err != nil {
			return err
		}
		key, err := parseHexString(keyHex)
		if err != nil {
			return fmt.Errorf("%w: %v", k720.ErrInvalidKey, err)
		}
		// validate before touching the line
		if _, err := k720.LoadSecKeyPayload(sector, keyType, key); err != nil {
			return err
		}

		return withDevice(func(dev *k720.Device) error {
			data, err := dev.S50LoadSecKey(sector, keyType, key)
			if err != nil {
				return err
			}
			return printCardReply(data)
		})
	},
}

func parseKeyType(s string) (k720.KeyType, error) {
	switch strings.ToLower(s) {
	case "a":
		return k720.KeyA, nil
	case "b":
		return k720.KeyB, nil
	default:
		return 0, fmt.Errorf("%w: key type %q (want a or b)", k720.ErrInvalidKey, s)
	}
}

func init() {
	rootCmd.AddCommand(loadKeyCmd)

	loadKeyCmd.Flags().Uint8("sector", 0, "Sector number")
	loadKeyCmd.Flags().String("key-type", "a", "Key type: a or b")
	loadKeyCmd.Flags().String("key", "FFFFFFFFFFFF", "Sector key as 12 hex digits")
}
