/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/allbin/go-k720"
)

// moveCmd represents the move command
var moveCmd = &cobra.Command{
	Use:       "move <outside|take|sensor2|read|front-enter>",
	Short:     "Transport the card to a position",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"outside", "take", "sensor2", "read", "front-enter"},
	RunE: func(cmd *cobra.Command, args []string) error {
		pos, err := k720.ParsePosition(args[0])
		if err != nil {
			return err
		}
		return withDevice(func(dev *k720.Device) error {
			data, err := dev.MoveCard(pos)
			if err != nil {
				return err
			}
			printPayload(fmt.Sprintf("card moved to %s", pos), data)
			return nil
		})
	},
}

// simpleCommand builds a command that runs one catalog call and prints the reply
func simpleCommand(use, short, done string, call func(*k720.Device) ([]byte, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDevice(func(dev *k720.Device) error {
				data, err := call(dev)
				if err != nil {
					return err
				}
				printPayload(done, data)
				return nil
			})
		},
	}
}

func init() {
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(simpleCommand("reset", "Reset the dispenser mechanism", "dispenser reset", (*k720.Device).Reset))
	rootCmd.AddCommand(simpleCommand("dispense", "Dispense a card to the front", "card dispensed", (*k720.Device).DispenseCard))
	rootCmd.AddCommand(simpleCommand("recycle", "Capture the card into the recycling box", "card recycled", (*k720.Device).RecycleCard))
}
