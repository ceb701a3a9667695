/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/allbin/go-k720"
)

// cardOps maps a card type to its detect and read-id calls
type cardOps struct {
	detect func(*k720.Device) ([]byte, error)
	id     func(*k720.Device) ([]byte, error)
}

var cardTypes = map[string]cardOps{
	"s50": {(*k720.Device).S50DetectCard, (*k720.Device).S50GetCardID},
	"s70": {(*k720.Device).S70DetectCard, (*k720.Device).S70GetCardID},
	"ul":  {(*k720.Device).ULDetectCard, (*k720.Device).ULGetCardID},
}

func lookupCardType(name string) (cardOps, error) {
	ops, ok := cardTypes[strings.ToLower(name)]
	if !ok {
		return cardOps{}, fmt.Errorf("unknown card type %q (want s50, s70 or ul)", name)
	}
	return ops, nil
}

// cardCmd represents the card command
var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Contactless card operations",
	Long: `Detect a contactless card at the read position or read its id.

Supported card types are Mifare S50, S70 and Ultralight. Move the card to
the read position first with 'k720 move read'.`,
}

var cardDetectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Check whether a card is at the read position",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCardOp(cmd, func(ops cardOps) func(*k720.Device) ([]byte, error) { return ops.detect })
	},
}

var cardIDCmd = &cobra.Command{
	Use:   "id",
	Short: "Read the card serial number",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCardOp(cmd, func(ops cardOps) func(*k720.Device) ([]byte, error) { return ops.id })
	},
}

func runCardOp(cmd *cobra.Command, pick func(cardOps) func(*k720.Device) ([]byte, error)) error {
	typeName, _ := cmd.Flags().GetString("type")
	ops, err := lookupCardType(typeName)
	if err != nil {
		return err
	}
	op := pick(ops)

	return withDevice(func(dev *k720.Device) error {
		data, err := op(dev)
		if err != nil {
			return err
		}
		return printCardReply(data)
	})
}

func printCardReply(data []byte) error {
	reply, err := k720.ParseCardReply(data)
	if err != nil {
		return err
	}
	if !reply.OK {
		fmt.Printf("%s reader status %q\n", errorStyle.Render("✗"), reply.Status)
		return nil
	}
	if len(reply.CardID) == 0 {
		fmt.Printf("%s card present\n", successStyle.Render("✓"))
		return nil
	}
	fmt.Printf("%s card %s\n", successStyle.Render("✓"), strings.ToUpper(hex.EncodeToString(reply.CardID)))
	return nil
}

func init() {
	rootCmd.AddCommand(cardCmd)
	cardCmd.AddCommand(cardDetectCmd)
	cardCmd.AddCommand(cardIDCmd)

	cardCmd.PersistentFlags().String("type", "s50", "Card type: s50, s70, ul")
}
