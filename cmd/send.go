/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/allbin/go-k720"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [command]",
	Short: "Send a raw command payload to the dispenser",
	Long: `Send an arbitrary command payload and print the response payload.

The payload is framed, acknowledged and enquired like every other command.
It can be given as an argument, piped on stdin or typed at a prompt.

Example usage:
  k720 send FC7
  k720 send --hex 3b31
  echo DC | k720 send`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hexMode, _ := cmd.Flags().GetBool("hex")
		showFrames, _ := cmd.Flags().GetBool("frames")

		data, err := readCommand(args, os.Stdin)
		if err != nil {
			return err
		}

		payload := []byte(data)
		if hexMode {
			if payload, err = parseHexString(data); err != nil {
				return err
			}
		}

		return withDevice(func(dev *k720.Device) error {
			tx := dev.Transact("send", payload)
			if showFrames {
				fmt.Println(labelStyle.Render(k720.FormatPacket("sent:     ", tx.Request)))
				if tx.Response != nil {
					fmt.Println(labelStyle.Render(k720.FormatPacket("received: ", tx.Response.Bytes())))
				}
			}
			if tx.Err != nil {
				return fmt.Errorf("%s failed in state %s: %w", tx.Command, tx.FailedAt(), tx.Err)
			}
			printPayload(fmt.Sprintf("%d byte reply in %s", len(tx.Result), tx.Duration), tx.Result)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().BoolP("hex", "x", false, "Interpret the command as hexadecimal (e.g. '3b31')")
	sendCmd.Flags().Bool("frames", false, "Print the raw command and response frames")
}

// readCommand takes the payload from args, a pipe, or an interactive prompt
func readCommand(args []string, stdin *os.File) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	stat, err := stdin.Stat()
	if err == nil && stat.Mode()&os.ModeCharDevice == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}

	fmt.Print(infoStyle.Render("Command to send: "))
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	return "", k720.ErrEmptyPayload
}
