/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/allbin/go-k720/serial"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List serial ports a dispenser could be attached to",
	Long: `List the serial ports on the system.

USB adapters (ttyUSB*, ttyACM*), standard UARTs (ttyS*) and SoC ports
(ttyAMA* and friends) are listed; virtual terminals and pseudo-terminals are
not. With --table the USB vendor/product ids and adapter serial numbers are
shown, which is what --serial-number matches against.

--portable asks the portable backend for its port list instead of scanning
/dev.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filterType, _ := cmd.Flags().GetString("filter")
		tableFormat, _ := cmd.Flags().GetBool("table")
		portable, _ := cmd.Flags().GetBool("portable")

		list := serial.ListPorts
		if portable {
			list = serial.ListPortsPortable
		}
		ports, err := list()
		if err != nil {
			return fmt.Errorf("listing ports: %w", err)
		}

		ports = filterPorts(ports, filterType)
		if len(ports) == 0 {
			if filterType != "" && filterType != "all" {
				fmt.Printf("No serial ports found matching filter: %s\n", filterType)
			} else {
				fmt.Println("No serial ports found")
			}
			return nil
		}

		if tableFormat {
			renderTable(ports)
		} else {
			for _, port := range ports {
				fmt.Println(port)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringP("filter", "f", "", "Filter by port type: usb, standard, arm, all")
	listCmd.Flags().BoolP("table", "T", false, "Display output in a styled table with USB details")
	listCmd.Flags().Bool("portable", false, "Use the portable backend's port enumeration")
}

// filterPorts keeps the ports of the given class
func filterPorts(ports []string, filterType string) []string {
	filterType = strings.ToLower(filterType)
	if filterType == "" || filterType == "all" {
		return ports
	}

	var filtered []string
	for _, port := range ports {
		if serial.PortClass(port) == filterType {
			filtered = append(filtered, port)
		}
	}
	return filtered
}

func renderTable(ports []string) {
	fmt.Printf("Found %d serial port(s):\n\n", len(ports))

	const row = "%-15s %-24s %-10s %s"

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("240"))

	fmt.Println(headerStyle.Render(fmt.Sprintf(row, "Port", "Description", "VID:PID", "Serial")))

	for _, port := range ports {
		info, err := serial.GetPortInfo(port)
		if err != nil {
			fmt.Println(errorStyle.Render(fmt.Sprintf(row, port, "unavailable", "-", err)))
			continue
		}

		ids, sn := "-", "-"
		if info.IsUSB() {
			ids = info.VendorID + ":" + info.ProductID
		}
		if info.SerialNumber != "" {
			sn = info.SerialNumber
		}
		fmt.Printf(row+"\n", info.Name, info.Description, ids, sn)
	}
}
