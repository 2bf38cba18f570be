/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	serial "github.com/allbin/serial-counter"
	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <port>",
	Short: "Display information about a serial port",
	Long: `Display what the system knows about a serial port.

Examples:
  serialcount info /dev/ttyUSB0
  serialcount info /dev/ttyACM0

The kernel driver and, for USB devices, the vendor and product IDs are
read from sysfs.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		info, err := serial.GetPortInfo(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting port info: %v\n", err)
			os.Exit(1)
		}
		printPortInfo(os.Stdout, info)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func printPortInfo(out io.Writer, info *serial.PortInfo) {
	fmt.Fprintf(out, "Port Information: %s\n\n", info.Path)
	fmt.Fprintf(out, "  Name:        %s\n", info.Name)
	fmt.Fprintf(out, "  Description: %s\n", info.Description)
	if info.Driver != "" {
		fmt.Fprintf(out, "  Driver:      %s\n", info.Driver)
	}

	if info.VendorID != "" || info.ProductID != "" {
		fmt.Fprintln(out, "\nUSB Device Information:")
		if info.VendorID != "" {
			fmt.Fprintf(out, "  Vendor ID:   %s\n", info.VendorID)
		}
		if info.ProductID != "" {
			fmt.Fprintf(out, "  Product ID:  %s\n", info.ProductID)
		}
	}
}
