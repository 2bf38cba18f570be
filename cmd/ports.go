/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	serial "github.com/allbin/serial-counter"
	"github.com/allbin/serial-counter/internal/tui/colors"
	"github.com/allbin/serial-counter/portable"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// portsCmd represents the ports command
var portsCmd = &cobra.Command{
	Use:     "ports",
	Aliases: []string{"list"},
	Short:   "List serial ports the counter can write to",
	Long: `List the serial devices found on the system.

The termios driver scans /dev for serial device names:
- USB serial adapters (ttyUSB*)
- USB CDC/ACM devices (ttyACM*)
- Standard serial ports (ttyS*)
- ARM/Raspberry Pi ports (ttyAMA*)
- And other platform-specific serial devices

The bugst driver asks go.bug.st/serial for its port list instead.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		driver := viper.GetString("driver")
		filterType, _ := cmd.Flags().GetString("filter")
		tableFormat, _ := cmd.Flags().GetBool("table")

		ports, err := listPorts(driver)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing ports: %v\n", err)
			os.Exit(1)
		}

		filtered := filterPorts(ports, filterType)
		if len(filtered) == 0 {
			if filterType != "" {
				fmt.Printf("No serial ports found matching filter: %s\n", filterType)
			} else {
				fmt.Println("No serial ports found")
			}
			return
		}

		if tableFormat {
			renderTable(os.Stdout, filtered)
		} else {
			renderSimple(os.Stdout, filtered)
		}
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)

	portsCmd.Flags().StringP("filter", "f", "", "Filter by port type: usb, standard, arm (SoC UARTs), all")
	portsCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}

func listPorts(driver string) ([]string, error) {
	switch strings.ToLower(driver) {
	case "", driverTermios:
		return serial.ListPorts()
	case driverBugst:
		return portable.List()
	default:
		return nil, fmt.Errorf("%w: unknown driver %q (valid: termios, bugst)", serial.ErrInvalidConfig, driver)
	}
}

// filterPorts filters the port list based on the specified filter type
func filterPorts(ports []string, filterType string) []string {
	filterType = strings.ToLower(filterType)
	if filterType == "" || filterType == "all" {
		return ports
	}

	var filtered []string
	for _, port := range ports {
		if getPortType(port) == filterType {
			filtered = append(filtered, port)
		}
	}
	return filtered
}

// getPortType groups a device path into usb, arm, standard or other. The
// SoC UART prefixes are checked before ttyS, which would match ttySAC.
func getPortType(port string) string {
	name := strings.ToLower(port[strings.LastIndex(port, "/")+1:])
	switch {
	case strings.HasPrefix(name, "ttyusb"), strings.HasPrefix(name, "ttyacm"):
		return "usb"
	case strings.HasPrefix(name, "ttyama"),
		strings.HasPrefix(name, "ttymxc"),
		strings.HasPrefix(name, "ttysac"),
		strings.HasPrefix(name, "ttyths"),
		strings.HasPrefix(name, "ttyo"):
		return "arm"
	case strings.HasPrefix(name, "ttys"):
		return "standard"
	default:
		return "other"
	}
}

const (
	columnPort        = "port"
	columnDriver      = "driver"
	columnUSB         = "usb"
	columnDescription = "description"
)

func portRows(ports []string) []table.Row {
	rows := make([]table.Row, 0, len(ports))
	for _, port := range ports {
		info, err := serial.GetPortInfo(port)
		if err != nil {
			rows = append(rows, table.NewRow(table.RowData{
				columnPort:        port,
				columnDescription: fmt.Sprintf("Error: %v", err),
			}))
			continue
		}
		usb := ""
		if info.VendorID != "" {
			usb = info.VendorID + ":" + info.ProductID
		}
		rows = append(rows, table.NewRow(table.RowData{
			columnPort:        info.Path,
			columnDriver:      info.Driver,
			columnUSB:         usb,
			columnDescription: info.Description,
		}))
	}
	return rows
}

// renderTable renders the port list in a styled static table format
func renderTable(out io.Writer, ports []string) {
	fmt.Fprintf(out, "Found %d serial port(s):\n\n", len(ports))

	t := table.New([]table.Column{
		table.NewColumn(columnPort, "Port", 16),
		table.NewColumn(columnDriver, "Driver", 12),
		table.NewColumn(columnUSB, "USB ID", 11),
		table.NewColumn(columnDescription, "Description", 28),
	}).
		WithRows(portRows(ports)).
		BorderRounded().
		HeaderStyle(lipgloss.NewStyle().Bold(true).Foreground(colors.Mauve)).
		WithBaseStyle(lipgloss.NewStyle().Foreground(colors.Text).BorderForeground(colors.Surface2).Align(lipgloss.Left))

	fmt.Fprintln(out, t.View())
}

// renderSimple renders the port list in simple text format
func renderSimple(out io.Writer, ports []string) {
	for _, port := range ports {
		fmt.Fprintln(out, port)
	}
}
