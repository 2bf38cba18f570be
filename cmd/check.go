/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	serial "github.com/allbin/serial-counter"
	"github.com/allbin/serial-counter/internal/tui/styles"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Configure the device and show the line settings it reports",
	Long: `Open and configure the device exactly as the counter would, then read the
terminal attributes back and compare them with what was requested.
Nothing is written to the line.

Example usage:
  serialcount check
  serialcount check --device /dev/ttyACM0 --baud 9600`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := loadPortSettings(viper.GetViper())
		if err == nil {
			err = runCheck(settings, os.Stdout)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(settings portSettings, out io.Writer) error {
	if settings.Driver != driverTermios {
		return fmt.Errorf("%w: check reads attributes back and needs the termios driver", serial.ErrInvalidConfig)
	}

	port, err := serial.Open(settings.Device, settings.opts...)
	if err != nil {
		return err
	}
	defer port.Close()

	line, err := port.LineSettings()
	if err != nil {
		return err
	}

	row := func(label string, value any) {
		fmt.Fprintf(out, "  %s %v\n", styles.LabelStyle.Render(label), value)
	}

	fmt.Fprintf(out, "Line settings: %s\n\n", port.Device())
	row("Speed", fmt.Sprintf("%d in / %d out", line.InputBaud, line.OutputBaud))
	row("Framing", fmt.Sprintf("%d%s%d", line.DataBits, line.Parity, line.StopBits))
	row("Flow control", line.FlowControl)
	row("Raw", line.Raw)
	row("CLOCAL", line.Local)
	row("CREAD", line.Receiver)
	row("VMIN", line.ReadMinimum)
	row("VTIME", fmt.Sprintf("%d (%.1fs)", line.ReadTimeoutTenths, float64(line.ReadTimeoutTenths)/10))
	fmt.Fprintln(out)

	if line.Matches(settings.Config) {
		fmt.Fprintf(out, "%s Device reports the requested %s\n", styles.SuccessStyle.Render("✓"), lineOf(settings.Config))
		return nil
	}
	fmt.Fprintf(out, "%s Device reports %s, requested %s\n", styles.ErrorStyle.Render("✗"), line, lineOf(settings.Config))
	return nil
}
