/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/allbin/serial-counter/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "serialcount",
	Short: "Write an incrementing counter to a serial port",
	Long: `Open a serial device, configure it for raw 115200 8N1 output and write
an incrementing decimal counter to it, one line every 100µs.

Every setting can also be given as an environment variable with the
SERIALCOUNT_ prefix (e.g. SERIALCOUNT_DEVICE=/dev/ttyACM0) or in a config
file passed with --config.

Example usage:
  serialcount
  serialcount --device /dev/ttyACM0 --interval 1ms
  serialcount --count 1000 --on-write-error fail
  serialcount --tui

Exit status is 1 if the device cannot be opened or configured, or when a
write fails under --on-write-error=fail. Ctrl+C stops emitting and exits 0.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := runRoot(ctx, viper.GetViper()); err != nil {
			stop()
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	pf.StringP("device", "d", defaultDevice, "Serial device to open")
	pf.IntP("baud", "b", 115200, "Baud rate")
	pf.Int("data-bits", 8, "Data bits: 5, 6, 7 or 8")
	pf.String("parity", "none", "Parity: none, odd, even, mark, space")
	pf.Int("stop-bits", 1, "Stop bits: 1 or 2")
	pf.String("flow-control", "none", "Flow control: none, rtscts, xonxoff")
	pf.String("driver", driverTermios, "Port backend: termios or bugst")
	pf.Bool("sync", false, "Open the device with O_SYNC")
	pf.BoolP("verbose", "v", false, "Enable debug logging")

	f := rootCmd.Flags()
	f.DurationP("interval", "i", defaultInterval, "Pause between two lines")
	f.Uint64P("count", "n", 0, "Number of lines to emit, 0 runs until interrupted")
	f.Uint64("start", 0, "First counter value")
	f.String("on-write-error", "ignore", "What a failed write does: ignore, log, fail")
	f.Bool("tui", false, "Show a live view of the emitter")

	cobra.CheckErr(viper.BindPFlags(pf))
	cobra.CheckErr(viper.BindPFlags(f))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if err := configure(viper.GetViper(), cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// configure wires environment lookup and the optional config file into v.
func configure(v *viper.Viper, file string) error {
	v.SetEnvPrefix("SERIALCOUNT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file == "" {
		return nil
	}
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return fmt.Errorf("config file %s not found", file)
		}
		return fmt.Errorf("reading config file %s: %w", file, err)
	}
	return nil
}

func runRoot(ctx context.Context, v *viper.Viper) error {
	port, err := loadPortSettings(v)
	if err != nil {
		return err
	}
	emit, err := loadEmitSettings(v)
	if err != nil {
		return err
	}

	if v.GetBool("tui") {
		return runEmitTUI(ctx, port, emit)
	}

	logger := logging.New(os.Stderr, v.GetBool("verbose"))
	defer logger.Sync() //nolint:errcheck
	return runEmit(ctx, port, emit, logger, os.Stdout)
}
