/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	serial "github.com/allbin/serial-counter"
	"github.com/allbin/serial-counter/emitter"
	"github.com/allbin/serial-counter/internal/tui/components"
	"github.com/allbin/serial-counter/internal/tui/models"
	"github.com/allbin/serial-counter/internal/tui/styles"
	"github.com/allbin/serial-counter/portable"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	defaultDevice   = "/dev/ttyUSB0"
	defaultInterval = emitter.DefaultInterval

	driverTermios = "termios"
	driverBugst   = "bugst"
)

// portSettings is everything needed to open and configure the device.
type portSettings struct {
	Device string
	Driver string
	Config serial.Config
	opts   []serial.Option
}

func (s portSettings) connectionInfo() components.ConnectionInfo {
	return components.ConnectionInfo{Driver: s.Driver, Config: s.Config}
}

type emitSettings struct {
	Config emitter.Config
}

func loadPortSettings(v *viper.Viper) (portSettings, error) {
	device := strings.TrimSpace(v.GetString("device"))
	if device == "" {
		return portSettings{}, fmt.Errorf("%w: no device given", serial.ErrInvalidConfig)
	}

	driver := strings.ToLower(strings.TrimSpace(v.GetString("driver")))
	switch driver {
	case "", driverTermios:
		driver = driverTermios
	case driverBugst:
	default:
		return portSettings{}, fmt.Errorf("%w: unknown driver %q (valid: termios, bugst)", serial.ErrInvalidConfig, driver)
	}

	parity, err := parseParity(v.GetString("parity"))
	if err != nil {
		return portSettings{}, err
	}
	flow, err := parseFlowControl(v.GetString("flow-control"))
	if err != nil {
		return portSettings{}, err
	}

	opts := []serial.Option{
		serial.WithBaudRate(v.GetInt("baud")),
		serial.WithDataBits(v.GetInt("data-bits")),
		serial.WithStopBits(v.GetInt("stop-bits")),
		serial.WithParity(parity),
		serial.WithFlowControl(flow),
	}
	if v.GetBool("sync") {
		opts = append(opts, serial.WithSyncWrite())
	}

	config, err := serial.NewConfig(opts...)
	if err != nil {
		return portSettings{}, err
	}

	return portSettings{
		Device: device,
		Driver: driver,
		Config: config,
		opts:   opts,
	}, nil
}

func loadEmitSettings(v *viper.Viper) (emitSettings, error) {
	interval := v.GetDuration("interval")
	if interval < 0 {
		return emitSettings{}, fmt.Errorf("interval must not be negative, got %s", interval)
	}

	policy, err := emitter.ParseWriteErrorPolicy(v.GetString("on-write-error"))
	if err != nil {
		return emitSettings{}, err
	}

	return emitSettings{Config: emitter.Config{
		Interval:     interval,
		Start:        v.GetUint64("start"),
		Count:        v.GetUint64("count"),
		OnWriteError: policy,
	}}, nil
}

func parseParity(s string) (serial.Parity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "n", "":
		return serial.ParityNone, nil
	case "odd", "o":
		return serial.ParityOdd, nil
	case "even", "e":
		return serial.ParityEven, nil
	case "mark", "m":
		return serial.ParityMark, nil
	case "space", "s":
		return serial.ParitySpace, nil
	default:
		return 0, fmt.Errorf("%w: unknown parity %q (valid: none, odd, even, mark, space)", serial.ErrInvalidConfig, s)
	}
}

func parseFlowControl(s string) (serial.FlowControl, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return serial.FlowControlNone, nil
	case "rtscts":
		return serial.FlowControlRTSCTS, nil
	case "xonxoff":
		return serial.FlowControlXONXOFF, nil
	default:
		return 0, fmt.Errorf("%w: unknown flow control %q (valid: none, rtscts, xonxoff)", serial.ErrInvalidConfig, s)
	}
}

// openWriter opens the device through the selected backend and returns a
// short description of the line as configured.
func openWriter(settings portSettings, logger *zap.Logger) (io.WriteCloser, string, error) {
	if settings.Driver == driverBugst {
		w, err := portable.Open(settings.Device, settings.Config)
		if err != nil {
			return nil, "", err
		}
		return w, settings.connectionInfo().Summary(), nil
	}

	port, err := serial.Open(settings.Device, settings.opts...)
	if err != nil {
		return nil, "", err
	}

	line, err := port.LineSettings()
	if err != nil {
		logger.Debug("could not read back line settings", zap.Error(err))
		return port, settings.connectionInfo().Summary(), nil
	}
	if !line.Matches(settings.Config) {
		logger.Warn("device reports different line settings",
			zap.Stringer("requested", lineOf(settings.Config)),
			zap.Stringer("reported", line))
	}
	return port, line.String(), nil
}

type lineOf serial.Config

func (c lineOf) String() string {
	return fmt.Sprintf("%d %d%s%d", c.BaudRate, c.DataBits, c.Parity, c.StopBits)
}

// runEmit opens the port and writes the counter until ctx is cancelled or
// the emitter stops on its own. Cancellation is a clean exit.
func runEmit(ctx context.Context, port portSettings, emit emitSettings, logger *zap.Logger, status io.Writer) error {
	fmt.Fprintf(status, "%s Opening %s...\n", styles.InfoStyle.Render("⚡"), port.Device)

	w, line, err := openWriter(port, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := w.Close(); err != nil {
			logger.Debug("close failed", zap.String("device", port.Device), zap.Error(err))
		}
	}()

	fmt.Fprintf(status, "%s Configured %s (%s, %s)\n",
		styles.SuccessStyle.Render("✓"), port.Device, line, port.Driver)

	e := emitter.New(w, emit.Config, logger.With(zap.String("device", port.Device)))
	err = e.Run(ctx)
	if errors.Is(err, context.Canceled) {
		flush(w, logger)
		return nil
	}
	if err == nil {
		drain(w, logger)
	}
	return err
}

// drain waits for a finished run's output to leave the port before it is
// closed. Only the termios port supports it.
func drain(w io.Writer, logger *zap.Logger) {
	d, ok := w.(interface{ Drain() error })
	if !ok {
		return
	}
	if err := d.Drain(); err != nil {
		logger.Debug("drain failed", zap.Error(err))
	}
}

// flush discards output still queued when a run is cancelled, so Close
// does not wait for it. Only the termios port supports it.
func flush(w io.Writer, logger *zap.Logger) {
	f, ok := w.(interface{ FlushOutput() error })
	if !ok {
		return
	}
	if err := f.FlushOutput(); err != nil {
		logger.Debug("flush failed", zap.Error(err))
	}
}

// runEmitTUI is runEmit with the live view in place of log output.
func runEmitTUI(ctx context.Context, port portSettings, emit emitSettings) error {
	w, _, err := openWriter(port, zap.NewNop())
	if err != nil {
		return err
	}
	defer w.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	e := emitter.New(w, emit.Config, zap.NewNop())
	m := models.NewEmitModel(port.Device, port.connectionInfo(), e.Stats, cancel)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	done := make(chan error, 1)
	go func() {
		err := e.Run(runCtx)
		done <- err
		p.Send(models.EmitterDoneMsg{Err: err})
	}()

	_, err = p.Run()
	cancel()
	runErr := <-done
	if errors.Is(runErr, context.Canceled) {
		flush(w, zap.NewNop())
	}

	if err != nil && !(errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil) {
		return err
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}
