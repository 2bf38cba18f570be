package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	serial "github.com/allbin/serial-counter"
	"github.com/allbin/serial-counter/emitter"
	"github.com/creack/pty"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newViper returns a viper bound to the real command flags, so unset keys
// fall back to the flag defaults.
func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	require.NoError(t, v.BindPFlags(rootCmd.PersistentFlags()))
	require.NoError(t, v.BindPFlags(rootCmd.Flags()))
	require.NoError(t, configure(v, ""))
	return v
}

func openPTY(t *testing.T) (*os.File, string) {
	t.Helper()
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })
	return master, slave.Name()
}

func TestSettingsDefaults(t *testing.T) {
	v := newViper(t)

	port, err := loadPortSettings(v)
	require.NoError(t, err)
	assert.Equal(t, defaultDevice, port.Device)
	assert.Equal(t, driverTermios, port.Driver)
	assert.Equal(t, serial.DefaultConfig(), port.Config)

	emit, err := loadEmitSettings(v)
	require.NoError(t, err)
	assert.Equal(t, emitter.DefaultConfig(), emit.Config)
}

func TestSettingsFromEnvironment(t *testing.T) {
	t.Setenv("SERIALCOUNT_DEVICE", "/dev/ttyACM3")
	t.Setenv("SERIALCOUNT_BAUD", "9600")
	t.Setenv("SERIALCOUNT_ON_WRITE_ERROR", "fail")
	t.Setenv("SERIALCOUNT_INTERVAL", "1ms")
	v := newViper(t)

	port, err := loadPortSettings(v)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM3", port.Device)
	assert.Equal(t, 9600, port.Config.BaudRate)

	emit, err := loadEmitSettings(v)
	require.NoError(t, err)
	assert.Equal(t, emitter.FailOnWriteError, emit.Config.OnWriteError)
	assert.Equal(t, time.Millisecond, emit.Config.Interval)
}

func TestSettingsFromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "serialcount.yaml")
	require.NoError(t, os.WriteFile(path, []byte("device: /dev/ttyS1\nparity: even\ncount: 100\nstart: 7\n"), 0o644))

	v := newViper(t)
	require.NoError(t, configure(v, path))

	port, err := loadPortSettings(v)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyS1", port.Device)
	assert.Equal(t, serial.ParityEven, port.Config.Parity)

	emit, err := loadEmitSettings(v)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), emit.Config.Count)
	assert.Equal(t, uint64(7), emit.Config.Start)
}

func TestMissingConfigFile(t *testing.T) {
	v := newViper(t)
	assert.Error(t, configure(v, filepath.Join(t.TempDir(), "absent.yaml")))
}

func TestInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
		emit bool
	}{
		{"empty device", "device", " ", false},
		{"unknown driver", "driver", "ftdi", false},
		{"unknown parity", "parity", "sometimes", false},
		{"unknown flow control", "flow-control", "dtrdsr", false},
		{"unsupported baud", "baud", 12345, false},
		{"data bits", "data-bits", 9, false},
		{"stop bits", "stop-bits", 3, false},
		{"negative interval", "interval", -time.Second, true},
		{"unknown write policy", "on-write-error", "retry", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper(t)
			v.Set(tt.key, tt.val)
			var err error
			if tt.emit {
				_, err = loadEmitSettings(v)
			} else {
				_, err = loadPortSettings(v)
			}
			assert.Error(t, err)
		})
	}
}

func TestRunEmitWritesCounter(t *testing.T) {
	master, device := openPTY(t)

	v := newViper(t)
	v.Set("device", device)
	v.Set("count", 5)
	v.Set("interval", 0)
	port, err := loadPortSettings(v)
	require.NoError(t, err)
	emit, err := loadEmitSettings(v)
	require.NoError(t, err)

	var status bytes.Buffer
	require.NoError(t, runEmit(context.Background(), port, emit, zap.NewNop(), &status))
	assert.Contains(t, status.String(), "Configured "+device)
	assert.Contains(t, status.String(), "115200 8N1")

	want := "0\n1\n2\n3\n4\n"
	got := make([]byte, len(want))
	_, err = io.ReadFull(master, got)
	require.NoError(t, err)
	assert.Equal(t, want, string(got))
}

func TestRunEmitCancelledIsClean(t *testing.T) {
	_, device := openPTY(t)

	v := newViper(t)
	v.Set("device", device)
	v.Set("interval", time.Millisecond)
	port, err := loadPortSettings(v)
	require.NoError(t, err)
	emit, err := loadEmitSettings(v)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	assert.NoError(t, runEmit(ctx, port, emit, zap.NewNop(), io.Discard))
}

func TestRunEmitOpenFailures(t *testing.T) {
	tests := []struct {
		name   string
		device string
		want   error
	}{
		{"nonexistent device", "/dev/nonexistent-serial-device", serial.ErrDeviceOpen},
		{"not a terminal", "/dev/null", serial.ErrAttributeRead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper(t)
			v.Set("device", tt.device)
			port, err := loadPortSettings(v)
			require.NoError(t, err)
			emit, err := loadEmitSettings(v)
			require.NoError(t, err)

			err = runEmit(context.Background(), port, emit, zap.NewNop(), io.Discard)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRunCheck(t *testing.T) {
	_, device := openPTY(t)

	v := newViper(t)
	v.Set("device", device)
	port, err := loadPortSettings(v)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runCheck(port, &out))
	assert.Contains(t, out.String(), "Device reports the requested 115200 8N1")
	assert.Contains(t, out.String(), "5 (0.5s)")
}

func TestRunCheckNeedsTermios(t *testing.T) {
	v := newViper(t)
	v.Set("driver", driverBugst)
	port, err := loadPortSettings(v)
	require.NoError(t, err)

	assert.ErrorIs(t, runCheck(port, io.Discard), serial.ErrInvalidConfig)
}

func TestFilterPorts(t *testing.T) {
	ports := []string{"/dev/ttyUSB0", "/dev/ttyACM1", "/dev/ttyS0", "/dev/ttyAMA0", "/dev/ttymxc2"}

	assert.Equal(t, ports, filterPorts(ports, ""))
	assert.Equal(t, ports, filterPorts(ports, "all"))
	assert.Equal(t, []string{"/dev/ttyUSB0", "/dev/ttyACM1"}, filterPorts(ports, "usb"))
	assert.Equal(t, []string{"/dev/ttyS0"}, filterPorts(ports, "standard"))
	assert.Equal(t, []string{"/dev/ttyAMA0", "/dev/ttymxc2"}, filterPorts(ports, "ARM"))
	assert.Empty(t, filterPorts(ports, "bluetooth"))
}

func TestGetPortType(t *testing.T) {
	tests := map[string]string{
		"/dev/ttyUSB0": "usb",
		"/dev/ttyACM0": "usb",
		"/dev/ttyS3":   "standard",
		"/dev/ttyAMA0": "arm",
		"/dev/ttymxc1": "arm",
		"/dev/ttySAC2": "arm",
		"/dev/ttyTHS0": "arm",
		"/dev/ttyO1":   "arm",
		"/dev/rfcomm0": "other",
	}
	for port, want := range tests {
		assert.Equal(t, want, getPortType(port), port)
	}
}

func TestListPortsUnknownDriver(t *testing.T) {
	_, err := listPorts("ftdi")
	assert.ErrorIs(t, err, serial.ErrInvalidConfig)
}

func TestRenderPorts(t *testing.T) {
	var out bytes.Buffer
	renderSimple(&out, []string{"/dev/ttyUSB0", "/dev/ttyS0"})
	assert.Equal(t, "/dev/ttyUSB0\n/dev/ttyS0\n", out.String())

	out.Reset()
	renderTable(&out, []string{"/dev/ttyUSB9"})
	assert.Contains(t, out.String(), "Found 1 serial port(s)")
	assert.Contains(t, out.String(), "/dev/ttyUSB9")
}

func TestPrintPortInfo(t *testing.T) {
	var out bytes.Buffer
	printPortInfo(&out, &serial.PortInfo{
		Name:        "ttyUSB0",
		Path:        "/dev/ttyUSB0",
		Description: "USB Serial Port",
		Driver:      "ftdi_sio",
		VendorID:    "0403",
		ProductID:   "6001",
	})
	assert.Contains(t, out.String(), "Driver:      ftdi_sio")
	assert.Contains(t, out.String(), "Vendor ID:   0403")
	assert.Contains(t, out.String(), "Product ID:  6001")
}

type recordingPort struct {
	bytes.Buffer
	drained, flushed bool
}

func (r *recordingPort) Drain() error       { r.drained = true; return nil }
func (r *recordingPort) FlushOutput() error { r.flushed = true; return nil }

func TestDrainAndFlush(t *testing.T) {
	p := &recordingPort{}
	drain(p, zap.NewNop())
	assert.True(t, p.drained)
	assert.False(t, p.flushed)

	flush(p, zap.NewNop())
	assert.True(t, p.flushed)

	// plain writers are left alone
	drain(io.Discard, zap.NewNop())
	flush(io.Discard, zap.NewNop())
}

// When set, the test binary runs the root command against this device
// instead of running tests.
const execDeviceEnv = "SERIALCOUNT_TEST_EXEC_DEVICE"

func TestExitStatusOnOpenFailure(t *testing.T) {
	if device := os.Getenv(execDeviceEnv); device != "" {
		rootCmd.SetArgs([]string{"--device", device, "--count", "1"})
		Execute()
		os.Exit(0)
	}

	tests := []struct {
		name   string
		device string
		want   string
	}{
		{"nonexistent device", "/dev/nonexistent-serial-device", serial.ErrDeviceOpen.Error()},
		{"not a terminal", "/dev/null", serial.ErrAttributeRead.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := exec.Command(os.Args[0], "-test.run=^TestExitStatusOnOpenFailure$")
			cmd.Env = append(os.Environ(), execDeviceEnv+"="+tt.device)
			var stderr bytes.Buffer
			cmd.Stderr = &stderr

			err := cmd.Run()
			var exitErr *exec.ExitError
			require.True(t, errors.As(err, &exitErr), "expected a non-zero exit, got %v", err)
			assert.Equal(t, 1, exitErr.ExitCode())
			assert.Contains(t, stderr.String(), "Error: ")
			assert.Contains(t, stderr.String(), tt.want)
			assert.Contains(t, stderr.String(), tt.device)
		})
	}
}
