package portable

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bugst "go.bug.st/serial"

	serial "github.com/allbin/serial-counter"
)

func TestModeForDefaults(t *testing.T) {
	mode, err := modeFor(serial.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 115200, mode.BaudRate)
	assert.Equal(t, 8, mode.DataBits)
	assert.Equal(t, bugst.NoParity, mode.Parity)
	assert.Equal(t, bugst.OneStopBit, mode.StopBits)
}

func TestModeFor(t *testing.T) {
	config, err := serial.NewConfig(
		serial.WithBaudRate(9600),
		serial.WithDataBits(7),
		serial.WithParity(serial.ParityEven),
		serial.WithStopBits(2),
	)
	require.NoError(t, err)

	mode, err := modeFor(config)
	require.NoError(t, err)
	assert.Equal(t, 9600, mode.BaudRate)
	assert.Equal(t, 7, mode.DataBits)
	assert.Equal(t, bugst.EvenParity, mode.Parity)
	assert.Equal(t, bugst.TwoStopBits, mode.StopBits)
}

func TestModeForRejectsFlowControl(t *testing.T) {
	config := serial.DefaultConfig()
	config.FlowControl = serial.FlowControlRTSCTS

	_, err := modeFor(config)
	assert.ErrorIs(t, err, serial.ErrInvalidConfig)
}

func TestOpenNonExistentDevice(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "ttyUSB9"), serial.DefaultConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, serial.ErrDeviceOpen)
}

func TestSentinelFor(t *testing.T) {
	tests := []struct {
		code bugst.PortErrorCode
		want []error
	}{
		{bugst.PortNotFound, []error{serial.ErrDeviceOpen, serial.ErrDeviceNotFound}},
		{bugst.PortBusy, []error{serial.ErrDeviceOpen, serial.ErrDeviceInUse}},
		{bugst.PermissionDenied, []error{serial.ErrDeviceOpen, serial.ErrPermissionDenied}},
		{bugst.InvalidSerialPort, []error{serial.ErrAttributeRead}},
		{bugst.InvalidSpeed, []error{serial.ErrAttributeWrite}},
		{bugst.InvalidStopBits, []error{serial.ErrAttributeWrite}},
		{bugst.PortClosed, []error{serial.ErrDeviceOpen}},
	}

	for _, tt := range tests {
		got := sentinelFor(tt.code)
		for _, want := range tt.want {
			assert.ErrorIs(t, got, want, "code %v", tt.code)
		}
	}
}

func TestClassifyPlainError(t *testing.T) {
	cause := errors.New("boom")
	err := classify(cause)
	assert.ErrorIs(t, err, serial.ErrDeviceOpen)
	assert.ErrorIs(t, err, cause)
}
