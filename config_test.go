package serial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, 115200, config.BaudRate)
	assert.Equal(t, 8, config.DataBits)
	assert.Equal(t, 1, config.StopBits)
	assert.Equal(t, ParityNone, config.Parity)
	assert.Equal(t, FlowControlNone, config.FlowControl)
	assert.Equal(t, 0, config.ReadMinimum)
	assert.Equal(t, 5, config.ReadTimeoutTenths)
	assert.Equal(t, WriteModeBuffered, config.WriteMode)
}

func TestFunctionalOptions(t *testing.T) {
	config, err := NewConfig(
		WithBaudRate(9600),
		WithDataBits(7),
		WithStopBits(2),
		WithParity(ParityEven),
		WithFlowControl(FlowControlRTSCTS),
		WithReadTimeout(1, 10),
		WithSyncWrite(),
	)
	require.NoError(t, err)

	assert.Equal(t, 9600, config.BaudRate)
	assert.Equal(t, 7, config.DataBits)
	assert.Equal(t, 2, config.StopBits)
	assert.Equal(t, ParityEven, config.Parity)
	assert.Equal(t, FlowControlRTSCTS, config.FlowControl)
	assert.Equal(t, 1, config.ReadMinimum)
	assert.Equal(t, 10, config.ReadTimeoutTenths)
	assert.Equal(t, WriteModeSynced, config.WriteMode)
}

func TestInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
		want error
	}{
		{"baud 123456", WithBaudRate(123456), ErrInvalidBaudRate},
		{"data bits 9", WithDataBits(9), ErrInvalidConfig},
		{"data bits 4", WithDataBits(4), ErrInvalidConfig},
		{"stop bits 3", WithStopBits(3), ErrInvalidConfig},
		{"parity out of range", WithParity(Parity(42)), ErrInvalidConfig},
		{"flow control out of range", WithFlowControl(FlowControl(-1)), ErrInvalidConfig},
		{"VTIME 256", WithReadTimeout(0, 256), ErrInvalidConfig},
		{"VMIN negative", WithReadTimeout(-1, 5), ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(tt.opt)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestConfigStrings(t *testing.T) {
	assert.Equal(t, "none", FlowControlNone.String())
	assert.Equal(t, "rtscts", FlowControlRTSCTS.String())
	assert.Equal(t, "xonxoff", FlowControlXONXOFF.String())
	assert.Equal(t, "N", ParityNone.String())
	assert.Equal(t, "E", ParityEven.String())
}
