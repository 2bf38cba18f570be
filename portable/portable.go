// Package portable opens serial ports through go.bug.st/serial instead of
// raw termios ioctls. The library opens the device read-write and manages
// the line flags itself; only speed and framing are taken from the config.
package portable

import (
	"errors"
	"fmt"
	"io"
	"os"

	serial "github.com/allbin/serial-counter"
	bugst "go.bug.st/serial"
)

// Open opens device with the speed and framing of config. Flow control is
// not supported by this backend.
func Open(device string, config serial.Config) (io.WriteCloser, error) {
	mode, err := modeFor(config)
	if err != nil {
		return nil, err
	}

	port, err := bugst.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", device, classify(err))
	}
	return port, nil
}

// List returns the ports the library can enumerate.
func List() ([]string, error) {
	return bugst.GetPortsList()
}

func modeFor(config serial.Config) (*bugst.Mode, error) {
	if config.FlowControl != serial.FlowControlNone {
		return nil, fmt.Errorf("%w: flow control %s not supported by portable driver", serial.ErrInvalidConfig, config.FlowControl)
	}

	mode := &bugst.Mode{
		BaudRate: config.BaudRate,
		DataBits: config.DataBits,
	}

	switch config.Parity {
	case serial.ParityNone:
		mode.Parity = bugst.NoParity
	case serial.ParityOdd:
		mode.Parity = bugst.OddParity
	case serial.ParityEven:
		mode.Parity = bugst.EvenParity
	case serial.ParityMark:
		mode.Parity = bugst.MarkParity
	case serial.ParitySpace:
		mode.Parity = bugst.SpaceParity
	default:
		return nil, serial.ErrInvalidConfig
	}

	switch config.StopBits {
	case 1:
		mode.StopBits = bugst.OneStopBit
	case 2:
		mode.StopBits = bugst.TwoStopBits
	default:
		return nil, serial.ErrInvalidConfig
	}

	return mode, nil
}

// classify maps library errors onto the serial package sentinels.
func classify(err error) error {
	var portErr *bugst.PortError
	if !errors.As(err, &portErr) {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %w: %w", serial.ErrDeviceOpen, serial.ErrDeviceNotFound, err)
		}
		return fmt.Errorf("%w: %w", serial.ErrDeviceOpen, err)
	}
	return fmt.Errorf("%w: %w", sentinelFor(portErr.Code()), err)
}

func sentinelFor(code bugst.PortErrorCode) error {
	switch code {
	case bugst.PortNotFound:
		return fmt.Errorf("%w: %w", serial.ErrDeviceOpen, serial.ErrDeviceNotFound)
	case bugst.PortBusy:
		return fmt.Errorf("%w: %w", serial.ErrDeviceOpen, serial.ErrDeviceInUse)
	case bugst.PermissionDenied:
		return fmt.Errorf("%w: %w", serial.ErrDeviceOpen, serial.ErrPermissionDenied)
	case bugst.InvalidSerialPort:
		return serial.ErrAttributeRead
	case bugst.InvalidSpeed, bugst.InvalidDataBits, bugst.InvalidParity, bugst.InvalidStopBits:
		return serial.ErrAttributeWrite
	default:
		return serial.ErrDeviceOpen
	}
}
