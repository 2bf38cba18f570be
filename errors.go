package serial

import "errors"

// Errors returned while opening and configuring a port. Open and configure
// failures wrap one of ErrDeviceOpen, ErrAttributeRead or ErrAttributeWrite
// together with the underlying OS error.
var (
	ErrDeviceOpen     = errors.New("failed to open serial device")
	ErrAttributeRead  = errors.New("failed to read terminal attributes")
	ErrAttributeWrite = errors.New("failed to apply terminal attributes")

	ErrDeviceNotFound   = errors.New("serial device not found")
	ErrPermissionDenied = errors.New("permission denied accessing serial device")
	ErrDeviceInUse      = errors.New("serial device already in use")
	ErrNotCharDevice    = errors.New("not a character device")
	ErrInvalidBaudRate  = errors.New("invalid baud rate")
	ErrInvalidConfig    = errors.New("invalid serial configuration")
	ErrPortClosed       = errors.New("serial port is closed")
)
