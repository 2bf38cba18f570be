package serial

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// cibaudShift is the offset of the input speed field (CIBAUD) within Cflag.
const cibaudShift = 16

var baudRates = []struct {
	rate int
	bits uint32
}{
	{50, unix.B50},
	{75, unix.B75},
	{110, unix.B110},
	{134, unix.B134},
	{150, unix.B150},
	{200, unix.B200},
	{300, unix.B300},
	{600, unix.B600},
	{1200, unix.B1200},
	{1800, unix.B1800},
	{2400, unix.B2400},
	{4800, unix.B4800},
	{9600, unix.B9600},
	{19200, unix.B19200},
	{38400, unix.B38400},
	{57600, unix.B57600},
	{115200, unix.B115200},
	{230400, unix.B230400},
	{460800, unix.B460800},
	{500000, unix.B500000},
	{576000, unix.B576000},
	{921600, unix.B921600},
	{1000000, unix.B1000000},
	{1152000, unix.B1152000},
	{1500000, unix.B1500000},
	{2000000, unix.B2000000},
	{2500000, unix.B2500000},
	{3000000, unix.B3000000},
	{3500000, unix.B3500000},
	{4000000, unix.B4000000},
}

// getBaudRate converts an integer baud rate to the unix constant
func getBaudRate(rate int) (uint32, error) {
	for _, b := range baudRates {
		if b.rate == rate {
			return b.bits, nil
		}
	}
	return 0, ErrInvalidBaudRate
}

// baudFromBits is the inverse of getBaudRate. Unknown bits decode to 0.
func baudFromBits(bits uint32) int {
	for _, b := range baudRates {
		if b.bits == bits {
			return b.rate
		}
	}
	return 0
}

func charSizeBits(dataBits int) (uint32, error) {
	switch dataBits {
	case 5:
		return unix.CS5, nil
	case 6:
		return unix.CS6, nil
	case 7:
		return unix.CS7, nil
	case 8:
		return unix.CS8, nil
	default:
		return 0, ErrInvalidConfig
	}
}

// Ioctl hooks, replaced in tests to inject failures.
var (
	getTermios = func(fd int) (*unix.Termios, error) {
		return unix.IoctlGetTermios(fd, unix.TCGETS)
	}
	setTermios = func(fd int, termios *unix.Termios) error {
		// TCSETS applies immediately, like tcsetattr(TCSANOW)
		return unix.IoctlSetTermios(fd, unix.TCSETS, termios)
	}
)

// configurePort reads the current attributes, rewrites them for config and
// commits the result.
func configurePort(fd int, config Config) error {
	termios, err := getTermios(fd)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAttributeRead, err)
	}

	if err := applyLineDiscipline(termios, config); err != nil {
		return err
	}

	if err := setTermios(fd, termios); err != nil {
		return fmt.Errorf("%w: %w", ErrAttributeWrite, err)
	}
	return nil
}

// applyLineDiscipline mutates termios in place. The order follows the
// classic cfsetspeed/raw-mode sequence and only touches the bits named below;
// everything else read from the device is preserved.
func applyLineDiscipline(termios *unix.Termios, config Config) error {
	speed, err := getBaudRate(config.BaudRate)
	if err != nil {
		return err
	}
	size, err := charSizeBits(config.DataBits)
	if err != nil {
		return err
	}

	// Speed, both directions. CIBAUD=0 means input follows output.
	termios.Cflag = (termios.Cflag &^ (unix.CBAUD | unix.CIBAUD)) | speed
	termios.Ispeed = speed
	termios.Ospeed = speed

	termios.Cflag = (termios.Cflag &^ unix.CSIZE) | size

	termios.Iflag &^= unix.IGNBRK

	// Raw mode
	termios.Lflag = 0
	termios.Oflag = 0

	termios.Cc[unix.VMIN] = uint8(config.ReadMinimum)
	termios.Cc[unix.VTIME] = uint8(config.ReadTimeoutTenths)

	termios.Iflag &^= unix.IXON | unix.IXOFF | unix.IXANY
	if config.FlowControl == FlowControlXONXOFF {
		termios.Iflag |= unix.IXON | unix.IXOFF
	}

	termios.Cflag |= unix.CLOCAL | unix.CREAD

	termios.Cflag &^= unix.PARENB | unix.PARODD | unix.CMSPAR
	switch config.Parity {
	case ParityOdd:
		termios.Cflag |= unix.PARENB | unix.PARODD
	case ParityEven:
		termios.Cflag |= unix.PARENB
	case ParityMark:
		termios.Cflag |= unix.PARENB | unix.CMSPAR | unix.PARODD
	case ParitySpace:
		termios.Cflag |= unix.PARENB | unix.CMSPAR
	}

	termios.Cflag &^= unix.CSTOPB
	if config.StopBits == 2 {
		termios.Cflag |= unix.CSTOPB
	}

	termios.Cflag &^= unix.CRTSCTS
	if config.FlowControl == FlowControlRTSCTS {
		termios.Cflag |= unix.CRTSCTS
	}

	return nil
}

// LineSettings is the line configuration as reported by the device.
type LineSettings struct {
	InputBaud         int
	OutputBaud        int
	DataBits          int
	Parity            Parity
	StopBits          int
	FlowControl       FlowControl
	Raw               bool
	Local             bool // CLOCAL: modem control lines ignored
	Receiver          bool // CREAD
	ReadMinimum       int
	ReadTimeoutTenths int
}

// String formats the settings like "115200 8N1".
func (s LineSettings) String() string {
	return fmt.Sprintf("%d %d%s%d", s.OutputBaud, s.DataBits, s.Parity, s.StopBits)
}

// Matches reports whether the settings reflect config.
func (s LineSettings) Matches(config Config) bool {
	return s.InputBaud == config.BaudRate &&
		s.OutputBaud == config.BaudRate &&
		s.DataBits == config.DataBits &&
		s.Parity == config.Parity &&
		s.StopBits == config.StopBits &&
		s.FlowControl == config.FlowControl &&
		s.Raw
}

func decodeLineSettings(termios *unix.Termios) LineSettings {
	settings := LineSettings{
		OutputBaud:        baudFromBits(termios.Cflag & unix.CBAUD),
		StopBits:          1,
		Local:             termios.Cflag&unix.CLOCAL != 0,
		Receiver:          termios.Cflag&unix.CREAD != 0,
		ReadMinimum:       int(termios.Cc[unix.VMIN]),
		ReadTimeoutTenths: int(termios.Cc[unix.VTIME]),
	}

	settings.InputBaud = settings.OutputBaud
	if in := (termios.Cflag & unix.CIBAUD) >> cibaudShift; in != 0 {
		settings.InputBaud = baudFromBits(in)
	}

	switch termios.Cflag & unix.CSIZE {
	case unix.CS5:
		settings.DataBits = 5
	case unix.CS6:
		settings.DataBits = 6
	case unix.CS7:
		settings.DataBits = 7
	case unix.CS8:
		settings.DataBits = 8
	}

	if termios.Cflag&unix.PARENB != 0 {
		odd := termios.Cflag&unix.PARODD != 0
		switch {
		case termios.Cflag&unix.CMSPAR != 0 && odd:
			settings.Parity = ParityMark
		case termios.Cflag&unix.CMSPAR != 0:
			settings.Parity = ParitySpace
		case odd:
			settings.Parity = ParityOdd
		default:
			settings.Parity = ParityEven
		}
	}

	if termios.Cflag&unix.CSTOPB != 0 {
		settings.StopBits = 2
	}

	switch {
	case termios.Cflag&unix.CRTSCTS != 0:
		settings.FlowControl = FlowControlRTSCTS
	case termios.Iflag&(unix.IXON|unix.IXOFF) != 0:
		settings.FlowControl = FlowControlXONXOFF
	}

	settings.Raw = termios.Lflag&(unix.ICANON|unix.ECHO|unix.ISIG) == 0 &&
		termios.Oflag&unix.OPOST == 0

	return settings
}
