// Package serial opens and configures Linux serial devices for writing.
//
// # Basic Usage
//
// Open a port with the default configuration (115200 8N1, no flow control,
// raw mode):
//
//	port, err := serial.Open("/dev/ttyUSB0")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	n, err := port.Write([]byte("42\n"))
//
// The device is opened write-only with O_NOCTTY, so it never becomes the
// controlling terminal of the process.
//
// # Configuration Options
//
//	port, err := serial.Open("/dev/ttyUSB0",
//	    serial.WithBaudRate(9600),
//	    serial.WithParity(serial.ParityEven),
//	    serial.WithFlowControl(serial.FlowControlRTSCTS),
//	    serial.WithSyncWrite(),
//	)
//
// # Line Configuration
//
// Open reads the current termios attributes, then:
//
//   - sets input and output speed
//   - sets the character size
//   - clears IGNBRK
//   - clears all local and output processing flags (raw mode)
//   - sets VMIN and VTIME
//   - disables XON/XOFF unless software flow control is requested
//   - sets CLOCAL and CREAD
//   - applies parity, stop bits and RTS/CTS
//
// and commits the result with TCSETS, which takes effect immediately.
// Port.LineSettings reads the attributes back from the device.
//
// # Error Handling
//
// Failures while opening wrap ErrDeviceOpen, failures while reading the
// current attributes wrap ErrAttributeRead and failures while committing
// them wrap ErrAttributeWrite. The OS error is wrapped as well:
//
//	if errors.Is(err, serial.ErrDeviceOpen) && errors.Is(err, os.ErrNotExist) {
//	    // no such device
//	}
//
// The descriptor is always closed before Open returns an error.
//
// # Port Discovery
//
//	ports, err := serial.ListPorts()
//	for _, path := range ports {
//	    info, _ := serial.GetPortInfo(path)
//	    fmt.Printf("%s: %s (%s)\n", info.Path, info.Description, info.Driver)
//	}
package serial
