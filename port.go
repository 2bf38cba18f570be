package serial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sys/unix"
)

// Port is a configured, write-only serial port.
type Port interface {
	io.WriteCloser
	WriteContext(ctx context.Context, data []byte) (int, error)
	Drain() error
	FlushOutput() error

	// LineSettings re-reads the line configuration from the device.
	LineSettings() (LineSettings, error)
	Device() string
}

// port is the concrete implementation of the Port interface
type port struct {
	mu     sync.RWMutex
	fd     int
	device string
	config Config
	closed bool
}

// pollTimeoutMillis bounds how long a blocked write goes without checking
// its context.
const pollTimeoutMillis = 10

// Ensure port implements Port interface at compile time
var _ Port = (*port)(nil)

// Open opens device for writing and applies the line configuration built
// from DefaultConfig and opts. The descriptor is closed again if any step
// after the open itself fails.
func Open(device string, opts ...Option) (Port, error) {
	config, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	// O_NOCTTY keeps the device from becoming our controlling terminal.
	// The descriptor stays non-blocking; writes wait for room with poll.
	flags := unix.O_WRONLY | unix.O_NOCTTY | unix.O_NONBLOCK | unix.O_CLOEXEC
	if config.WriteMode == WriteModeSynced {
		flags |= unix.O_SYNC
	}

	fd, err := unix.Open(device, flags, 0)
	if err != nil {
		return nil, openError(device, err)
	}

	if err := checkCharDevice(fd); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w %s: %w", ErrDeviceOpen, device, err)
	}

	if err := configurePort(fd, config); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%s: %w", device, err)
	}

	return &port{
		fd:     fd,
		device: device,
		config: config,
	}, nil
}

func openError(device string, err error) error {
	switch {
	case errors.Is(err, unix.ENOENT):
		err = fmt.Errorf("%w: %w", ErrDeviceNotFound, err)
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		err = fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	case errors.Is(err, unix.EBUSY):
		err = fmt.Errorf("%w: %w", ErrDeviceInUse, err)
	}
	return fmt.Errorf("%w %s: %w", ErrDeviceOpen, device, err)
}

func checkCharDevice(fd int) error {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return err
	}
	if st.Mode&unix.S_IFMT != unix.S_IFCHR {
		return ErrNotCharDevice
	}
	return nil
}

// Device returns the path the port was opened with
func (p *port) Device() string {
	return p.device
}

// Close closes the serial port
func (p *port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}

	err := unix.Close(p.fd)
	p.closed = true
	return err
}

// Write writes all of data, waiting for the device to accept it
func (p *port) Write(data []byte) (int, error) {
	return p.WriteContext(context.Background(), data)
}

// WriteContext writes all of data unless ctx ends first. Nothing is left
// in flight when it returns, so the port can be closed right away.
func (p *port) WriteContext(ctx context.Context, data []byte) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrPortClosed
	}

	written := 0
	for written < len(data) {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		n, err := unix.Write(p.fd, data[written:])
		if n > 0 {
			written += n
		}
		switch {
		case err == nil:
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
			if err := p.waitWritable(ctx); err != nil {
				return written, err
			}
		default:
			return written, err
		}
	}
	return written, nil
}

// waitWritable polls until the output queue has room or ctx ends.
func (p *port) waitWritable(ctx context.Context) error {
	for {
		fds := []unix.PollFd{{Fd: int32(p.fd), Events: unix.POLLOUT}}
		_, err := unix.Poll(fds, pollTimeoutMillis)
		if err != nil && !errors.Is(err, unix.EINTR) {
			return err
		}
		if fds[0].Revents&(unix.POLLOUT|unix.POLLERR|unix.POLLHUP) != 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// LineSettings reads back the committed line configuration
func (p *port) LineSettings() (LineSettings, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return LineSettings{}, ErrPortClosed
	}

	termios, err := getTermios(p.fd)
	if err != nil {
		return LineSettings{}, fmt.Errorf("%w: %w", ErrAttributeRead, err)
	}
	return decodeLineSettings(termios), nil
}

// Drain waits until all output written to the port has been transmitted
func (p *port) Drain() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPortClosed
	}

	return unix.IoctlSetInt(p.fd, unix.TCSBRK, 1)
}

// FlushOutput discards any unwritten output data
func (p *port) FlushOutput() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPortClosed
	}

	return unix.IoctlSetInt(p.fd, unix.TCFLSH, unix.TCOFLUSH)
}
