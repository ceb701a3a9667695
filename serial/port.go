package serial

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Port is an open serial line. Read blocks until data arrives or the read
// timeout elapses; on timeout it returns 0, nil.
type Port interface {
	io.ReadWriteCloser
	Drain() error
	FlushInput() error
	FlushOutput() error
	SetReadTimeout(timeout time.Duration) error
}

// Parity is the parity bit mode
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
	ParityMark
	ParitySpace
)

func (p Parity) String() string {
	if p < ParityNone || p > ParitySpace {
		return "?"
	}
	return string("NOEMS"[p])
}

var baudRates = map[int]uint32{
	1200:   unix.B1200,
	2400:   unix.B2400,
	4800:   unix.B4800,
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
	230400: unix.B230400,
}

func getBaudRate(rate int) (uint32, error) {
	speed, ok := baudRates[rate]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrInvalidBaudRate, rate)
	}
	return speed, nil
}

var charSizes = map[int]uint32{5: unix.CS5, 6: unix.CS6, 7: unix.CS7, 8: unix.CS8}

var parityFlags = map[Parity]uint32{
	ParityNone:  0,
	ParityOdd:   unix.PARENB | unix.PARODD,
	ParityEven:  unix.PARENB,
	ParityMark:  unix.PARENB | unix.PARODD | unix.CMSPAR,
	ParitySpace: unix.PARENB | unix.CMSPAR,
}

// port is the termios backend
type port struct {
	mu     sync.RWMutex
	fd     int
	device string
	config Config
	closed bool
}

var _ Port = (*port)(nil)

// Open opens device with the termios backend. Without options the line is
// set up for a K720: 9600 8N1, one second read timeout.
func Open(device string, opts ...Option) (Port, error) {
	config, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	flags := unix.O_RDWR | unix.O_NOCTTY
	if config.WriteMode == WriteModeSynced {
		flags |= unix.O_SYNC
	}
	fd, err := unix.Open(device, flags, 0)
	if err != nil {
		return nil, openError(device, err)
	}

	if err := configurePort(fd, config); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("configure %s: %w", device, err)
	}
	return &port{fd: fd, device: device, config: config}, nil
}

func openError(device string, err error) error {
	switch {
	case errors.Is(err, unix.ENOENT), errors.Is(err, unix.ENODEV), errors.Is(err, unix.ENXIO):
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, device)
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, device)
	case errors.Is(err, unix.EBUSY):
		return fmt.Errorf("%w: %s", ErrDeviceInUse, device)
	default:
		return fmt.Errorf("open %s: %w", device, err)
	}
}

// configurePort puts the line in raw mode. VMIN=0 with VTIME set makes a
// read return 0 bytes once the timeout passes without input.
func configurePort(fd int, config Config) error {
	speed, err := getBaudRate(config.BaudRate)
	if err != nil {
		return err
	}

	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("get termios: %w", err)
	}

	t.Iflag, t.Oflag, t.Lflag = 0, 0, 0
	t.Cflag = unix.CREAD | unix.CLOCAL | speed | charSizes[config.DataBits] | parityFlags[config.Parity]
	if config.StopBits == 2 {
		t.Cflag |= unix.CSTOPB
	}
	t.Ispeed, t.Ospeed = speed, speed
	t.Cc[unix.VMIN] = 0
	t.Cc[unix.VTIME] = config.readTimeoutTenths()

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		return fmt.Errorf("set termios: %w", err)
	}
	// drop whatever a previous session left in the buffers
	return unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCIOFLUSH)
}

// use runs fn with the descriptor while holding the read lock
func (p *port) use(fn func(fd int) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPortClosed
	}
	return fn(p.fd)
}

func (p *port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPortClosed
	}
	p.closed = true
	return unix.Close(p.fd)
}

// Read retries reads interrupted by signals so a timeout is the only way
// to get 0 bytes back.
func (p *port) Read(buf []byte) (n int, err error) {
	err = p.use(func(fd int) error {
		for {
			n, err = unix.Read(fd, buf)
			if !errors.Is(err, unix.EINTR) {
				break
			}
		}
		n = max(n, 0)
		return err
	})
	return n, err
}

func (p *port) Write(data []byte) (n int, err error) {
	err = p.use(func(fd int) error {
		n, err = unix.Write(fd, data)
		return err
	})
	return n, err
}

// SetReadTimeout changes VTIME on the open line
func (p *port) SetReadTimeout(timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPortClosed
	}

	cfg := p.config
	if err := WithReadTimeout(timeout)(&cfg); err != nil {
		return err
	}
	t, err := unix.IoctlGetTermios(p.fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("get termios: %w", err)
	}
	t.Cc[unix.VTIME] = cfg.readTimeoutTenths()
	if err := unix.IoctlSetTermios(p.fd, unix.TCSETS, t); err != nil {
		return fmt.Errorf("set termios: %w", err)
	}
	p.config = cfg
	return nil
}

// Drain blocks until written output has been transmitted
func (p *port) Drain() error {
	return p.use(func(fd int) error { return unix.IoctlSetInt(fd, unix.TCSBRK, 1) })
}

func (p *port) FlushInput() error {
	return p.use(func(fd int) error { return unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCIFLUSH) })
}

func (p *port) FlushOutput() error {
	return p.use(func(fd int) error { return unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCOFLUSH) })
}
