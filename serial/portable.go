package serial

import (
	"errors"
	"fmt"
	"strings"
	"time"

	bugst "go.bug.st/serial"
)

// Backend selects the implementation behind a Port.
type Backend string

const (
	BackendTermios  Backend = "termios"
	BackendPortable Backend = "portable"
)

// ParseBackend accepts "termios" or "portable". An empty string selects termios.
func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case "", BackendTermios:
		return BackendTermios, nil
	case BackendPortable:
		return BackendPortable, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
	}
}

// OpenWith opens device using the given backend.
func OpenWith(backend Backend, device string, opts ...Option) (Port, error) {
	switch backend {
	case BackendTermios, "":
		return Open(device, opts...)
	case BackendPortable:
		return OpenPortable(device, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

type portablePort struct {
	p bugst.Port
}

var _ Port = (*portablePort)(nil)

// OpenPortable opens device through go.bug.st/serial. Useful where the
// USB adapter driver misbehaves with raw termios ioctls.
func OpenPortable(device string, opts ...Option) (Port, error) {
	config, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	p, err := bugst.Open(device, bugstMode(config))
	if err != nil {
		return nil, portableError(device, err)
	}

	if err := p.SetReadTimeout(config.ReadTimeout); err != nil {
		p.Close()
		return nil, portableError(device, err)
	}

	return &portablePort{p: p}, nil
}

func bugstMode(c Config) *bugst.Mode {
	mode := &bugst.Mode{
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
		StopBits: bugst.OneStopBit,
	}
	if c.StopBits == 2 {
		mode.StopBits = bugst.TwoStopBits
	}
	switch c.Parity {
	case ParityOdd:
		mode.Parity = bugst.OddParity
	case ParityEven:
		mode.Parity = bugst.EvenParity
	case ParityMark:
		mode.Parity = bugst.MarkParity
	case ParitySpace:
		mode.Parity = bugst.SpaceParity
	default:
		mode.Parity = bugst.NoParity
	}
	return mode
}

func portableError(device string, err error) error {
	var perr *bugst.PortError
	if !errors.As(err, &perr) {
		return fmt.Errorf("failed to open %s: %w", device, err)
	}
	switch perr.Code() {
	case bugst.PortNotFound:
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, device)
	case bugst.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrPermissionDenied, device)
	case bugst.PortBusy:
		return fmt.Errorf("%w: %s", ErrDeviceInUse, device)
	case bugst.InvalidSpeed:
		return ErrInvalidBaudRate
	case bugst.InvalidDataBits, bugst.InvalidParity, bugst.InvalidStopBits, bugst.InvalidTimeoutValue:
		return fmt.Errorf("%w: %v", ErrInvalidConfig, perr)
	case bugst.PortClosed:
		return ErrPortClosed
	default:
		return fmt.Errorf("%s: %w", device, perr)
	}
}

func (pp *portablePort) Read(buf []byte) (int, error) {
	n, err := pp.p.Read(buf)
	if err != nil {
		return n, portableError("read", err)
	}
	return n, nil
}

func (pp *portablePort) Write(data []byte) (int, error) {
	n, err := pp.p.Write(data)
	if err != nil {
		return n, portableError("write", err)
	}
	return n, nil
}

func (pp *portablePort) Close() error { return pp.p.Close() }

func (pp *portablePort) Drain() error { return pp.p.Drain() }

func (pp *portablePort) FlushInput() error { return pp.p.ResetInputBuffer() }

func (pp *portablePort) FlushOutput() error { return pp.p.ResetOutputBuffer() }

func (pp *portablePort) SetReadTimeout(timeout time.Duration) error {
	var c Config
	if err := WithReadTimeout(timeout)(&c); err != nil {
		return err
	}
	return pp.p.SetReadTimeout(timeout)
}

// ListPortsPortable enumerates ports through go.bug.st/serial.
func ListPortsPortable() ([]string, error) {
	ports, err := bugst.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate ports: %w", err)
	}
	return ports, nil
}
