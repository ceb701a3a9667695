package serial

import "errors"

// Open and configuration failures. Returned errors wrap these with the
// device path or offending value; test with errors.Is.
var (
	ErrDeviceNotFound   = errors.New("serial: no such device")
	ErrPermissionDenied = errors.New("serial: permission denied")
	ErrDeviceInUse      = errors.New("serial: device busy")
	ErrInvalidBaudRate  = errors.New("serial: unsupported baud rate")
	ErrInvalidConfig    = errors.New("serial: invalid line setting")
	ErrUnknownBackend   = errors.New("serial: unknown backend")
)

// ErrPortClosed is returned by every operation on a closed port.
var ErrPortClosed = errors.New("serial: port closed")
