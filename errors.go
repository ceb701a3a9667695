package k720

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the driver. Use errors.Is to match them.
var (
	ErrInvalidAddress    = errors.New("k720: address out of range [0,15]")
	ErrEmptyPayload      = errors.New("k720: empty payload")
	ErrProtocol          = errors.New("k720: protocol error")
	ErrTimeout           = errors.New("k720: transport read timed out")
	ErrNAK               = errors.New("k720: device replied NAK")
	ErrShortPayload      = errors.New("k720: response payload too short")
	ErrInvalidKey        = errors.New("k720: invalid sector key")
	ErrIllegalTransition = errors.New("k720: illegal transaction state transition")
)

// Stage names the part of the exchange a ProtocolError was raised in.
type Stage string

const (
	StageWriteCommand Stage = "write-command"
	StageAck          Stage = "ack"
	StageWriteEnquiry Stage = "write-enquiry"
	StageSTX          Stage = "stx"
	StageAddress      Stage = "address"
	StageLength       Stage = "length"
	StagePayload      Stage = "payload"
	StageETX          Stage = "etx"
	StageChecksum     Stage = "bcc"
	StageExtract      Stage = "extract"
)

// ProtocolError describes a failed handshake or a malformed response.
// It always matches ErrProtocol and unwraps to its cause, if any.
type ProtocolError struct {
	Stage  Stage
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("k720: %s: %s: %v", e.Stage, e.Reason, e.Err)
	}
	return fmt.Sprintf("k720: %s: %s", e.Stage, e.Reason)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// Is reports ErrProtocol as a match so callers can test the error kind
// without caring about the stage.
func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}

func protocolErr(stage Stage, reason string, err error) *ProtocolError {
	return &ProtocolError{Stage: stage, Reason: reason, Err: err}
}

// IsProtocolError returns true if err is or wraps a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}
