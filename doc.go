// Package k720 drives K720 card dispensers and readers over a serial line.
//
// Every exchange is a two phase handshake on a half-duplex, possibly
// multi-drop, line: the host writes a command frame and the device
// acknowledges it; the host then writes an enquiry and the device answers
// with a response frame whose payload carries the result.
//
// # Basic Usage
//
// Open a port with the serial subpackage and bind it to a device address:
//
//	port, err := serial.Open("/dev/ttyS0", serial.WithBaudRate(9600))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	dev, err := k720.NewDevice(port, 15)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close()
//
//	version, err := dev.GetSysVersion()
//	state, err := dev.State()
//	if state.Has(k720.CardAtSensor1) {
//	    id, _ := dev.S50GetCardID()
//	}
//
// # Frames
//
// A command frame is
//
//	STX | addr hi | addr lo | len | len | payload... | ETX | BCC
//
// where the address is two ASCII digits, BCC is the XOR of every preceding
// byte and the length pair is transmitted as ((n<<8)&0xFF, n&0xFF). A
// received length pair is decoded as hi*255 + lo. Both quirks are part of
// the device protocol and are reproduced exactly; see EncodedLength and
// DecodedLength.
//
// An enquiry frame is ENQ followed by the address digits.
//
// # Logging
//
// Logging is configured per driver instance, never globally:
//
//	dev, err := k720.NewDevice(port, 15,
//	    k720.WithLogger(logger),
//	    k720.WithVerbosity(k720.LogDebug),
//	)
//
// LogTrace logs every received field, LogDebug logs whole frames and
// LogWarn logs failed transactions. LogNone, the default, logs nothing.
//
// # Error Handling
//
// Invalid input is rejected before any I/O with ErrInvalidAddress or
// ErrEmptyPayload. Anything that goes wrong on the line, including read
// timeouts, is a *ProtocolError matching ErrProtocol:
//
//	if errors.Is(err, k720.ErrProtocol) {
//	    // retry, reset the device, ...
//	}
//
// The driver never retries. Retry policy belongs to the caller.
package k720
