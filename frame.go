package k720

import (
	"fmt"
	"strconv"
)

// Wire markers.
const (
	STX byte = 0x02
	ETX byte = 0x03
	ENQ byte = 0x05
	ACK byte = 0x06
	NAK byte = 0x15
)

// MaxAddress is the highest device address on a multi-drop line.
const MaxAddress = 15

// Address selects one device on a shared line.
type Address int

// Validate returns ErrInvalidAddress when a is outside [0, MaxAddress].
func (a Address) Validate() error {
	if a < 0 || a > MaxAddress {
		return fmt.Errorf("%w: %d", ErrInvalidAddress, int(a))
	}
	return nil
}

// String returns the unpadded decimal form, e.g. "9" or "15".
func (a Address) String() string {
	return strconv.Itoa(int(a))
}

// Digits returns the two ASCII digits the address is transmitted as.
// Addresses below 10 are zero padded: 9 becomes '0','9'.
func (a Address) Digits() [2]byte {
	return [2]byte{byte('0' + int(a)/10), byte('0' + int(a)%10)}
}

// ParseAddress converts a decimal string to a validated Address.
func ParseAddress(s string) (Address, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	a := Address(n)
	if err := a.Validate(); err != nil {
		return 0, err
	}
	return a, nil
}

// Frame is an encoded packet ready to be written to the line.
type Frame []byte

func (f Frame) String() string {
	return FormatPacket("", f)
}

// commandOverhead is STX, two address digits, two length bytes, ETX and BCC.
const commandOverhead = 7

// EncodedLength returns the two length bytes in transmission order.
//
// The K720 family transmits (n<<8)&0xFF first and n&0xFF second, so the
// first byte is always zero and lengths above 255 are truncated. Devices
// expect exactly this, so it is reproduced rather than corrected.
func EncodedLength(n int) (first, second byte) {
	return byte((n << 8) & 0xFF), byte(n & 0xFF)
}

// DecodedLength interprets a received length pair as hi*255 + lo.
// The multiplier is 255, not 256, matching the device tooling.
func DecodedLength(hi, lo byte) int {
	return int(hi)*255 + int(lo)
}

// EncodeCommand builds a command frame:
//
//	STX | addr digit hi | addr digit lo | len | len | payload... | ETX | BCC
//
// No I/O is performed.
func EncodeCommand(addr Address, payload []byte) (Frame, error) {
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}

	digits := addr.Digits()
	first, second := EncodedLength(len(payload))

	frame := make(Frame, 0, commandOverhead+len(payload))
	frame = append(frame, STX, digits[0], digits[1], first, second)
	frame = append(frame, payload...)
	frame = append(frame, ETX)
	frame = append(frame, Checksum(frame))
	return frame, nil
}

// EncodeEnquiry builds the three byte enquiry frame ENQ + address digits.
func EncodeEnquiry(addr Address) (Frame, error) {
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	digits := addr.Digits()
	return Frame{ENQ, digits[0], digits[1]}, nil
}

// FormatPacket renders packet as "0x02 0x31 ..." behind prefix.
func FormatPacket(prefix string, packet []byte) string {
	buf := make([]byte, 0, len(prefix)+len(packet)*5)
	buf = append(buf, prefix...)
	for _, b := range packet {
		buf = fmt.Appendf(buf, "0x%02x ", b)
	}
	return string(buf)
}
