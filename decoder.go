package k720

import (
	"errors"
	"fmt"
	"io"
)

// ResponseFrame is a fully validated response read from the device.
type ResponseFrame struct {
	Address  Address
	Length   int // declared length, decoded with the hi*255+lo rule
	Payload  []byte
	Checksum byte

	raw Frame
}

// Bytes returns the frame exactly as received, STX through BCC.
func (r *ResponseFrame) Bytes() Frame {
	return r.raw
}

// DecodeResponse reads one response frame for addr from r and validates it
// field by field. Any mismatch or short read yields a *ProtocolError and no
// frame; nothing partial is ever returned.
func DecodeResponse(r io.Reader, addr Address) (*ResponseFrame, error) {
	return decodeResponse(r, addr, newDriverLog(DefaultConfig()))
}

func decodeResponse(r io.Reader, addr Address, log *driverLog) (*ResponseFrame, error) {
	if err := addr.Validate(); err != nil {
		return nil, err
	}

	raw := make(Frame, 0, commandOverhead)

	stx, err := readField(r, 1, StageSTX, log)
	if err != nil {
		return nil, err
	}
	if stx[0] != STX {
		return nil, protocolErr(StageSTX, fmt.Sprintf("expected 0x%02x, got 0x%02x", STX, stx[0]), nil)
	}
	raw = append(raw, stx...)

	got, err := readField(r, 2, StageAddress, log)
	if err != nil {
		return nil, err
	}
	if !addressMatches(got, addr) {
		return nil, protocolErr(StageAddress, fmt.Sprintf("expected %q, got %q", addr.Digits(), got), nil)
	}
	raw = append(raw, got...)

	length, err := readField(r, 2, StageLength, log)
	if err != nil {
		return nil, err
	}
	n := DecodedLength(length[0], length[1])
	raw = append(raw, length...)

	payload, err := readField(r, n, StagePayload, log)
	if err != nil {
		return nil, err
	}
	raw = append(raw, payload...)

	etx, err := readField(r, 1, StageETX, log)
	if err != nil {
		return nil, err
	}
	if etx[0] != ETX {
		return nil, protocolErr(StageETX, fmt.Sprintf("expected 0x%02x, got 0x%02x", ETX, etx[0]), nil)
	}
	raw = append(raw, etx...)

	bcc, err := readField(r, 1, StageChecksum, log)
	if err != nil {
		return nil, err
	}
	if want := Checksum(raw); bcc[0] != want {
		return nil, protocolErr(StageChecksum, fmt.Sprintf("expected 0x%02x, got 0x%02x", want, bcc[0]), nil)
	}
	raw = append(raw, bcc...)

	log.packet("received", raw)

	return &ResponseFrame{
		Address:  addr,
		Length:   n,
		Payload:  payload,
		Checksum: bcc[0],
		raw:      raw,
	}, nil
}

// ExtractPayload slices the payload out of a complete response frame using
// the length at offsets 3 and 4. It reports false for frames shorter than
// five bytes or shorter than their declared length.
func ExtractPayload(frame []byte) ([]byte, bool) {
	if len(frame) < 5 {
		return nil, false
	}
	n := DecodedLength(frame[3], frame[4])
	if 5+n > len(frame) {
		return nil, false
	}
	return frame[5 : 5+n], true
}

// addressMatches compares the two received address bytes with the
// zero-padded digits of addr.
func addressMatches(got []byte, addr Address) bool {
	d := addr.Digits()
	return len(got) == 2 && got[0] == d[0] && got[1] == d[1]
}

func readField(r io.Reader, n int, stage Stage, log *driverLog) ([]byte, error) {
	buf, err := readExact(r, n)
	log.field(stage, buf)
	if err != nil {
		return nil, protocolErr(stage, fmt.Sprintf("short read: %d of %d bytes", len(buf), n), err)
	}
	return buf, nil
}

// readExact reads until n bytes have arrived. A read returning no bytes and
// no error is the transport's read timeout and ends the attempt with
// ErrTimeout. The bytes read so far are returned alongside any error.
func readExact(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	got := 0
	for got < n {
		m, err := r.Read(buf[got:])
		got += m
		if got == n {
			break
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return buf[:got], err
		}
		if m == 0 {
			return buf[:got], ErrTimeout
		}
	}
	return buf, nil
}
