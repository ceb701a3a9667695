package k720

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeResponse(t *testing.T) {
	raw := responseFrame(15, []byte("K720 v1.0"))

	resp, err := DecodeResponse(newMockLine(raw), 15)
	require.NoError(t, err)
	assert.Equal(t, Address(15), resp.Address)
	assert.Equal(t, 9, resp.Length)
	assert.Equal(t, []byte("K720 v1.0"), resp.Payload)
	assert.Equal(t, raw[len(raw)-1], resp.Checksum)
	assert.Equal(t, Frame(raw), resp.Bytes())
}

func TestDecodeResponseByteAtATime(t *testing.T) {
	line := newMockLine(responseFrame(7, []byte("P00123")))
	line.chunk = 1

	resp, err := DecodeResponse(line, 7)
	require.NoError(t, err)
	assert.Equal(t, []byte("P00123"), resp.Payload)
}

func TestDecodeResponseRoundTrip(t *testing.T) {
	payloads := [][]byte{
		{0x30},
		[]byte("GV"),
		[]byte("RF001"),
		{0x3B, 0x32, 0x00, 0x30, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
	}
	for addr := Address(0); addr <= MaxAddress; addr++ {
		for _, p := range payloads {
			frame, err := EncodeCommand(addr, p)
			require.NoError(t, err)

			resp, err := DecodeResponse(newMockLine(frame), addr)
			require.NoError(t, err, "address %d payload %q", addr, p)
			assert.Equal(t, p, resp.Payload)
		}
	}
}

func TestDecodeResponseBitFlips(t *testing.T) {
	frame := responseFrame(15, []byte("RF001"))

	for i := 0; i < len(frame)-1; i++ {
		for bit := 0; bit < 8; bit++ {
			corrupt := append([]byte{}, frame...)
			corrupt[i] ^= 1 << bit

			_, err := DecodeResponse(newMockLine(corrupt), 15)
			require.Error(t, err, "byte %d bit %d", i, bit)
			assert.ErrorIs(t, err, ErrProtocol, "byte %d bit %d", i, bit)
		}
	}
}

func TestDecodeResponseAddressMismatch(t *testing.T) {
	for addr := Address(0); addr < MaxAddress; addr++ {
		_, err := DecodeResponse(newMockLine(responseFrame(addr+1, []byte("GV"))), addr)
		require.ErrorIs(t, err, ErrProtocol)

		var pe *ProtocolError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, StageAddress, pe.Stage)
	}
}

func TestDecodeResponseFailures(t *testing.T) {
	good := responseFrame(15, []byte("AP0001"))

	tests := []struct {
		name  string
		input []byte
		stage Stage
		cause error
	}{
		{"nothing received", nil, StageSTX, ErrTimeout},
		{"wrong start marker", append([]byte{ACK}, good[1:]...), StageSTX, nil},
		{"truncated after address", good[:3], StageLength, ErrTimeout},
		{"truncated payload", good[:7], StagePayload, ErrTimeout},
		{"missing ETX", good[:len(good)-2], StageETX, ErrTimeout},
		{"missing BCC", good[:len(good)-1], StageChecksum, ErrTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := DecodeResponse(newMockLine(tt.input), 15)
			assert.Nil(t, resp)
			require.ErrorIs(t, err, ErrProtocol)

			var pe *ProtocolError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.stage, pe.Stage)
			if tt.cause != nil {
				assert.ErrorIs(t, err, tt.cause)
			}
		})
	}
}

func TestDecodeResponseTransportError(t *testing.T) {
	good := responseFrame(15, []byte("GV"))
	line := newMockLine(good[:4])
	line.readErr = io.EOF

	_, err := DecodeResponse(line, 15)
	require.ErrorIs(t, err, ErrProtocol)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDecodeResponseInvalidAddress(t *testing.T) {
	_, err := DecodeResponse(newMockLine(), 16)
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestExtractPayload(t *testing.T) {
	frame := responseFrame(15, []byte("K720"))

	payload, ok := ExtractPayload(frame)
	require.True(t, ok)
	assert.Equal(t, []byte("K720"), payload)

	_, ok = ExtractPayload(frame[:4])
	assert.False(t, ok)

	// declares 4 bytes, carries 2
	_, ok = ExtractPayload(frame[:7])
	assert.False(t, ok)

	// 255 byte rule: (1, 0) declares 255 bytes
	_, ok = ExtractPayload([]byte{STX, '1', '5', 0x01, 0x00, 'x'})
	assert.False(t, ok)

	payload, ok = ExtractPayload([]byte{STX, '1', '5', 0x00, 0x00, ETX})
	require.True(t, ok)
	assert.Empty(t, payload)
}

func TestReadExact(t *testing.T) {
	line := newMockLine([]byte{1, 2, 3, 4})
	line.chunk = 1

	b, err := readExact(line, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, b)

	b, err = readExact(line, 2)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, []byte{4}, b)

	b, err = readExact(line, 0)
	require.NoError(t, err)
	assert.Empty(t, b)
}
