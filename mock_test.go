package k720

import (
	"bytes"
	"errors"
)

// mockLine plays back scripted device bytes and records host writes.
// An empty read buffer behaves like a serial read timeout: 0, nil.
type mockLine struct {
	rx       bytes.Buffer
	tx       bytes.Buffer
	chunk    int // max bytes per Read; 0 means unlimited
	readErr  error
	writeErr error
	reads    int
}

func newMockLine(script ...[]byte) *mockLine {
	m := &mockLine{}
	for _, s := range script {
		m.rx.Write(s)
	}
	return m
}

func (m *mockLine) Read(p []byte) (int, error) {
	m.reads++
	if m.rx.Len() == 0 {
		if m.readErr != nil {
			return 0, m.readErr
		}
		return 0, nil
	}
	if m.chunk > 0 && len(p) > m.chunk {
		p = p[:m.chunk]
	}
	return m.rx.Read(p)
}

func (m *mockLine) Write(p []byte) (int, error) {
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	return m.tx.Write(p)
}

var errLineDown = errors.New("line down")

// ackFrame is what a device at addr sends to acknowledge a command.
func ackFrame(addr Address) []byte {
	d := addr.Digits()
	return []byte{ACK, d[0], d[1]}
}

// responseFrame builds a device response the way the dispenser frames it:
// length pair (0, n), XOR checksum over STX..ETX.
func responseFrame(addr Address, payload []byte) []byte {
	d := addr.Digits()
	frame := []byte{STX, d[0], d[1], 0x00, byte(len(payload))}
	frame = append(frame, payload...)
	frame = append(frame, ETX)
	var bcc byte
	for _, b := range frame {
		bcc ^= b
	}
	return append(frame, bcc)
}

// exchange scripts a full successful transaction reply.
func exchange(addr Address, payload []byte) [][]byte {
	return [][]byte{ackFrame(addr), responseFrame(addr, payload)}
}

func flatten(parts [][]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
