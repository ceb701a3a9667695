package k720

import (
	"errors"
	"io"
	"sync"
)

// Device issues catalog commands to one dispenser address over a transport.
//
// Device serializes its own transactions and is safe for concurrent use.
// Sharing one transport between several Device values is not.
type Device struct {
	mu        sync.Mutex
	transport Transport
	addr      Address
	orch      *Orchestrator
}

// NewDevice binds a transport to a device address.
//
// Example:
//
//	port, _ := serial.Open("/dev/ttyS0", serial.WithBaudRate(9600))
//	dev, err := k720.NewDevice(port, 15, k720.WithLogger(logger))
//	version, err := dev.GetSysVersion()
func NewDevice(t Transport, addr Address, opts ...Option) (*Device, error) {
	if t == nil {
		return nil, errors.New("k720: nil transport")
	}
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	orch, err := NewOrchestrator(opts...)
	if err != nil {
		return nil, err
	}
	return &Device{transport: t, addr: addr, orch: orch}, nil
}

// Address returns the device address.
func (d *Device) Address() Address {
	return d.addr
}

// Close closes the transport if it is an io.Closer.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.transport.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Transact runs one named exchange and returns its full record.
func (d *Device) Transact(name string, payload []byte) *Transaction {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.orch.Execute(d.transport, name, d.addr, payload)
}

func (d *Device) exec(name string, payload []byte) ([]byte, error) {
	tx := d.Transact(name, payload)
	return tx.Result, tx.Err
}

// GetSysVersion returns the firmware version string.
func (d *Device) GetSysVersion() (string, error) {
	data, err := d.exec("get-version", CmdGetVersion)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Query runs the RF sensor check and returns the status characters.
func (d *Device) Query() ([]byte, error) {
	data, err := d.exec("query", CmdQuery)
	if err != nil {
		return nil, err
	}
	return statusPayload(data)
}

// SensorQuery runs the AP advanced sensor check and returns the status
// characters.
func (d *Device) SensorQuery() ([]byte, error) {
	data, err := d.exec("sensor-query", CmdSensorQuery)
	if err != nil {
		return nil, err
	}
	return statusPayload(data)
}

// State runs SensorQuery and folds the reply.
func (d *Device) State() (SensorState, error) {
	data, err := d.exec("sensor-query", CmdSensorQuery)
	if err != nil {
		return 0, err
	}
	return ParseSensorReply(data)
}

// SendCmd sends an arbitrary text command and returns the raw payload.
func (d *Device) SendCmd(command string) ([]byte, error) {
	return d.exec("send", []byte(command))
}

func (d *Device) S50DetectCard() ([]byte, error) {
	return d.exec("s50-detect", CmdS50Detect)
}

func (d *Device) S50GetCardID() ([]byte, error) {
	return d.exec("s50-card-id", CmdS50CardID)
}

// S50LoadSecKey authenticates sector with a six byte key. The reply status
// is 'P' when the key was accepted.
func (d *Device) S50LoadSecKey(sector byte, keyType KeyType, key []byte) ([]byte, error) {
	payload, err := LoadSecKeyPayload(sector, keyType, key)
	if err != nil {
		return nil, err
	}
	return d.exec("s50-load-key", payload)
}

func (d *Device) S70DetectCard() ([]byte, error) {
	return d.exec("s70-detect", CmdS70Detect)
}

func (d *Device) S70GetCardID() ([]byte, error) {
	return d.exec("s70-card-id", CmdS70CardID)
}

func (d *Device) ULDetectCard() ([]byte, error) {
	return d.exec("ul-detect", CmdULDetect)
}

func (d *Device) ULGetCardID() ([]byte, error) {
	return d.exec("ul-card-id", CmdULCardID)
}

// Reset reinitializes the dispenser mechanism.
func (d *Device) Reset() ([]byte, error) {
	return d.exec("reset", CmdReset)
}

// DispenseCard issues a card to the front.
func (d *Device) DispenseCard() ([]byte, error) {
	return d.exec("dispense", CmdDispense)
}

// RecycleCard captures the card into the recycling box.
func (d *Device) RecycleCard() ([]byte, error) {
	return d.exec("recycle", CmdRecycle)
}

// MoveCard transports the card to p.
func (d *Device) MoveCard(p Position) ([]byte, error) {
	payload, err := MoveCardPayload(p)
	if err != nil {
		return nil, err
	}
	return d.exec("move-"+p.String(), payload)
}
