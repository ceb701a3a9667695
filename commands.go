package k720

import "fmt"

// Command payloads understood by the dispenser.
var (
	CmdGetVersion  = []byte("GV")
	CmdQuery       = []byte("RF")
	CmdSensorQuery = []byte("AP")
	CmdReset       = []byte("RS")
	CmdDispense    = []byte("DC")
	CmdRecycle     = []byte("CP")

	CmdS50Detect  = []byte{0x3B, 0x30}
	CmdS50CardID  = []byte{0x3B, 0x31}
	CmdS50LoadKey = []byte{0x3B, 0x32}
	CmdS70Detect  = []byte{0x3C, 0x30}
	CmdS70CardID  = []byte{0x3C, 0x31}
	CmdULDetect   = []byte{0x3D, 0x30}
	CmdULCardID   = []byte{0x3D, 0x31}
)

// KeyType selects which Mifare sector key a LoadSecKey call authenticates with.
type KeyType byte

const (
	KeyA KeyType = 0x30
	KeyB KeyType = 0x31
)

func (k KeyType) String() string {
	switch k {
	case KeyA:
		return "A"
	case KeyB:
		return "B"
	default:
		return fmt.Sprintf("KeyType(0x%02x)", byte(k))
	}
}

// KeySize is the length of a Mifare sector key.
const KeySize = 6

// Position is a card transport position reachable with a FC command.
type Position byte

const (
	PositionOutside    Position = '0' // FC0
	PositionTakeCard   Position = '4' // FC4
	PositionSensor2    Position = '6' // FC6
	PositionRead       Position = '7' // FC7
	PositionFrontEnter Position = '8' // FC8
)

var positionNames = map[Position]string{
	PositionOutside:    "outside",
	PositionTakeCard:   "take",
	PositionSensor2:    "sensor2",
	PositionRead:       "read",
	PositionFrontEnter: "front-enter",
}

func (p Position) String() string {
	if name, ok := positionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Position(%q)", byte(p))
}

// ParsePosition maps a name from Position.String back to a Position.
func ParsePosition(name string) (Position, error) {
	for p, n := range positionNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("k720: unknown position %q", name)
}

// MoveCardPayload returns the FC command for p.
func MoveCardPayload(p Position) ([]byte, error) {
	if _, ok := positionNames[p]; !ok {
		return nil, fmt.Errorf("k720: unknown position %q", byte(p))
	}
	return []byte{'F', 'C', byte(p)}, nil
}

// LoadSecKeyPayload builds the S50 sector key authentication payload:
// 0x3B 0x32, sector, key type, six key bytes.
func LoadSecKeyPayload(sector byte, keyType KeyType, key []byte) ([]byte, error) {
	if keyType != KeyA && keyType != KeyB {
		return nil, fmt.Errorf("%w: key type 0x%02x", ErrInvalidKey, byte(keyType))
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrInvalidKey, len(key), KeySize)
	}
	payload := make([]byte, 0, len(CmdS50LoadKey)+2+KeySize)
	payload = append(payload, CmdS50LoadKey...)
	payload = append(payload, sector, byte(keyType))
	payload = append(payload, key...)
	return payload, nil
}

// StatusOK is the leading status byte of a successful contactless reply.
const StatusOK byte = 'P'

// CardReply is a parsed contactless card operation reply.
type CardReply struct {
	Status byte
	OK     bool
	CardID []byte // bytes from offset 3 when OK
	Raw    []byte
}

// ParseCardReply interprets a contactless reply. The card id is only
// extracted for successful replies long enough to carry one.
func ParseCardReply(data []byte) (CardReply, error) {
	if len(data) == 0 {
		return CardReply{}, fmt.Errorf("%w: empty card reply", ErrShortPayload)
	}
	reply := CardReply{Status: data[0], OK: data[0] == StatusOK, Raw: data}
	if reply.OK && len(data) > 3 {
		reply.CardID = data[3:]
	}
	return reply, nil
}

// statusPayload implements the RF/AP reply convention: the first two bytes
// echo the command and the rest is the status.
func statusPayload(data []byte) ([]byte, error) {
	if len(data) < 3 {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortPayload, len(data))
	}
	return data[2:], nil
}
