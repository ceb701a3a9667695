package k720

// SensorState is the bit set folded from a status query reply.
type SensorState uint16

const (
	CardAtSensor1        SensorState = 0x0001
	CardAtSensor2        SensorState = 0x0002
	CardAtSensor3        SensorState = 0x0004
	CardEmpty            SensorState = 0x0008
	CardPreEmpty         SensorState = 0x0010
	CardJam              SensorState = 0x0020
	CardOverlap          SensorState = 0x0040
	HopperFull           SensorState = 0x0080
	RecyclingError       SensorState = 0x0100
	IssuingError         SensorState = 0x0200
	CollectingCard       SensorState = 0x0400
	SendingCard          SensorState = 0x0800
	PreparingCard        SensorState = 0x1000
	PrepareCardFailure   SensorState = 0x2000
	CommandNotExecutable SensorState = 0x4000
	RecyclingBoxFull     SensorState = 0x8000
)

// Flag pairs a state bit with its description.
type Flag struct {
	Bit         SensorState
	Description string
}

// Flags lists every known state bit in ascending order.
var Flags = []Flag{
	{CardAtSensor1, "Card at sensor 1 position"},
	{CardAtSensor2, "Card at sensor 2 position"},
	{CardAtSensor3, "Card at sensor 3 position"},
	{CardEmpty, "Card empty"},
	{CardPreEmpty, "Card pre-empty"},
	{CardJam, "Card jam"},
	{CardOverlap, "Card overlap"},
	{HopperFull, "Card hopper full"},
	{RecyclingError, "Error of recycling card"},
	{IssuingError, "Error of issuing card"},
	{CollectingCard, "Collecting card"},
	{SendingCard, "Sending card"},
	{PreparingCard, "Preparing card"},
	{PrepareCardFailure, "Prepare card failure"},
	{CommandNotExecutable, "Could not implement command"},
	{RecyclingBoxFull, "Recycling box full"},
}

// CalculateState folds status characters into a SensorState, four bits per
// character: state = state<<4 | (c - '0'). Only the last four characters
// survive the 16-bit shift.
func CalculateState(query []byte) SensorState {
	var state SensorState
	for _, c := range query {
		state <<= 4
		state |= SensorState(c - '0')
	}
	return state
}

// ParseSensorReply folds a raw AP reply payload into a SensorState.
func ParseSensorReply(data []byte) (SensorState, error) {
	q, err := statusPayload(data)
	if err != nil {
		return 0, err
	}
	return CalculateState(q), nil
}

// Has reports whether every bit of flag is set.
func (s SensorState) Has(flag SensorState) bool {
	return s&flag == flag
}

// Descriptions returns the descriptions of all set flags in bit order.
func (s SensorState) Descriptions() []string {
	var out []string
	for _, f := range Flags {
		if s&f.Bit != 0 {
			out = append(out, f.Description)
		}
	}
	return out
}
