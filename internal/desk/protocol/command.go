package protocol

// Command is a motor command written to the control characteristic.
type Command uint16

// Opcodes, sent little-endian.
const (
	Lower Command = 0x0046
	Raise Command = 0x0047
	Halt  Command = 0x00FF
)

func (c Command) String() string {
	switch c {
	case Raise:
		return "raise"
	case Lower:
		return "lower"
	case Halt:
		return "halt"
	default:
		return "unknown"
	}
}

// EncodeCommand returns the 2-byte wire form of c. Each call returns a
// fresh slice.
func EncodeCommand(c Command) []byte {
	return []byte{byte(c), byte(c >> 8)}
}
