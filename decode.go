package serialwatch

import "fmt"

// RawParity is the parity setting as encoded in the control flags. It is a
// closed set; DecodeParity panics on anything else.
type RawParity int

const (
	RawParityNone RawParity = iota
	RawParityOdd
	RawParityEven
)

// Properties are the line settings decoded from a terminal-control structure
type Properties struct {
	BaudRate    BaudRate
	DataBits    DataBits
	StopBits    StopBits
	Parity      Parity
	FlowControl FlowControl
}

// Config returns the properties as a Config with no timeouts
func (p Properties) Config() Config {
	return Config{
		BaudRate:    p.BaudRate,
		DataBits:    p.DataBits,
		StopBits:    p.StopBits,
		Parity:      p.Parity,
		FlowControl: p.FlowControl,
	}
}

// DecodeBaudRate maps a numeric speed to a BaudRate. It never fails: speeds
// outside the standard table come back as non-standard rates.
func DecodeBaudRate(raw uint32) BaudRate {
	switch b := BaudRate(raw); b {
	case Baud0, Baud50, Baud75, Baud110, Baud134, Baud150, Baud200, Baud300,
		Baud600, Baud1200, Baud1800, Baud2400, Baud4800, Baud7200, Baud9600,
		Baud14400, Baud19200, Baud28800, Baud38400, Baud57600, Baud76800,
		Baud115200, Baud230400:
		return b
	default:
		return NonStandardBaudRate(raw)
	}
}

// DecodeDataBits maps a bit count to DataBits
func DecodeDataBits(raw uint) DataBits {
	switch raw {
	case 5:
		return DataBitsFive
	case 6:
		return DataBitsSix
	case 7:
		return DataBitsSeven
	case 8:
		return DataBitsEight
	default:
		return NonStandardDataBits(raw)
	}
}

// DecodeStopBits maps a bit count to StopBits
func DecodeStopBits(raw uint) StopBits {
	switch raw {
	case 1:
		return StopBitsOne
	case 2:
		return StopBitsTwo
	default:
		return NonStandardStopBits(raw)
	}
}

// DecodeParity maps the raw parity setting to Parity. An unknown raw value
// means the raw enumeration was widened without updating this switch, so it
// panics instead of guessing.
func DecodeParity(raw RawParity) Parity {
	switch raw {
	case RawParityNone:
		return ParityNone
	case RawParityOdd:
		return ParityOdd
	case RawParityEven:
		return ParityEven
	default:
		panic(fmt.Sprintf("serialwatch: unrecognized raw parity %d", int(raw)))
	}
}

// DecodeFlowControl combines the hardware and software handshake flags
func DecodeFlowControl(hardware, software bool) FlowControl {
	switch {
	case hardware && software:
		return FlowControlRTSCTSXOnXOff
	case hardware:
		return FlowControlRTSCTS
	case software:
		return FlowControlXOnXOff
	default:
		return FlowControlNone
	}
}
