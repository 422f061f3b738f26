package serialwatch

import "strconv"

// DataBits is the number of data bits per character
type DataBits uint

const (
	DataBitsFive  DataBits = 5
	DataBitsSix   DataBits = 6
	DataBitsSeven DataBits = 7
	DataBitsEight DataBits = 8
)

// NonStandardDataBits returns a DataBits value outside the 5-8 range
func NonStandardDataBits(bits uint) DataBits {
	return DataBits(bits)
}

// Bits returns the numeric bit count
func (d DataBits) Bits() uint {
	return uint(d)
}

// IsStandard reports whether d is 5, 6, 7 or 8
func (d DataBits) IsStandard() bool {
	return d >= DataBitsFive && d <= DataBitsEight
}

func (d DataBits) String() string {
	return strconv.FormatUint(uint64(d), 10)
}

// StopBits is the number of stop bits per character
type StopBits uint

const (
	StopBitsOne StopBits = 1
	StopBitsTwo StopBits = 2
)

// NonStandardStopBits returns a StopBits value other than one or two
func NonStandardStopBits(bits uint) StopBits {
	return StopBits(bits)
}

// Bits returns the numeric bit count
func (s StopBits) Bits() uint {
	return uint(s)
}

// IsStandard reports whether s is one or two
func (s StopBits) IsStandard() bool {
	return s == StopBitsOne || s == StopBitsTwo
}

func (s StopBits) String() string {
	return strconv.FormatUint(uint64(s), 10)
}

// Parity represents the parity mode
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "None"
	case ParityOdd:
		return "Odd"
	case ParityEven:
		return "Even"
	default:
		return "Unknown"
	}
}

// letter returns the single-character form used in "8N1" notation
func (p Parity) letter() string {
	switch p {
	case ParityOdd:
		return "O"
	case ParityEven:
		return "E"
	default:
		return "N"
	}
}

// FlowControl represents the flow control mode
type FlowControl int

const (
	FlowControlNone          FlowControl = iota
	FlowControlRTSCTS                    // hardware (request to send)
	FlowControlXOnXOff                   // software
	FlowControlRTSCTSXOnXOff             // hardware and software
)

// Hardware reports whether RTS/CTS handshaking is part of the mode
func (f FlowControl) Hardware() bool {
	return f == FlowControlRTSCTS || f == FlowControlRTSCTSXOnXOff
}

// Software reports whether XON/XOFF handshaking is part of the mode
func (f FlowControl) Software() bool {
	return f == FlowControlXOnXOff || f == FlowControlRTSCTSXOnXOff
}

func (f FlowControl) String() string {
	switch f {
	case FlowControlNone:
		return "None"
	case FlowControlRTSCTS:
		return "RTS/CTS"
	case FlowControlXOnXOff:
		return "XON/XOFF"
	case FlowControlRTSCTSXOnXOff:
		return "RTS/CTS+XON/XOFF"
	default:
		return "Unknown"
	}
}
