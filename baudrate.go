package serialwatch

import "strconv"

// BaudRate is a line speed in bits per second. Values outside the standard
// table are carried as non-standard rates with the raw speed preserved.
type BaudRate uint32

// Standard baud rates
const (
	Baud0      BaudRate = 0
	Baud50     BaudRate = 50
	Baud75     BaudRate = 75
	Baud110    BaudRate = 110
	Baud134    BaudRate = 134
	Baud150    BaudRate = 150
	Baud200    BaudRate = 200
	Baud300    BaudRate = 300
	Baud600    BaudRate = 600
	Baud1200   BaudRate = 1200
	Baud1800   BaudRate = 1800
	Baud2400   BaudRate = 2400
	Baud4800   BaudRate = 4800
	Baud7200   BaudRate = 7200
	Baud9600   BaudRate = 9600
	Baud14400  BaudRate = 14400
	Baud19200  BaudRate = 19200
	Baud28800  BaudRate = 28800
	Baud38400  BaudRate = 38400
	Baud57600  BaudRate = 57600
	Baud76800  BaudRate = 76800
	Baud115200 BaudRate = 115200
	Baud230400 BaudRate = 230400
)

// StandardBaudRates lists every named rate in ascending order
var StandardBaudRates = []BaudRate{
	Baud0, Baud50, Baud75, Baud110, Baud134, Baud150, Baud200, Baud300,
	Baud600, Baud1200, Baud1800, Baud2400, Baud4800, Baud7200, Baud9600,
	Baud14400, Baud19200, Baud28800, Baud38400, Baud57600, Baud76800,
	Baud115200, Baud230400,
}

// NonStandardBaudRate returns the rate for an arbitrary speed
func NonStandardBaudRate(speed uint32) BaudRate {
	return BaudRate(speed)
}

// Speed returns the numeric speed in bits per second
func (b BaudRate) Speed() uint32 {
	return uint32(b)
}

// IsStandard reports whether b is one of the named rates
func (b BaudRate) IsStandard() bool {
	switch b {
	case Baud0, Baud50, Baud75, Baud110, Baud134, Baud150, Baud200, Baud300,
		Baud600, Baud1200, Baud1800, Baud2400, Baud4800, Baud7200, Baud9600,
		Baud14400, Baud19200, Baud28800, Baud38400, Baud57600, Baud76800,
		Baud115200, Baud230400:
		return true
	}
	return false
}

func (b BaudRate) String() string {
	if !b.IsStandard() {
		return strconv.FormatUint(uint64(b), 10) + " (non-standard)"
	}
	return strconv.FormatUint(uint64(b), 10)
}
