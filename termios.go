package serialwatch

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Termios is the subset of the kernel terminal-control structure needed to
// describe line settings. Flag bits use the Linux layout.
type Termios struct {
	Iflag  uint32
	Oflag  uint32
	Cflag  uint32
	Lflag  uint32
	Ispeed uint32
	Ospeed uint32
}

// speedCodes maps CBAUD codes to line speeds
var speedCodes = map[uint32]uint32{
	unix.B0:       0,
	unix.B50:      50,
	unix.B75:      75,
	unix.B110:     110,
	unix.B134:     134,
	unix.B150:     150,
	unix.B200:     200,
	unix.B300:     300,
	unix.B600:     600,
	unix.B1200:    1200,
	unix.B1800:    1800,
	unix.B2400:    2400,
	unix.B4800:    4800,
	unix.B9600:    9600,
	unix.B19200:   19200,
	unix.B38400:   38400,
	unix.B57600:   57600,
	unix.B115200:  115200,
	unix.B230400:  230400,
	unix.B460800:  460800,
	unix.B500000:  500000,
	unix.B576000:  576000,
	unix.B921600:  921600,
	unix.B1000000: 1000000,
	unix.B1152000: 1152000,
	unix.B1500000: 1500000,
	unix.B2000000: 2000000,
	unix.B2500000: 2500000,
	unix.B3000000: 3000000,
	unix.B3500000: 3500000,
	unix.B4000000: 4000000,
}

// speedCode returns the CBAUD code for a speed, if one exists
func speedCode(speed uint32) (uint32, bool) {
	for code, s := range speedCodes {
		if s == speed {
			return code, true
		}
	}
	return 0, false
}

// inputSpeed returns the line speed described by t. Custom speeds (BOTHER)
// are read from the explicit speed fields.
func (t Termios) inputSpeed() uint32 {
	code := t.Cflag & unix.CBAUD
	if code == unix.BOTHER {
		if t.Ispeed != 0 {
			return t.Ispeed
		}
		return t.Ospeed
	}
	if speed, ok := speedCodes[code]; ok {
		return speed
	}
	return t.Ispeed
}

func (t Termios) dataBits() uint {
	switch t.Cflag & unix.CSIZE {
	case unix.CS5:
		return 5
	case unix.CS6:
		return 6
	case unix.CS7:
		return 7
	default:
		return 8
	}
}

func (t Termios) rawParity() RawParity {
	if t.Cflag&unix.PARENB == 0 {
		return RawParityNone
	}
	if t.Cflag&unix.PARODD != 0 {
		return RawParityOdd
	}
	return RawParityEven
}

func (t Termios) stopBits() uint {
	if t.Cflag&unix.CSTOPB != 0 {
		return 2
	}
	return 1
}

func (t Termios) hardwareFlowControl() bool {
	return t.Cflag&unix.CRTSCTS != 0
}

func (t Termios) softwareFlowControl() bool {
	return t.Iflag&(unix.IXON|unix.IXOFF) != 0
}

// DecodeTerminalSettings extracts line settings from a terminal-control
// structure
func DecodeTerminalSettings(t Termios) Properties {
	return Properties{
		BaudRate:    DecodeBaudRate(t.inputSpeed()),
		DataBits:    DecodeDataBits(t.dataBits()),
		StopBits:    DecodeStopBits(t.stopBits()),
		Parity:      DecodeParity(t.rawParity()),
		FlowControl: DecodeFlowControl(t.hardwareFlowControl(), t.softwareFlowControl()),
	}
}

// EncodeTerminalSettings writes the line settings of config into a copy of
// base, leaving unrelated flags untouched
func EncodeTerminalSettings(config Config, base Termios) (Termios, error) {
	t := base

	// Data bits
	t.Cflag &^= unix.CSIZE
	switch config.DataBits {
	case DataBitsFive:
		t.Cflag |= unix.CS5
	case DataBitsSix:
		t.Cflag |= unix.CS6
	case DataBitsSeven:
		t.Cflag |= unix.CS7
	case DataBitsEight:
		t.Cflag |= unix.CS8
	default:
		return Termios{}, fmt.Errorf("%w: %d data bits", ErrInvalidConfig, config.DataBits)
	}

	// Stop bits
	switch config.StopBits {
	case StopBitsOne:
		t.Cflag &^= unix.CSTOPB
	case StopBitsTwo:
		t.Cflag |= unix.CSTOPB
	default:
		return Termios{}, fmt.Errorf("%w: %d stop bits", ErrInvalidConfig, config.StopBits)
	}

	// Parity
	t.Cflag &^= unix.PARENB | unix.PARODD | unix.CMSPAR
	switch config.Parity {
	case ParityOdd:
		t.Cflag |= unix.PARENB | unix.PARODD
	case ParityEven:
		t.Cflag |= unix.PARENB
	}

	// Flow control
	t.Cflag &^= unix.CRTSCTS
	t.Iflag &^= unix.IXON | unix.IXOFF
	if config.FlowControl.Hardware() {
		t.Cflag |= unix.CRTSCTS
	}
	if config.FlowControl.Software() {
		t.Iflag |= unix.IXON | unix.IXOFF
	}

	// Speed
	speed := config.BaudRate.Speed()
	t.Cflag &^= unix.CBAUD
	if code, ok := speedCode(speed); ok {
		t.Cflag |= code
	} else {
		t.Cflag |= unix.BOTHER
	}
	t.Ispeed = speed
	t.Ospeed = speed

	return t, nil
}

func termiosFromUnix(t *unix.Termios) Termios {
	return Termios{
		Iflag:  t.Iflag,
		Oflag:  t.Oflag,
		Cflag:  t.Cflag,
		Lflag:  t.Lflag,
		Ispeed: t.Ispeed,
		Ospeed: t.Ospeed,
	}
}

func (t Termios) applyTo(u *unix.Termios) {
	u.Iflag = t.Iflag
	u.Oflag = t.Oflag
	u.Cflag = t.Cflag
	u.Lflag = t.Lflag
	u.Ispeed = t.Ispeed
	u.Ospeed = t.Ospeed
}

// readTerminalSettings opens path without becoming its controlling terminal,
// reads the current settings and closes it again on every path
func readTerminalSettings(path string) (Termios, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return Termios{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer unix.Close(fd)

	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS2)
	if err != nil {
		return Termios{}, fmt.Errorf("failed to get termios for %s: %w", path, err)
	}
	return termiosFromUnix(termios), nil
}

// ApplyConfig writes the line settings of config to the device at path,
// leaving every other terminal flag as it was
func ApplyConfig(path string, config Config) error {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer unix.Close(fd)

	current, err := unix.IoctlGetTermios(fd, unix.TCGETS2)
	if err != nil {
		return fmt.Errorf("failed to get termios: %w", err)
	}

	encoded, err := EncodeTerminalSettings(config, termiosFromUnix(current))
	if err != nil {
		return err
	}
	encoded.applyTo(current)

	if err := unix.IoctlSetTermios(fd, unix.TCSETS2, current); err != nil {
		return fmt.Errorf("failed to set termios: %w", err)
	}
	return nil
}
