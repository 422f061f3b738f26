package serialwatch

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config holds the line configuration of a serial port. It is a value type:
// every holder owns its own copy and nothing in this package mutates one after
// construction.
type Config struct {
	BaudRate     BaudRate
	DataBits     DataBits
	StopBits     StopBits
	Parity       Parity
	FlowControl  FlowControl
	ReadTimeout  time.Duration // zero means no timeout
	WriteTimeout time.Duration // zero means no timeout
}

// Option is a functional option for building a Config
type Option func(*Config) error

// DefaultConfig returns 9600 8N1 with no flow control and no timeouts
func DefaultConfig() Config {
	return Config{
		BaudRate:    Baud9600,
		DataBits:    DataBitsEight,
		StopBits:    StopBitsOne,
		Parity:      ParityNone,
		FlowControl: FlowControlNone,
	}
}

// NewConfig applies opts on top of DefaultConfig
func NewConfig(opts ...Option) (Config, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return Config{}, err
		}
	}
	return config, nil
}

// WithBaudRate sets the baud rate. Non-standard rates are accepted.
func WithBaudRate(rate BaudRate) Option {
	return func(c *Config) error {
		c.BaudRate = rate
		return nil
	}
}

// WithDataBits sets the number of data bits (5, 6, 7, or 8)
func WithDataBits(bits DataBits) Option {
	return func(c *Config) error {
		if !bits.IsStandard() {
			return fmt.Errorf("%w: %d data bits", ErrInvalidConfig, bits)
		}
		c.DataBits = bits
		return nil
	}
}

// WithStopBits sets the number of stop bits (1 or 2)
func WithStopBits(bits StopBits) Option {
	return func(c *Config) error {
		if !bits.IsStandard() {
			return fmt.Errorf("%w: %d stop bits", ErrInvalidConfig, bits)
		}
		c.StopBits = bits
		return nil
	}
}

// WithParity sets the parity mode
func WithParity(parity Parity) Option {
	return func(c *Config) error {
		if parity < ParityNone || parity > ParityEven {
			return fmt.Errorf("%w: parity %d", ErrInvalidConfig, parity)
		}
		c.Parity = parity
		return nil
	}
}

// WithFlowControl sets the flow control mode
func WithFlowControl(fc FlowControl) Option {
	return func(c *Config) error {
		if fc < FlowControlNone || fc > FlowControlRTSCTSXOnXOff {
			return fmt.Errorf("%w: flow control %d", ErrInvalidConfig, fc)
		}
		c.FlowControl = fc
		return nil
	}
}

// WithReadTimeout sets the read timeout
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout < 0 {
			return ErrInvalidConfig
		}
		c.ReadTimeout = timeout
		return nil
	}
}

// WithWriteTimeout sets the write timeout
func WithWriteTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout < 0 {
			return ErrInvalidConfig
		}
		c.WriteTimeout = timeout
		return nil
	}
}

// String renders the line settings in the usual "9600 8N1" form
func (c Config) String() string {
	s := fmt.Sprintf("%d %d%s%d", c.BaudRate.Speed(), c.DataBits.Bits(), c.Parity.letter(), c.StopBits.Bits())
	if c.FlowControl != FlowControlNone {
		s += " " + c.FlowControl.String()
	}
	return s
}

// ParseConfig parses the form produced by Config.String, e.g. "9600 8N1" or
// "115200 8E2 RTS/CTS". The baud rate may be non-standard.
func ParseConfig(s string) (Config, error) {
	fields := strings.Fields(s)
	if len(fields) < 2 || len(fields) > 3 {
		return Config{}, fmt.Errorf("%w: %q", ErrInvalidConfig, s)
	}

	speed, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return Config{}, fmt.Errorf("%w: baud rate %q", ErrInvalidConfig, fields[0])
	}

	frame := strings.ToUpper(fields[1])
	if len(frame) != 3 {
		return Config{}, fmt.Errorf("%w: frame %q", ErrInvalidConfig, fields[1])
	}
	var parity Parity
	switch frame[1] {
	case 'N':
		parity = ParityNone
	case 'O':
		parity = ParityOdd
	case 'E':
		parity = ParityEven
	default:
		return Config{}, fmt.Errorf("%w: parity %q", ErrInvalidConfig, frame[1:2])
	}

	opts := []Option{
		WithBaudRate(DecodeBaudRate(uint32(speed))),
		WithDataBits(DecodeDataBits(uint(frame[0] - '0'))),
		WithParity(parity),
		WithStopBits(DecodeStopBits(uint(frame[2] - '0'))),
	}
	if len(fields) == 3 {
		fc, err := parseFlowControl(fields[2])
		if err != nil {
			return Config{}, err
		}
		opts = append(opts, WithFlowControl(fc))
	}
	return NewConfig(opts...)
}

func parseFlowControl(s string) (FlowControl, error) {
	for _, fc := range []FlowControl{FlowControlNone, FlowControlRTSCTS, FlowControlXOnXOff, FlowControlRTSCTSXOnXOff} {
		if strings.EqualFold(s, fc.String()) {
			return fc, nil
		}
	}
	return 0, fmt.Errorf("%w: flow control %q", ErrInvalidConfig, s)
}
