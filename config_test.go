package serialwatch

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.BaudRate != Baud9600 {
		t.Errorf("BaudRate = %v, want 9600", config.BaudRate)
	}
	if config.DataBits != DataBitsEight {
		t.Errorf("DataBits = %v, want 8", config.DataBits)
	}
	if config.StopBits != StopBitsOne {
		t.Errorf("StopBits = %v, want 1", config.StopBits)
	}
	if config.Parity != ParityNone {
		t.Errorf("Parity = %v, want none", config.Parity)
	}
	if config.FlowControl != FlowControlNone {
		t.Errorf("FlowControl = %v, want none", config.FlowControl)
	}
	if config.ReadTimeout != 0 || config.WriteTimeout != 0 {
		t.Errorf("timeouts = %v/%v, want none", config.ReadTimeout, config.WriteTimeout)
	}
}

func TestWithReadTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		wantErr bool
	}{
		{"0ms (no timeout)", 0, false},
		{"100ms (valid)", 100 * time.Millisecond, false},
		{"150ms (valid)", 150 * time.Millisecond, false},
		{"25600ms (valid)", 25600 * time.Millisecond, false},
		{"-100ms (negative)", -100 * time.Millisecond, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			opt := WithReadTimeout(tt.timeout)
			err := opt(&config)
			if (err != nil) != tt.wantErr {
				t.Errorf("WithReadTimeout(%v) error = %v, wantErr %v", tt.timeout, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error %v is not ErrInvalidConfig", err)
			}
			if err == nil && config.ReadTimeout != tt.timeout {
				t.Errorf("ReadTimeout = %v, want %v", config.ReadTimeout, tt.timeout)
			}
		})
	}
}

func TestWithWriteTimeout(t *testing.T) {
	config := DefaultConfig()
	if err := WithWriteTimeout(time.Second)(&config); err != nil {
		t.Fatalf("WithWriteTimeout(1s) error = %v", err)
	}
	if config.WriteTimeout != time.Second {
		t.Errorf("WriteTimeout = %v, want 1s", config.WriteTimeout)
	}
	if err := WithWriteTimeout(-time.Second)(&config); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("WithWriteTimeout(-1s) error = %v, want ErrInvalidConfig", err)
	}
}

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		want    string
		wantErr bool
	}{
		{"defaults", nil, "9600 8N1", false},
		{"7E1", []Option{WithDataBits(DataBitsSeven), WithParity(ParityEven)}, "9600 7E1", false},
		{"115200 8O2 RTS/CTS", []Option{
			WithBaudRate(Baud115200), WithParity(ParityOdd), WithStopBits(StopBitsTwo), WithFlowControl(FlowControlRTSCTS),
		}, "115200 8O2 RTS/CTS", false},
		{"non-standard rate", []Option{WithBaudRate(NonStandardBaudRate(250000))}, "250000 8N1", false},
		{"9 data bits", []Option{WithDataBits(NonStandardDataBits(9))}, "", true},
		{"3 stop bits", []Option{WithStopBits(NonStandardStopBits(3))}, "", true},
		{"unknown parity", []Option{WithParity(Parity(7))}, "", true},
		{"unknown flow control", []Option{WithFlowControl(FlowControl(9))}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := NewConfig(tt.opts...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("error %v is not ErrInvalidConfig", err)
				}
				return
			}
			if got := config.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseConfig(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"9600 8N1", "9600 8N1", false},
		{"115200 7e2", "115200 7E2", false},
		{"  19200   8O1  ", "19200 8O1", false},
		{"57600 8N1 RTS/CTS", "57600 8N1 RTS/CTS", false},
		{"57600 8N1 xon/xoff", "57600 8N1 XON/XOFF", false},
		{"57600 8N1 RTS/CTS+XON/XOFF", "57600 8N1 RTS/CTS+XON/XOFF", false},
		{"250000 8N1", "250000 8N1", false},
		{"9600", "", true},
		{"fast 8N1", "", true},
		{"9600 9N1", "", true},
		{"9600 8X1", "", true},
		{"9600 8N3", "", true},
		{"9600 8N1 CTS", "", true},
		{"9600 8N", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			config, err := ParseConfig(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseConfig(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("error %v is not ErrInvalidConfig", err)
				}
				return
			}
			if got := config.String(); got != tt.want {
				t.Errorf("ParseConfig(%q).String() = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
