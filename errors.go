package serialwatch

import "errors"

// Predefined error types for robust error handling
var (
	ErrEnumerationFailed              = errors.New("serial device enumeration failed")
	ErrPortNameExtractionFailed       = errors.New("failed to extract serial port name")
	ErrPortPropertiesExtractionFailed = errors.New("failed to extract serial port properties")
	ErrInvalidConfig                  = errors.New("invalid serial configuration")

	// Monitor lifecycle errors
	ErrMonitorStarted = errors.New("device monitor already started")
	ErrMonitorClosed  = errors.New("device monitor is closed")

	// Registry backend errors
	ErrUnsupportedSource = errors.New("unsupported notification source")
)
