// Package serial is the optional byte-stream sink the demo CLI uses to
// mirror step/dir/enable pin transitions and M17/M18/M84 acks to a real
// UART/USB-serial device.
package serial

import "io"

// Port represents a serial port. NativePort (tarm/serial-backed) is the
// implementation in this package.
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data.
	Flush() error
}

// Config holds serial port configuration.
type Config struct {
	// Device is the OS device path (e.g. "/dev/ttyACM0", "COM3").
	Device string

	// Baud is the baud rate; USB CDC devices ignore it.
	Baud int

	// ReadTimeout is the read timeout in milliseconds, 0 = blocking.
	ReadTimeout int
}

// DefaultConfig returns a default configuration for device.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        250000,
		ReadTimeout: 100,
	}
}
