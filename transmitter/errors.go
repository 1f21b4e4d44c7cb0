package transmitter

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDialer is returned when a Transmitter is constructed without a
	// Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// establish a connection to the device.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrAlreadyClosed is returned when Close is called on a Transmitter
	// that has already been closed.
	ErrAlreadyClosed = errors.New("transmitter already closed")

	// ErrTimeout is returned when no matching response arrives before the
	// deadline of a wait operation. The device has already been reset by the
	// time the caller sees this error.
	ErrTimeout = errors.New("response timeout")

	// ErrByteCountMismatch is returned when the device acknowledges the
	// payload with a byte count different from the one transmitted.
	ErrByteCountMismatch = errors.New("device accepted wrong byte count")

	// ErrEmptyPayload is returned when Transmit is called with no data.
	ErrEmptyPayload = errors.New("empty payload")

	// ErrPayloadTooLarge is returned when the payload exceeds the device
	// receive buffer (wire.MaxPayload bytes).
	ErrPayloadTooLarge = errors.New("payload exceeds device buffer")
)

// DeviceError is a well-formed device response with a nonzero code. It is
// surfaced to the caller immediately; the device decides the failure, so no
// recovery is attempted.
type DeviceError struct {
	Channel string
	Code    int
	Message string
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device error on %s (code %d): %s", e.Channel, e.Code, e.Message)
}

// PartialWriteError reports that the transport accepted fewer payload bytes
// than requested. A short write on a synchronous stream means the transport
// itself is broken, so no recovery is attempted.
type PartialWriteError struct {
	Wrote    int
	Expected int
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("partial write: %d/%d bytes", e.Wrote, e.Expected)
}
