package transmitter

import (
	"context"
	"io"
	"time"
)

//go:generate go tool mockgen -source=transport.go -destination=mock_transport.go -package=transmitter

// Transport represents an established, bidirectional byte stream to the
// FSK transmitter.
//
// A Transport is assumed to be already connected and ready for use. It
// provides the low-level I/O primitives required to send console commands,
// stream raw payload bytes, and receive response lines. Typical
// implementations include serial ports, WebSocket bridges, or in-memory fakes
// used for testing.
type Transport interface {
	io.ReadWriteCloser

	// SetReadTimeout bounds the next Read calls. A Read that expires without
	// receiving any data returns (0, nil) rather than an error, so callers
	// can poll without blocking past their own deadline. A non-positive
	// duration blocks indefinitely.
	SetReadTimeout(d time.Duration) error

	// Reset performs a best-effort hardware reset of the remote device.
	// Implementations first try an in-band control signal (DTR pulse on a
	// serial line); transports without a control line fall back to closing
	// and reopening the channel with identical parameters. Bytes arriving
	// after the reset are device start-up chatter and must be drained by the
	// caller, not treated as protocol responses.
	Reset() error
}

// Dialer opens a Transport to the transmitter.
//
// Dialer abstracts how the device connection is created (serial port,
// WebSocket bridge, or test double) and is intended to be used during
// Transmitter construction only. Once a Transport is obtained, the Dialer is
// no longer needed.
type Dialer interface {
	// Dial creates and returns a connected Transport. It may perform blocking
	// operations and should respect cancellation and deadlines provided by
	// the context. Dial returns an error if the transport cannot be
	// established.
	Dial(ctx context.Context) (Transport, error)
}
