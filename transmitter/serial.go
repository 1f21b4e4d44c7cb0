package transmitter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
)

// dtrToggleDelay is how long the DTR line is held low during a reset pulse.
// Matches the auto-reset circuit timing of ESP32 development boards.
const dtrToggleDelay = 100 * time.Millisecond

// SerialDialer opens the transmitter over a local serial port using
// go.bug.st/serial.
type SerialDialer struct {
	// PortName is the serial device path (e.g. "/dev/ttyUSB0", "COM3").
	PortName string
	// BaudRate defaults to 115200 when zero.
	BaudRate int
	// Mode overrides the full port configuration. When nil, 8N1 at BaudRate
	// is used.
	Mode *serial.Mode
}

func (d SerialDialer) mode() *serial.Mode {
	if d.Mode != nil {
		return d.Mode
	}
	baud := d.BaudRate
	if baud == 0 {
		baud = 115200
	}
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// Dial opens the configured serial port and wraps it in a Transport.
func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if ctx == nil {
		return nil, errors.New("fsktx: context is nil")
	}
	if d.PortName == "" {
		return nil, errors.New("fsktx: serial port name is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := d.mode()
	port, err := serial.Open(d.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", d.PortName, err)
	}

	return &serialTransport{
		port:     port,
		portName: d.PortName,
		mode:     mode,
	}, nil
}

// serialTransport adapts a serial.Port to the Transport interface. It keeps
// the open parameters so a reset can fall back to a full reopen.
type serialTransport struct {
	mu       sync.Mutex
	port     serial.Port
	portName string
	mode     *serial.Mode
}

func (t *serialTransport) Read(p []byte) (int, error) {
	return t.port.Read(p)
}

func (t *serialTransport) Write(p []byte) (int, error) {
	n, err := t.port.Write(p)
	if err != nil {
		return n, err
	}
	return n, t.port.Drain()
}

func (t *serialTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port.Close()
}

func (t *serialTransport) SetReadTimeout(d time.Duration) error {
	if d <= 0 {
		return t.port.SetReadTimeout(serial.NoTimeout)
	}
	return t.port.SetReadTimeout(d)
}

// Reset pulses the DTR line low then high, which triggers a hardware reset on
// ESP32-style boards. If DTR control is unsupported by the driver, the port is
// closed and reopened with identical parameters instead; the open itself
// resets boards wired for auto-reset.
func (t *serialTransport) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.pulseDTR(); err == nil {
		return nil
	}

	if err := t.port.Close(); err != nil {
		return fmt.Errorf("reset %s: close: %w", t.portName, err)
	}
	time.Sleep(dtrToggleDelay)

	port, err := serial.Open(t.portName, t.mode)
	if err != nil {
		return fmt.Errorf("reset %s: reopen: %w", t.portName, err)
	}
	t.port = port
	return nil
}

func (t *serialTransport) pulseDTR() error {
	if err := t.port.SetDTR(false); err != nil {
		return err
	}
	time.Sleep(dtrToggleDelay)
	return t.port.SetDTR(true)
}
