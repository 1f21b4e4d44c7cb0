package transmitter

import (
	"io"
	"sync"
	"time"
)

// TestTransport is a test helper that simulates a device on the far side of a
// blocking transport. Reads block until queued data arrives or the configured
// read timeout expires, mirroring how a real serial port behaves under
// SetReadTimeout. Exported for use in tests.
type TestTransport struct {
	mu          sync.Mutex
	readChan    chan []byte
	readTimeout time.Duration
	written     [][]byte
	resets      int
	closed      bool
}

func NewTestTransport() *TestTransport {
	return &TestTransport{
		readChan: make(chan []byte, 32),
	}
}

func (t *TestTransport) Read(p []byte) (int, error) {
	t.mu.Lock()
	timeout := t.readTimeout
	t.mu.Unlock()

	if timeout <= 0 {
		data, ok := <-t.readChan
		if !ok {
			return 0, io.EOF
		}
		return copy(p, data), nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case data, ok := <-t.readChan:
		if !ok {
			return 0, io.EOF
		}
		return copy(p, data), nil
	case <-timer.C:
		return 0, nil
	}
}

func (t *TestTransport) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.written = append(t.written, append([]byte(nil), p...))
	return len(p), nil
}

func (t *TestTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.readChan)
	return nil
}

func (t *TestTransport) SetReadTimeout(d time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.readTimeout = d
	return nil
}

func (t *TestTransport) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resets++
	return nil
}

// SendData queues data to be read by the transport, simulating device output.
func (t *TestTransport) SendData(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.readChan <- []byte(data)
	}
}

// Written returns everything the engine wrote, in order.
func (t *TestTransport) Written() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.written))
	copy(out, t.written)
	return out
}

// Resets returns how many times the engine reset the device.
func (t *TestTransport) Resets() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resets
}
