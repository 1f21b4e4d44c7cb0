package transmitter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ttgo-tools/fsktx/wire"
)

// newTestEngine wires a Transmitter directly onto a fake transport with
// timings short enough for the timeout paths to run in milliseconds.
func newTestEngine(tt *TestTransport) *Transmitter {
	config := Config{
		ResponseTimeout: 100 * time.Millisecond,
		PollTimeout:     10 * time.Millisecond,
		SettleDelay:     time.Millisecond,
		DrainWindow:     10 * time.Millisecond,
	}
	config.setDefaults()
	return &Transmitter{
		transport: tt,
		reader:    newLineReader(tt),
		config:    config,
		logger:    config.Logger,
	}
}

func TestAwait(t *testing.T) {
	ctx := context.Background()

	t.Run("returns message on prefix match", func(t *testing.T) {
		tt := NewTestTransport()
		tx := newTestEngine(tt)

		tt.SendData("CONSOLE:0:Frequency set to 433.5000\n")

		msg, err := tx.awaitConsole(ctx, "Frequency set to")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg != "Frequency set to 433.5000" {
			t.Errorf("unexpected message: %q", msg)
		}
		if tt.Resets() != 0 {
			t.Errorf("expected no resets, got %d", tt.Resets())
		}
	})

	t.Run("any prefix in the set matches", func(t *testing.T) {
		tt := NewTestTransport()
		tx := newTestEngine(tt)

		tt.SendData("CONSOLE:0:Transmit power set to 10\n")

		msg, err := tx.awaitConsole(ctx, "Frequency set to", "Transmit power set to")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg != "Transmit power set to 10" {
			t.Errorf("unexpected message: %q", msg)
		}
	})

	t.Run("ignores cross-channel and malformed lines", func(t *testing.T) {
		tt := NewTestTransport()
		tx := newTestEngine(tt)

		tt.SendData("INIT:0:Radio initialized successfully\n")
		tt.SendData("not a protocol line\n")
		tt.SendData("TX:0:unrelated completion\n")
		tt.SendData("CONSOLE:0:Waiting for 8 bytes\n")

		msg, err := tx.awaitConsole(ctx, "Waiting for 8 bytes")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg != "Waiting for 8 bytes" {
			t.Errorf("unexpected message: %q", msg)
		}
	})

	t.Run("informational zero-code lines are skipped", func(t *testing.T) {
		tt := NewTestTransport()
		tx := newTestEngine(tt)

		tt.SendData("CONSOLE:0:some chatty status\n")
		tt.SendData("CONSOLE:0:Waiting for 8 bytes\n")

		msg, err := tx.awaitConsole(ctx, "Waiting for")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg != "Waiting for 8 bytes" {
			t.Errorf("unexpected message: %q", msg)
		}
	})

	t.Run("nonzero code fails immediately with DeviceError", func(t *testing.T) {
		tt := NewTestTransport()
		tx := newTestEngine(tt)

		tt.SendData("CONSOLE:1:Failed to set frequency\n")

		_, err := tx.awaitConsole(ctx, "Frequency set to")
		var devErr *DeviceError
		if !errors.As(err, &devErr) {
			t.Fatalf("expected DeviceError, got: %v", err)
		}
		if devErr.Code != 1 || devErr.Message != "Failed to set frequency" {
			t.Errorf("unexpected DeviceError: %+v", devErr)
		}
		if tt.Resets() != 0 {
			t.Error("device errors must not trigger recovery")
		}
	})

	t.Run("error code on another channel is ignored", func(t *testing.T) {
		tt := NewTestTransport()
		tx := newTestEngine(tt)

		tt.SendData("TX:1:Transmission failed to start\n")
		tt.SendData("CONSOLE:0:Waiting for 8 bytes\n")

		msg, err := tx.awaitConsole(ctx, "Waiting for")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg != "Waiting for 8 bytes" {
			t.Errorf("unexpected message: %q", msg)
		}
	})

	t.Run("timeout resets the device exactly once", func(t *testing.T) {
		tt := NewTestTransport()
		tx := newTestEngine(tt)

		_, err := tx.awaitConsole(ctx, "never arrives")
		if !errors.Is(err, ErrTimeout) {
			t.Fatalf("expected ErrTimeout, got: %v", err)
		}
		if tt.Resets() != 1 {
			t.Errorf("expected exactly one reset, got %d", tt.Resets())
		}
	})

	t.Run("TX wait matches any success message", func(t *testing.T) {
		tt := NewTestTransport()
		tx := newTestEngine(tt)

		tt.SendData("CONSOLE:0:leftover acknowledgement\n")
		tt.SendData("TX:0:Transmission finished successfully!\n")

		msg, err := tx.awaitTX(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg != "Transmission finished successfully!" {
			t.Errorf("unexpected message: %q", msg)
		}
	})

	t.Run("TX wait surfaces device-reported failure", func(t *testing.T) {
		tt := NewTestTransport()
		tx := newTestEngine(tt)

		tt.SendData("TX:1:Transmission failed to start, error code: -2\n")

		_, err := tx.awaitTX(ctx)
		var devErr *DeviceError
		if !errors.As(err, &devErr) {
			t.Fatalf("expected DeviceError, got: %v", err)
		}
		if devErr.Channel != wire.ChannelTX {
			t.Errorf("unexpected channel: %q", devErr.Channel)
		}
	})

	t.Run("context cancellation aborts the wait", func(t *testing.T) {
		tt := NewTestTransport()
		tx := newTestEngine(tt)
		tx.config.ResponseTimeout = 0 // wait forever

		cancelCtx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		_, err := tx.awaitConsole(cancelCtx, "never arrives")
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got: %v", err)
		}
		if tt.Resets() != 0 {
			t.Error("cancellation must not trigger recovery")
		}
	})
}

func TestRecover(t *testing.T) {
	t.Run("nothing to drain is not an error", func(t *testing.T) {
		tt := NewTestTransport()
		tx := newTestEngine(tt)

		if err := tx.recover(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tt.Resets() != 1 {
			t.Errorf("expected one reset, got %d", tt.Resets())
		}
	})

	t.Run("post-reset chatter is discarded", func(t *testing.T) {
		tt := NewTestTransport()
		tx := newTestEngine(tt)
		tx.config.DrainWindow = 50 * time.Millisecond

		tt.SendData("INIT:0:Radio initialized successfully\n")
		tt.SendData("garbled boot noise\n")

		if err := tx.recover(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// The chatter must be gone: a subsequent bounded read sees nothing.
		line, err := tx.reader.ReadLine(20 * time.Millisecond)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if line != "" {
			t.Errorf("expected drained transport, got %q", line)
		}
	})

	t.Run("reset failure is surfaced", func(t *testing.T) {
		tt := NewTestTransport()
		tx := newTestEngine(tt)
		tx.transport = &failingResetTransport{TestTransport: tt}

		err := tx.recover(context.Background())
		if err == nil {
			t.Fatal("expected error when reset fails")
		}
	})
}

type failingResetTransport struct {
	*TestTransport
}

func (f *failingResetTransport) Reset() error {
	return errors.New("no control line")
}
