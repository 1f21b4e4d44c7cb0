package transmitter

import (
	"context"
	"fmt"
	"strings"

	"github.com/ttgo-tools/fsktx/wire"
)

// Transmit pushes the payload to the device and waits until it has gone out
// over the air. The exchange is a fixed script:
//
//  1. announce the length with "m <len>"
//  2. wait for the device to allocate its receive buffer ("Waiting for <len> bytes")
//  3. stream the raw payload bytes
//  4. wait for the byte-count acknowledgement ("Accepted <len> bytes")
//  5. wait for the TX channel to report the transmission finished
//
// It returns the number of bytes transmitted. A short write at step 3 is
// terminal (the transport is presumed broken, no recovery); a wrong byte
// count at step 4 resets the device before failing.
func (t *Transmitter) Transmit(ctx context.Context, payload []byte) (int, error) {
	size := len(payload)
	if size == 0 {
		return 0, ErrEmptyPayload
	}
	if size > wire.MaxPayload {
		return 0, fmt.Errorf("%w: %d > %d bytes", ErrPayloadTooLarge, size, wire.MaxPayload)
	}

	t.logger.Info("starting transmission", "bytes", size)
	if err := t.send(wire.SendPayload(size)); err != nil {
		return 0, err
	}
	if _, err := t.awaitConsole(ctx, wire.WaitingPrefix(size)); err != nil {
		return 0, fmt.Errorf("device not ready for payload: %w", err)
	}

	n, err := t.transport.Write(payload)
	if err != nil {
		return n, fmt.Errorf("write payload: %w", err)
	}
	if n != size {
		return n, &PartialWriteError{Wrote: n, Expected: size}
	}
	t.logger.Debug("payload written", "bytes", n)

	// The prefix match is deliberately lax ("Accepted ") and the exact count
	// is verified by containment below: a reply acknowledging the wrong
	// number of bytes must fail here, not stall until the deadline.
	accepted, err := t.awaitConsole(ctx, wire.AcceptedPrefix)
	if err != nil {
		return size, fmt.Errorf("payload not acknowledged: %w", err)
	}
	if want := wire.AcceptedMessage(size); !strings.Contains(accepted, want) {
		t.logger.Error("device accepted wrong byte count", "response", accepted, "want", want)
		if rerr := t.recover(ctx); rerr != nil {
			t.logger.Error("device recovery failed", "error", rerr)
		}
		return size, fmt.Errorf("%w: %q", ErrByteCountMismatch, accepted)
	}

	status, err := t.awaitTX(ctx)
	if err != nil {
		return size, fmt.Errorf("transmission did not complete: %w", err)
	}
	t.logger.Info("transmission complete", "bytes", size, "status", status)
	return size, nil
}
