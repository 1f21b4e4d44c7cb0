// Package transmitter implements the host side of the ttgo-fsk-tx console
// protocol: a synchronous engine that sends textual commands over an
// exclusively-owned byte-stream transport, matches CHANNEL:CODE:MESSAGE
// response lines against expected acknowledgements, and resets the device
// back to a known state when the protocol stalls.
package transmitter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ttgo-tools/fsktx/wire"
)

// Transmitter drives a remote FSK transmitter over a single Transport.
//
// All operations are synchronous and strictly sequential: configuration and
// transmission never interleave, responses are consumed in arrival order, and
// any protocol failure aborts the whole operation. A Transmitter is not safe
// for concurrent use.
type Transmitter struct {
	transport Transport
	reader    *lineReader
	config    Config
	logger    *slog.Logger
	closed    bool
}

// New dials the device through config.Dialer and prepares the protocol
// engine. Boot chatter already sitting in the channel is drained for
// config.StartupDrain before New returns, so the first command is not
// answered by stale start-up lines.
func New(ctx context.Context, config Config) (*Transmitter, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	transport, err := config.Dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial transmitter: %w", err)
	}
	if transport == nil {
		return nil, errors.New("dialer returned nil transport")
	}

	t := &Transmitter{
		transport: transport,
		reader:    newLineReader(transport),
		config:    config,
		logger:    config.Logger,
	}

	if config.StartupDrain > 0 {
		n := t.drain(ctx, config.StartupDrain)
		if n > 0 {
			t.logger.Info("device ready", "startup_lines", n)
		} else {
			t.logger.Info("device ready, no startup messages")
		}
	}

	return t, nil
}

// Close releases the transport. The Transmitter cannot be reused afterwards.
func (t *Transmitter) Close() error {
	if t.closed {
		return ErrAlreadyClosed
	}
	t.closed = true
	return t.transport.Close()
}

// send writes one line-terminated console command and flushes it.
func (t *Transmitter) send(cmd string) error {
	frame := []byte(cmd + wire.LF)
	if _, err := t.transport.Write(frame); err != nil {
		return fmt.Errorf("write command %q: %w", cmd, err)
	}
	t.logger.Debug("sent command", "cmd", cmd)
	return nil
}

// match is the central wait loop. It reads lines until one on the requested
// channel either reports an error code or carries a message matching one of
// the expected prefixes. An empty prefix set matches any success message.
//
// timeout <= 0 waits indefinitely. Reads are bounded by the poll timeout so
// the overall deadline and the context are re-checked between reads.
func (t *Transmitter) match(ctx context.Context, channel string, prefixes []string, timeout time.Duration) (string, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		readTimeout := t.config.PollTimeout
		if !deadline.IsZero() {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return "", fmt.Errorf("no matching %s response after %s: %w", channel, timeout, ErrTimeout)
			}
			if remaining < readTimeout {
				readTimeout = remaining
			}
		}

		line, err := t.reader.ReadLine(readTimeout)
		if err != nil {
			return "", fmt.Errorf("read response: %w", err)
		}
		if line == "" {
			continue
		}

		resp, ok := wire.ParseResponse(line)
		if !ok {
			t.logger.Debug("skipping malformed line", "line", line)
			continue
		}
		if resp.Channel != channel {
			t.logger.Debug("ignoring cross-channel line", "line", line, "want", channel)
			continue
		}
		if !resp.OK() {
			return "", &DeviceError{Channel: resp.Channel, Code: resp.Code, Message: resp.Message}
		}

		if len(prefixes) == 0 {
			return resp.Message, nil
		}
		matched := false
		for _, prefix := range prefixes {
			if strings.HasPrefix(resp.Message, prefix) {
				matched = true
				break
			}
		}
		if matched {
			t.logger.Debug("response matched", "message", resp.Message)
			return resp.Message, nil
		}
		t.logger.Debug("unexpected success message, still waiting", "message", resp.Message)
	}
}

// await wraps match with the stall-recovery step: when the wait times out,
// the device is reset and re-synchronized before the timeout is reported, so
// a device stuck mid-protocol is back in a known state by the time the caller
// decides what to do next. The await itself still fails.
func (t *Transmitter) await(ctx context.Context, channel string, prefixes []string) (string, error) {
	msg, err := t.match(ctx, channel, prefixes, t.config.ResponseTimeout)
	if errors.Is(err, ErrTimeout) {
		if rerr := t.recover(ctx); rerr != nil {
			t.logger.Error("device recovery failed", "error", rerr)
		}
	}
	return msg, err
}

// awaitConsole waits for a CONSOLE success message starting with one of the
// given prefixes.
func (t *Transmitter) awaitConsole(ctx context.Context, prefixes ...string) (string, error) {
	return t.await(ctx, wire.ChannelConsole, prefixes)
}

// awaitTX waits for the final transmission outcome. Any success message on
// the TX channel signals completion; there is no prefix filter at this step.
func (t *Transmitter) awaitTX(ctx context.Context) (string, error) {
	return t.await(ctx, wire.ChannelTX, nil)
}

// recover restores the transport to a responsive state after a protocol
// stall: reset the device, give it the settle period to boot, then discard
// everything it prints for the drain window so start-up chatter is never
// mistaken for a protocol response.
func (t *Transmitter) recover(ctx context.Context) error {
	t.logger.Warn("resetting device after protocol stall")

	if err := t.transport.Reset(); err != nil {
		return fmt.Errorf("reset device: %w", err)
	}
	t.reader.Discard()

	sleepCtx(ctx, t.config.SettleDelay)

	n := t.drain(ctx, t.config.DrainWindow)
	t.logger.Info("device restarted", "startup_lines", n)
	return nil
}

// drain reads and discards lines for the given window, logging each at debug
// level. Returns the number of lines seen; the count is informational only.
func (t *Transmitter) drain(ctx context.Context, window time.Duration) int {
	deadline := time.Now().Add(window)
	count := 0

	for ctx.Err() == nil {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		line, err := t.reader.ReadLine(remaining)
		if err != nil {
			t.logger.Debug("drain stopped", "error", err)
			break
		}
		if line == "" {
			continue
		}
		count++
		t.logger.Debug("device", "line", line)
	}
	return count
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
