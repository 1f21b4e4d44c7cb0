package transmitter

import (
	"context"

	"github.com/ttgo-tools/fsktx/wire"
)

// Settings holds the optional radio parameters applied before a
// transmission. Zero-valued fields are left unchanged on the device; both
// valid ranges exclude zero, so no sentinel type is needed.
type Settings struct {
	// Frequency in MHz (wire.MinFrequencyMHz–wire.MaxFrequencyMHz).
	Frequency float64
	// Power in dBm (wire.MinPower–wire.MaxPower).
	Power int
}

// Configure applies the given settings, power first, then frequency. With
// both fields zero it sends no commands and returns immediately.
func (t *Transmitter) Configure(ctx context.Context, s Settings) error {
	if s.Power != 0 {
		if err := t.SetPower(ctx, s.Power); err != nil {
			return err
		}
	}
	if s.Frequency != 0 {
		if err := t.SetFrequency(ctx, s.Frequency); err != nil {
			return err
		}
	}
	return nil
}

// SetPower sets the transmit power in dBm and waits for the device to
// acknowledge it.
func (t *Transmitter) SetPower(ctx context.Context, dbm int) error {
	t.logger.Info("setting transmit power", "dbm", dbm)
	if err := t.send(wire.SetPower(dbm)); err != nil {
		return err
	}
	msg, err := t.awaitConsole(ctx, wire.PowerSetPrefix)
	if err != nil {
		return err
	}
	t.logger.Debug("power configured", "response", msg)
	return nil
}

// SetFrequency tunes the transmitter to the given frequency in MHz and waits
// for the device to acknowledge it.
func (t *Transmitter) SetFrequency(ctx context.Context, mhz float64) error {
	t.logger.Info("setting frequency", "mhz", mhz)
	if err := t.send(wire.SetFrequency(mhz)); err != nil {
		return err
	}
	msg, err := t.awaitConsole(ctx, wire.FrequencySetPrefix)
	if err != nil {
		return err
	}
	t.logger.Debug("frequency configured", "response", msg)
	return nil
}
