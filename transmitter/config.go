package transmitter

import (
	"log/slog"
	"time"
)

// Config carries the tunables of the protocol engine. Zero values are filled
// in with defaults by setDefaults; only the Dialer is mandatory.
type Config struct {
	Dialer Dialer

	// Logger receives the engine's structured log output. Defaults to a
	// discarding logger so the engine stays silent unless a handle is
	// threaded in.
	Logger *slog.Logger

	// ResponseTimeout is the overall deadline for each wait operation.
	ResponseTimeout time.Duration
	// PollTimeout bounds a single transport read inside a wait loop, so the
	// overall deadline is re-checked even on a transport with coarse read
	// granularity.
	PollTimeout time.Duration
	// SettleDelay is how long the device is given to boot after a reset
	// before its output is drained.
	SettleDelay time.Duration
	// DrainWindow is how long post-reset start-up chatter is discarded.
	DrainWindow time.Duration
	// StartupDrain is how long boot chatter is discarded right after
	// connecting, before the first command. Zero disables the initial drain.
	StartupDrain time.Duration
}

func (c *Config) validate() error {
	if c.Dialer == nil {
		return ErrNoDialer
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.ResponseTimeout == 0 {
		c.ResponseTimeout = 30 * time.Second
	}
	if c.PollTimeout == 0 {
		c.PollTimeout = time.Second
	}
	if c.SettleDelay == 0 {
		c.SettleDelay = 2 * time.Second
	}
	if c.DrainWindow == 0 {
		c.DrainWindow = 3 * time.Second
	}
}

// ConfigBuilder assembles a Config fluently. Build validates the result and
// applies defaults for everything left unset.
type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.Dialer = d
	return b
}

func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.Logger = l
	return b
}

func (b *ConfigBuilder) WithResponseTimeout(d time.Duration) *ConfigBuilder {
	b.config.ResponseTimeout = d
	return b
}

func (b *ConfigBuilder) WithPollTimeout(d time.Duration) *ConfigBuilder {
	b.config.PollTimeout = d
	return b
}

func (b *ConfigBuilder) WithSettleDelay(d time.Duration) *ConfigBuilder {
	b.config.SettleDelay = d
	return b
}

func (b *ConfigBuilder) WithDrainWindow(d time.Duration) *ConfigBuilder {
	b.config.DrainWindow = d
	return b
}

func (b *ConfigBuilder) WithStartupDrain(d time.Duration) *ConfigBuilder {
	b.config.StartupDrain = d
	return b
}

func (b *ConfigBuilder) Build() (Config, error) {
	if err := b.config.validate(); err != nil {
		return Config{}, err
	}
	b.config.setDefaults()
	return b.config, nil
}
