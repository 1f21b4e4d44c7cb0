package transmitter_test

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/ttgo-tools/fsktx/transmitter"
)

func TestConfig(t *testing.T) {
	t.Run("ErrNoDialer when no dialer provided", func(t *testing.T) {
		_, err := transmitter.NewConfigBuilder().Build()
		if !errors.Is(err, transmitter.ErrNoDialer) {
			t.Errorf("expected ErrNoDialer, got: %v", err)
		}
	})

	t.Run("defaults are applied", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		config, err := transmitter.NewConfigBuilder().
			WithDialer(transmitter.NewMockDialer(ctrl)).
			Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if config.ResponseTimeout != 30*time.Second {
			t.Errorf("unexpected response timeout: %v", config.ResponseTimeout)
		}
		if config.PollTimeout != time.Second {
			t.Errorf("unexpected poll timeout: %v", config.PollTimeout)
		}
		if config.SettleDelay != 2*time.Second {
			t.Errorf("unexpected settle delay: %v", config.SettleDelay)
		}
		if config.DrainWindow != 3*time.Second {
			t.Errorf("unexpected drain window: %v", config.DrainWindow)
		}
		if config.Logger == nil {
			t.Error("expected a default logger")
		}
	})

	t.Run("explicit values survive Build", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		config, err := transmitter.NewConfigBuilder().
			WithDialer(transmitter.NewMockDialer(ctrl)).
			WithResponseTimeout(5 * time.Second).
			WithStartupDrain(time.Second).
			Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.ResponseTimeout != 5*time.Second {
			t.Errorf("unexpected response timeout: %v", config.ResponseTimeout)
		}
		if config.StartupDrain != time.Second {
			t.Errorf("unexpected startup drain: %v", config.StartupDrain)
		}
	})
}
