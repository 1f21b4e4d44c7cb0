package transmitter_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/ttgo-tools/fsktx/transmitter"
)

// testConfig returns a builder preloaded with timings short enough for the
// timeout and recovery paths to run in milliseconds.
func testConfig(d transmitter.Dialer) *transmitter.ConfigBuilder {
	return transmitter.NewConfigBuilder().
		WithDialer(d).
		WithResponseTimeout(time.Second).
		WithPollTimeout(10 * time.Millisecond).
		WithSettleDelay(time.Millisecond).
		WithDrainWindow(10 * time.Millisecond)
}

func TestNew(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		tt := transmitter.NewTestTransport()
		mockDialer := transmitter.NewMockDialer(ctrl)
		mockDialer.EXPECT().Dial(gomock.Any()).Return(tt, nil)

		config, err := testConfig(mockDialer).Build()
		if err != nil {
			t.Fatalf("unexpected error from Build(): %v", err)
		}

		tx, err := transmitter.New(context.Background(), config)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tx == nil {
			t.Fatal("New() should return a valid transmitter on success")
		}
		if err := tx.Close(); err != nil {
			t.Errorf("unexpected error from Close(): %v", err)
		}
	})

	t.Run("ErrNoDialer when no dialer provided", func(t *testing.T) {
		tx, err := transmitter.New(context.Background(), transmitter.Config{})
		if !errors.Is(err, transmitter.ErrNoDialer) {
			t.Errorf("expected ErrNoDialer, got: %v", err)
		}
		if tx != nil {
			t.Error("New() should return nil transmitter when no dialer provided")
		}
	})

	t.Run("dialer error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDialer := transmitter.NewMockDialer(ctrl)
		mockDialer.EXPECT().Dial(gomock.Any()).Return(nil, errors.New("connection failed"))

		config, err := testConfig(mockDialer).Build()
		if err != nil {
			t.Fatalf("unexpected error from Build(): %v", err)
		}

		tx, err := transmitter.New(context.Background(), config)
		if err == nil {
			t.Error("expected error from dialer failure")
		}
		if tx != nil {
			t.Error("New() should return nil transmitter when dialer fails")
		}
	})

	t.Run("nil transport from dialer", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDialer := transmitter.NewMockDialer(ctrl)
		mockDialer.EXPECT().Dial(gomock.Any()).Return(nil, nil)

		config, err := testConfig(mockDialer).Build()
		if err != nil {
			t.Fatalf("unexpected error from Build(): %v", err)
		}

		_, err = transmitter.New(context.Background(), config)
		if err == nil {
			t.Error("expected error for nil transport")
		}
	})

	t.Run("startup chatter is drained before first command", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		tt := transmitter.NewTestTransport()
		tt.SendData("INIT:0:Radio initialized successfully\n")
		tt.SendData("CONSOLE:0:stale acknowledgement\n")

		mockDialer := transmitter.NewMockDialer(ctrl)
		mockDialer.EXPECT().Dial(gomock.Any()).Return(tt, nil)

		config, err := testConfig(mockDialer).
			WithStartupDrain(50 * time.Millisecond).
			Build()
		if err != nil {
			t.Fatalf("unexpected error from Build(): %v", err)
		}

		tx, err := transmitter.New(context.Background(), config)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer tx.Close()

		// The boot lines are gone; a fresh acknowledgement still matches.
		tt.SendData("CONSOLE:0:Transmit power set to 10\n")
		if err := tx.SetPower(context.Background(), 10); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestClose(t *testing.T) {
	t.Run("closes underlying transport", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockTransport := transmitter.NewMockTransport(ctrl)
		mockDialer := transmitter.NewMockDialer(ctrl)
		mockDialer.EXPECT().Dial(gomock.Any()).Return(mockTransport, nil)
		mockTransport.EXPECT().Close().Return(nil)

		config, err := testConfig(mockDialer).Build()
		if err != nil {
			t.Fatalf("unexpected error from Build(): %v", err)
		}

		tx, err := transmitter.New(context.Background(), config)
		if err != nil {
			t.Fatalf("unexpected error from New(): %v", err)
		}
		if err := tx.Close(); err != nil {
			t.Errorf("unexpected error from Close(): %v", err)
		}
	})

	t.Run("returns transport error on close failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		closeError := errors.New("transport close failed")
		mockTransport := transmitter.NewMockTransport(ctrl)
		mockDialer := transmitter.NewMockDialer(ctrl)
		mockDialer.EXPECT().Dial(gomock.Any()).Return(mockTransport, nil)
		mockTransport.EXPECT().Close().Return(closeError)

		config, err := testConfig(mockDialer).Build()
		if err != nil {
			t.Fatalf("unexpected error from Build(): %v", err)
		}

		tx, err := transmitter.New(context.Background(), config)
		if err != nil {
			t.Fatalf("unexpected error from New(): %v", err)
		}
		if err := tx.Close(); !errors.Is(err, closeError) {
			t.Errorf("expected transport error, got: %v", err)
		}
	})

	t.Run("ErrAlreadyClosed on double close", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockTransport := transmitter.NewMockTransport(ctrl)
		mockDialer := transmitter.NewMockDialer(ctrl)
		mockDialer.EXPECT().Dial(gomock.Any()).Return(mockTransport, nil)
		mockTransport.EXPECT().Close().Return(nil)

		config, err := testConfig(mockDialer).Build()
		if err != nil {
			t.Fatalf("unexpected error from Build(): %v", err)
		}

		tx, err := transmitter.New(context.Background(), config)
		if err != nil {
			t.Fatalf("unexpected error from New(): %v", err)
		}

		if err := tx.Close(); err != nil {
			t.Errorf("first close should succeed, got error: %v", err)
		}
		if err := tx.Close(); !errors.Is(err, transmitter.ErrAlreadyClosed) {
			t.Errorf("expected ErrAlreadyClosed on second close, got: %v", err)
		}
	})
}
