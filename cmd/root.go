package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ttgo-tools/fsktx/transmitter"
	"github.com/ttgo-tools/fsktx/wire"
)

var (
	// Radio parameters
	frequency float64
	power     int

	// Transport flags
	baudRate      int
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Behavior flags
	timeoutSec float64
	verbose    bool
	dryRun     bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "fsktx [port] <file>",
	Short: "Transmit a file over FSK through a ttgo-fsk-tx device",
	Long: `fsktx pushes a binary file (up to 2048 bytes) to a ttgo-fsk-tx transmitter
over its serial console protocol, optionally tuning frequency and transmit
power first.

Connection modes:
  Serial:    fsktx /dev/ttyUSB0 data.bin [--baud 115200]
  WebSocket: fsktx --url ws://host/path data.bin [--username user]

For WebSocket authentication, the password is read from the FSKTX_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell
history.`,
	Version:       "2.0.0",
	Args:          cobra.RangeArgs(1, 2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().Float64VarP(&frequency, "frequency", "f", 0, "Frequency in MHz to set before transmission")
	rootCmd.Flags().IntVarP(&power, "power", "p", 0, fmt.Sprintf("Transmit power in dBm (%d-%d)", wire.MinPower, wire.MaxPower))
	rootCmd.Flags().IntVarP(&baudRate, "baud", "b", 115200, "Serial baud rate")
	rootCmd.Flags().Float64VarP(&timeoutSec, "timeout", "t", 30, "Response timeout in seconds")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate parameters without transmitting")
	rootCmd.Flags().StringVar(&configPath, "config", "", "YAML file with default options")

	rootCmd.Flags().StringVarP(&wsURL, "url", "u", "", "WebSocket bridge URL (ws:// or wss://)")
	rootCmd.Flags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.Flags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
}

// Execute runs the root command under the given signal context.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func run(cmd *cobra.Command, args []string) error {
	opts, err := collectOptions(cmd, args)
	if err != nil {
		return err
	}
	if err := opts.validate(); err != nil {
		return err
	}

	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	payload, err := loadPayload(opts.File)
	if err != nil {
		return err
	}

	logger.Info("FSK file transmitter starting",
		"target", opts.target(),
		"file", opts.File,
		"bytes", len(payload))

	if opts.DryRun {
		logger.Info("dry run: validation completed successfully")
		return nil
	}

	dialer, err := opts.dialer()
	if err != nil {
		return err
	}

	config, err := transmitter.NewConfigBuilder().
		WithDialer(dialer).
		WithLogger(logger.With("component", "transmitter")).
		WithResponseTimeout(time.Duration(opts.TimeoutSec * float64(time.Second))).
		WithStartupDrain(500 * time.Millisecond).
		Build()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	tx, err := transmitter.New(ctx, config)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := tx.Close(); cerr != nil {
			logger.Error("failed to close transport", "error", cerr)
		}
	}()

	if err := tx.Configure(ctx, transmitter.Settings{
		Frequency: opts.Frequency,
		Power:     opts.Power,
	}); err != nil {
		return fmt.Errorf("configure device: %w", err)
	}

	sent, err := tx.Transmit(ctx, payload)
	if err != nil {
		return fmt.Errorf("transmit: %w", err)
	}

	logger.Info("operation completed successfully", "bytes_sent", sent)
	return nil
}
