package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ttgo-tools/fsktx/transmitter"
	"github.com/ttgo-tools/fsktx/wire"
)

// Options is the fully resolved CLI configuration: defaults, then config
// file, then explicit flags, each layer overriding the previous one.
type Options struct {
	Port string
	File string

	Frequency  float64
	Power      int
	BaudRate   int
	TimeoutSec float64

	URL         string
	Username    string
	NoSSLVerify bool

	Verbose bool
	DryRun  bool
}

// FileConfig is the shape of the optional --config YAML file. All fields are
// defaults; explicit flags win.
type FileConfig struct {
	Port      string  `yaml:"port"`
	Baud      int     `yaml:"baud"`
	Frequency float64 `yaml:"frequency"`
	Power     int     `yaml:"power"`
	Timeout   float64 `yaml:"timeout"`
	URL       string  `yaml:"url"`
	Username  string  `yaml:"username"`
}

// LoadFileConfig reads and decodes a YAML defaults file.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return &fc, nil
}

// collectOptions merges positional arguments, the optional config file, and
// the flag values into one Options value.
func collectOptions(cmd *cobra.Command, args []string) (*Options, error) {
	opts := &Options{
		Frequency:   frequency,
		Power:       power,
		BaudRate:    baudRate,
		TimeoutSec:  timeoutSec,
		URL:         wsURL,
		Username:    wsUsername,
		NoSSLVerify: wsNoSSLVerify,
		Verbose:     verbose,
		DryRun:      dryRun,
	}

	if configPath != "" {
		fc, err := LoadFileConfig(configPath)
		if err != nil {
			return nil, err
		}
		opts.applyFileConfig(fc, cmd)
	}

	// In bridge mode the port argument is dropped; the single positional
	// argument is the file to transmit.
	switch {
	case opts.URL != "" && len(args) == 1:
		opts.File = args[0]
	case len(args) == 2:
		opts.Port = args[0]
		opts.File = args[1]
	case len(args) == 1 && opts.Port != "":
		// Port supplied by the config file.
		opts.File = args[0]
	default:
		return nil, fmt.Errorf("expected <port> <file> arguments (or <file> with --url)")
	}

	return opts, nil
}

// applyFileConfig fills in file-provided defaults for everything the user did
// not set explicitly on the command line.
func (o *Options) applyFileConfig(fc *FileConfig, cmd *cobra.Command) {
	flags := cmd.Flags()
	if fc.Port != "" {
		o.Port = fc.Port
	}
	if fc.Baud != 0 && !flags.Changed("baud") {
		o.BaudRate = fc.Baud
	}
	if fc.Frequency != 0 && !flags.Changed("frequency") {
		o.Frequency = fc.Frequency
	}
	if fc.Power != 0 && !flags.Changed("power") {
		o.Power = fc.Power
	}
	if fc.Timeout != 0 && !flags.Changed("timeout") {
		o.TimeoutSec = fc.Timeout
	}
	if fc.URL != "" && !flags.Changed("url") {
		o.URL = fc.URL
	}
	if fc.Username != "" && !flags.Changed("username") {
		o.Username = fc.Username
	}
}

func (o *Options) validate() error {
	if o.Power != 0 && (o.Power < wire.MinPower || o.Power > wire.MaxPower) {
		return fmt.Errorf("power must be between %d and %d dBm", wire.MinPower, wire.MaxPower)
	}
	if o.Frequency != 0 && (o.Frequency < wire.MinFrequencyMHz || o.Frequency > wire.MaxFrequencyMHz) {
		return fmt.Errorf("frequency must be between %g and %g MHz", wire.MinFrequencyMHz, wire.MaxFrequencyMHz)
	}
	if o.TimeoutSec <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if o.URL == "" && o.Port == "" {
		return fmt.Errorf("either a serial port or --url must be specified")
	}
	return nil
}

// target describes the resolved connection for log output.
func (o *Options) target() string {
	if o.URL != "" {
		return fmt.Sprintf("WebSocket: %s", o.URL)
	}
	return fmt.Sprintf("Serial: %s @ %d baud", o.Port, o.BaudRate)
}

// dialer builds the transport dialer for the resolved connection mode.
func (o *Options) dialer() (transmitter.Dialer, error) {
	if o.URL != "" {
		password := ""
		if o.Username != "" {
			var err error
			password, err = getPassword()
			if err != nil {
				return nil, err
			}
		}
		return transmitter.WebSocketDialer{
			URL:           o.URL,
			Username:      o.Username,
			Password:      password,
			SkipTLSVerify: o.NoSSLVerify,
		}, nil
	}
	return transmitter.SerialDialer{
		PortName: o.Port,
		BaudRate: o.BaudRate,
	}, nil
}

// loadPayload reads the file to transmit and enforces the device limits.
func loadPayload(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("file %q does not exist or is not a file", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %q: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("file %q is empty", path)
	}
	if len(data) > wire.MaxPayload {
		return nil, fmt.Errorf("file size %d exceeds maximum of %d bytes", len(data), wire.MaxPayload)
	}
	return data, nil
}
