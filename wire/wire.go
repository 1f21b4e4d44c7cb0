package wire

import (
	"fmt"
	"strconv"
)

const (
	// Terminal Control
	LF = "\n"

	// Response channels. The first field of every response line names the
	// logical channel the message belongs to.
	ChannelConsole = "CONSOLE" // command acknowledgements
	ChannelTX      = "TX"      // final transmission outcome
	ChannelInit    = "INIT"    // firmware boot/status chatter

	// CodeOK is the response code reported on success. Any other code is a
	// device-reported error.
	CodeOK = 0
)

// Device limits enforced by the ttgo-fsk-tx firmware.
const (
	MaxPayload = 2048

	MinPower = 2  // dBm
	MaxPower = 17 // dBm

	MinFrequencyMHz = 100.0
	MaxFrequencyMHz = 1000.0
)

// SetFrequency builds the command that tunes the transmitter, in MHz.
func SetFrequency(mhz float64) string {
	return "f " + strconv.FormatFloat(mhz, 'f', -1, 64)
}

// SetPower builds the command that sets the transmit power, in dBm.
func SetPower(dbm int) string {
	return "p " + strconv.Itoa(dbm)
}

// SendPayload builds the command that announces an n-byte transmission.
// The n raw payload bytes follow the command line immediately, with no
// further delimiter.
func SendPayload(n int) string {
	return "m " + strconv.Itoa(n)
}

// WaitingPrefix is the console acknowledgement the device emits once it has
// allocated a receive buffer of exactly n bytes.
func WaitingPrefix(n int) string {
	return fmt.Sprintf("Waiting for %d bytes", n)
}

// AcceptedMessage is the console acknowledgement the device emits after
// reading exactly n payload bytes off the wire.
func AcceptedMessage(n int) string {
	return fmt.Sprintf("Accepted %d bytes", n)
}

// Console acknowledgement prefixes for the configuration commands.
const (
	PowerSetPrefix     = "Transmit power set to"
	FrequencySetPrefix = "Frequency set to"
	AcceptedPrefix     = "Accepted "
)
