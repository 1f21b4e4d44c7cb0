package transmitter

import (
	"strings"
	"time"

	"github.com/ttgo-tools/fsktx/wire"
)

// lineReader assembles complete response lines from a Transport. Reads are
// bounded per call, so callers can interleave deadline checks with I/O.
type lineReader struct {
	tr  Transport
	buf []byte
}

func newLineReader(tr Transport) *lineReader {
	return &lineReader{tr: tr}
}

// ReadLine returns the next complete line once it arrives, or ("", nil) if no
// line completes before the timeout. It never blocks past the timeout.
//
// Trailing CR/LF framing is stripped. Bytes that do not form valid UTF-8 are
// replaced rather than rejected: a garbled line is expected device noise and
// gets discarded by the response parser, not escalated.
func (r *lineReader) ReadLine(timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)

	for {
		if line, ok := r.takeLine(); ok {
			return line, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return "", nil
		}
		if err := r.tr.SetReadTimeout(remaining); err != nil {
			return "", err
		}

		chunk := make([]byte, 256)
		n, err := r.tr.Read(chunk)
		if err != nil {
			return "", err
		}
		if n == 0 {
			// Read timed out without data.
			return "", nil
		}
		r.buf = append(r.buf, chunk[:n]...)
	}
}

// takeLine extracts one complete line from the accumulation buffer, if any.
func (r *lineReader) takeLine() (string, bool) {
	advance, token, _ := wire.Splitter(r.buf, false)
	if advance == 0 {
		return "", false
	}
	line := strings.ToValidUTF8(string(token), "�")
	r.buf = r.buf[advance:]
	return line, true
}

// Discard drops any partially accumulated bytes. Used after a device reset,
// when whatever is in flight belongs to start-up chatter.
func (r *lineReader) Discard() {
	r.buf = nil
}
