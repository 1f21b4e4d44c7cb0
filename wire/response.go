package wire

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
)

// Response is one parsed device response line of the form CHANNEL:CODE:MESSAGE.
//
// A Response is ephemeral: it exists only while the caller decides whether the
// line satisfies the current wait.
type Response struct {
	Channel string
	Code    int
	Message string
}

// OK reports whether the response carries the success code.
func (r Response) OK() bool {
	return r.Code == CodeOK
}

// ParseResponse parses a single text line into a Response.
//
// The line is split on the first two ':' separators only, so the message part
// may itself contain colons. Lines with fewer than three fields or a
// non-integer code field are malformed; they are reported via ok=false and
// never as an error, since stray diagnostic text from the device is expected
// and must simply be skipped.
func ParseResponse(line string) (resp Response, ok bool) {
	parts := strings.SplitN(line, ":", 3)
	if len(parts) < 3 {
		return Response{}, false
	}

	code, err := strconv.Atoi(parts[1])
	if err != nil {
		return Response{}, false
	}

	return Response{
		Channel: parts[0],
		Code:    code,
		Message: parts[2],
	}, true
}

// Splitter tokenizes the device output stream into lines. It uses the
// signature of bufio.SplitFunc so it can be driven directly by bufio.Scanner
// or called standalone on an accumulation buffer.
//
// Lines are terminated by LF; a trailing CR is stripped from the token so both
// LF and CRLF framing are accepted.
//
// The atEOF parameter indicates whether any more data will be available.
// When true, any remaining data is returned as the final token.
func Splitter(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, bytes.TrimSuffix(data[:i], []byte("\r")), nil
	}

	if atEOF {
		return len(data), bytes.TrimSuffix(data, []byte("\r")), nil
	}
	return 0, nil, nil
}

var _ bufio.SplitFunc = Splitter
