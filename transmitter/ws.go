package transmitter

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketDialer opens the transmitter through a serial-over-WebSocket
// bridge. Payload and response bytes travel as binary messages; text and
// control messages from the bridge are skipped.
type WebSocketDialer struct {
	// URL of the bridge endpoint (ws:// or wss://).
	URL string
	// Username and Password are sent as HTTP Basic auth when both non-empty.
	Username string
	Password string
	// SkipTLSVerify disables certificate verification for wss:// endpoints.
	SkipTLSVerify bool
	// HandshakeTimeout bounds the connection handshake. Defaults to 10s.
	HandshakeTimeout time.Duration
}

// Dial connects to the bridge and wraps the connection in a Transport.
func (d WebSocketDialer) Dial(ctx context.Context) (Transport, error) {
	if ctx == nil {
		return nil, errors.New("fsktx: context is nil")
	}

	u, err := url.Parse(d.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid bridge URL: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme %q (use ws:// or wss://)", u.Scheme)
	}

	conn, err := d.connect(ctx, u)
	if err != nil {
		return nil, err
	}

	return &wsTransport{dialer: d, conn: conn, frames: pumpFrames(conn)}, nil
}

func (d WebSocketDialer) connect(ctx context.Context, u *url.URL) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: d.HandshakeTimeout,
	}
	if dialer.HandshakeTimeout == 0 {
		dialer.HandshakeTimeout = 10 * time.Second
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: d.SkipTLSVerify}
	}

	headers := http.Header{}
	if d.Username != "" && d.Password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(d.Username + ":" + d.Password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	conn, resp, err := dialer.DialContext(ctx, u.String(), headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("bridge connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("bridge connection failed: %w", err)
	}
	return conn, nil
}

// wsTransport adapts a WebSocket connection to the Transport interface,
// re-framing binary messages as a byte stream. Message errors on a gorilla
// connection are permanent, so reads never set deadlines on the connection
// itself: a pump goroutine owns ReadMessage for the connection's lifetime and
// Read applies its timeout with a timer against the frame channel.
type wsTransport struct {
	dialer WebSocketDialer
	conn   *websocket.Conn
	frames <-chan wsFrame

	buf         []byte
	bufOffset   int
	readTimeout time.Duration
}

type wsFrame struct {
	data []byte
	err  error
}

// pumpFrames drains binary messages from conn into the returned channel.
// The first read error ends the pump; the closed channel marks the
// connection as finished.
func pumpFrames(conn *websocket.Conn) <-chan wsFrame {
	frames := make(chan wsFrame, 16)
	go func() {
		defer close(frames)
		for {
			messageType, data, err := conn.ReadMessage()
			if err != nil {
				frames <- wsFrame{err: err}
				return
			}
			if messageType != websocket.BinaryMessage {
				continue
			}
			frames <- wsFrame{data: data}
		}
	}()
	return frames
}

func (t *wsTransport) Read(p []byte) (int, error) {
	// Serve buffered bytes from a previous message first.
	if t.bufOffset < len(t.buf) {
		n := copy(p, t.buf[t.bufOffset:])
		t.bufOffset += n
		return n, nil
	}

	var frame wsFrame
	var ok bool
	if t.readTimeout > 0 {
		timer := time.NewTimer(t.readTimeout)
		defer timer.Stop()
		select {
		case frame, ok = <-t.frames:
		case <-timer.C:
			// The "no data" result, matching the serial transport's
			// timeout convention. The connection stays usable.
			return 0, nil
		}
	} else {
		frame, ok = <-t.frames
	}
	if !ok {
		return 0, io.EOF
	}
	if frame.err != nil {
		return 0, frame.err
	}

	t.buf = frame.data
	t.bufOffset = copy(p, frame.data)
	return t.bufOffset, nil
}

func (t *wsTransport) Write(p []byte) (int, error) {
	if err := t.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}

func (t *wsTransport) SetReadTimeout(d time.Duration) error {
	t.readTimeout = d
	return nil
}

// bridgeReopenDelay separates dropping the bridge connection from the redial.
const bridgeReopenDelay = 100 * time.Millisecond

// Reset has no control line to toggle over a bridge, so it always uses the
// reopen strategy: drop the connection and redial with identical parameters.
func (t *wsTransport) Reset() error {
	_ = t.conn.Close()
	time.Sleep(bridgeReopenDelay)

	u, err := url.Parse(t.dialer.URL)
	if err != nil {
		return fmt.Errorf("reset bridge: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, err := t.dialer.connect(ctx, u)
	if err != nil {
		return fmt.Errorf("reset bridge: %w", err)
	}

	t.conn = conn
	t.frames = pumpFrames(conn)
	t.buf = nil
	t.bufOffset = 0
	return nil
}
