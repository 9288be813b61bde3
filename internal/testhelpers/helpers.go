// Package testhelpers provides common utilities for exercising the relay over
// real HTTP and WebSocket connections in tests.
package testhelpers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/gochat-relay/internal/protocol"
)

// TestOrigin is the Origin header sent by Dial. Test servers should allow it.
const TestOrigin = "http://localhost:8080"

// DefaultTimeout bounds every read performed by the helpers.
const DefaultTimeout = 2 * time.Second

// WebSocketURL turns an httptest server URL into the relay's /ws endpoint.
func WebSocketURL(serverURL string) string {
	return "ws" + strings.TrimPrefix(serverURL, "http") + "/ws"
}

// ConnectWebSocket creates a WebSocket connection to url with the given Origin.
// It returns the handshake response status along with the connection.
func ConnectWebSocket(url, origin string) (*websocket.Conn, int, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(url, headers)
	status := 0
	if resp != nil {
		status = resp.StatusCode
		_ = resp.Body.Close()
	}
	return conn, status, err
}

// EventConn reads relay envelopes off a WebSocket connection, one per frame.
type EventConn struct {
	Conn *websocket.Conn
}

// Dial connects to url with TestOrigin and fails the test on error. The
// connection is closed when the test ends.
func Dial(t *testing.T, url string) *EventConn {
	t.Helper()
	conn, _, err := ConnectWebSocket(url, TestOrigin)
	if err != nil {
		t.Fatalf("Failed to connect to %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &EventConn{Conn: conn}
}

// Emit sends one envelope. A nil data omits the data field.
func (c *EventConn) Emit(t *testing.T, event string, data any) {
	t.Helper()
	frame, err := protocol.Encode(event, data)
	if err != nil {
		t.Fatalf("Failed to encode %s: %v", event, err)
	}
	if err := c.Conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatalf("Failed to send %s: %v", event, err)
	}
}

// Next returns the next envelope, waiting at most timeout. A frame that is
// not exactly one JSON envelope is an error.
func (c *EventConn) Next(timeout time.Duration) (protocol.Envelope, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return protocol.Envelope{}, err
	}
	_, frame, err := c.Conn.ReadMessage()
	if err != nil {
		return protocol.Envelope{}, err
	}
	return protocol.Decode(frame)
}

// WaitFor skips envelopes until one named event arrives and returns it.
func (c *EventConn) WaitFor(t *testing.T, event string) protocol.Envelope {
	t.Helper()
	deadline := time.Now().Add(DefaultTimeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			t.Fatalf("Timed out waiting for %q", event)
		}
		env, err := c.Next(remaining)
		if err != nil {
			t.Fatalf("Failed waiting for %q: %v", event, err)
		}
		if env.Event == event {
			return env
		}
	}
}

// Expect reads the very next envelope and fails unless it is event.
func (c *EventConn) Expect(t *testing.T, event string) protocol.Envelope {
	t.Helper()
	env, err := c.Next(DefaultTimeout)
	if err != nil {
		t.Fatalf("Failed waiting for %q: %v", event, err)
	}
	if env.Event != event {
		t.Fatalf("Expected %q, got %q", event, env.Event)
	}
	return env
}

// ExpectNone fails if event arrives within timeout. A read timeout leaves a
// gorilla connection unusable, so this must be the last read on c.
func (c *EventConn) ExpectNone(t *testing.T, event string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return
		}
		env, err := c.Next(remaining)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return
			}
			t.Fatalf("Unexpected read error: %v", err)
		}
		if env.Event == event {
			t.Fatalf("Unexpected %q received: %s", event, env.Data)
		}
	}
}

// Bind decodes env's data into T and fails the test on error.
func Bind[T any](t *testing.T, env protocol.Envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("Failed to decode %s data: %v", env.Event, err)
	}
	return v
}

// CloseWebSocket gracefully closes a WebSocket connection.
func CloseWebSocket(conn *websocket.Conn) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return err
	}
	return conn.Close()
}

// MakeRequest creates and executes an HTTP request, returning the response.
// It includes a 5-second timeout and fails the test if the request cannot be
// created or executed successfully.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(method, url, http.NoBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	return resp
}

// AssertStatusCode checks if the HTTP response has the expected status code.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d", expected, resp.StatusCode)
	}
}

// AssertContentType checks if the HTTP response has the expected Content-Type header.
func AssertContentType(t *testing.T, resp *http.Response, expected string) {
	t.Helper()
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, expected) {
		t.Errorf("Expected content type %s, got %s", expected, contentType)
	}
}
