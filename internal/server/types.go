// Package server defines shared hub messages and utility helpers that are
// reused across client and hub logic.
package server

import (
	"strings"

	"github.com/Tyrowin/gochat-relay/internal/protocol"
)

// inboundEvent carries a decoded envelope from a client's read pump into the
// hub loop, where it is routed.
type inboundEvent struct {
	sender *Client
	env    protocol.Envelope
}

// Stats is a point-in-time snapshot of hub state taken on the hub goroutine.
type Stats struct {
	Clients int `json:"clients"`
	Online  int `json:"online"`
	History int `json:"history"`
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
