// Package server implements the HTTP and WebSocket transport of the relay.
//
// The Hub owns every connection and runs the event router on a single
// goroutine. Clients decode frames on their own read pumps and hand the
// envelopes to the hub, which routes them and queues outgoing frames on each
// recipient's buffered send channel.
package server
