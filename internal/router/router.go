// Package router decides which connections receive each inbound event.
//
// The router owns the presence registry and the global history. It keeps no
// locks: every method must be called from the single goroutine that runs the
// hub's event loop, one event at a time.
package router

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Tyrowin/gochat-relay/internal/history"
	"github.com/Tyrowin/gochat-relay/internal/metrics"
	"github.com/Tyrowin/gochat-relay/internal/presence"
	"github.com/Tyrowin/gochat-relay/internal/protocol"
	"github.com/Tyrowin/gochat-relay/internal/room"
)

var (
	// ErrUnknownEvent is returned for event names the router does not handle.
	ErrUnknownEvent = errors.New("router: unknown event")
	// ErrMalformedPayload wraps payload decoding failures.
	ErrMalformedPayload = errors.New("router: malformed payload")
	// ErrMissingRoom is returned for room-addressed events without a room.
	ErrMissingRoom = errors.New("router: missing room")
	// ErrMissingTarget is returned for call signals without a target.
	ErrMissingTarget = errors.New("router: missing call target")
	// ErrNotJoined is returned when an event needs the sender's identity but
	// the sender never joined.
	ErrNotJoined = errors.New("router: sender has not joined")
)

// Transport delivers encoded frames to open connections.
type Transport interface {
	// Send queues frame for conn. Unknown connections are ignored.
	Send(conn presence.ConnID, frame []byte)
	// Broadcast queues frame for every open connection except the given one.
	// An empty except reaches everyone.
	Broadcast(frame []byte, except presence.ConnID)
}

// Router routes chat, typing, signaling and moderation events.
type Router struct {
	transport Transport
	registry  *presence.Registry
	history   *history.Buffer
	resolver  room.Resolver
	replay    int
	logger    zerolog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithResolver replaces the default "global" / "<A>_<B>" room addressing.
func WithResolver(resolver room.Resolver) Option {
	return func(r *Router) {
		r.resolver = resolver
	}
}

// WithHistory sets how many global messages are retained and how many of
// them are replayed to a joining client.
func WithHistory(capacity, replay int) Option {
	return func(r *Router) {
		r.history = history.NewBuffer(capacity)
		if replay > 0 {
			r.replay = replay
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// New returns a router delivering through transport.
func New(transport Transport, opts ...Option) *Router {
	r := &Router{
		transport: transport,
		registry:  presence.NewRegistry(),
		history:   history.NewBuffer(history.DefaultCapacity),
		resolver:  room.PairResolver{},
		replay:    history.DefaultReplay,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle processes one inbound event sent by conn. Returned errors describe
// why an event was ignored; they are meant for logs and are never reported
// back to clients.
func (r *Router) Handle(conn presence.ConnID, env protocol.Envelope) error {
	var err error
	switch env.Event {
	case protocol.EventJoin:
		err = r.handleJoin(conn, env)
	case protocol.EventChatMessage:
		err = r.handleChatMessage(conn, env)
	case protocol.EventTyping:
		err = r.handleTyping(conn, env)
	case protocol.EventCallSignal:
		err = r.handleCallSignal(conn, env)
	case protocol.EventDeleteMessage:
		err = r.handleDeleteMessage(conn, env)
	case protocol.EventClearChat:
		err = r.handleClearChat(conn)
	default:
		metrics.EventsReceived.WithLabelValues("unknown").Inc()
		return fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
	metrics.EventsReceived.WithLabelValues(env.Event).Inc()
	return err
}

// Identities returns the presence list in join order.
func (r *Router) Identities() []protocol.Identity {
	return r.registry.All()
}

// History returns the message payloads a joining client would receive.
func (r *Router) History() []json.RawMessage {
	return r.history.Recent(r.replay)
}

// HistoryLen returns the number of retained global messages.
func (r *Router) HistoryLen() int {
	return r.history.Len()
}

// send encodes and queues one event for conn.
func (r *Router) send(conn presence.ConnID, event string, data any, kind string) {
	frame, err := protocol.Encode(event, data)
	if err != nil {
		r.logger.Error().Err(err).Str("event", event).Msg("failed to encode event")
		return
	}
	r.transport.Send(conn, frame)
	metrics.EventsDelivered.WithLabelValues(event, kind).Inc()
}

// broadcast encodes and queues one event for every connection but except.
func (r *Router) broadcast(event string, data any, except presence.ConnID) {
	frame, err := protocol.Encode(event, data)
	if err != nil {
		r.logger.Error().Err(err).Str("event", event).Msg("failed to encode event")
		return
	}
	r.transport.Broadcast(frame, except)
	metrics.EventsDelivered.WithLabelValues(event, "broadcast").Inc()
}

// sendToName delivers to the first connection that joined as name. A name
// nobody joined with is a silent miss.
func (r *Router) sendToName(name, event string, data any) bool {
	conn, ok := r.registry.FindByName(name)
	if !ok {
		metrics.EventsDropped.WithLabelValues("recipient_offline").Inc()
		r.logger.Debug().Str("event", event).Str("recipient", name).Msg("recipient not connected")
		return false
	}
	r.send(conn, event, data, "direct")
	return true
}

func (r *Router) broadcastPresence(except presence.ConnID) {
	metrics.JoinedIdentities.Set(float64(r.registry.Len()))
	r.broadcast(protocol.EventUpdateUsers, r.registry.All(), except)
}

// bindRef decodes the addressing fields of a relayed payload.
func bindRef(env protocol.Envelope) (protocol.Ref, error) {
	var ref protocol.Ref
	if err := env.Bind(&ref); err != nil {
		return ref, malformed(err)
	}
	if ref.Room == "" {
		return ref, fmt.Errorf("%s: %w", env.Event, ErrMissingRoom)
	}
	return ref, nil
}

// payload copies the inbound data so it can outlive the frame it came in.
func payload(env protocol.Envelope) json.RawMessage {
	return append(json.RawMessage(nil), env.Data...)
}

func malformed(err error) error {
	return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
}
