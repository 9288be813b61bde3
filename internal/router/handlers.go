package router

import (
	"fmt"

	"github.com/Tyrowin/gochat-relay/internal/history"
	"github.com/Tyrowin/gochat-relay/internal/metrics"
	"github.com/Tyrowin/gochat-relay/internal/presence"
	"github.com/Tyrowin/gochat-relay/internal/protocol"
	"github.com/Tyrowin/gochat-relay/internal/room"
)

func (r *Router) handleJoin(conn presence.ConnID, env protocol.Envelope) error {
	var join protocol.Join
	if err := env.Bind(&join); err != nil {
		return malformed(err)
	}

	r.registry.Register(conn, join.Identity())
	r.logger.Info().
		Str("conn", string(conn)).
		Str("name", join.Name).
		Int("online", r.registry.Len()).
		Msg("user joined")

	r.broadcastPresence("")
	r.send(conn, protocol.EventHistory, r.History(), "direct")
	return nil
}

// handleChatMessage relays the payload as received. Only room, user and time
// are read, for addressing and the history id.
func (r *Router) handleChatMessage(conn presence.ConnID, env protocol.Envelope) error {
	ref, err := bindRef(env)
	if err != nil {
		return err
	}
	msg := payload(env)

	recipient := r.resolver.Resolve(ref.Room, ref.User)
	if recipient.Kind == room.Broadcast {
		r.history.Append(history.Entry{ID: ref.ID(), Payload: msg})
		metrics.HistorySize.Set(float64(r.history.Len()))
		r.broadcast(protocol.EventChatMessage, msg, "")
		return nil
	}

	if recipient.Kind == room.Direct {
		r.sendToName(recipient.Name, protocol.EventChatMessage, msg)
	}
	// The sender always sees its own private message.
	r.send(conn, protocol.EventChatMessage, msg, "echo")
	return nil
}

func (r *Router) handleTyping(conn presence.ConnID, env protocol.Envelope) error {
	ref, err := bindRef(env)
	if err != nil {
		return err
	}
	typing := payload(env)

	recipient := r.resolver.Resolve(ref.Room, ref.User)
	switch recipient.Kind {
	case room.Broadcast:
		r.broadcast(protocol.EventTyping, typing, conn)
	case room.Direct:
		r.sendToName(recipient.Name, protocol.EventTyping, typing)
	default:
		metrics.EventsDropped.WithLabelValues("no_recipient").Inc()
	}
	return nil
}

func (r *Router) handleCallSignal(conn presence.ConnID, env protocol.Envelope) error {
	sender, ok := r.registry.Lookup(conn)
	if !ok {
		metrics.EventsDropped.WithLabelValues("not_joined").Inc()
		return fmt.Errorf("%s: %w", env.Event, ErrNotJoined)
	}

	var signal protocol.CallSignal
	if err := env.Bind(&signal); err != nil {
		return malformed(err)
	}
	if signal.Target == "" {
		return fmt.Errorf("%s: %w", env.Event, ErrMissingTarget)
	}

	r.sendToName(signal.Target, protocol.EventCallSignal, protocol.CallSignalRelay{
		Type:    signal.Type,
		Sender:  sender.Name,
		Payload: signal.Payload,
		Room:    signal.Room,
	})
	return nil
}

// handleDeleteMessage relays the request in the shape it arrived in.
func (r *Router) handleDeleteMessage(conn presence.ConnID, env protocol.Envelope) error {
	ref, err := bindRef(env)
	if err != nil {
		return err
	}
	req := payload(env)

	recipient := r.resolver.Resolve(ref.Room, ref.User)
	if recipient.Kind == room.Broadcast {
		before := r.history.Len()
		id := ref.ResolvedID()
		if id != "" {
			r.history.RemoveByMessageID(id)
		}
		metrics.HistorySize.Set(float64(r.history.Len()))
		r.logger.Info().
			Str("message_id", id).
			Int("before", before).
			Int("after", r.history.Len()).
			Msg("global message deleted")
		r.broadcast(protocol.EventDeleteMessage, req, "")
		return nil
	}

	if recipient.Kind == room.Direct {
		r.sendToName(recipient.Name, protocol.EventDeleteMessage, req)
	}
	r.send(conn, protocol.EventDeleteMessage, req, "echo")
	return nil
}

func (r *Router) handleClearChat(conn presence.ConnID) error {
	r.history.Clear()
	metrics.HistorySize.Set(0)
	r.logger.Info().Str("conn", string(conn)).Msg("global history cleared")
	r.broadcast(protocol.EventClearChat, nil, "")
	return nil
}
