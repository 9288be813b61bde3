package router

import (
	"github.com/Tyrowin/gochat-relay/internal/presence"
)

// Connect is called when a connection opens. Nothing is announced until the
// connection joins.
func (r *Router) Connect(conn presence.ConnID) {
	r.logger.Debug().Str("conn", string(conn)).Msg("connection opened")
}

// Disconnect forgets the identity of conn and sends the updated presence list
// to every remaining connection. The snapshot is taken after the removal.
func (r *Router) Disconnect(conn presence.ConnID) {
	identity, joined := r.registry.Lookup(conn)
	r.registry.Unregister(conn)

	event := r.logger.Info().Str("conn", string(conn)).Int("online", r.registry.Len())
	if joined {
		event = event.Str("name", identity.Name)
	}
	event.Msg("user disconnected")

	r.broadcastPresence(conn)
}
