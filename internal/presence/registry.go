// Package presence tracks which identity each live connection announced.
//
// A Registry is not safe for concurrent use. It is owned by the hub's event
// loop, which serializes every read and write.
package presence

import "github.com/Tyrowin/gochat-relay/internal/protocol"

// ConnID identifies one client connection for as long as it stays open.
type ConnID string

// Registry maps connections to identities. Enumeration follows the order in
// which connections first registered; re-registering keeps the original slot.
type Registry struct {
	identities map[ConnID]protocol.Identity
	order      []ConnID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		identities: make(map[ConnID]protocol.Identity),
	}
}

// Register inserts or replaces the identity of conn.
func (r *Registry) Register(conn ConnID, identity protocol.Identity) {
	if _, ok := r.identities[conn]; !ok {
		r.order = append(r.order, conn)
	}
	r.identities[conn] = identity
}

// Unregister forgets conn. It is a no-op when conn never registered.
func (r *Registry) Unregister(conn ConnID) {
	if _, ok := r.identities[conn]; !ok {
		return
	}
	delete(r.identities, conn)
	for i, id := range r.order {
		if id == conn {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Lookup returns the identity registered for conn.
func (r *Registry) Lookup(conn ConnID) (protocol.Identity, bool) {
	identity, ok := r.identities[conn]
	return identity, ok
}

// FindByName returns the first connection, in registration order, whose
// identity carries name. Names are not unique, so with duplicates the
// earliest registration wins.
func (r *Registry) FindByName(name string) (ConnID, bool) {
	for _, conn := range r.order {
		if r.identities[conn].Name == name {
			return conn, true
		}
	}
	return "", false
}

// All returns a snapshot of every registered identity in registration order.
func (r *Registry) All() []protocol.Identity {
	all := make([]protocol.Identity, 0, len(r.order))
	for _, conn := range r.order {
		all = append(all, r.identities[conn])
	}
	return all
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	return len(r.order)
}
