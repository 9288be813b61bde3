// Package room derives who an event addressed to a room should reach.
package room

import (
	"strings"

	"github.com/Tyrowin/gochat-relay/internal/protocol"
)

// Kind tells the router how to deliver an event.
type Kind int

const (
	// None means there is no one to deliver to.
	None Kind = iota
	// Broadcast means every connection.
	Broadcast
	// Direct means the single participant named by Recipient.Name.
	Direct
)

func (k Kind) String() string {
	switch k {
	case Broadcast:
		return "broadcast"
	case Direct:
		return "direct"
	default:
		return "none"
	}
}

// Recipient is the outcome of resolving a room key.
type Recipient struct {
	Kind Kind
	Name string
}

// Resolver maps a room key and the local participant's name to a recipient.
type Resolver interface {
	Resolve(room, self string) Recipient
}

// Separator joins the two names of a private room key.
const Separator = "_"

// PairResolver resolves "global" and "<A>_<B>" room keys.
type PairResolver struct{}

// Resolve returns Broadcast for the global room. Any other key is split on
// Separator and the first token that differs from self names the counterpart.
// Keys with more than two tokens follow the same rule. When no token differs,
// or the differing token is empty, there is no recipient.
func (PairResolver) Resolve(room, self string) Recipient {
	if room == protocol.GlobalRoom {
		return Recipient{Kind: Broadcast}
	}
	for _, token := range strings.Split(room, Separator) {
		if token == self {
			continue
		}
		if token == "" {
			return Recipient{Kind: None}
		}
		return Recipient{Kind: Direct, Name: token}
	}
	return Recipient{Kind: None}
}

// PrivateKey builds the private room key for two participants, in the order
// given. Keys are not normalized.
func PrivateKey(a, b string) string {
	return a + Separator + b
}
