package room_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Tyrowin/gochat-relay/internal/room"
)

func TestPairResolverResolve(t *testing.T) {
	tests := []struct {
		name string
		room string
		self string
		want room.Recipient
	}{
		{"global room", "global", "Alice", room.Recipient{Kind: room.Broadcast}},
		{"self first", "Alice_Bob", "Alice", room.Recipient{Kind: room.Direct, Name: "Bob"}},
		{"self second", "Alice_Bob", "Bob", room.Recipient{Kind: room.Direct, Name: "Alice"}},
		{"sender not in key", "Alice_Bob", "Carol", room.Recipient{Kind: room.Direct, Name: "Alice"}},
		{"room with self only", "Alice_Alice", "Alice", room.Recipient{Kind: room.None}},
		{"three tokens", "A_B_C", "A", room.Recipient{Kind: room.Direct, Name: "B"}},
		{"three tokens self in middle", "A_B_C", "B", room.Recipient{Kind: room.Direct, Name: "A"}},
		{"single token", "Bob", "Alice", room.Recipient{Kind: room.Direct, Name: "Bob"}},
		{"empty key", "", "Alice", room.Recipient{Kind: room.None}},
		{"leading separator", "_Bob", "Alice", room.Recipient{Kind: room.None}},
		{"empty token after self", "Alice_", "Alice", room.Recipient{Kind: room.None}},
	}

	var resolver room.PairResolver
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolver.Resolve(tt.room, tt.self))
		})
	}
}

func TestPrivateKey(t *testing.T) {
	assert.Equal(t, "Bob_Alice", room.PrivateKey("Bob", "Alice"))

	var resolver room.PairResolver
	got := resolver.Resolve(room.PrivateKey("Bob", "Alice"), "Bob")
	assert.Equal(t, room.Recipient{Kind: room.Direct, Name: "Alice"}, got)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "broadcast", room.Broadcast.String())
	assert.Equal(t, "direct", room.Direct.String())
	assert.Equal(t, "none", room.None.String())
}
