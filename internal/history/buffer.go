// Package history keeps the most recent global-room messages in memory so
// they can be replayed to clients that join later.
package history

import "encoding/json"

// Default sizes of the global history.
const (
	DefaultCapacity = 200
	DefaultReplay   = 50
)

// Entry is one retained message: the payload exactly as the client sent it
// and the id derived from it at append time.
type Entry struct {
	ID      string
	Payload json.RawMessage
}

// Buffer is a bounded FIFO of entries. It is not safe for concurrent use.
type Buffer struct {
	capacity int
	entries  []Entry
}

// NewBuffer returns a buffer that retains at most capacity entries.
// A non-positive capacity falls back to DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		capacity: capacity,
		entries:  make([]Entry, 0, capacity),
	}
}

// Append adds e at the end, evicting the oldest entries past capacity.
func (b *Buffer) Append(e Entry) {
	b.entries = append(b.entries, e)
	if over := len(b.entries) - b.capacity; over > 0 {
		copy(b.entries, b.entries[over:])
		b.entries = b.entries[:b.capacity]
	}
}

// Recent returns the payloads of the last n entries, oldest first.
func (b *Buffer) Recent(n int) []json.RawMessage {
	if n <= 0 {
		return []json.RawMessage{}
	}
	start := len(b.entries) - n
	if start < 0 {
		start = 0
	}
	out := make([]json.RawMessage, 0, len(b.entries)-start)
	for _, e := range b.entries[start:] {
		out = append(out, e.Payload)
	}
	return out
}

// RemoveByMessageID drops every entry whose id equals id and reports how many
// were removed.
func (b *Buffer) RemoveByMessageID(id string) int {
	kept := b.entries[:0]
	for _, e := range b.entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	removed := len(b.entries) - len(kept)
	// Zero the tail so evicted payloads can be collected.
	for i := len(kept); i < len(b.entries); i++ {
		b.entries[i] = Entry{}
	}
	b.entries = kept
	return removed
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.entries = make([]Entry, 0, b.capacity)
}

// Len returns the number of retained entries.
func (b *Buffer) Len() int {
	return len(b.entries)
}

// Capacity returns the maximum number of retained entries.
func (b *Buffer) Capacity() int {
	return b.capacity
}
