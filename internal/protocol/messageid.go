package protocol

import "strings"

// MessageID joins room, time and user with underscores. Two messages sharing
// all three fields get the same id and can only be deleted together.
func MessageID(room string, time Timestamp, user string) string {
	ts := time.String()
	var b strings.Builder
	b.Grow(len(room) + len(ts) + len(user) + 2)
	b.WriteString(room)
	b.WriteByte('_')
	b.WriteString(ts)
	b.WriteByte('_')
	b.WriteString(user)
	return b.String()
}
