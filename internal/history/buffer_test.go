package history_test

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/gochat-relay/internal/history"
)

func entry(i int) history.Entry {
	return history.Entry{
		ID:      "global_" + strconv.Itoa(i) + "_user",
		Payload: json.RawMessage(`{"content":"message ` + strconv.Itoa(i) + `"}`),
	}
}

func fill(b *history.Buffer, n int) {
	for i := 0; i < n; i++ {
		b.Append(entry(i))
	}
}

func content(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var msg struct {
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg.Content
}

func TestNewBufferDefaults(t *testing.T) {
	assert.Equal(t, history.DefaultCapacity, history.NewBuffer(0).Capacity())
	assert.Equal(t, history.DefaultCapacity, history.NewBuffer(-3).Capacity())
	assert.Equal(t, 7, history.NewBuffer(7).Capacity())
}

func TestBufferEvictsOldestPastCapacity(t *testing.T) {
	b := history.NewBuffer(history.DefaultCapacity)
	fill(b, 201)

	require.Equal(t, 200, b.Len())

	all := b.Recent(1000)
	require.Len(t, all, 200)
	assert.Equal(t, "message 1", content(t, all[0]), "oldest message evicted")
	for i, raw := range all {
		assert.Equal(t, "message "+strconv.Itoa(i+1), content(t, raw))
	}
}

func TestBufferNeverExceedsCapacity(t *testing.T) {
	b := history.NewBuffer(5)
	for i := 0; i < 50; i++ {
		b.Append(entry(i))
		assert.LessOrEqual(t, b.Len(), 5)
	}
	assert.Equal(t, "message 45", content(t, b.Recent(5)[0]))
}

func TestBufferRecent(t *testing.T) {
	t.Run("fewer than requested", func(t *testing.T) {
		b := history.NewBuffer(200)
		fill(b, 30)

		recent := b.Recent(history.DefaultReplay)
		require.Len(t, recent, 30)
		assert.Equal(t, "message 0", content(t, recent[0]))
		assert.Equal(t, "message 29", content(t, recent[29]))
	})

	t.Run("more than requested", func(t *testing.T) {
		b := history.NewBuffer(200)
		fill(b, 120)

		recent := b.Recent(history.DefaultReplay)
		require.Len(t, recent, 50)
		assert.Equal(t, "message 70", content(t, recent[0]))
		assert.Equal(t, "message 119", content(t, recent[49]))
	})

	t.Run("empty buffer", func(t *testing.T) {
		b := history.NewBuffer(200)
		recent := b.Recent(history.DefaultReplay)
		assert.NotNil(t, recent)
		assert.Empty(t, recent)
	})

	t.Run("returns a fresh slice", func(t *testing.T) {
		b := history.NewBuffer(200)
		fill(b, 2)
		recent := b.Recent(2)
		recent[0] = json.RawMessage(`{"content":"changed"}`)
		assert.Equal(t, "message 0", content(t, b.Recent(2)[0]))
	})
}

func TestBufferRemoveByMessageID(t *testing.T) {
	b := history.NewBuffer(200)
	b.Append(history.Entry{ID: "global_1000_Alice", Payload: json.RawMessage(`{"content":"hi"}`)})
	b.Append(history.Entry{ID: "global_1000_Bob", Payload: json.RawMessage(`{"content":"yo"}`)})
	b.Append(history.Entry{ID: "global_1000_Alice", Payload: json.RawMessage(`{"content":"again"}`)})

	removed := b.RemoveByMessageID("global_1000_Alice")
	assert.Equal(t, 2, removed, "every colliding message is removed")
	require.Equal(t, 1, b.Len())
	assert.Equal(t, "yo", content(t, b.Recent(1)[0]))

	assert.Equal(t, 0, b.RemoveByMessageID("global_1000_Alice"), "second removal is a no-op")
	assert.Equal(t, 1, b.Len())

	assert.Equal(t, 0, b.RemoveByMessageID("unknown"))
}

func TestBufferClear(t *testing.T) {
	b := history.NewBuffer(200)
	fill(b, 10)

	b.Clear()
	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Recent(history.DefaultReplay))

	b.Append(entry(1))
	assert.Equal(t, 1, b.Len())
}
