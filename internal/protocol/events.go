// Package protocol defines the JSON envelope and the payload types exchanged
// with relay clients over the WebSocket connection.
package protocol

// Event names carried in Envelope.Event.
const (
	EventJoin          = "join"
	EventChatMessage   = "chat_message"
	EventTyping        = "typing"
	EventCallSignal    = "call_signal"
	EventDeleteMessage = "delete_message"
	EventClearChat     = "clear_chat"

	// Outbound only.
	EventUpdateUsers = "update_users"
	EventHistory     = "history"
)

// GlobalRoom is the key of the single shared broadcast room.
const GlobalRoom = "global"
