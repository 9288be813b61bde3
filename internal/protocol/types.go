package protocol

import "encoding/json"

// Identity is what a connection announces about itself on join.
type Identity struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Join is the inbound join payload.
type Join struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Identity returns the identity announced by the join.
func (j Join) Identity() Identity {
	return Identity{Name: j.Name, Avatar: j.Avatar}
}

// Message is the chat message shape clients exchange. The relay itself only
// reads the fields in Ref and forwards the payload it received unchanged.
type Message struct {
	User    string    `json:"user"`
	Avatar  string    `json:"avatar"`
	Content string    `json:"content"`
	Type    string    `json:"type"`
	Time    Timestamp `json:"time,omitempty"`
	Room    string    `json:"room"`
}

// ID returns the derived message id used by delete requests.
func (m Message) ID() string {
	return MessageID(m.Room, m.Time, m.User)
}

// Typing announces that User is typing in Room.
type Typing struct {
	Room string `json:"room"`
	User string `json:"user"`
}

// CallSignal is an inbound call-signaling payload addressed to Target by name.
type CallSignal struct {
	Type    string          `json:"type"`
	Target  string          `json:"target"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Room    string          `json:"room"`
}

// CallSignalRelay is what the target of a CallSignal receives. Sender is the
// name the sending connection joined with, never a client supplied value.
type CallSignalRelay struct {
	Type    string          `json:"type"`
	Sender  string          `json:"sender"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Room    string          `json:"room"`
}

// DeleteMessage asks for the removal of a message. When MessageID is empty
// the id is derived from Room, Time and User.
type DeleteMessage struct {
	Room      string    `json:"room"`
	MessageID string    `json:"messageId,omitempty"`
	User      string    `json:"user"`
	Time      Timestamp `json:"time,omitempty"`
}

// Ref holds the addressing fields of a chat_message, typing or
// delete_message payload. Everything else in the payload is opaque.
type Ref struct {
	Room      string    `json:"room"`
	User      string    `json:"user"`
	Time      Timestamp `json:"time"`
	MessageID string    `json:"messageId"`
}

// ID returns the id derived from room, time and user.
func (r Ref) ID() string {
	return MessageID(r.Room, r.Time, r.User)
}

// ResolvedID returns the explicit MessageID, falling back to the derived id
// when the client only sent room, time and user. It is empty when neither is
// available.
func (r Ref) ResolvedID() string {
	if r.MessageID != "" {
		return r.MessageID
	}
	if r.Time.IsZero() {
		return ""
	}
	return r.ID()
}
