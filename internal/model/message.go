package model

// ChannelMessage is one inbound event from a chat channel. Messages
// are ephemeral: a channel constructs them, the dispatcher consumes
// them from the shared sink, and nothing persists them unless the
// dispatcher decides to.
type ChannelMessage struct {
	ID      string `json:"id"`
	Sender  string `json:"sender"`
	Content string `json:"content"`
	Channel string `json:"channel"`

	// Timestamp is seconds since epoch at receipt, not the remote
	// system's own timestamp.
	Timestamp int64 `json:"timestamp"`
}
