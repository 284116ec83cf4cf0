package model

// Sender identifies which side of a conversation produced a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one entry in a conversation as the client renders it. IDs are
// client-generated and time-based; messages are never mutated after creation.
type Message struct {
	ID     int64  `json:"id"`
	Text   string `json:"text"`
	Sender Sender `json:"sender"`
}

// ChatSummary is one server-side conversation in the user's chat list.
type ChatSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
