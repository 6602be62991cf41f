package chat

// Sender identifies who authored a message in the assistant transcript.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is a single entry of the conversation history.
type Message struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// UserMessage builds a message authored by the user.
func UserMessage(text string) Message {
	return Message{Sender: SenderUser, Text: text}
}

// BotMessage builds a message authored by the assistant.
func BotMessage(text string) Message {
	return Message{Sender: SenderBot, Text: text}
}

// IsBot reports whether the assistant authored the message.
func (m Message) IsBot() bool {
	return m.Sender == SenderBot
}

// CloneHistory returns an independent copy of the history slice.
func CloneHistory(history []Message) []Message {
	if history == nil {
		return nil
	}
	copied := make([]Message, len(history))
	copy(copied, history)
	return copied
}
