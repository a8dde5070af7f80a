package chat

import "time"

// Origin tells who authored a message.
type Origin string

const (
	OriginUser Origin = "user"
	OriginBot  Origin = "bot"
)

// Message is one immutable entry of a conversation.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Origin    Origin    `json:"origin"`
	SentAt    string    `json:"sentAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsUser reports whether the message was typed by the visitor.
func (m Message) IsUser() bool {
	return m.Origin == OriginUser
}

// SentAtLayout renders times as "02:05 pm".
const SentAtLayout = "03:04 pm"

// FormatSentAt formats t in loc using SentAtLayout.
func FormatSentAt(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(SentAtLayout)
}
