// Package web renders the chat widget page and the message markup pushed to it.
package web

import (
	"github.com/uniserved/chatwidget/internal/model/chat"
	"github.com/uniserved/chatwidget/internal/model/chatbot"
)

// Row is one rendered message bubble.
type Row struct {
	ID     string
	Text   string
	SentAt string
	Align  string
	Bubble string
}

// View is everything the page template needs.
type View struct {
	Chatbot   chatbot.Descriptor
	SessionID string
	Rows      []Row
	Typing    bool
}

// BuildRow maps a message to its bubble: user messages sit on the right.
func BuildRow(msg chat.Message) Row {
	row := Row{
		ID:     msg.ID,
		Text:   msg.Text,
		SentAt: msg.SentAt,
		Align:  "start",
		Bubble: "bot",
	}
	if msg.IsUser() {
		row.Align = "end"
		row.Bubble = "user"
	}
	return row
}

// BuildView derives the page state. snap may be nil before a session exists.
func BuildView(bot chatbot.Descriptor, snap *chat.Snapshot) View {
	view := View{Chatbot: bot}
	if snap == nil {
		return view
	}

	view.SessionID = snap.SessionID
	view.Typing = snap.Awaiting()
	view.Rows = make([]Row, 0, len(snap.Messages))
	for _, msg := range snap.Messages {
		view.Rows = append(view.Rows, BuildRow(msg))
	}
	return view
}
