package web

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/uniserved/chatwidget/internal/model/chat"
	"github.com/uniserved/chatwidget/internal/model/chatbot"
)

var bot = chatbot.Descriptor{ID: "2", Name: "Uniserved Support Chatbot", Description: "Help <fast>", Endpoint: "http://x"}

func TestBuildViewAlignsBySender(t *testing.T) {
	snap := chat.Snapshot{
		SessionID: "s1",
		State:     chat.StateAwaiting,
		Messages: []chat.Message{
			{ID: "a", Text: "Hello! How can I help you today?", Origin: chat.OriginBot, SentAt: "10:00 am"},
			{ID: "b", Text: "Hello", Origin: chat.OriginUser, SentAt: "10:01 am"},
		},
	}

	view := BuildView(bot, &snap)

	require.Equal(t, "s1", view.SessionID)
	require.True(t, view.Typing)
	require.Len(t, view.Rows, 2)
	require.Equal(t, "start", view.Rows[0].Align)
	require.Equal(t, "bot", view.Rows[0].Bubble)
	require.Equal(t, "end", view.Rows[1].Align)
	require.Equal(t, "user", view.Rows[1].Bubble)
}

func TestBuildViewWithoutSession(t *testing.T) {
	view := BuildView(bot, nil)
	require.Empty(t, view.Rows)
	require.False(t, view.Typing)
	require.Empty(t, view.SessionID)
}

func TestRenderPageEscapesAndShowsGate(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.RenderPage(&buf, BuildView(bot, nil)))
	page := buf.String()

	require.Contains(t, page, "<title>Uniserved Support Chatbot</title>")
	require.Contains(t, page, `data-chatbot-id="2"`)
	require.Contains(t, page, "Help &lt;fast&gt;")
	require.Contains(t, page, `id="gate" class="gate">`)
	require.NotContains(t, page, `id="typing"`)
}

func TestTranscriptIncludesTypingWhileAwaiting(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	snap := chat.Snapshot{State: chat.StateAwaiting, Messages: []chat.Message{{ID: "m1", Text: "<b>hi</b>", Origin: chat.OriginUser}}}
	html, err := r.Transcript(BuildView(bot, &snap))
	require.NoError(t, err)
	require.Contains(t, html, `class="row row-end" data-id="m1"`)
	require.Contains(t, html, "&lt;b&gt;hi&lt;/b&gt;")
	require.Contains(t, html, `id="typing"`)

	snap.State = chat.StateIdle
	html, err = r.Transcript(BuildView(bot, &snap))
	require.NoError(t, err)
	require.NotContains(t, html, `id="typing"`)
}

func TestStaticHandlerServesAssets(t *testing.T) {
	h := StaticHandler()
	for _, path := range []string{"/app.js", "/app.css"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}
