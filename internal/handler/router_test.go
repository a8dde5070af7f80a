package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	middlewarePkg "github.com/uniserved/chatwidget/internal/middleware"
	accessModel "github.com/uniserved/chatwidget/internal/model/access"
	chatbotModel "github.com/uniserved/chatwidget/internal/model/chatbot"
	askService "github.com/uniserved/chatwidget/internal/service/ask"
	chatService "github.com/uniserved/chatwidget/internal/service/chat"
	"github.com/uniserved/chatwidget/internal/web"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	dir, err := chatbotModel.NewDirectory(chatbotModel.Seed(chatbotModel.DefaultBaseURL))
	require.NoError(t, err)
	renderer, err := web.NewRenderer()
	require.NoError(t, err)
	chatSvc := chatService.NewService(nil, chatService.Options{GreetingDelay: -1})
	t.Cleanup(chatSvc.Shutdown)

	return NewRouter(Dependencies{
		Chatbots:   dir,
		Gate:       accessModel.NewGate(accessModel.Seed()),
		ChatSvc:    chatSvc,
		AskSvc:     askService.NewService(""),
		Renderer:   renderer,
		AskLimiter: middlewarePkg.NewRateLimiter(10, 5),
	})
}

func TestRouterServesEveryArea(t *testing.T) {
	r := newTestRouter(t)

	cases := []struct {
		method, path, body string
		status             int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodGet, "/", "", http.StatusOK},
		{http.MethodGet, "/static/app.js", "", http.StatusOK},
		{http.MethodGet, "/api/chatbots", "", http.StatusOK},
		{http.MethodGet, "/api/chatbots/resolve?id=3", "", http.StatusOK},
		{http.MethodPost, "/api/access/verify", `{"phone":"9999999999","accessCode":"access"}`, http.StatusOK},
		{http.MethodPost, "/api/ask", `{"question":"q"}`, http.StatusBadRequest},
		{http.MethodGet, "/api/sessions/missing", "", http.StatusNotFound},
		{http.MethodOptions, "/api/sessions", "", http.StatusNoContent},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, bytes.NewReader([]byte(tc.body)))
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		require.Equal(t, tc.status, resp.Code, "%s %s", tc.method, tc.path)
		require.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
	}
}
