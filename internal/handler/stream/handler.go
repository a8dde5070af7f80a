package stream

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/uniserved/chatwidget/internal/model/chat"
	"github.com/uniserved/chatwidget/internal/model/chatbot"
	chatService "github.com/uniserved/chatwidget/internal/service/chat"
	"github.com/uniserved/chatwidget/internal/web"
	"github.com/uniserved/chatwidget/pkg/utils"
)

// DefaultKeepAlive is the interval between SSE keep-alive comments.
const DefaultKeepAlive = 15 * time.Second

// Handler pushes session events to the page over SSE or WebSocket.
type Handler struct {
	chatSvc   *chatService.Service
	renderer  *web.Renderer
	keepAlive time.Duration
	upgrader  websocket.Upgrader
}

// New creates a stream handler
func New(chatSvc *chatService.Service, renderer *web.Renderer) *Handler {
	return &Handler{
		chatSvc:   chatSvc,
		renderer:  renderer,
		keepAlive: DefaultKeepAlive,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册事件流路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/events", h.handleEvents)
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

// StreamEvent is a session event plus the markup the page inserts for it.
type StreamEvent struct {
	chat.Event
	HTML  string `json:"html,omitempty"`
	Error string `json:"error,omitempty"`
}

// handleEvents 通过SSE推送会话事件
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	events, unsubscribe := session.Subscribe()
	defer unsubscribe()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	ctx := r.Context()
	log.Debug().Str("session", sessionID).Msg("sse stream opened")
	defer log.Debug().Str("session", sessionID).Msg("sse stream closed")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "keep-alive"); err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := utils.SendSSEEvent(w, flusher, string(ev.Type), h.decorate(session.Chatbot(), ev)); err != nil {
				return
			}
			if ev.Type == chat.EventClosed {
				return
			}
		}
	}
}

// decorate renders the fragment matching ev. Rendering failures are logged
// and the event is sent without markup.
func (h *Handler) decorate(bot chatbot.Descriptor, ev chat.Event) StreamEvent {
	out := StreamEvent{Event: ev}
	if h.renderer == nil {
		return out
	}

	var (
		html string
		err  error
	)
	switch ev.Type {
	case chat.EventSnapshot:
		if ev.Snapshot != nil {
			html, err = h.renderer.Transcript(web.BuildView(bot, ev.Snapshot))
		}
	case chat.EventMessage:
		if ev.Message != nil {
			html, err = h.renderer.Row(web.BuildRow(*ev.Message))
		}
	case chat.EventState:
		if ev.State == chat.StateAwaiting {
			html, err = h.renderer.Typing()
		}
	}
	if err != nil {
		log.Warn().Err(err).Str("session", ev.SessionID).Str("event", string(ev.Type)).Msg("failed to render event")
		return out
	}
	out.HTML = html
	return out
}
