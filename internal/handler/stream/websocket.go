package stream

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/uniserved/chatwidget/internal/model/chat"
	chatService "github.com/uniserved/chatwidget/internal/service/chat"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
)

type inboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// handleWebSocket 处理WebSocket连接：推送会话事件，接收 send/input 指令
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	log.Debug().Str("session", sessionID).Msg("websocket connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, unsubscribe := session.Subscribe()
	defer unsubscribe()

	replies := make(chan StreamEvent, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer conn.Close()
		h.writeLoop(ctx, conn, session, events, replies)
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("session", sessionID).Msg("websocket read error")
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		if reply, ok := h.handleMessage(ctx, session, msg); ok {
			select {
			case replies <- reply:
			case <-done:
			}
		}
	}

	cancel()
	<-done
}

// handleMessage applies one client instruction. Successful sends need no
// reply because the resulting events reach the client through the
// subscription.
func (h *Handler) handleMessage(ctx context.Context, session *chatService.Session, msg inboundMessage) (StreamEvent, bool) {
	var err error
	switch msg.Type {
	case "send":
		if msg.Text == "" {
			_, err = session.Send(ctx)
		} else {
			_, err = session.SendText(ctx, msg.Text)
		}
	case "input":
		err = session.SetInput(msg.Text)
	default:
		return errorEvent(session.ID(), "unsupported message type: "+msg.Type), true
	}
	if err != nil {
		return errorEvent(session.ID(), err.Error()), true
	}
	return StreamEvent{}, false
}

func errorEvent(sessionID, text string) StreamEvent {
	return StreamEvent{Event: chat.Event{Type: "error", SessionID: sessionID}, Error: text}
}

// writeLoop is the only writer on conn.
func (h *Handler) writeLoop(ctx context.Context, conn *websocket.Conn, session *chatService.Session, events <-chan chat.Event, replies <-chan StreamEvent) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	write := func(v any) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(v); err != nil {
			log.Debug().Err(err).Str("session", session.ID()).Msg("websocket write failed")
			return false
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case reply := <-replies:
			if !write(reply) {
				return
			}
		case ev, ok := <-events:
			if !ok {
				conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"), time.Now().Add(writeWait))
				return
			}
			if !write(h.decorate(session.Chatbot(), ev)) {
				return
			}
		}
	}
}
