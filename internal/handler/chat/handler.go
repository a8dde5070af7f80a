package chat

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/uniserved/chatwidget/internal/model/access"
	chatModel "github.com/uniserved/chatwidget/internal/model/chat"
	"github.com/uniserved/chatwidget/internal/model/chatbot"
	chatService "github.com/uniserved/chatwidget/internal/service/chat"
	"github.com/uniserved/chatwidget/pkg/utils"
)

// Handler 聊天会话的HTTP处理器
type Handler struct {
	chatSvc  *chatService.Service
	chatbots chatbot.Store
	gate     *access.Gate
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, chatbots chatbot.Store, gate *access.Gate) *Handler {
	return &Handler{
		chatSvc:  chatSvc,
		chatbots: chatbots,
		gate:     gate,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleCreateSession)
	r.Get("/sessions/{sessionID}", h.handleGetSession)
	r.Delete("/sessions/{sessionID}", h.handleCloseSession)
	r.Put("/sessions/{sessionID}/input", h.handleSetInput)
	r.Post("/sessions/{sessionID}/messages", h.handleSendMessage)
}

// handleCreateSession 校验访问码后创建会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ChatbotID  string `json:"chatbotId"`
		Phone      string `json:"phone"`
		AccessCode string `json:"accessCode"`
	}

	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if msg := access.ValidateInput(payload.Phone, payload.AccessCode); msg != "" {
		utils.RespondError(w, http.StatusBadRequest, msg)
		return
	}

	bot := h.chatbots.Resolve(payload.ChatbotID)
	if !h.gate.Verify(payload.Phone, payload.AccessCode) {
		log.Info().Str("chatbot", bot.ID).Str("remote", r.RemoteAddr).Msg("access denied")
		utils.RespondError(w, http.StatusUnauthorized, access.InvalidMessage)
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), bot)
	if err != nil {
		log.Error().Err(err).Str("chatbot", bot.ID).Msg("failed to create session")
		utils.RespondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session.Snapshot())
}

// handleGetSession 返回会话快照
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, session.Snapshot())
}

// handleCloseSession 关闭会话
func (h *Handler) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.CloseSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		respondSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetInput 更新输入框内容
func (h *Handler) handleSetInput(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := session.SetInput(payload.Text); err != nil {
		respondSessionError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session.Snapshot())
}

// handleSendMessage 发送用户消息；回复通过事件流推送
func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		Text *string `json:"text"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	send := session.Send
	if payload.Text != nil {
		text := *payload.Text
		send = func(ctx context.Context) (chatModel.Message, error) {
			return session.SendText(ctx, text)
		}
	}

	msg, err := send(r.Context())
	if err != nil {
		respondSessionError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusAccepted, msg)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*chatService.Session, bool) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondSessionError(w, err)
		return nil, false
	}
	return session, true
}

func respondSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, chatService.ErrBlankInput):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chatService.ErrAwaiting):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, chatService.ErrSessionClosed):
		utils.RespondError(w, http.StatusGone, err.Error())
	default:
		log.Error().Err(err).Msg("session request failed")
		utils.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
