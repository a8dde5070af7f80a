package chatbot

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/uniserved/chatwidget/internal/model/chatbot"
	"github.com/uniserved/chatwidget/pkg/utils"
)

// Handler chatbot目录的HTTP处理器
type Handler struct {
	chatbots chatbot.Store
}

// New 创建chatbot处理器
func New(chatbots chatbot.Store) *Handler {
	return &Handler{chatbots: chatbots}
}

// RegisterRoutes 注册chatbot相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chatbots", h.handleList)
	r.Get("/chatbots/resolve", h.handleResolve)
}

// handleList 列出所有chatbot
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.chatbots.List())
}

// handleResolve 按 id 或 uuid 解析，未知时返回默认chatbot
func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.chatbots.Resolve(r.URL.Query().Get("id")))
}
