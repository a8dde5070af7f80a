package page

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/uniserved/chatwidget/internal/model/chatbot"
	"github.com/uniserved/chatwidget/internal/web"
)

// Handler serves the widget page.
type Handler struct {
	chatbots chatbot.Store
	renderer *web.Renderer
}

// New 创建页面处理器
func New(chatbots chatbot.Store, renderer *web.Renderer) *Handler {
	return &Handler{chatbots: chatbots, renderer: renderer}
}

// RegisterRoutes 注册页面路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleIndex)
}

// handleIndex 渲染 ?id= 指定的chatbot页面，未知 id 使用默认chatbot
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	bot := h.chatbots.Resolve(r.URL.Query().Get("id"))

	var buf bytes.Buffer
	if err := h.renderer.RenderPage(&buf, web.BuildView(bot, nil)); err != nil {
		log.Error().Err(err).Str("chatbot", bot.ID).Msg("failed to render page")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
