package ask

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	askService "github.com/uniserved/chatwidget/internal/service/ask"
	"github.com/uniserved/chatwidget/pkg/utils"
)

// Handler /api/ask 占位接口
type Handler struct {
	askSvc  *askService.Service
	limiter func(http.Handler) http.Handler
}

// New 创建ask处理器。limiter 为空时不限流
func New(askSvc *askService.Service, limiter func(http.Handler) http.Handler) *Handler {
	return &Handler{askSvc: askSvc, limiter: limiter}
}

// RegisterRoutes 注册ask路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	if h.limiter != nil {
		r = r.With(h.limiter)
	}
	r.Post("/ask", h.handleAsk)
}

func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askService.Request
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, askService.ErrMissingFields.Error())
		return
	}

	answer, err := h.askSvc.Answer(r.Context(), req)
	if err != nil {
		if errors.Is(err, askService.ErrMissingFields) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Msg("ask failed")
		utils.RespondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"answer": answer})
}
