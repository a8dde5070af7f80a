package access

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/uniserved/chatwidget/internal/model/access"
	"github.com/uniserved/chatwidget/pkg/utils"
)

// Handler 访问码校验的HTTP处理器
type Handler struct {
	gate *access.Gate
}

// New 创建访问码处理器
func New(gate *access.Gate) *Handler {
	return &Handler{gate: gate}
}

// RegisterRoutes 注册访问码相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/access/verify", h.handleVerify)
}

// handleVerify 校验手机号与访问码
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var payload struct {
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

	if !h.gate.Verify(payload.Phone, payload.AccessCode) {
		utils.RespondError(w, http.StatusUnauthorized, access.InvalidMessage)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]bool{"valid": true})
}
