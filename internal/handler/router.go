package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/uniserved/chatwidget/internal/handler/access"
	"github.com/uniserved/chatwidget/internal/handler/ask"
	"github.com/uniserved/chatwidget/internal/handler/chat"
	"github.com/uniserved/chatwidget/internal/handler/chatbot"
	"github.com/uniserved/chatwidget/internal/handler/page"
	"github.com/uniserved/chatwidget/internal/handler/stream"
	middlewarePkg "github.com/uniserved/chatwidget/internal/middleware"
	accessModel "github.com/uniserved/chatwidget/internal/model/access"
	chatbotModel "github.com/uniserved/chatwidget/internal/model/chatbot"
	askService "github.com/uniserved/chatwidget/internal/service/ask"
	chatService "github.com/uniserved/chatwidget/internal/service/chat"
	"github.com/uniserved/chatwidget/internal/web"
	"github.com/uniserved/chatwidget/pkg/utils"
)

// Dependencies are the services the router exposes.
type Dependencies struct {
	Chatbots chatbotModel.Store
	Gate     *accessModel.Gate
	ChatSvc  *chatService.Service
	AskSvc   *askService.Service
	Renderer *web.Renderer
	// AskLimiter throttles POST /api/ask per client; nil disables it.
	AskLimiter *middlewarePkg.RateLimiter
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": deps.ChatSvc.Len(),
		})
	})
	r.Handle("/static/*", http.StripPrefix("/static/", web.StaticHandler()))

	page.New(deps.Chatbots, deps.Renderer).RegisterRoutes(r)

	var limit func(http.Handler) http.Handler
	if deps.AskLimiter != nil {
		limit = deps.AskLimiter.Middleware
	}

	r.Route("/api", func(api chi.Router) {
		chatbot.New(deps.Chatbots).RegisterRoutes(api)
		access.New(deps.Gate).RegisterRoutes(api)
		chat.New(deps.ChatSvc, deps.Chatbots, deps.Gate).RegisterRoutes(api)
		stream.New(deps.ChatSvc, deps.Renderer).RegisterRoutes(api)
		ask.New(deps.AskSvc, limit).RegisterRoutes(api)
	})

	return r
}
