package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/healthdesk/internal/handler/assistant"
	"github.com/zhouzirui/healthdesk/internal/handler/chat"
	"github.com/zhouzirui/healthdesk/internal/handler/forms"
	middlewarePkg "github.com/zhouzirui/healthdesk/internal/middleware"
	assistantModel "github.com/zhouzirui/healthdesk/internal/model/assistant"
	chatService "github.com/zhouzirui/healthdesk/internal/service/chat"
	formsService "github.com/zhouzirui/healthdesk/internal/service/forms"
	"github.com/zhouzirui/healthdesk/pkg/utils"
)

// Deps are the services the router exposes.
type Deps struct {
	Profiles       assistantModel.Store
	Registry       *chatService.Registry
	Transport      chatService.Transport
	SessionOptions chatService.Options
	Gate           *formsService.Gate
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.SessionOptions.Logger == nil {
		deps.SessionOptions.Logger = logger
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.Logger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.AllowedOrigins))

	assistantHandler := assistant.New(deps.Profiles, deps.Registry, deps.Transport, deps.SessionOptions)
	chatHandler := chat.New(deps.Registry, deps.Profiles, deps.Transport, deps.SessionOptions)
	formsHandler := forms.New(deps.Gate, logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": deps.Registry.Len(),
		})
	})

	r.Route("/api", func(api chi.Router) {
		// Register assistant routes
		assistantHandler.RegisterRoutes(api)

		// Register polling chat routes
		chatHandler.RegisterRoutes(api)

		// Register form routes
		formsHandler.RegisterRoutes(api)
	})

	return r
}
