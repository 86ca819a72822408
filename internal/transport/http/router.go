package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/orange-copywriter/internal/models"
	"github.com/pribylovaa/orange-copywriter/internal/transport/http/handlers"
	"github.com/pribylovaa/orange-copywriter/internal/transport/http/middleware"
	apierrors "github.com/pribylovaa/orange-copywriter/internal/transport/http/errors"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger *slog.Logger
	// ServiceTimeout — дедлайн /token и чтения истории.
	ServiceTimeout time.Duration
	// GenerationTimeout — таймаут вызова бэкенда. Маршруты генерации получают
	// GenerationTimeout + ServiceTimeout: второй бюджет уходит на новости и историю.
	GenerationTimeout time.Duration
	CORSOrigins       []string
	RateLimitRPS      float64
	RateLimitBurst    int
}

// Deps — зависимости хендлеров.
type Deps struct {
	Auth interface {
		handlers.Authenticator
		middleware.TokenValidator
	}
	Generator handlers.Generator
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(d Deps, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),
		middleware.RequestID(), // до логирования
		middleware.Logging(opts.Logger),
		middleware.CORS(opts.CORSOrigins),
	)

	root.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apierrors.WriteError(w, r, apierrors.ErrNotFound)
	})
	root.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apierrors.WriteError(w, r, apierrors.ErrMethodNotAllowed)
	})

	h := handlers.New(d.Auth, d.Generator)
	registerRoutes(root, h, d, opts)

	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, d Deps, opts Options) {
	r.With(middleware.Timeout(opts.ServiceTimeout)).Post("/token", h.Token)

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Authenticate(d.Auth))

		api.With(middleware.Timeout(opts.ServiceTimeout)).Get("/conversations", h.ListConversations)

		api.Group(func(gen chi.Router) {
			gen.Use(
				middleware.RateLimit(opts.RateLimitRPS, opts.RateLimitBurst),
				middleware.Timeout(opts.GenerationTimeout, opts.ServiceTimeout),
			)

			gen.Post("/generate_orange_reel", h.GenerateMarketing(models.KindReel))
			gen.Post("/generate_orange_post", h.GenerateMarketing(models.KindPost))
			gen.Post("/generate_orange_poll", h.GenerateMarketing(models.KindPoll))
			gen.Post("/generate_orange_strategy", h.GenerateMarketing(models.KindStrategy))
			gen.Post("/generate_orange_email", h.GenerateEmail)
			gen.Post("/generate_orange_strategy_chat", h.GenerateChat)
			gen.Post("/generate_orange_script", h.GenerateScript)
		})
	})
}
