package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	apiMiddleware "github.com/phrazzld/yomu-api/internal/api/middleware"
	"github.com/phrazzld/yomu-api/internal/api/shared"
)

// RouterConfig holds the handlers and cross-cutting settings of the router.
type RouterConfig struct {
	Cards    *CardHandler
	Sessions *SessionHandler
	Lexicon  *LexiconHandler

	// AllowedOrigins lists browser origins allowed by CORS. Empty disables
	// CORS headers entirely.
	AllowedOrigins []string

	Logger *slog.Logger
}

// NewRouter creates the application router with all routes and middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.NewTraceMiddleware(cfg.Logger))
	r.Use(middleware.Recoverer)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Trace-ID"},
			MaxAge:         300,
		}))
	}

	health := func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "online"})
	}
	r.Get("/", health)
	r.Get("/health", health)

	if cfg.Lexicon != nil {
		r.Post("/analyze", cfg.Lexicon.Analyze)
		r.Get("/definition", cfg.Lexicon.Define)
	}

	if cfg.Cards != nil {
		r.Post("/cards", cfg.Cards.CaptureCard)
		r.Get("/cards/{id}", cfg.Cards.GetCard)
		r.Get("/reviews", cfg.Cards.ListDue)
		r.Post("/review", cfg.Cards.Review)
	}

	if cfg.Sessions != nil {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", cfg.Sessions.Start)
			r.Get("/{id}", cfg.Sessions.Get)
			r.Post("/{id}/reveal", cfg.Sessions.Reveal)
			r.Post("/{id}/rate", cfg.Sessions.Rate)
			r.Delete("/{id}", cfg.Sessions.Delete)
		})
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}
