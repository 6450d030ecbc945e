package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/dmitrijs2005/animeflix/internal/common"
)

// Routes builds the router. Anonymous: welcome, registration, login,
// health, metrics and static files. Everything else sits behind the
// Identity Guard, and account routes additionally require the caller to be
// the account owner.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(h.observe)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", common.AuthorizationHeaderName, common.RequestIDHeaderName},
		ExposedHeaders: []string{common.RequestIDHeaderName},
		MaxAge:         86400,
	}))

	r.Get("/", h.welcome)
	r.Get("/health/live", h.live)
	r.Get("/health/ready", h.ready)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	if h.config.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(h.config.StaticDir))))
	}

	r.Post("/users", h.register)
	r.With(h.loginLimiter()).Post("/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)

		r.Get("/movies", h.listMovies)
		r.Get("/movies/{title}", h.getMovie)
		r.Get("/genre/{name}", h.moviesByGenre)
		r.Get("/director/{name}", h.moviesByDirector)

		r.Route("/users/{id}", func(r chi.Router) {
			r.Use(h.requireSelf)

			r.Get("/", h.getAccount)
			r.Put("/", h.updateAccount)
			r.Delete("/", h.deleteAccount)
			r.Post("/favorites/{movieID}", h.addFavorite)
			r.Delete("/favorites/{movieID}", h.removeFavorite)
		})
	})

	return r
}

// loginLimiter throttles login attempts per client IP. A non-positive limit
// disables it.
func (h *Handler) loginLimiter() func(http.Handler) http.Handler {
	if h.config.LoginRateLimit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		h.config.LoginRateLimit,
		h.config.LoginRateWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			h.metrics.AuthFailure("rate_limited")
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "too many login attempts"})
		}),
	)
}
