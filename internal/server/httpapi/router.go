package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/safepazz/internal/logging"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewRouter registers all routes. limiter guards the unauthenticated
// endpoints that check secrets; it may be nil. Forwarding headers only
// replace the client address when trustProxyHeaders is set.
func NewRouter(h *Handler, limiter *IPRateLimiter, trustProxyHeaders bool, logger logging.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	if trustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(AccessLog(logger))
	r.Use(chimw.Recoverer)

	r.Get("/health", h.Health)

	limited := func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.Middleware)
		}
	}

	r.Route("/api/v1/external/user", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/logout", h.Logout)
		r.Group(func(r chi.Router) {
			limited(r)
			r.Post("/login", h.Login)
			r.Post("/recovery/request", h.RequestRecovery)
			r.Post("/recovery/verify", h.VerifyRecovery)
		})
	})

	r.Route("/api/v1/internal/password", func(r chi.Router) {
		r.Use(h.Authenticate(h.auth))
		r.Get("/", h.ListPasswords)
		r.Post("/", h.CreatePassword)
		r.Get("/{id}", h.GetPassword)
		r.Put("/{id}", h.UpdatePassword)
		r.Delete("/{id}", h.DeletePassword)
	})

	return r
}
