package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Handler builds the router:
//
//	POST /users/signup
//	POST /users/login
//	GET  /users/updatescore   (bearer)
//	GET  /users/highest       (bearer)
//	GET  /users/              (bearer)
//	GET  /healthz
//	GET  /metrics
func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.logRequests)
	r.Use(chimw.Recoverer)
	r.Use(s.cors)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())

	r.Route("/users", func(r chi.Router) {
		r.Post("/signup", s.handleSignup)
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/updatescore", s.handleUpdateScore)
			r.Get("/highest", s.handleHighest)
			r.Get("/", s.handleListUsers)
		})
	})

	return r
}
