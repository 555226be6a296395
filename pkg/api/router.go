package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// GetRouter initialises a new http router and applies all routes
func GetRouter(s *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	return applyRoutes(r, s)
}

func applyRoutes(r chi.Router, s *Server) chi.Router {
	r.Route("/", func(r chi.Router) {
		r.Get("/", s.getIndex)
		r.Get("/runs", s.getRuns)
		r.Post("/sync", s.postSync)
	})

	return r
}
