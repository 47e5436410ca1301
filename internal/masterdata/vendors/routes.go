package vendors

import "github.com/go-chi/chi/v5"

// MountRoutes registers the vendor endpoints on the given router.
func MountRoutes(r chi.Router, h *Handler) {
	r.Route("/vendors", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}
