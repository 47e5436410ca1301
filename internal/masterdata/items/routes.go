package items

import "github.com/go-chi/chi/v5"

// MountRoutes registers the item catalog endpoints on the given router.
func MountRoutes(r chi.Router, h *Handler) {
	r.Route("/items", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}
