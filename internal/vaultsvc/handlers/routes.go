package handlers

import (
	"github.com/avvvet/deckvault-services/internal/auth"
	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
)

func (h *Handler) SetRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {

		// public routes here
		r.Get("/health", h.HealthHandler)
		r.Get("/cards/search", h.SearchCards)
		r.Get("/cards/{id}", h.GetCard)

		// public binders are readable without a token
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(auth.OptionalOwnerCtx)

			r.Get("/binders/{id}", h.GetBinder)
			r.Get("/binders/{id}/cards", h.ListBinderCards)
		})

		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(jwtauth.Authenticator)
			r.Use(auth.OwnerCtx)

			r.Get("/binders", h.ListBinders)
			r.Post("/binders", h.CreateBinder)
			r.Patch("/binders/{id}", h.UpdateBinder)
			r.Delete("/binders/{id}", h.DeleteBinder)

			r.Post("/binders/{id}/cards", h.AddBinderCard)
			r.Get("/binders/{id}/next-slot", h.NextSlot)
			r.Delete("/binders/{id}/cards/{cardId}", h.RemoveBinderCard)
			r.Patch("/binders/{id}/reorder", h.Reorder)

			r.Post("/catalog/sync", h.RequestCatalogSync)
		})
	})
}
