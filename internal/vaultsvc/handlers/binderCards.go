package handlers

import (
	"net/http"

	"github.com/avvvet/deckvault-services/internal/vaultsvc/models"
)

func (h *Handler) ListBinderCards(w http.ResponseWriter, r *http.Request) {
	binderID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	cards, err := h.svc.BinderCards.ListCards(r.Context(), viewer(r), binderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.CreateResponse(w, Response{Message: "binder cards", Code: http.StatusOK, Data: cards})
}

func (h *Handler) AddBinderCard(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	binderID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var in models.NewBinderCard
	if !h.decodeBody(w, r, &in) {
		return
	}

	bc, err := h.svc.BinderCards.AddCard(r.Context(), ownerID, binderID, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.CreateResponse(w, Response{Message: "card added", Code: http.StatusCreated, Data: bc})
}

func (h *Handler) NextSlot(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	binderID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	next, err := h.svc.BinderCards.NextSlot(r.Context(), ownerID, binderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.CreateResponse(w, Response{Message: "next slot", Code: http.StatusOK, Data: next})
}

func (h *Handler) RemoveBinderCard(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	binderID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	binderCardID, ok := h.pathID(w, r, "cardId")
	if !ok {
		return
	}

	if err := h.svc.BinderCards.RemoveCard(r.Context(), ownerID, binderID, binderCardID); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.CreateResponse(w, Response{Message: "card removed", Code: http.StatusOK})
}

func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	binderID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Cards []models.Move `json:"cards"`
	}
	if !h.decodeBody(w, r, &req) {
		return
	}

	if err := h.svc.Reorder.Reorder(r.Context(), ownerID, binderID, req.Cards); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.CreateResponse(w, Response{Message: "binder reordered", Code: http.StatusOK, Data: map[string]int{"moved": len(req.Cards)}})
}
