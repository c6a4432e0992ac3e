package handlers

import (
	"net/http"

	"github.com/avvvet/deckvault-services/internal/vaultsvc/models"
)

func (h *Handler) ListBinders(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	binders, err := h.svc.Binders.ListBinders(r.Context(), ownerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.CreateResponse(w, Response{Message: "binders", Code: http.StatusOK, Data: binders})
}

func (h *Handler) CreateBinder(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
		Color       string  `json:"color"`
		SleeveStyle string  `json:"sleeve_style"`
		IsPublic    bool    `json:"is_public"`
	}
	if !h.decodeBody(w, r, &req) {
		return
	}

	binder, err := h.svc.Binders.CreateBinder(r.Context(), ownerID, models.Binder{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		SleeveStyle: req.SleeveStyle,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.CreateResponse(w, Response{Message: "binder created", Code: http.StatusCreated, Data: binder})
}

func (h *Handler) GetBinder(w http.ResponseWriter, r *http.Request) {
	binderID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	binder, err := h.svc.Binders.GetBinder(r.Context(), viewer(r), binderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.CreateResponse(w, Response{Message: "binder", Code: http.StatusOK, Data: binder})
}

func (h *Handler) UpdateBinder(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	binderID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var patch models.BinderPatch
	if !h.decodeBody(w, r, &patch) {
		return
	}

	binder, err := h.svc.Binders.UpdateBinder(r.Context(), ownerID, binderID, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.CreateResponse(w, Response{Message: "binder updated", Code: http.StatusOK, Data: binder})
}

func (h *Handler) DeleteBinder(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	binderID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.Binders.DeleteBinder(r.Context(), ownerID, binderID); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.CreateResponse(w, Response{Message: "binder deleted", Code: http.StatusOK})
}
