package handlers

import (
	"net/http"
	"strconv"

	"github.com/avvvet/deckvault-services/internal/vaultsvc/models"
)

func (h *Handler) SearchCards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := models.CardSearch{Query: q.Get("q")}

	var ok bool
	if search.Page, ok = h.intParam(w, q.Get("page"), "page"); !ok {
		return
	}
	if search.Limit, ok = h.intParam(w, q.Get("limit"), "limit"); !ok {
		return
	}

	cards, err := h.svc.Catalog.SearchCards(r.Context(), search)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: "cards",
		Code:    http.StatusOK,
		Data:    cards,
	})
}

func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	card, err := h.svc.Catalog.GetCard(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.CreateResponse(w, Response{Message: "card", Code: http.StatusOK, Data: card})
}

// RequestCatalogSync hands the request to the sync worker and returns at once.
func (h *Handler) RequestCatalogSync(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	if err := h.svc.Sync.RequestCatalogSync(ownerID); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.CreateResponse(w, Response{Message: "catalog sync requested", Code: http.StatusAccepted})
}

// intParam parses an optional integer query parameter; empty means 0 (default).
func (h *Handler) intParam(w http.ResponseWriter, raw, name string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		h.badRequest(w, name+": must be a number")
		return 0, false
	}
	return n, true
}
