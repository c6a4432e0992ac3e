package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/avvvet/deckvault-services/internal/auth"
	"github.com/avvvet/deckvault-services/internal/vaultsvc/models"
	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

type CatalogAPI interface {
	SearchCards(ctx context.Context, search models.CardSearch) ([]*models.Card, error)
	GetCard(ctx context.Context, id int64) (*models.Card, error)
	CatalogSize(ctx context.Context) (int64, error)
}

type BinderAPI interface {
	CreateBinder(ctx context.Context, ownerID int64, b models.Binder) (*models.Binder, error)
	ListBinders(ctx context.Context, ownerID int64) ([]*models.Binder, error)
	GetBinder(ctx context.Context, viewerID, binderID int64) (*models.Binder, error)
	UpdateBinder(ctx context.Context, ownerID, binderID int64, p models.BinderPatch) (*models.Binder, error)
	DeleteBinder(ctx context.Context, ownerID, binderID int64) error
}

type BinderCardAPI interface {
	AddCard(ctx context.Context, ownerID, binderID int64, in models.NewBinderCard) (*models.BinderCard, error)
	NextSlot(ctx context.Context, ownerID, binderID int64) (models.Placement, error)
	ListCards(ctx context.Context, viewerID, binderID int64) ([]*models.BinderCardView, error)
	RemoveCard(ctx context.Context, ownerID, binderID, binderCardID int64) error
}

type Reorderer interface {
	Reorder(ctx context.Context, ownerID, binderID int64, moves []models.Move) error
}

type SyncRequester interface {
	RequestCatalogSync(requestedBy int64) error
}

// Services bundles what the vault API serves.
type Services struct {
	Catalog     CatalogAPI
	Binders     BinderAPI
	BinderCards BinderCardAPI
	Reorder     Reorderer
	Sync        SyncRequester
}

type Handler struct {
	tokenAuth *jwtauth.JWTAuth
	svc       Services
	port      string
}

func NewHandler(tokenAuth *jwtauth.JWTAuth, svc Services, port string) *Handler {
	return &Handler{tokenAuth: tokenAuth, svc: svc, port: port}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	json.NewEncoder(w).Encode(rsp)
}

// writeError maps service errors onto status codes. Internal details are
// logged, never returned.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		h.CreateResponse(w, Response{Message: "invalid request", Code: http.StatusBadRequest, Error: ve.Error()})
	case errors.Is(err, models.ErrNotFound):
		h.CreateResponse(w, Response{Message: "not found", Code: http.StatusNotFound, Error: "not found"})
	case errors.Is(err, models.ErrConflict):
		h.CreateResponse(w, Response{Message: "conflict", Code: http.StatusConflict, Error: "slot already taken, retry the request"})
	default:
		log.Errorf("%s %s failed: %v", r.Method, r.URL.Path, err)
		h.CreateResponse(w, Response{Message: "internal error", Code: http.StatusInternalServerError, Error: "internal error"})
	}
}

func (h *Handler) badRequest(w http.ResponseWriter, msg string) {
	h.CreateResponse(w, Response{Message: "invalid request", Code: http.StatusBadRequest, Error: msg})
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.badRequest(w, "invalid JSON body")
		return false
	}
	return true
}

// pathID parses a positive id URL parameter. Malformed ids are reported as
// not found, same as ids that do not exist.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, r, models.ErrNotFound)
		return 0, false
	}
	return id, true
}

// owner returns the authenticated owner id; routes using it sit behind auth.OwnerCtx.
func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := auth.OwnerFrom(r.Context())
	if !ok {
		h.CreateResponse(w, Response{Message: "unauthorized", Code: http.StatusUnauthorized, Error: "unauthorized"})
	}
	return id, ok
}

// viewer returns the caller's id, or 0 for anonymous callers.
func viewer(r *http.Request) int64 {
	id, _ := auth.OwnerFrom(r.Context())
	return id
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{}
	if n, err := h.svc.Catalog.CatalogSize(r.Context()); err == nil {
		data["catalog_cards"] = n
	} else {
		log.Warnf("health: catalog size unavailable: %v", err)
	}

	h.CreateResponse(w, Response{
		Message: "vault service is running at port " + h.port,
		Code:    http.StatusOK,
		Data:    data,
	})
}
