package items

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/amnabbouti/launchpad-api-sub000/internal/authz"
	"github.com/amnabbouti/launchpad-api-sub000/internal/platform/httpx"
)

// Handler exposes inventory item endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the items handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes registers item routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
}

type createItemRequest struct {
	Name         string `json:"name" validate:"required,max=128"`
	SKU          string `json:"sku" validate:"required,max=64"`
	Quantity     int    `json:"quantity" validate:"gte=0"`
	LocationNote string `json:"location_note" validate:"max=256"`
}

type updateItemRequest struct {
	Name         *string `json:"name" validate:"omitempty,max=128"`
	SKU          *string `json:"sku" validate:"omitempty,max=64"`
	Quantity     *int    `json:"quantity" validate:"omitempty,gte=0"`
	LocationNote *string `json:"location_note" validate:"omitempty,max=256"`
}

type itemBody struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	SKU               string     `json:"sku"`
	Quantity          int        `json:"quantity"`
	LocationNote      string     `json:"location_note"`
	NextMaintenanceAt *time.Time `json:"next_maintenance_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list items", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]itemBody, 0, len(list))
	for _, item := range list {
		out = append(out, toItemBody(item))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toItemBody(*item))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}

	item, err := h.service.Create(r.Context(), authz.PrincipalFromContext(r.Context()), CreateInput{
		Name:         req.Name,
		SKU:          req.SKU,
		Quantity:     req.Quantity,
		LocationNote: req.LocationNote,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toItemBody(*item))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req updateItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}

	item, err := h.service.Update(r.Context(), id, UpdateInput{
		Name:         req.Name,
		SKU:          req.SKU,
		Quantity:     req.Quantity,
		LocationNote: req.LocationNote,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toItemBody(*item))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toItemBody(item Item) itemBody {
	return itemBody{
		ID:                item.ID,
		Name:              item.Name,
		SKU:               item.SKU,
		Quantity:          item.Quantity,
		LocationNote:      item.LocationNote,
		NextMaintenanceAt: item.NextMaintenanceAt,
		CreatedAt:         item.CreatedAt,
		UpdatedAt:         item.UpdatedAt,
	}
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return 0, false
	}
	return id, true
}
