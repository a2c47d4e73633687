package roles

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/amnabbouti/launchpad-api-sub000/internal/authz"
	"github.com/amnabbouti/launchpad-api-sub000/internal/platform/httpx"
)

// Handler exposes role CRUD endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the roles handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
}

type createRoleRequest struct {
	Slug      string   `json:"slug" validate:"required,lowercase,alphanum,max=64"`
	Title     string   `json:"title" validate:"required,max=128"`
	Forbidden []string `json:"forbidden"`
	Grants    []string `json:"grants"`
}

type updateRoleRequest struct {
	Title     *string   `json:"title" validate:"omitempty,max=128"`
	Forbidden *[]string `json:"forbidden"`
	Grants    []string  `json:"grants"`
}

type roleBody struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	IsSystem  bool      `json:"is_system"`
	OrgID     *int64    `json:"org_id"`
	Forbidden []string  `json:"forbidden"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]roleBody, 0, len(list))
	for _, role := range list {
		out = append(out, toRoleBody(role))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	role, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRoleBody(*role))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}

	role, err := h.service.Create(r.Context(), authz.PrincipalFromContext(r.Context()), CreateInput{
		Slug:      req.Slug,
		Title:     req.Title,
		Forbidden: req.Forbidden,
		Grants:    req.Grants,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toRoleBody(*role))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req updateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}

	in := UpdateInput{Title: req.Title, Grants: req.Grants}
	if req.Forbidden != nil {
		in.Forbidden = *req.Forbidden
		in.ForbiddenSet = true
	}
	role, err := h.service.Update(r.Context(), authz.PrincipalFromContext(r.Context()), id, in)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRoleBody(*role))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), authz.PrincipalFromContext(r.Context()), id); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respondServiceError adds the governance-specific shapes on top of the shared
// error mapping: unknown keys are a validation failure, everything else a
// permission-modification denial with the violation list attached.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	var pve *PermissionViolationError
	if errors.As(err, &pve) {
		if pve.InvalidKeysOnly() {
			httpx.JSON(w, http.StatusUnprocessableEntity, map[string]any{
				"message":    "request references unknown permission keys",
				"error":      authz.ViolationInvalidPermission,
				"violations": pve.Violations,
			})
			return
		}
		httpx.JSON(w, http.StatusForbidden, map[string]any{
			"message":    "you may not modify these permissions",
			"error":      authz.ReasonPermissionModification,
			"violations": pve.Violations,
		})
		return
	}
	httpx.RespondError(w, err)
}

func toRoleBody(role Role) roleBody {
	forbidden := role.Forbidden
	if forbidden == nil {
		forbidden = []string{}
	}
	return roleBody{
		ID:        role.ID,
		Slug:      role.Slug,
		Title:     role.Title,
		IsSystem:  role.IsSystem,
		OrgID:     role.OrgID,
		Forbidden: forbidden,
		CreatedAt: role.CreatedAt,
		UpdatedAt: role.UpdatedAt,
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
