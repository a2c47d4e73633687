package licenses

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

// Handler exposes license endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the licenses handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes registers license routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleSetStatus)
}

// MountPlanRoutes registers the plan catalog routes.
func (h *Handler) MountPlanRoutes(r chi.Router) {
	r.Get("/", h.handlePlans)
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active suspended expired"`
}

type licenseBody struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	OrgID     *int64     `json:"org_id"`
	PlanID    int64      `json:"plan_id"`
	Plan      string     `json:"plan"`
	Status    string     `json:"status"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type planBody struct {
	ID       int64  `json:"id"`
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	MaxSeats int    `json:"max_seats"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list licenses", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]licenseBody, 0, len(list))
	for _, lic := range list {
		out = append(out, toLicenseBody(lic))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	lic, err := h.service.Get(r.Context(), authz.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toLicenseBody(*lic))
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req setStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}

	lic, err := h.service.SetStatus(r.Context(), authz.PrincipalFromContext(r.Context()), id, req.Status)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toLicenseBody(*lic))
}

func (h *Handler) handlePlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.service.Plans(r.Context())
	if err != nil {
		h.logger.Error("list plans", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]planBody, 0, len(plans))
	for _, plan := range plans {
		out = append(out, planBody{ID: plan.ID, Slug: plan.Slug, Name: plan.Name, MaxSeats: plan.MaxSeats})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if authz.RespondDenial(w, err) {
		return
	}
	httpx.RespondError(w, err)
}

func toLicenseBody(lic UserLicense) licenseBody {
	return licenseBody{
		ID:        lic.ID,
		UserID:    lic.UserID,
		OrgID:     lic.OwnerOrg,
		PlanID:    lic.PlanID,
		Plan:      lic.PlanSlug,
		Status:    lic.Status,
		ExpiresAt: lic.ExpiresAt,
		CreatedAt: lic.CreatedAt,
		UpdatedAt: lic.UpdatedAt,
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
