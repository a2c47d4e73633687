package roles

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amnabbouti/launchpad-api-sub000/internal/authz"
	"github.com/amnabbouti/launchpad-api-sub000/internal/platform/httpx"
)

// CreateInput carries a custom role creation request. Grants are validated
// against the actor's governance policy but only the forbidden list persists;
// anything not forbidden is granted.
type CreateInput struct {
	Slug      string
	Title     string
	Forbidden []string
	Grants    []string
}

// UpdateInput carries a custom role update. ForbiddenSet distinguishes an
// intentionally empty forbidden list from an absent one.
type UpdateInput struct {
	Title        *string
	Forbidden    []string
	ForbiddenSet bool
	Grants       []string
}

// Service implements role management use cases.
type Service struct {
	logger     *slog.Logger
	repo       Repository
	governance *authz.Governance
}

// NewService constructs a role service.
func NewService(logger *slog.Logger, repo Repository, governance *authz.Governance) *Service {
	return &Service{logger: logger, repo: repo, governance: governance}
}

// List returns the roles visible to the current tenant scope.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.repo.List(ctx)
}

// Get returns one visible role.
func (s *Service) Get(ctx context.Context, id int64) (*Role, error) {
	return s.repo.FindByID(ctx, id)
}

// Create adds a custom role owned by the actor's organization. Permission
// lists go through governance before anything is written.
func (s *Service) Create(ctx context.Context, actor *authz.Principal, in CreateInput) (*Role, error) {
	if actor == nil {
		return nil, httpx.ErrUnauthorized
	}
	if authz.IsSystemRoleSlug(in.Slug) {
		return nil, fmt.Errorf("roles: slug %q is reserved: %w", in.Slug, httpx.ErrValidation)
	}
	if len(in.Forbidden) > 0 || len(in.Grants) > 0 {
		if err := s.validatePermissions(actor, in.Forbidden, in.Grants); err != nil {
			return nil, err
		}
	}

	role := &Role{
		Slug:      in.Slug,
		Title:     in.Title,
		OrgID:     actor.OrgID,
		Forbidden: in.Forbidden,
	}
	if err := s.repo.Create(ctx, role); err != nil {
		return nil, fmt.Errorf("roles: create %q: %w", in.Slug, err)
	}
	s.logger.Info("role created", "role_id", role.ID, "slug", role.Slug, "actor_id", actor.ID)
	return role, nil
}

// Update edits a custom role. System roles are immutable: their permission
// sets come from the catalog, not the database.
func (s *Service) Update(ctx context.Context, actor *authz.Principal, id int64, in UpdateInput) (*Role, error) {
	if actor == nil {
		return nil, httpx.ErrUnauthorized
	}
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role.IsSystem {
		return nil, httpx.ErrForbidden
	}
	if in.ForbiddenSet || len(in.Grants) > 0 {
		if err := s.validatePermissions(actor, in.Forbidden, in.Grants); err != nil {
			return nil, err
		}
	}

	if in.Title != nil {
		role.Title = *in.Title
	}
	if in.ForbiddenSet {
		role.Forbidden = in.Forbidden
	}
	if err := s.repo.Update(ctx, role); err != nil {
		return nil, fmt.Errorf("roles: update %d: %w", id, err)
	}
	s.logger.Info("role updated", "role_id", role.ID, "actor_id", actor.ID)
	return role, nil
}

// Delete removes a custom role.
func (s *Service) Delete(ctx context.Context, actor *authz.Principal, id int64) error {
	if actor == nil {
		return httpx.ErrUnauthorized
	}
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return httpx.ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("roles: delete %d: %w", id, err)
	}
	s.logger.Info("role deleted", "role_id", id, "actor_id", actor.ID)
	return nil
}

// validatePermissions runs governance over the supplied permission lists.
// Callers skip it when a request carries no permission fields at all; an
// explicitly empty forbidden list still goes through, so the required
// forbidden set cannot be stripped by omission.
func (s *Service) validatePermissions(actor *authz.Principal, forbidden, grants []string) error {
	if violations := s.governance.Validate(actor.Role, forbidden, grants); len(violations) > 0 {
		s.logger.Warn("role permission edit rejected",
			"actor_id", actor.ID, "actor_role", actor.Role.Slug, "violations", len(violations))
		return &PermissionViolationError{Violations: violations}
	}
	return nil
}
