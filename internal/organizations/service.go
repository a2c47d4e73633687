package organizations

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amnabbouti/launchpad-api-sub000/internal/authz"
)

// CreateInput carries an organization creation request.
type CreateInput struct {
	Name string
	Slug string
}

// UpdateInput carries a partial organization update.
type UpdateInput struct {
	Name     *string
	IsActive *bool
}

// Service implements organization use cases. Create and delete are reserved
// to system scope; the engine enforces that against the concrete target.
type Service struct {
	logger *slog.Logger
	repo   Repository
	engine *authz.Engine
}

// NewService constructs an organization service.
func NewService(logger *slog.Logger, repo Repository, engine *authz.Engine) *Service {
	return &Service{logger: logger, repo: repo, engine: engine}
}

// List returns the organizations visible to the current scope.
func (s *Service) List(ctx context.Context) ([]Organization, error) {
	return s.repo.List(ctx)
}

// Get returns one organization after a targeted view check.
func (s *Service) Get(ctx context.Context, actor *authz.Principal, id int64) (*Organization, error) {
	org, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, authz.ActionView, "organizations", org); err != nil {
		return nil, err
	}
	return org, nil
}

// Create provisions a tenant. Denied with an organization-scope reason for
// every non-system principal.
func (s *Service) Create(ctx context.Context, actor *authz.Principal, in CreateInput) (*Organization, error) {
	if err := s.engine.Authorize(ctx, actor, authz.ActionCreate, "organizations", nil); err != nil {
		return nil, err
	}
	org := &Organization{Name: in.Name, Slug: in.Slug, IsActive: true}
	if err := s.repo.Create(ctx, org); err != nil {
		return nil, fmt.Errorf("organizations: create %q: %w", in.Slug, err)
	}
	s.logger.Info("organization created", "org_id", org.ID, "slug", org.Slug, "actor_id", actor.ID)
	return org, nil
}

// Update edits an organization after a targeted check, so tenants can only
// touch their own record.
func (s *Service) Update(ctx context.Context, actor *authz.Principal, id int64, in UpdateInput) (*Organization, error) {
	org, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, authz.ActionUpdate, "organizations", org); err != nil {
		return nil, err
	}

	if in.Name != nil {
		org.Name = *in.Name
	}
	if in.IsActive != nil {
		org.IsActive = *in.IsActive
	}
	if err := s.repo.Update(ctx, org); err != nil {
		return nil, fmt.Errorf("organizations: update %d: %w", id, err)
	}
	s.logger.Info("organization updated", "org_id", org.ID, "actor_id", actor.ID)
	return org, nil
}

// Delete removes a tenant. System scope only.
func (s *Service) Delete(ctx context.Context, actor *authz.Principal, id int64) error {
	org, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.engine.Authorize(ctx, actor, authz.ActionDelete, "organizations", org); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("organizations: delete %d: %w", id, err)
	}
	s.logger.Info("organization deleted", "org_id", id, "actor_id", actor.ID)
	return nil
}
