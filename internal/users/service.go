package users

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/amnabbouti/launchpad-api-sub000/internal/authz"
)

// CreateInput carries a user creation request.
type CreateInput struct {
	Email    string
	Name     string
	Password string
	RoleID   int64
	OrgID    *int64
}

// UpdateInput carries a partial user update.
type UpdateInput struct {
	Name     *string
	IsActive *bool
	RoleID   *int64
}

// Service implements user management use cases. The request pipeline already
// enforced the coarse permission for the route; this layer re-checks with the
// concrete target so self/others and cross-org rules apply.
type Service struct {
	logger *slog.Logger
	repo   Repository
	engine *authz.Engine
}

// NewService constructs a user service.
func NewService(logger *slog.Logger, repo Repository, engine *authz.Engine) *Service {
	return &Service{logger: logger, repo: repo, engine: engine}
}

// List returns the users visible to the current tenant scope.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get returns one user after a targeted view check.
func (s *Service) Get(ctx context.Context, actor *authz.Principal, id int64) (*User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, authz.ActionView, "users", user); err != nil {
		return nil, err
	}
	return user, nil
}

// Create adds a user. Tenant actors can only create inside their own
// organization; the org-scope check enforces that against the new row.
func (s *Service) Create(ctx context.Context, actor *authz.Principal, in CreateInput) (*User, error) {
	orgID := in.OrgID
	if actor != nil && !actor.IsSystemScope() {
		orgID = actor.OrgID
	}
	user := &User{
		Email:    in.Email,
		Name:     in.Name,
		IsActive: true,
		OrgID:    orgID,
		RoleID:   in.RoleID,
	}
	if err := s.engine.Authorize(ctx, actor, authz.ActionCreate, "users", user); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("users: hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("users: create %q: %w", in.Email, err)
	}
	s.logger.Info("user created", "user_id", user.ID, "actor_id", actor.ID)
	return user, nil
}

// Update edits a user after a targeted update check against the current row.
func (s *Service) Update(ctx context.Context, actor *authz.Principal, id int64, in UpdateInput) (*User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, authz.ActionUpdate, "users", user); err != nil {
		return nil, err
	}

	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	if in.RoleID != nil {
		user.RoleID = *in.RoleID
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("users: update %d: %w", id, err)
	}
	s.logger.Info("user updated", "user_id", user.ID, "actor_id", actor.ID)
	return user, nil
}

// Delete removes a user. The engine denies self-deletion and cross-org
// targets before the row is touched.
func (s *Service) Delete(ctx context.Context, actor *authz.Principal, id int64) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.engine.Authorize(ctx, actor, authz.ActionDelete, "users", user); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("users: delete %d: %w", id, err)
	}
	s.logger.Info("user deleted", "user_id", id, "actor_id", actor.ID)
	return nil
}
