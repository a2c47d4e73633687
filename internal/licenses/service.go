package licenses

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amnabbouti/launchpad-api-sub000/internal/authz"
	"github.com/amnabbouti/launchpad-api-sub000/internal/platform/httpx"
)

// License statuses.
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusExpired   = "expired"
)

var validStatuses = map[string]struct{}{
	StatusActive:    {},
	StatusSuspended: {},
	StatusExpired:   {},
}

// Service implements license use cases. Licenses scope to the owner's
// organization, so targeted checks go through the license-scope rule rather
// than a direct org_id comparison.
type Service struct {
	logger *slog.Logger
	repo   Repository
	engine *authz.Engine
}

// NewService constructs a license service.
func NewService(logger *slog.Logger, repo Repository, engine *authz.Engine) *Service {
	return &Service{logger: logger, repo: repo, engine: engine}
}

// List returns the licenses visible to the current scope.
func (s *Service) List(ctx context.Context) ([]UserLicense, error) {
	return s.repo.List(ctx)
}

// Get returns one license after a targeted view check.
func (s *Service) Get(ctx context.Context, actor *authz.Principal, id int64) (*UserLicense, error) {
	lic, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, authz.ActionView, "userlicenses", lic); err != nil {
		return nil, err
	}
	return lic, nil
}

// SetStatus transitions a license after a targeted update check.
func (s *Service) SetStatus(ctx context.Context, actor *authz.Principal, id int64, status string) (*UserLicense, error) {
	if _, ok := validStatuses[status]; !ok {
		return nil, fmt.Errorf("licenses: status %q: %w", status, httpx.ErrValidation)
	}
	lic, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, authz.ActionUpdate, "userlicenses", lic); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("licenses: update %d: %w", id, err)
	}
	lic.Status = status
	s.logger.Info("license status changed", "license_id", id, "status", status, "actor_id", actor.ID)
	return lic, nil
}

// Plans returns the plan catalog. Plans are org agnostic; no targeted check.
func (s *Service) Plans(ctx context.Context) ([]Plan, error) {
	return s.repo.Plans(ctx)
}
