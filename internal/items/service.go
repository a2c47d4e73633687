package items

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amnabbouti/launchpad-api-sub000/internal/authz"
	"github.com/amnabbouti/launchpad-api-sub000/internal/platform/httpx"
)

// CreateInput carries an item creation request.
type CreateInput struct {
	Name         string
	SKU          string
	Quantity     int
	LocationNote string
}

// UpdateInput carries a partial item update.
type UpdateInput struct {
	Name         *string
	SKU          *string
	Quantity     *int
	LocationNote *string
}

// Service implements inventory item use cases. The row policy already limits
// what the repository can see, so the only check this layer adds is pinning
// created rows to the actor's organization.
type Service struct {
	logger *slog.Logger
	repo   Repository
}

// NewService constructs an item service.
func NewService(logger *slog.Logger, repo Repository) *Service {
	return &Service{logger: logger, repo: repo}
}

// List returns the tenant's items.
func (s *Service) List(ctx context.Context) ([]Item, error) {
	return s.repo.List(ctx)
}

// Get returns one of the tenant's items.
func (s *Service) Get(ctx context.Context, id int64) (*Item, error) {
	return s.repo.FindByID(ctx, id)
}

// Create adds an item to the actor's organization.
func (s *Service) Create(ctx context.Context, actor *authz.Principal, in CreateInput) (*Item, error) {
	if actor == nil {
		return nil, httpx.ErrUnauthorized
	}
	if actor.OrgID == nil {
		return nil, fmt.Errorf("items: system-scope principals own no inventory: %w", httpx.ErrValidation)
	}
	item := &Item{
		OrgID:        *actor.OrgID,
		Name:         in.Name,
		SKU:          in.SKU,
		Quantity:     in.Quantity,
		LocationNote: in.LocationNote,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("items: create %q: %w", in.SKU, err)
	}
	s.logger.Info("item created", "item_id", item.ID, "sku", item.SKU, "actor_id", actor.ID)
	return item, nil
}

// Update edits one of the tenant's items.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*Item, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		item.Name = *in.Name
	}
	if in.SKU != nil {
		item.SKU = *in.SKU
	}
	if in.Quantity != nil {
		item.Quantity = *in.Quantity
	}
	if in.LocationNote != nil {
		item.LocationNote = *in.LocationNote
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("items: update %d: %w", id, err)
	}
	return item, nil
}

// Delete removes one of the tenant's items.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("items: delete %d: %w", id, err)
	}
	return nil
}
