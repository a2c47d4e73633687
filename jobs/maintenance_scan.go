package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/amnabbouti/launchpad-api-sub000/internal/items"
	"github.com/amnabbouti/launchpad-api-sub000/internal/licenses"
	"github.com/amnabbouti/launchpad-api-sub000/internal/tenancy"
)

// Scanner runs the periodic sweeps. Both tasks operate across all tenants,
// so every handler binds a system-scope tenancy session for the duration of
// its run and clears it on the way out.
type Scanner struct {
	logger   *slog.Logger
	tenancy  *tenancy.Manager
	items    items.Repository
	licenses licenses.Repository
}

// NewScanner constructs the periodic task handlers.
func NewScanner(logger *slog.Logger, manager *tenancy.Manager, itemRepo items.Repository, licenseRepo licenses.Repository) *Scanner {
	return &Scanner{logger: logger, tenancy: manager, items: itemRepo, licenses: licenseRepo}
}

// HandleMaintenanceScan processes TaskMaintenanceScan tasks.
func (s *Scanner) HandleMaintenanceScan(ctx context.Context, t *asynq.Task) error {
	var payload ScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	ctx, cleanup, err := s.tenancy.Setup(ctx, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	due, err := s.items.DueForMaintenance(ctx, time.Now())
	if err != nil {
		return err
	}
	for _, item := range due {
		s.logger.Warn("item due for maintenance",
			slog.Int64("item_id", item.ID),
			slog.Int64("org_id", item.OrgID),
			slog.String("sku", item.SKU))
	}
	s.logger.Info("maintenance scan complete", slog.Int("due", len(due)))
	return nil
}

// HandleLicenseSweep processes TaskLicenseSweep tasks.
func (s *Scanner) HandleLicenseSweep(ctx context.Context, t *asynq.Task) error {
	var payload ScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	ctx, cleanup, err := s.tenancy.Setup(ctx, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	expired, err := s.licenses.ExpireOverdue(ctx, time.Now())
	if err != nil {
		return err
	}
	s.logger.Info("license sweep complete", slog.Int64("expired", expired))
	return nil
}
