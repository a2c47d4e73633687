package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskMaintenanceScan finds items whose maintenance window has opened.
	TaskMaintenanceScan = "maintenance:scan"
	// TaskLicenseSweep expires user licenses past their end date.
	TaskLicenseSweep = "licenses:sweep"
)

// ScanPayload carries scheduling metadata shared by the periodic tasks.
type ScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewMaintenanceScanTask constructs an Asynq task for the maintenance scan.
func NewMaintenanceScanTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(ScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMaintenanceScan, body, asynq.Queue(QueueDefault)), nil
}

// NewLicenseSweepTask constructs an Asynq task for the license sweep.
func NewLicenseSweepTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(ScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLicenseSweep, body, asynq.Queue(QueueDefault)), nil
}
