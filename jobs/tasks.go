package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCustomerReconcile recomputes customer aggregates from the
	// invoice and payment tables, repairing any drift in the cached
	// derived fields.
	TaskCustomerReconcile = "customer:reconcile"
	// TaskStockLowScan reports products at or below their minimum level.
	TaskStockLowScan = "stock:lowscan"
	// TaskIdempotencyCleanup prunes old idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// CustomerReconcilePayload scopes a reconcile run. BusinessID zero
// means every business.
type CustomerReconcilePayload struct {
	BusinessID   int64     `json:"business_id"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewCustomerReconcileTask constructs the reconcile task.
func NewCustomerReconcileTask(businessID int64) (*asynq.Task, error) {
	body, err := json.Marshal(CustomerReconcilePayload{BusinessID: businessID, ScheduledFor: time.Now().UTC()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCustomerReconcile, body, asynq.Queue(QueueDefault)), nil
}

// StockLowScanPayload scopes a low-stock scan.
type StockLowScanPayload struct {
	BusinessID int64 `json:"business_id"`
}

// NewStockLowScanTask constructs the low-stock scan task.
func NewStockLowScanTask(businessID int64) (*asynq.Task, error) {
	body, err := json.Marshal(StockLowScanPayload{BusinessID: businessID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockLowScan, body, asynq.Queue(QueueDefault)), nil
}

// IdempotencyCleanupPayload carries the retention window in hours.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask(retentionHours int) (*asynq.Task, error) {
	body, err := json.Marshal(IdempotencyCleanupPayload{RetentionHours: retentionHours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}
