package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/billing"
	jobmetrics "github.com/ledgerline/ledgerline/internal/jobs"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// CustomerReconcileJob rebuilds customer aggregates from the invoice
// and payment tables. The request path keeps them consistent inside its
// own transactions; this job repairs drift from manual data fixes.
type CustomerReconcileJob struct {
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewCustomerReconcileJob constructs the job. A nil metrics falls back to
// the default Prometheus registerer.
func NewCustomerReconcileJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *CustomerReconcileJob {
	if metrics == nil {
		metrics = jobmetrics.NewMetrics(nil)
	}
	return &CustomerReconcileJob{pool: pool, logger: logger, metrics: metrics}
}

// Handle processes TaskCustomerReconcile tasks.
func (j *CustomerReconcileJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.metrics.Track(TaskCustomerReconcile)
	var payload CustomerReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(asynq.SkipRetry)
	}

	query := `SELECT id FROM customers`
	args := []any{}
	if payload.BusinessID != 0 {
		query += ` WHERE business_id = $1`
		args = append(args, payload.BusinessID)
	}
	rows, err := j.pool.Query(ctx, query, args...)
	if err != nil {
		return tracker.End(err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return tracker.End(err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return tracker.End(err)
	}

	repaired := 0
	for _, id := range ids {
		changed, err := j.reconcileOne(ctx, id)
		if err != nil {
			j.logger.Error("reconcile customer", slog.Int64("customer_id", id), slog.Any("error", err))
			continue
		}
		if changed {
			repaired++
		}
	}
	j.logger.Info("customer reconcile finished",
		slog.Int("customers", len(ids)),
		slog.Int("repaired", repaired),
		slog.Int64("business_id", payload.BusinessID))
	return tracker.End(nil)
}

func (j *CustomerReconcileJob) reconcileOne(ctx context.Context, customerID int64) (bool, error) {
	// Outstanding follows the same rule the billing service applies:
	// unpaid balance summed over invoices not marked paid, so cash
	// sales committed as paid carry none.
	var purchases, outstanding decimal.Decimal
	err := j.pool.QueryRow(ctx, `
SELECT COALESCE(SUM(i.grand_total), 0),
       COALESCE(SUM(CASE WHEN i.payment_status <> 'paid'
                         THEN i.grand_total - COALESCE(p.paid, 0)
                         ELSE 0 END), 0)
FROM invoices i
LEFT JOIN (
    SELECT invoice_id, SUM(amount) AS paid FROM payments GROUP BY invoice_id
) p ON p.invoice_id = i.id
WHERE i.customer_id = $1`, customerID).Scan(&purchases, &outstanding)
	if err != nil {
		return false, err
	}

	rows, err := j.pool.Query(ctx, `SELECT payment_status FROM invoices WHERE customer_id = $1`, customerID)
	if err != nil {
		return false, err
	}
	var statuses []shared.PaymentStatus
	for rows.Next() {
		var s shared.PaymentStatus
		if err := rows.Scan(&s); err != nil {
			rows.Close()
			return false, err
		}
		statuses = append(statuses, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return false, err
	}
	status := billing.DeriveCustomerStatus(statuses)

	tag, err := j.pool.Exec(ctx, `
UPDATE customers
SET total_purchases = $1, total_outstanding = $2, payment_status = $3, updated_at = NOW()
WHERE id = $4
  AND (total_purchases <> $1 OR total_outstanding <> $2 OR payment_status <> $3)`,
		purchases, outstanding, status, customerID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
