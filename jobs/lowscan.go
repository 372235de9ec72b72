package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/ledgerline/ledgerline/internal/jobs"
)

// StockLowScanJob logs products at or below their minimum stock level
// so operators can restock before sales start failing.
type StockLowScanJob struct {
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewStockLowScanJob constructs the job.
func NewStockLowScanJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *StockLowScanJob {
	if metrics == nil {
		metrics = jobmetrics.NewMetrics(nil)
	}
	return &StockLowScanJob{pool: pool, logger: logger, metrics: metrics}
}

// Handle processes TaskStockLowScan tasks.
func (j *StockLowScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.metrics.Track(TaskStockLowScan)
	var payload StockLowScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(asynq.SkipRetry)
	}

	query := `
SELECT business_id, id, name, current_stock, min_stock_level
FROM products
WHERE is_active AND current_stock <= min_stock_level`
	args := []any{}
	if payload.BusinessID != 0 {
		query += ` AND business_id = $1`
		args = append(args, payload.BusinessID)
	}
	rows, err := j.pool.Query(ctx, query, args...)
	if err != nil {
		return tracker.End(err)
	}
	defer rows.Close()

	perBusiness := map[int64]int{}
	count := 0
	for rows.Next() {
		var businessID, id, current, minLevel int64
		var name string
		if err := rows.Scan(&businessID, &id, &name, &current, &minLevel); err != nil {
			return tracker.End(err)
		}
		count++
		perBusiness[businessID]++
		j.logger.Warn("low stock",
			slog.Int64("business_id", businessID),
			slog.Int64("product_id", id),
			slog.String("name", name),
			slog.Int64("current_stock", current),
			slog.Int64("min_stock_level", minLevel))
	}
	if err := rows.Err(); err != nil {
		return tracker.End(err)
	}
	for businessID, flagged := range perBusiness {
		j.metrics.SetLowStock(businessID, flagged)
	}
	j.logger.Info("low stock scan finished", slog.Int("flagged", count))
	return tracker.End(nil)
}
