package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/opsdesk/opsdesk/internal/observability"
)

// OverdueMarker flips past-due open bills to OVERDUE.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

// Warmer precomputes the dashboard reports.
type Warmer interface {
	Warmup(ctx context.Context) error
	Invalidate(ctx context.Context) error
}

// KeyCleaner prunes stale idempotency keys.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// NewOverdueScanHandler returns the handler for TaskOverdueScan. OVERDUE
// is assigned only here, from the date comparison; the amount-driven
// derivation in the ledger never produces it.
func NewOverdueScanHandler(marker OverdueMarker, warmer Warmer, metrics *observability.Metrics, logger *slog.Logger) TaskHandler {
	return TaskHandler{
		Type: TaskOverdueScan,
		Handler: func(ctx context.Context, t *asynq.Task) error {
			var payload OverdueScanPayload
			if len(t.Payload()) > 0 {
				if err := json.Unmarshal(t.Payload(), &payload); err != nil {
					return asynq.SkipRetry
				}
			}
			asOf := payload.AsOf
			if asOf.IsZero() {
				asOf = time.Now()
			}

			marked, err := marker.MarkOverdue(ctx, asOf)
			if err != nil {
				metrics.RecordJob(TaskOverdueScan, "error")
				return err
			}
			if marked > 0 && warmer != nil {
				if err := warmer.Invalidate(ctx); err != nil {
					logger.Warn("overdue scan cache invalidation failed", "error", err)
				}
			}
			metrics.RecordJob(TaskOverdueScan, "ok")
			logger.Info("overdue scan complete", "as_of", asOf, "marked", marked)
			return nil
		},
	}
}

// NewDashboardWarmupHandler returns the handler for TaskDashboardWarmup.
func NewDashboardWarmupHandler(warmer Warmer, metrics *observability.Metrics, logger *slog.Logger) TaskHandler {
	return TaskHandler{
		Type: TaskDashboardWarmup,
		Handler: func(ctx context.Context, t *asynq.Task) error {
			if err := warmer.Warmup(ctx); err != nil {
				metrics.RecordJob(TaskDashboardWarmup, "error")
				return err
			}
			metrics.RecordJob(TaskDashboardWarmup, "ok")
			logger.Info("dashboard warmup complete")
			return nil
		},
	}
}

// NewIdempotencyCleanupHandler returns the handler for
// TaskIdempotencyCleanup. Keys older than the retention window are safe
// to drop; a retry that stale is a new request.
func NewIdempotencyCleanupHandler(cleaner KeyCleaner, retention time.Duration, metrics *observability.Metrics, logger *slog.Logger) TaskHandler {
	return TaskHandler{
		Type: TaskIdempotencyCleanup,
		Handler: func(ctx context.Context, t *asynq.Task) error {
			if err := cleaner.Cleanup(ctx, retention); err != nil {
				metrics.RecordJob(TaskIdempotencyCleanup, "error")
				return err
			}
			metrics.RecordJob(TaskIdempotencyCleanup, "ok")
			logger.Info("idempotency cleanup complete", "retention", retention)
			return nil
		},
	}
}
