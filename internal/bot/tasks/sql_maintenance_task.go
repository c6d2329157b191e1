package tasks

import (
	"context"
	"fmt"
	"time"
)

// newSQLMaintenanceTask prunes digest records older than the retention window
// and then compacts the database.
func newSQLMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "sql_maintenance")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting scheduled SQL maintenance task...")
		startTime := time.Now()

		cutoff := deps.now().AddDate(0, 0, -deps.Config.Database.RetentionDays)
		deleted, err := deps.Store.DeleteDigestsBefore(ctx, cutoff)
		if err != nil {
			log.ErrorContext(ctx, "Failed to prune digest records", "error", err, "cutoff", cutoff)
			return fmt.Errorf("failed to prune digest records: %w", err)
		}
		log.InfoContext(ctx, "Pruned digest records", "deleted", deleted, "cutoff", cutoff)

		if err := deps.Store.RunSQLMaintenance(ctx); err != nil {
			log.ErrorContext(ctx, "SQL maintenance task failed", "error", err, "duration", time.Since(startTime))
			return fmt.Errorf("sql maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "Scheduled SQL maintenance task completed successfully", "duration", time.Since(startTime))
		return nil
	}
}
