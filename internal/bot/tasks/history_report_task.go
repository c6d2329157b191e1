package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/edgard/digestbot/internal/database"
)

const (
	reportWindow       = 24 * time.Hour
	reportRecentSample = 20
)

// Report is what the history report task logs on each run.
type Report struct {
	Chats              int
	Messages           int
	Outcomes           map[string]int
	Digests            int
	LastDigestAt       time.Time
	MeanDurationRecent time.Duration
}

// newHistoryReportTask logs the size of the in-memory history, the digest
// outcomes of the last day and the latency of the most recent digests.
func newHistoryReportTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "history_report")

	return func(ctx context.Context) error {
		r, err := BuildReport(ctx, deps)
		if err != nil {
			log.ErrorContext(ctx, "Failed to build history report", "error", err)
			return err
		}

		log.InfoContext(ctx, "History report",
			"chats", r.Chats,
			"messages", r.Messages,
			"capacity_per_chat", deps.History.Capacity(),
			"digests_24h", r.Digests,
			"digests_ok", r.Outcomes[database.OutcomeOK],
			"digests_failed", r.Outcomes[database.OutcomeGenerationFailed],
			"digests_empty", r.Outcomes[database.OutcomeEmptyHistory]+r.Outcomes[database.OutcomeNoTextMessages],
			"last_digest_at", r.LastDigestAt,
			"mean_duration_recent", r.MeanDurationRecent)
		return nil
	}
}

// BuildReport gathers history and audit log statistics.
func BuildReport(ctx context.Context, deps TaskDeps) (Report, error) {
	stats := deps.History.Stats()
	r := Report{Chats: stats.Chats, Messages: stats.Messages}

	outcomes, err := deps.Store.CountOutcomesSince(ctx, deps.now().Add(-reportWindow))
	if err != nil {
		return Report{}, fmt.Errorf("failed to count digest outcomes: %w", err)
	}
	r.Outcomes = outcomes
	for _, n := range outcomes {
		r.Digests += n
	}

	recent, err := deps.Store.GetRecentDigests(ctx, reportRecentSample)
	if err != nil {
		return Report{}, fmt.Errorf("failed to fetch recent digests: %w", err)
	}
	if len(recent) > 0 {
		r.LastDigestAt = recent[0].CreatedAt
		var total int64
		for _, d := range recent {
			total += d.DurationMS
		}
		r.MeanDurationRecent = time.Duration(total/int64(len(recent))) * time.Millisecond
	}
	return r, nil
}
