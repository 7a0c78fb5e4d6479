package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukerupert/skadi/internal/domain"
)

// ActivityRecorder appends audit entries and lists them for the back
// office. Recording is best-effort by contract: a failed write is logged
// and swallowed so it can never fail the operation being audited.
type ActivityRecorder interface {
	Record(ctx context.Context, entry domain.ActivityEntry)
	List(ctx context.Context, limit, offset int32) ([]domain.ActivityEntry, error)
}

type activityRecorder struct {
	store  domain.ActivityStore
	logger *slog.Logger
}

// NewActivityRecorder creates the activity recorder.
func NewActivityRecorder(store domain.ActivityStore, logger *slog.Logger) (ActivityRecorder, error) {
	if store == nil {
		return nil, fmt.Errorf("activity store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &activityRecorder{store: store, logger: logger}, nil
}

func (r *activityRecorder) Record(ctx context.Context, entry domain.ActivityEntry) {
	if err := r.store.AppendActivity(ctx, entry); err != nil {
		r.logger.Error("failed to record activity",
			"action", entry.Action,
			"category", entry.Category,
			"target_id", entry.TargetID,
			"error", err,
		)
	}
}

func (r *activityRecorder) List(ctx context.Context, limit, offset int32) ([]domain.ActivityEntry, error) {
	return r.store.ListActivity(ctx, limit, offset)
}
