package domain

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// Activity categories group audit entries for filtering in the back office.
const (
	ActivityCategoryOrder   = "order"
	ActivityCategoryProduct = "product"
	ActivityCategoryTeam    = "team"
)

// ActivityEntry is one append-only audit record. Entries are best-effort:
// failing to write one never fails the operation being audited.
type ActivityEntry struct {
	ID          pgtype.UUID        `json:"id"`
	Action      string             `json:"action"`
	Category    string             `json:"category"`
	Description string             `json:"description"`
	ActorName   string             `json:"actorName"`
	ActorRole   string             `json:"actorRole"`
	TargetID    string             `json:"targetId,omitempty"`
	TargetType  string             `json:"targetType,omitempty"`
	TargetName  string             `json:"targetName,omitempty"`
	Metadata    map[string]any     `json:"metadata,omitempty"`
	CreatedAt   pgtype.Timestamptz `json:"createdAt"`
}

// ActivityStore is the persistence port for the audit log.
type ActivityStore interface {
	AppendActivity(ctx context.Context, entry ActivityEntry) error
	ListActivity(ctx context.Context, limit, offset int32) ([]ActivityEntry, error)
}
