package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dukerupert/skadi/internal/domain"
)

// ActivityStore implements domain.ActivityStore.
type ActivityStore struct {
	pool *pgxpool.Pool
}

func NewActivityStore(pool *pgxpool.Pool) *ActivityStore {
	return &ActivityStore{pool: pool}
}

func (s *ActivityStore) AppendActivity(ctx context.Context, entry domain.ActivityEntry) error {
	const op = "activity.append"

	var metadata []byte
	if len(entry.Metadata) > 0 {
		encoded, err := json.Marshal(entry.Metadata)
		if err != nil {
			return domain.Internal(err, op, "failed to encode activity metadata")
		}
		metadata = encoded
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO activity_log (action, category, description, actor_name, actor_role,
			target_id, target_type, target_name, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.Action, entry.Category, entry.Description, entry.ActorName, entry.ActorRole,
		textFromString(entry.TargetID), textFromString(entry.TargetType), textFromString(entry.TargetName),
		metadata,
	)
	if err != nil {
		return domain.Internal(err, op, "failed to append activity entry")
	}

	return nil
}

func (s *ActivityStore) ListActivity(ctx context.Context, limit, offset int32) ([]domain.ActivityEntry, error) {
	const op = "activity.list"

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, action, category, description, actor_name, actor_role,
			target_id, target_type, target_name, metadata, created_at
		FROM activity_log
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list activity")
	}
	defer rows.Close()

	var entries []domain.ActivityEntry
	for rows.Next() {
		var entry domain.ActivityEntry
		var tID, tType, tName pgtype.Text
		var metadata []byte
		if err := rows.Scan(
			&entry.ID, &entry.Action, &entry.Category, &entry.Description,
			&entry.ActorName, &entry.ActorRole,
			&tID, &tType, &tName, &metadata, &entry.CreatedAt,
		); err != nil {
			return nil, domain.Internal(err, op, "failed to scan activity entry")
		}
		entry.TargetID = stringFromText(tID)
		entry.TargetType = stringFromText(tType)
		entry.TargetName = stringFromText(tName)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, domain.Internal(err, op, "failed to decode activity metadata")
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to read activity")
	}

	return entries, nil
}
