package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tablerolabs/tablero/internal/domain"
)

// ActivityRepo implements domain.ActivityRepository backed by PostgreSQL.
// The newest-provisional queries pick the most recent nil-actor row for an
// entity, which is how request handlers reconcile records written by the
// persistence hook.
type ActivityRepo struct {
	pool *pgxpool.Pool
}

func NewActivityRepo(pool *pgxpool.Pool) *ActivityRepo {
	return &ActivityRepo{pool: pool}
}

func (r *ActivityRepo) Insert(ctx context.Context, rec *domain.ActivityRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO activity_log (id, actor_id, action, entity_kind, entity_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.ActorID, rec.Action, rec.EntityKind, rec.EntityID, rec.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert activity record: %w", err)
	}
	return nil
}

func (r *ActivityRepo) ListRecent(ctx context.Context, limit int) ([]*domain.ActivityRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT al.id, al.actor_id, COALESCE(u.username, ''), al.action, al.entity_kind, al.entity_id, al.created_at
		FROM activity_log al
		LEFT JOIN users u ON u.id = al.actor_id
		ORDER BY al.created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var records []*domain.ActivityRecord
	for rows.Next() {
		var rec domain.ActivityRecord
		if err := rows.Scan(&rec.ID, &rec.ActorID, &rec.ActorName, &rec.Action, &rec.EntityKind, &rec.EntityID, &rec.Timestamp); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

func (r *ActivityRepo) AttributeNewestProvisional(ctx context.Context, kind domain.EntityKind, entityID, actorID uuid.UUID, action string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE activity_log
		SET actor_id = $1, action = $2
		WHERE id = (
			SELECT id FROM activity_log
			WHERE entity_kind = $3 AND entity_id = $4 AND actor_id IS NULL
			ORDER BY created_at DESC
			LIMIT 1
		)`, actorID, action, kind, entityID)
	if err != nil {
		return fmt.Errorf("failed to attribute activity record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ActivityRepo) DeleteNewestProvisional(ctx context.Context, kind domain.EntityKind, entityID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM activity_log
		WHERE id = (
			SELECT id FROM activity_log
			WHERE entity_kind = $1 AND entity_id = $2 AND actor_id IS NULL
			ORDER BY created_at DESC
			LIMIT 1
		)`, kind, entityID)
	if err != nil {
		return fmt.Errorf("failed to discard activity record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
