package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hireloop-dev/recruit-manager/backend/internal/domain"
)

// 审计日志只有插入和查询，表上不存在 UPDATE/DELETE

func (r *Repository) CreateActivityLog(entry *domain.ActivityLogEntry) error {
	query := `
		INSERT INTO activity_logs (job_position_id, activity_type, description, actor_id, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{entry.JobPositionID, entry.ActivityType, entry.Description, entry.ActorID, metadataJSON}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetActivityLogsByPositionID(positionID int64) ([]*domain.ActivityLogEntry, error) {
	query := `
		SELECT id, activity_type, description, actor_id, metadata, created_at
		FROM activity_logs
		WHERE job_position_id = $1
		ORDER BY created_at DESC, id DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, positionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.ActivityLogEntry, 0)
	for rows.Next() {
		entry := &domain.ActivityLogEntry{JobPositionID: positionID}
		var metadataJSON []byte
		dst := []any{&entry.ID, &entry.ActivityType, &entry.Description, &entry.ActorID, &metadataJSON, &entry.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
				return nil, err
			}
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
