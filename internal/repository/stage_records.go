package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hireloop-dev/recruit-manager/backend/internal/domain"
)

// CreateStageRecord 插入一条新的阶段记录，
// 「一个岗位最多一条未完成记录」由部分唯一索引 stage_records_one_open_per_position 兜底，
// 两次流转并发竞争时后写入的一方会撞上索引，按并发冲突处理
func (r *Repository) CreateStageRecord(record *domain.StageRecord) error {
	query := `
		INSERT INTO stage_records (
			job_position_id, workflow_id, stage_id, phase_id, started_at, deadline, estimated_cost, actual_cost, comments
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{
		record.JobPositionID,
		record.WorkflowID,
		record.StageID,
		record.PhaseID,
		record.StartedAt,
		record.Deadline,
		record.EstimatedCost,
		record.ActualCost,
		record.Comments,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&record.ID, &record.CreatedAt, &record.Version); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "stage_records_one_open_per_position" {
			return domain.ErrConcurrentModification
		}
		return err
	}

	return nil
}

func (r *Repository) GetOpenStageRecordByPositionID(positionID int64) (*domain.StageRecord, error) {
	query := `
		SELECT id, workflow_id, stage_id, phase_id, started_at, completed_at, deadline, estimated_cost, actual_cost, comments, created_at, version
		FROM stage_records
		WHERE job_position_id = $1 AND completed_at IS NULL
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	record := &domain.StageRecord{
		JobPositionID: positionID,
	}

	dst := []any{
		&record.ID,
		&record.WorkflowID,
		&record.StageID,
		&record.PhaseID,
		&record.StartedAt,
		&record.CompletedAt,
		&record.Deadline,
		&record.EstimatedCost,
		&record.ActualCost,
		&record.Comments,
		&record.CreatedAt,
		&record.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, positionID).Scan(dst...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return record, nil
}

// CompleteStageRecord 保存一条已经在内存中标记完成的记录
func (r *Repository) CompleteStageRecord(record *domain.StageRecord) error {
	query := `
		UPDATE stage_records
		SET
			completed_at = $1,
			comments = $2,
			actual_cost = $3,
			version = version + 1
		WHERE id = $4 AND version = $5
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{record.CompletedAt, record.Comments, record.ActualCost, record.ID, record.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&record.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrConcurrentModification
		}
		return err
	}

	return nil
}

func (r *Repository) GetStageRecordsByPositionID(positionID int64) ([]*domain.StageRecord, error) {
	query := `
		SELECT id, workflow_id, stage_id, phase_id, started_at, completed_at, deadline, estimated_cost, actual_cost, comments, created_at, version
		FROM stage_records
		WHERE job_position_id = $1
		ORDER BY started_at
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, positionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*domain.StageRecord, 0)
	for rows.Next() {
		record := &domain.StageRecord{JobPositionID: positionID}
		dst := []any{
			&record.ID,
			&record.WorkflowID,
			&record.StageID,
			&record.PhaseID,
			&record.StartedAt,
			&record.CompletedAt,
			&record.Deadline,
			&record.EstimatedCost,
			&record.ActualCost,
			&record.Comments,
			&record.CreatedAt,
			&record.Version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}
