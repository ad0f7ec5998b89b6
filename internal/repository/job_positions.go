package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/hireloop-dev/recruit-manager/backend/internal/domain"
)

// marshalPositionJSON 把聚合上的三个 JSONB 字段序列化成入库参数
func marshalPositionJSON(position *domain.JobPosition) (configJSON, valuesJSON, assignmentsJSON []byte, err error) {
	configJSON, err = json.Marshal(position.CustomFieldsConfig)
	if err != nil {
		return nil, nil, nil, err
	}
	valuesJSON, err = json.Marshal(position.CustomFieldsValues)
	if err != nil {
		return nil, nil, nil, err
	}
	assignmentsJSON, err = json.Marshal(position.StageAssignments)
	if err != nil {
		return nil, nil, nil, err
	}
	return configJSON, valuesJSON, assignmentsJSON, nil
}

func unmarshalPositionJSON(position *domain.JobPosition, configJSON, valuesJSON, assignmentsJSON []byte) error {
	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &position.CustomFieldsConfig); err != nil {
			return err
		}
	}
	if len(valuesJSON) > 0 {
		if err := json.Unmarshal(valuesJSON, &position.CustomFieldsValues); err != nil {
			return err
		}
	}
	if len(assignmentsJSON) > 0 {
		if err := json.Unmarshal(assignmentsJSON, &position.StageAssignments); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) CreateJobPosition(position *domain.JobPosition) error {
	query := `
		INSERT INTO job_positions (
			company_id,
			title,
			description,
			slug,
			number_of_openings,
			status,
			visibility,
			workflow_id,
			source_workflow_id,
			current_stage_id,
			stage_assignments,
			salary_min,
			salary_max,
			budget_max,
			approved_budget_max,
			financial_approver,
			approved_at,
			closed_reason,
			closed_at,
			published_at,
			custom_fields_config,
			custom_fields_values
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING id, created_at, updated_at, version
	`

	configJSON, valuesJSON, assignmentsJSON, err := marshalPositionJSON(position)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{
		position.CompanyID,
		position.Title,
		position.Description,
		position.Slug,
		position.NumberOfOpenings,
		position.Status,
		position.Visibility,
		position.WorkflowID,
		position.SourceWorkflowID,
		position.CurrentStageID,
		assignmentsJSON,
		position.SalaryMin,
		position.SalaryMax,
		position.BudgetMax,
		position.ApprovedBudgetMax,
		position.FinancialApprover,
		position.ApprovedAt,
		position.ClosedReason,
		position.ClosedAt,
		position.PublishedAt,
		configJSON,
		valuesJSON,
	}
	dst := []any{&position.ID, &position.CreatedAt, &position.UpdatedAt, &position.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetJobPositionByID(id int64) (*domain.JobPosition, error) {
	query := `
		SELECT
			company_id,
			title,
			description,
			slug,
			number_of_openings,
			status,
			visibility,
			workflow_id,
			source_workflow_id,
			current_stage_id,
			stage_assignments,
			salary_min,
			salary_max,
			budget_max,
			approved_budget_max,
			financial_approver,
			approved_at,
			closed_reason,
			closed_at,
			published_at,
			custom_fields_config,
			custom_fields_values,
			created_at,
			updated_at,
			version
		FROM job_positions
		WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	position := &domain.JobPosition{
		ID: id,
	}

	var configJSON, valuesJSON, assignmentsJSON []byte
	dst := []any{
		&position.CompanyID,
		&position.Title,
		&position.Description,
		&position.Slug,
		&position.NumberOfOpenings,
		&position.Status,
		&position.Visibility,
		&position.WorkflowID,
		&position.SourceWorkflowID,
		&position.CurrentStageID,
		&assignmentsJSON,
		&position.SalaryMin,
		&position.SalaryMax,
		&position.BudgetMax,
		&position.ApprovedBudgetMax,
		&position.FinancialApprover,
		&position.ApprovedAt,
		&position.ClosedReason,
		&position.ClosedAt,
		&position.PublishedAt,
		&configJSON,
		&valuesJSON,
		&position.CreatedAt,
		&position.UpdatedAt,
		&position.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if err := unmarshalPositionJSON(position, configJSON, valuesJSON, assignmentsJSON); err != nil {
		return nil, err
	}

	return position, nil
}

// UpdateJobPosition 全量更新岗位，使用 version 做乐观并发控制：
// 加载之后被别人改过的岗位在这里保存会失败，调用方需要重新加载后重试
func (r *Repository) UpdateJobPosition(position *domain.JobPosition) error {
	query := `
		UPDATE job_positions
		SET
			title = $1,
			description = $2,
			slug = $3,
			number_of_openings = $4,
			status = $5,
			visibility = $6,
			workflow_id = $7,
			source_workflow_id = $8,
			current_stage_id = $9,
			stage_assignments = $10,
			salary_min = $11,
			salary_max = $12,
			budget_max = $13,
			approved_budget_max = $14,
			financial_approver = $15,
			approved_at = $16,
			closed_reason = $17,
			closed_at = $18,
			published_at = $19,
			custom_fields_config = $20,
			custom_fields_values = $21,
			updated_at = NOW(),
			version = version + 1
		WHERE id = $22 AND version = $23
		RETURNING updated_at, version
	`

	configJSON, valuesJSON, assignmentsJSON, err := marshalPositionJSON(position)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{
		position.Title,
		position.Description,
		position.Slug,
		position.NumberOfOpenings,
		position.Status,
		position.Visibility,
		position.WorkflowID,
		position.SourceWorkflowID,
		position.CurrentStageID,
		assignmentsJSON,
		position.SalaryMin,
		position.SalaryMax,
		position.BudgetMax,
		position.ApprovedBudgetMax,
		position.FinancialApprover,
		position.ApprovedAt,
		position.ClosedReason,
		position.ClosedAt,
		position.PublishedAt,
		configJSON,
		valuesJSON,
		position.ID,
		position.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&position.UpdatedAt, &position.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// 没有命中行说明 version 已经变了（或记录被删除）
			return domain.ErrConcurrentModification
		}
		return err
	}

	return nil
}

func (r *Repository) GetJobPositionsByCompanyID(companyID int64) ([]*domain.JobPosition, error) {
	query := `
		SELECT
			id,
			company_id,
			title,
			description,
			slug,
			number_of_openings,
			status,
			visibility,
			workflow_id,
			source_workflow_id,
			current_stage_id,
			stage_assignments,
			salary_min,
			salary_max,
			budget_max,
			approved_budget_max,
			financial_approver,
			approved_at,
			closed_reason,
			closed_at,
			published_at,
			custom_fields_config,
			custom_fields_values,
			created_at,
			updated_at,
			version
		FROM job_positions
		WHERE company_id = $1
		ORDER BY created_at DESC
	`

	return r.queryJobPositions(query, companyID)
}

func (r *Repository) GetPublishedJobPositionsByCompanyID(companyID int64) ([]*domain.JobPosition, error) {
	query := `
		SELECT
			id,
			company_id,
			title,
			description,
			slug,
			number_of_openings,
			status,
			visibility,
			workflow_id,
			source_workflow_id,
			current_stage_id,
			stage_assignments,
			salary_min,
			salary_max,
			budget_max,
			approved_budget_max,
			financial_approver,
			approved_at,
			closed_reason,
			closed_at,
			published_at,
			custom_fields_config,
			custom_fields_values,
			created_at,
			updated_at,
			version
		FROM job_positions
		WHERE company_id = $1 AND status = 'PUBLISHED' AND visibility = 'PUBLIC'
		ORDER BY published_at DESC
	`

	return r.queryJobPositions(query, companyID)
}

func (r *Repository) queryJobPositions(query string, args ...any) ([]*domain.JobPosition, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	positions := make([]*domain.JobPosition, 0)
	for rows.Next() {
		position := &domain.JobPosition{}
		var configJSON, valuesJSON, assignmentsJSON []byte
		dst := []any{
			&position.ID,
			&position.CompanyID,
			&position.Title,
			&position.Description,
			&position.Slug,
			&position.NumberOfOpenings,
			&position.Status,
			&position.Visibility,
			&position.WorkflowID,
			&position.SourceWorkflowID,
			&position.CurrentStageID,
			&assignmentsJSON,
			&position.SalaryMin,
			&position.SalaryMax,
			&position.BudgetMax,
			&position.ApprovedBudgetMax,
			&position.FinancialApprover,
			&position.ApprovedAt,
			&position.ClosedReason,
			&position.ClosedAt,
			&position.PublishedAt,
			&configJSON,
			&valuesJSON,
			&position.CreatedAt,
			&position.UpdatedAt,
			&position.Version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		if err := unmarshalPositionJSON(position, configJSON, valuesJSON, assignmentsJSON); err != nil {
			return nil, err
		}
		positions = append(positions, position)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return positions, nil
}
