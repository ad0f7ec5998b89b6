package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/hireloop-dev/recruit-manager/backend/internal/domain"
)

func (r *Repository) CreateWorkflow(workflow *domain.Workflow) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	definitionsJSON, err := json.Marshal(workflow.FieldDefinitions)
	if err != nil {
		return err
	}

	workflowQuery := `
		INSERT INTO workflows (company_id, name, is_quick_mode, field_definitions)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version
	`
	params := []any{workflow.CompanyID, workflow.Name, workflow.IsQuickMode, definitionsJSON}
	if err := tx.QueryRowContext(ctx, workflowQuery, params...).Scan(&workflow.ID, &workflow.CreatedAt, &workflow.Version); err != nil {
		return err
	}

	stageQuery := `
		INSERT INTO workflow_stages (
			workflow_id, phase_id, name, sort_order, deadline_days, estimated_cost, validation_rules, field_visibility
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	for i := range workflow.Stages {
		stage := &workflow.Stages[i]

		rulesJSON, err := json.Marshal(stage.ValidationRules)
		if err != nil {
			return err
		}
		visibilityJSON, err := json.Marshal(stage.FieldVisibility)
		if err != nil {
			return err
		}

		stageParams := []any{
			workflow.ID,
			stage.PhaseID,
			stage.Name,
			stage.SortOrder,
			stage.DeadlineDays,
			stage.EstimatedCost,
			rulesJSON,
			visibilityJSON,
		}
		if err := tx.QueryRowContext(ctx, stageQuery, stageParams...).Scan(&stage.ID); err != nil {
			return err
		}
		stage.WorkflowID = workflow.ID
	}

	return tx.Commit()
}

func (r *Repository) GetWorkflowByID(id int64) (*domain.Workflow, error) {
	query := `
		SELECT
			w.company_id,
			w.name,
			w.is_quick_mode,
			w.field_definitions,
			w.created_at,
			w.version,
			s.id,
			s.phase_id,
			s.name,
			s.sort_order,
			s.deadline_days,
			s.estimated_cost,
			s.validation_rules,
			s.field_visibility
		FROM workflows w
		LEFT JOIN workflow_stages s ON w.id = s.workflow_id
		WHERE w.id = $1
		ORDER BY s.sort_order, s.id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workflow *domain.Workflow
	for rows.Next() {
		var row struct {
			CompanyID       int64
			Name            string
			IsQuickMode     bool
			DefinitionsJSON []byte
			CreatedAt       time.Time
			Version         int32

			StageID        sql.NullInt64
			PhaseID        sql.NullInt64
			StageName      sql.NullString
			SortOrder      sql.NullInt32
			DeadlineDays   *int32
			EstimatedCost  *int64
			RulesJSON      []byte
			VisibilityJSON []byte
		}

		dst := []any{
			&row.CompanyID,
			&row.Name,
			&row.IsQuickMode,
			&row.DefinitionsJSON,
			&row.CreatedAt,
			&row.Version,
			&row.StageID,
			&row.PhaseID,
			&row.StageName,
			&row.SortOrder,
			&row.DeadlineDays,
			&row.EstimatedCost,
			&row.RulesJSON,
			&row.VisibilityJSON,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if workflow == nil {
			workflow = &domain.Workflow{
				ID:          id,
				CompanyID:   row.CompanyID,
				Name:        row.Name,
				IsQuickMode: row.IsQuickMode,
				Stages:      make([]domain.WorkflowStage, 0),
				CreatedAt:   row.CreatedAt,
				Version:     row.Version,
			}
			if len(row.DefinitionsJSON) > 0 {
				if err := json.Unmarshal(row.DefinitionsJSON, &workflow.FieldDefinitions); err != nil {
					return nil, err
				}
			}
		}

		// StageID 为空说明这个工作流还没有配置任何阶段
		if !row.StageID.Valid {
			continue
		}

		stage := domain.WorkflowStage{
			ID:            row.StageID.Int64,
			WorkflowID:    id,
			PhaseID:       row.PhaseID.Int64,
			Name:          row.StageName.String,
			SortOrder:     row.SortOrder.Int32,
			DeadlineDays:  row.DeadlineDays,
			EstimatedCost: row.EstimatedCost,
		}
		if len(row.RulesJSON) > 0 {
			if err := json.Unmarshal(row.RulesJSON, &stage.ValidationRules); err != nil {
				return nil, err
			}
		}
		if len(row.VisibilityJSON) > 0 {
			if err := json.Unmarshal(row.VisibilityJSON, &stage.FieldVisibility); err != nil {
				return nil, err
			}
		}
		workflow.Stages = append(workflow.Stages, stage)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if workflow == nil {
		return nil, domain.ErrNotFound
	}

	return workflow, nil
}

func (r *Repository) GetAllWorkflowsByCompanyID(companyID int64) ([]*domain.Workflow, error) {
	query := `
		SELECT id, name, is_quick_mode, field_definitions, created_at, version
		FROM workflows
		WHERE company_id = $1
		ORDER BY id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workflows := make([]*domain.Workflow, 0)
	for rows.Next() {
		workflow := &domain.Workflow{CompanyID: companyID}
		var definitionsJSON []byte
		dst := []any{&workflow.ID, &workflow.Name, &workflow.IsQuickMode, &definitionsJSON, &workflow.CreatedAt, &workflow.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		if len(definitionsJSON) > 0 {
			if err := json.Unmarshal(definitionsJSON, &workflow.FieldDefinitions); err != nil {
				return nil, err
			}
		}
		workflows = append(workflows, workflow)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return workflows, nil
}

func (r *Repository) GetWorkflowStageByID(id int64) (*domain.WorkflowStage, error) {
	query := `
		SELECT workflow_id, phase_id, name, sort_order, deadline_days, estimated_cost, validation_rules, field_visibility
		FROM workflow_stages
		WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	stage := &domain.WorkflowStage{
		ID: id,
	}

	var rulesJSON, visibilityJSON []byte
	dst := []any{
		&stage.WorkflowID,
		&stage.PhaseID,
		&stage.Name,
		&stage.SortOrder,
		&stage.DeadlineDays,
		&stage.EstimatedCost,
		&rulesJSON,
		&visibilityJSON,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if len(rulesJSON) > 0 {
		if err := json.Unmarshal(rulesJSON, &stage.ValidationRules); err != nil {
			return nil, err
		}
	}
	if len(visibilityJSON) > 0 {
		if err := json.Unmarshal(visibilityJSON, &stage.FieldVisibility); err != nil {
			return nil, err
		}
	}

	return stage, nil
}
