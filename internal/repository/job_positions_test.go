package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop-dev/recruit-manager/backend/internal/config"
	"github.com/hireloop-dev/recruit-manager/backend/internal/domain"
)

func newTestRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.Database.QueryTimeout = 5
	cfg.Database.TransactionTimeout = 10

	return NewRepository(cfg, db), mock
}

func TestCreateJobPosition(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery("INSERT INTO job_positions").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at", "version"}).
			AddRow(int64(7), time.Now(), time.Now(), int32(1)))

	position := &domain.JobPosition{
		CompanyID:        1,
		Title:            "后端开发工程师",
		NumberOfOpenings: 1,
		Status:           domain.StatusDraft,
		Visibility:       domain.VisibilityHidden,
	}
	require.NoError(t, repo.CreateJobPosition(position))

	assert.Equal(t, int64(7), position.ID)
	assert.Equal(t, int32(1), position.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetJobPositionByIDNotFound(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery("SELECT(.|\n)+FROM job_positions").
		WithArgs(int64(999)).
		WillReturnRows(sqlmock.NewRows([]string{"company_id"}))

	_, err := repo.GetJobPositionByID(999)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateJobPositionVersionConflict(t *testing.T) {
	repo, mock := newTestRepository(t)

	// version 不匹配时 UPDATE 不命中任何行
	mock.ExpectQuery("UPDATE job_positions").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at", "version"}))

	position := &domain.JobPosition{
		ID:      7,
		Title:   "后端开发工程师",
		Status:  domain.StatusDraft,
		Version: 3,
	}
	err := repo.UpdateJobPosition(position)

	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateJobPositionBumpsVersion(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery("UPDATE job_positions").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at", "version"}).
			AddRow(time.Now(), int32(4)))

	position := &domain.JobPosition{
		ID:      7,
		Title:   "后端开发工程师",
		Status:  domain.StatusDraft,
		Version: 3,
	}
	require.NoError(t, repo.UpdateJobPosition(position))

	assert.Equal(t, int32(4), position.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPublishedJobPositionsByCompanyID(t *testing.T) {
	repo, mock := newTestRepository(t)

	columns := []string{
		"id", "company_id", "title", "description", "slug", "number_of_openings",
		"status", "visibility", "workflow_id", "source_workflow_id", "current_stage_id",
		"stage_assignments", "salary_min", "salary_max", "budget_max", "approved_budget_max",
		"financial_approver", "approved_at", "closed_reason", "closed_at", "published_at",
		"custom_fields_config", "custom_fields_values", "created_at", "updated_at", "version",
	}
	now := time.Now()
	mock.ExpectQuery("SELECT(.|\n)+FROM job_positions(.|\n)+status = 'PUBLISHED'").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			int64(7), int64(1), "后端开发工程师", "负责服务端开发", "backend-engineer-a1b2", int32(2),
			"PUBLISHED", "PUBLIC", nil, nil, nil,
			[]byte(`{}`), int64(18000), int64(30000), int64(32000), int64(32000),
			int64(42), now, nil, nil, now,
			[]byte(`[{"fieldKey":"education","label":"学历要求","fieldType":"TEXT","isRequired":false,"candidateVisible":true,"sortOrder":1,"isActive":true}]`),
			[]byte(`{"education":"本科"}`), now, now, int32(2),
		))

	positions, err := repo.GetPublishedJobPositionsByCompanyID(1)

	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, domain.StatusPublished, positions[0].Status)
	require.Len(t, positions[0].CustomFieldsConfig, 1)
	assert.Equal(t, "education", positions[0].CustomFieldsConfig[0].FieldKey)
	assert.Equal(t, "本科", positions[0].CustomFieldsValues["education"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
