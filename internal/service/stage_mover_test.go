package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop-dev/recruit-manager/backend/internal/domain"
)

type fakePositionRepo struct {
	position  *domain.JobPosition
	updateErr error
	updated   bool
}

func (f *fakePositionRepo) GetJobPositionByID(id int64) (*domain.JobPosition, error) {
	if f.position == nil || f.position.ID != id {
		return nil, domain.ErrNotFound
	}
	return f.position, nil
}

func (f *fakePositionRepo) UpdateJobPosition(position *domain.JobPosition) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = true
	return nil
}

type fakeStageRepo struct {
	stages map[int64]*domain.WorkflowStage
}

func (f *fakeStageRepo) GetWorkflowStageByID(id int64) (*domain.WorkflowStage, error) {
	stage, ok := f.stages[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return stage, nil
}

type fakeRecordRepo struct {
	open      *domain.StageRecord
	completed []*domain.StageRecord
	created   []*domain.StageRecord
	createErr error
}

func (f *fakeRecordRepo) GetOpenStageRecordByPositionID(positionID int64) (*domain.StageRecord, error) {
	if f.open == nil {
		return nil, domain.ErrNotFound
	}
	return f.open, nil
}

func (f *fakeRecordRepo) CompleteStageRecord(record *domain.StageRecord) error {
	f.completed = append(f.completed, record)
	return nil
}

func (f *fakeRecordRepo) CreateStageRecord(record *domain.StageRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	record.ID = int64(len(f.created) + 100)
	f.created = append(f.created, record)
	return nil
}

type fakeLogRepo struct {
	entries   []*domain.ActivityLogEntry
	createErr error
}

func (f *fakeLogRepo) CreateActivityLog(entry *domain.ActivityLogEntry) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.entries = append(f.entries, entry)
	return nil
}

func workflowID(v int64) *int64 {
	return &v
}

func newTestMover(positions *fakePositionRepo, stages *fakeStageRepo, records *fakeRecordRepo, logs *fakeLogRepo) *StageMover {
	return NewStageMover(positions, stages, records, logs, NewSimpleRuleEvaluator())
}

func TestMoveToStageClosesOldAndOpensNew(t *testing.T) {
	deadlineDays := int32(5)
	estimatedCost := int64(2000)

	positions := &fakePositionRepo{position: &domain.JobPosition{ID: 1, WorkflowID: workflowID(10), Status: domain.StatusDraft}}
	stages := &fakeStageRepo{stages: map[int64]*domain.WorkflowStage{
		21: {ID: 21, WorkflowID: 10, PhaseID: 2, Name: "财务审批", DeadlineDays: &deadlineDays, EstimatedCost: &estimatedCost},
	}}
	records := &fakeRecordRepo{open: &domain.StageRecord{ID: 50, JobPositionID: 1, StageID: 20, StartedAt: time.Now().Add(-time.Hour)}}
	logs := &fakeLogRepo{}

	record, err := newTestMover(positions, stages, records, logs).MoveToStage(MoveStageInput{
		PositionID:    1,
		TargetStageID: 21,
		Comment:       "材料齐全",
		ActorID:       42,
	})

	require.NoError(t, err)

	// 旧记录被关闭并带上备注
	require.Len(t, records.completed, 1)
	assert.NotNil(t, records.completed[0].CompletedAt)
	assert.Equal(t, "材料齐全", records.completed[0].Comments)

	// 新记录承接阶段上的截止天数和预估成本
	require.Len(t, records.created, 1)
	assert.Equal(t, int64(21), record.StageID)
	require.NotNil(t, record.Deadline)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 5), *record.Deadline, time.Minute)
	require.NotNil(t, record.EstimatedCost)
	assert.Equal(t, int64(2000), *record.EstimatedCost)

	// 聚合上的当前阶段被更新并保存
	assert.True(t, positions.updated)
	require.NotNil(t, positions.position.CurrentStageID)
	assert.Equal(t, int64(21), *positions.position.CurrentStageID)

	// 审计日志记录了新旧阶段
	require.Len(t, logs.entries, 1)
	assert.Equal(t, domain.ActivityStageMoved, logs.entries[0].ActivityType)
	assert.Equal(t, int64(42), logs.entries[0].ActorID)
	assert.Equal(t, int64(21), logs.entries[0].Metadata["newStageID"])
	assert.Equal(t, int64(20), logs.entries[0].Metadata["previousStageID"])
}

func TestMoveToStageFirstMoveHasNoOpenRecord(t *testing.T) {
	positions := &fakePositionRepo{position: &domain.JobPosition{ID: 1, WorkflowID: workflowID(10)}}
	stages := &fakeStageRepo{stages: map[int64]*domain.WorkflowStage{
		20: {ID: 20, WorkflowID: 10, Name: "草稿评审"},
	}}
	records := &fakeRecordRepo{}
	logs := &fakeLogRepo{}

	record, err := newTestMover(positions, stages, records, logs).MoveToStage(MoveStageInput{PositionID: 1, TargetStageID: 20})

	require.NoError(t, err)
	assert.Empty(t, records.completed)
	assert.Equal(t, int64(20), record.StageID)
	require.Len(t, logs.entries, 1)
	assert.NotContains(t, logs.entries[0].Metadata, "previousStageID")
}

func TestMoveToStageRequiresWorkflow(t *testing.T) {
	positions := &fakePositionRepo{position: &domain.JobPosition{ID: 1}}
	records := &fakeRecordRepo{}

	_, err := newTestMover(positions, &fakeStageRepo{}, records, &fakeLogRepo{}).MoveToStage(MoveStageInput{PositionID: 1, TargetStageID: 20})

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Violations, "workflowID")
	assert.Empty(t, records.created)
}

func TestMoveToStageUnknownStage(t *testing.T) {
	positions := &fakePositionRepo{position: &domain.JobPosition{ID: 1, WorkflowID: workflowID(10)}}

	_, err := newTestMover(positions, &fakeStageRepo{}, &fakeRecordRepo{}, &fakeLogRepo{}).MoveToStage(MoveStageInput{PositionID: 1, TargetStageID: 999})

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Violations, "targetStageID")
}

func TestMoveToStageRejectsCrossWorkflow(t *testing.T) {
	positions := &fakePositionRepo{position: &domain.JobPosition{ID: 1, WorkflowID: workflowID(10)}}
	stages := &fakeStageRepo{stages: map[int64]*domain.WorkflowStage{
		// 阶段存在但属于另一个工作流
		30: {ID: 30, WorkflowID: 99, Name: "别人的阶段"},
	}}
	records := &fakeRecordRepo{}

	_, err := newTestMover(positions, stages, records, &fakeLogRepo{}).MoveToStage(MoveStageInput{PositionID: 1, TargetStageID: 30})

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Violations, "targetStageID")
	assert.Empty(t, records.created)
}

func TestMoveToStageEvaluatesRules(t *testing.T) {
	positions := &fakePositionRepo{position: &domain.JobPosition{
		ID:         1,
		WorkflowID: workflowID(10),
		CustomFieldsValues: map[string]any{
			"education": "小学",
		},
	}}
	stages := &fakeStageRepo{stages: map[int64]*domain.WorkflowStage{
		21: {
			ID: 21, WorkflowID: 10, Name: "财务审批",
			ValidationRules: []domain.FieldRule{
				{FieldKey: "years_experience", RuleType: "required"},
				{FieldKey: "education", RuleType: "one_of", Param: []string{"本科", "硕士"}},
			},
		},
	}}
	records := &fakeRecordRepo{open: &domain.StageRecord{ID: 50, JobPositionID: 1, StageID: 20}}

	_, err := newTestMover(positions, stages, records, &fakeLogRepo{}).MoveToStage(MoveStageInput{PositionID: 1, TargetStageID: 21})

	// 两个字段的问题要一起返回
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Violations, 2)

	// 校验失败时什么都没有发生
	assert.Empty(t, records.completed)
	assert.Empty(t, records.created)
	assert.False(t, positions.updated)
}

func TestMoveToStageAuditFailureDoesNotBlock(t *testing.T) {
	positions := &fakePositionRepo{position: &domain.JobPosition{ID: 1, WorkflowID: workflowID(10)}}
	stages := &fakeStageRepo{stages: map[int64]*domain.WorkflowStage{
		20: {ID: 20, WorkflowID: 10, Name: "草稿评审"},
	}}
	logs := &fakeLogRepo{createErr: errors.New("日志库挂了")}

	record, err := newTestMover(positions, stages, &fakeRecordRepo{}, logs).MoveToStage(MoveStageInput{PositionID: 1, TargetStageID: 20})

	// 审计失败不影响流转结果
	require.NoError(t, err)
	assert.NotNil(t, record)
	assert.True(t, positions.updated)
}

func TestMoveToStageCreateRecordConflict(t *testing.T) {
	positions := &fakePositionRepo{position: &domain.JobPosition{ID: 1, WorkflowID: workflowID(10)}}
	stages := &fakeStageRepo{stages: map[int64]*domain.WorkflowStage{
		20: {ID: 20, WorkflowID: 10, Name: "草稿评审"},
	}}
	records := &fakeRecordRepo{createErr: domain.ErrConcurrentModification}

	_, err := newTestMover(positions, stages, records, &fakeLogRepo{}).MoveToStage(MoveStageInput{PositionID: 1, TargetStageID: 20})

	require.ErrorIs(t, err, domain.ErrConcurrentModification)
	assert.False(t, positions.updated)
}
