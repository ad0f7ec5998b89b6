package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hireloop-dev/recruit-manager/backend/internal/domain"
)

// 编排器只依赖这几个窄接口，由 repository.Repository 实现，
// 测试时可以用假实现替换
type PositionRepository interface {
	GetJobPositionByID(id int64) (*domain.JobPosition, error)
	UpdateJobPosition(position *domain.JobPosition) error
}

type StageRepository interface {
	GetWorkflowStageByID(id int64) (*domain.WorkflowStage, error)
}

type StageRecordRepository interface {
	GetOpenStageRecordByPositionID(positionID int64) (*domain.StageRecord, error)
	CompleteStageRecord(record *domain.StageRecord) error
	CreateStageRecord(record *domain.StageRecord) error
}

type ActivityLogRepository interface {
	CreateActivityLog(entry *domain.ActivityLogEntry) error
}

type StageMover struct {
	positions PositionRepository
	stages    StageRepository
	records   StageRecordRepository
	logs      ActivityLogRepository
	evaluator RuleEvaluator
}

func NewStageMover(
	positions PositionRepository,
	stages StageRepository,
	records StageRecordRepository,
	logs ActivityLogRepository,
	evaluator RuleEvaluator,
) *StageMover {
	return &StageMover{
		positions: positions,
		stages:    stages,
		records:   records,
		logs:      logs,
		evaluator: evaluator,
	}
}

type MoveStageInput struct {
	PositionID    int64
	TargetStageID int64
	Comment       string
	ActorID       int64
}

// MoveToStage 把岗位推进到目标阶段：
// 校验全部通过之后，先关闭当前未完成的阶段记录，再创建新记录，最后更新聚合上的当前阶段。
// 审计日志写入失败只记录日志，不回滚阶段流转本身
func (m *StageMover) MoveToStage(in MoveStageInput) (*domain.StageRecord, error) {
	position, err := m.positions.GetJobPositionByID(in.PositionID)
	if err != nil {
		return nil, err
	}

	// 没有绑定工作流的岗位谈不上阶段流转
	if position.WorkflowID == nil {
		vErr := domain.NewValidationError()
		vErr.Add("workflowID", "岗位没有绑定工作流，无法进行阶段流转")
		return nil, vErr
	}

	targetStage, err := m.stages.GetWorkflowStageByID(in.TargetStageID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			vErr := domain.NewValidationError()
			vErr.Add("targetStageID", fmt.Sprintf("目标阶段 %d 不存在", in.TargetStageID))
			return nil, vErr
		}
		return nil, err
	}

	// 两个 ID 各自合法但分属不同工作流时同样拒绝，防止跨工作流流转
	if targetStage.WorkflowID != *position.WorkflowID {
		vErr := domain.NewValidationError()
		vErr.Add("targetStageID", fmt.Sprintf("目标阶段 %d 不属于岗位绑定的工作流", in.TargetStageID))
		return nil, vErr
	}

	if len(targetStage.ValidationRules) > 0 {
		violations := m.evaluator.Evaluate(targetStage.ValidationRules, position.CustomFieldsValues)
		if len(violations) > 0 {
			vErr := domain.NewValidationError()
			for field, messages := range violations {
				for _, message := range messages {
					vErr.Add(field, message)
				}
			}
			return nil, vErr
		}
	}

	now := time.Now()

	// 关闭当前未完成的阶段记录（如果有）
	var previousStageID *int64
	currentRecord, err := m.records.GetOpenStageRecordByPositionID(in.PositionID)
	switch {
	case err == nil:
		stageID := currentRecord.StageID
		previousStageID = &stageID
		currentRecord.Complete(now, in.Comment)
		if err := m.records.CompleteStageRecord(currentRecord); err != nil {
			return nil, err
		}
	case errors.Is(err, domain.ErrNotFound):
		// 岗位第一次进入阶段，没有需要关闭的记录
	default:
		return nil, err
	}

	newRecord := &domain.StageRecord{
		JobPositionID: in.PositionID,
		WorkflowID:    targetStage.WorkflowID,
		StageID:       targetStage.ID,
		PhaseID:       targetStage.PhaseID,
		StartedAt:     now,
		EstimatedCost: targetStage.EstimatedCost,
	}
	if targetStage.DeadlineDays != nil {
		deadline := now.AddDate(0, 0, int(*targetStage.DeadlineDays))
		newRecord.Deadline = &deadline
	}
	if err := m.records.CreateStageRecord(newRecord); err != nil {
		return nil, err
	}

	position.SetCurrentStage(targetStage.ID)
	if err := m.positions.UpdateJobPosition(position); err != nil {
		return nil, err
	}

	entry := &domain.ActivityLogEntry{
		JobPositionID: in.PositionID,
		ActivityType:  domain.ActivityStageMoved,
		Description:   fmt.Sprintf("岗位移动到阶段「%s」", targetStage.Name),
		ActorID:       in.ActorID,
		Metadata: map[string]any{
			"newStageID":   targetStage.ID,
			"newStageName": targetStage.Name,
		},
	}
	if previousStageID != nil {
		entry.Metadata["previousStageID"] = *previousStageID
	}
	if err := m.logs.CreateActivityLog(entry); err != nil {
		// 流转本身是主效果，审计日志是尽力而为
		slog.Error("写入阶段流转审计日志失败", "positionID", in.PositionID, "stageID", targetStage.ID, "error", err)
	}

	return newRecord, nil
}
