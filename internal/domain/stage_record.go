package domain

import "time"

// StageRecord 记录岗位在某个阶段的停留情况，
// 不变量：同一个岗位同一时刻最多只有一条未完成（CompletedAt 为空）的记录，
// 该不变量由数据库上的部分唯一索引兜底，而不仅仅依赖应用层的调用顺序
type StageRecord struct {
	ID            int64      `json:"id"`
	JobPositionID int64      `json:"jobPositionID"`
	WorkflowID    int64      `json:"workflowID"`
	StageID       int64      `json:"stageID"`
	PhaseID       int64      `json:"phaseID"`
	StartedAt     time.Time  `json:"startedAt"`
	CompletedAt   *time.Time `json:"completedAt"`
	Deadline      *time.Time `json:"deadline"`
	EstimatedCost *int64     `json:"estimatedCost"`
	ActualCost    *int64     `json:"actualCost"`
	Comments      string     `json:"comments"`
	CreatedAt     time.Time  `json:"createdAt"`
	Version       int32      `json:"-"`
}

func (r *StageRecord) IsOpen() bool {
	return r.CompletedAt == nil
}

// Complete 关闭这条记录并附上备注，重复关闭时保留第一次的完成时间
func (r *StageRecord) Complete(now time.Time, comment string) {
	if r.CompletedAt == nil {
		r.CompletedAt = &now
	}
	if comment != "" {
		r.Comments = comment
	}
}
