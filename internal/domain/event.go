package domain

// PositionEvent 是发布到消息队列的岗位生命周期事件，
// 供下游系统（站内信、统计等）消费，投递是尽力而为的
type PositionEvent struct {
	Type       string `json:"type"`
	PositionID int64  `json:"positionID"`
	CompanyID  int64  `json:"companyID"`
	Data       any    `json:"data,omitempty"`
}

const (
	EventPositionPublished = "position_published"
	EventPositionClosed    = "position_closed"
	EventPositionArchived  = "position_archived"
	EventStageMoved        = "stage_moved"
)
