package domain

import "time"

type ActivityType string

const (
	ActivityCreated       ActivityType = "CREATED"
	ActivityEdited        ActivityType = "EDITED"
	ActivityStageMoved    ActivityType = "STAGE_MOVED"
	ActivityStatusChanged ActivityType = "STATUS_CHANGED"
	ActivityCommentAdded  ActivityType = "COMMENT_ADDED"
)

// ActivityLogEntry 是岗位的审计记录，只追加，从不修改和删除
type ActivityLogEntry struct {
	ID            int64          `json:"id"`
	JobPositionID int64          `json:"jobPositionID"`
	ActivityType  ActivityType   `json:"activityType"`
	Description   string         `json:"description"`
	ActorID       int64          `json:"actorID"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}
