package handler

import (
	"net/http"

	"github.com/hireloop-dev/recruit-manager/backend/internal/domain"
)

// GetEnums 把状态机和各类枚举的元信息暴露给前端，
// 前端据此渲染可用的操作按钮和禁用的表单项，避免把转换表硬编码两份
func (h *Handler) GetEnums(w http.ResponseWriter, r *http.Request) {
	type statusInfo struct {
		Status         domain.Status   `json:"status"`
		IsTerminal     bool            `json:"isTerminal"`
		AllowedTargets []domain.Status `json:"allowedTargets"`
		LockedFields   []string        `json:"lockedFields"`
	}

	statuses := make([]statusInfo, 0, len(domain.AllStatuses()))
	for _, status := range domain.AllStatuses() {
		statuses = append(statuses, statusInfo{
			Status:         status,
			IsTerminal:     status.IsTerminal(),
			AllowedTargets: status.AllowedTargets(),
			LockedFields:   status.LockedFields(),
		})
	}

	h.successResponse(w, r, "获取枚举元信息成功", map[string]any{
		"statuses":   statuses,
		"fieldTypes": domain.AllFieldTypes(),
		"visibilities": []domain.Visibility{
			domain.VisibilityHidden,
			domain.VisibilityInternal,
			domain.VisibilityPublic,
		},
		"activityTypes": []domain.ActivityType{
			domain.ActivityCreated,
			domain.ActivityEdited,
			domain.ActivityStageMoved,
			domain.ActivityStatusChanged,
			domain.ActivityCommentAdded,
		},
	})
}
