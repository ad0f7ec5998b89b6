package handler

import (
	"net/http"

	"github.com/hireloop-dev/recruit-manager/backend/internal/domain"
	"github.com/hireloop-dev/recruit-manager/backend/internal/service"
)

func (h *Handler) AssignUsersToStage(w http.ResponseWriter, r *http.Request) {
	position := r.Context().Value(JobPositionCtx).(*domain.JobPosition)

	var req struct {
		StageID int64   `json:"stageID" validate:"required"`
		UserIDs []int64 `json:"userIDs"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := position.AssignUsersToStage(req.StageID, req.UserIDs); err != nil {
		h.domainError(w, r, err)
		return
	}

	if err := h.repository.UpdateJobPosition(position); err != nil {
		h.domainError(w, r, err)
		return
	}

	h.appendActivityLog(r, position, domain.ActivityEdited, "阶段负责人已调整", map[string]any{
		"stageID": req.StageID,
		"userIDs": req.UserIDs,
	})

	h.successResponse(w, r, "设置阶段负责人成功", position)
}

func (h *Handler) MoveJobPositionStage(w http.ResponseWriter, r *http.Request) {
	position := r.Context().Value(JobPositionCtx).(*domain.JobPosition)

	var req struct {
		TargetStageID int64  `json:"targetStageID" validate:"required"`
		Comment       string `json:"comment"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	actorID, err := h.actorID(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	record, err := h.stageMover.MoveToStage(service.MoveStageInput{
		PositionID:    position.ID,
		TargetStageID: req.TargetStageID,
		Comment:       req.Comment,
		ActorID:       actorID,
	})
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.publishPositionEvent(domain.EventStageMoved, position, map[string]any{
		"stageID":  record.StageID,
		"recordID": record.ID,
	})

	h.successResponse(w, r, "阶段流转成功", record)
}

func (h *Handler) GetStageRecords(w http.ResponseWriter, r *http.Request) {
	position := r.Context().Value(JobPositionCtx).(*domain.JobPosition)

	records, err := h.repository.GetStageRecordsByPositionID(position.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取阶段记录成功", records)
}

func (h *Handler) GetActivityLogs(w http.ResponseWriter, r *http.Request) {
	position := r.Context().Value(JobPositionCtx).(*domain.JobPosition)

	logs, err := h.repository.GetActivityLogsByPositionID(position.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取操作日志成功", logs)
}
