package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hireloop-dev/recruit-manager/backend/internal/domain"
	"github.com/hireloop-dev/recruit-manager/backend/internal/utils"
)

func (h *Handler) CreateJobPosition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CompanyID        int64  `json:"companyID" validate:"required"`
		Title            string `json:"title" validate:"required"`
		Description      string `json:"description"`
		NumberOfOpenings int32  `json:"numberOfOpenings" validate:"omitempty,min=1"`
		WorkflowID       *int64 `json:"workflowID"`
		SalaryMin        *int64 `json:"salaryMin"`
		SalaryMax        *int64 `json:"salaryMax"`
		BudgetMax        *int64 `json:"budgetMax"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.NumberOfOpenings == 0 {
		req.NumberOfOpenings = 1
	}

	position := &domain.JobPosition{
		CompanyID:        req.CompanyID,
		Title:            req.Title,
		Description:      req.Description,
		NumberOfOpenings: req.NumberOfOpenings,
		Status:           domain.StatusDraft,
		Visibility:       domain.VisibilityHidden,
		WorkflowID:       req.WorkflowID,
		SalaryMin:        req.SalaryMin,
		SalaryMax:        req.SalaryMax,
		BudgetMax:        req.BudgetMax,
	}

	// 绑定了工作流时，把模板上的字段定义快照到岗位上
	if req.WorkflowID != nil {
		workflow, err := h.repository.GetWorkflowByID(*req.WorkflowID)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				h.errorResponse(w, r, "工作流不存在")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}
		if err := position.CopyCustomFieldsFromWorkflow(workflow.FieldDefinitions, workflow.ID); err != nil {
			h.domainError(w, r, err)
			return
		}
	}

	if err := h.repository.CreateJobPosition(position); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "job_positions_workflow_id_fkey":
				h.errorResponse(w, r, "工作流不存在")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.appendActivityLog(r, position, domain.ActivityCreated, "岗位已创建", nil)

	h.successResponse(w, r, "创建岗位成功", position)
}

func (h *Handler) GetAllJobPositions(w http.ResponseWriter, r *http.Request) {
	companyIDParam := r.URL.Query().Get("companyID")
	companyID, err := strconv.ParseInt(companyIDParam, 10, 64)
	if err != nil {
		h.errorResponse(w, r, "公司ID无效")
		return
	}

	positions, err := h.repository.GetJobPositionsByCompanyID(companyID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取岗位列表成功", positions)
}

func (h *Handler) GetJobPosition(w http.ResponseWriter, r *http.Request) {
	position := r.Context().Value(JobPositionCtx).(*domain.JobPosition)

	h.successResponse(w, r, "获取岗位成功", position)
}

func (h *Handler) UpdateJobPosition(w http.ResponseWriter, r *http.Request) {
	position := r.Context().Value(JobPositionCtx).(*domain.JobPosition)

	var req struct {
		Title            *string `json:"title"`
		Description      *string `json:"description"`
		NumberOfOpenings *int32  `json:"numberOfOpenings" validate:"omitempty,min=1"`
		SalaryMin        *int64  `json:"salaryMin"`
		SalaryMax        *int64  `json:"salaryMax"`
		BudgetMax        *int64  `json:"budgetMax"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 先做完所有锁定检查和校验，全部通过后才落库，不允许部分生效
	if req.Title != nil || req.Description != nil || req.NumberOfOpenings != nil {
		if err := position.UpdateBasicInfo(req.Title, req.Description, req.NumberOfOpenings); err != nil {
			h.domainError(w, r, err)
			return
		}
	}
	if req.SalaryMin != nil || req.SalaryMax != nil {
		salaryMin := position.SalaryMin
		salaryMax := position.SalaryMax
		if req.SalaryMin != nil {
			salaryMin = req.SalaryMin
		}
		if req.SalaryMax != nil {
			salaryMax = req.SalaryMax
		}
		if err := position.SetSalaryRange(salaryMin, salaryMax); err != nil {
			h.domainError(w, r, err)
			return
		}
	}
	if req.BudgetMax != nil {
		if err := position.SetBudgetMax(req.BudgetMax); err != nil {
			h.domainError(w, r, err)
			return
		}
	}

	if err := h.repository.UpdateJobPosition(position); err != nil {
		h.domainError(w, r, err)
		return
	}

	h.appendActivityLog(r, position, domain.ActivityEdited, "岗位信息已更新", nil)
	h.invalidatePublishedPositionsCache(position.CompanyID)

	h.successResponse(w, r, "更新岗位成功", position)
}

func (h *Handler) CloneJobPosition(w http.ResponseWriter, r *http.Request) {
	position := r.Context().Value(JobPositionCtx).(*domain.JobPosition)

	cloned := position.Clone()
	if err := h.repository.CreateJobPosition(cloned); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.appendActivityLog(r, cloned, domain.ActivityCreated, "岗位已从现有岗位复制创建", map[string]any{
		"sourcePositionID": position.ID,
	})

	h.successResponse(w, r, "复制岗位成功", cloned)
}

// appendActivityLog 追加一条审计日志，失败只记日志不影响请求
func (h *Handler) appendActivityLog(r *http.Request, position *domain.JobPosition, activityType domain.ActivityType, description string, metadata map[string]any) {
	actorID, err := h.actorID(r)
	if err != nil {
		actorID = 0
	}

	entry := &domain.ActivityLogEntry{
		JobPositionID: position.ID,
		ActivityType:  activityType,
		Description:   description,
		ActorID:       actorID,
		Metadata:      metadata,
	}
	if err := h.repository.CreateActivityLog(entry); err != nil {
		slog.Error("写入审计日志失败", "positionID", position.ID, "activityType", activityType, "error", err)
	}
}

// finishStatusTransition 统一处理状态转换成功之后的落库、审计和缓存失效
func (h *Handler) finishStatusTransition(w http.ResponseWriter, r *http.Request, position *domain.JobPosition, oldStatus domain.Status, message string, eventType string) {
	if err := h.repository.UpdateJobPosition(position); err != nil {
		h.domainError(w, r, err)
		return
	}

	h.appendActivityLog(r, position, domain.ActivityStatusChanged, message, map[string]any{
		"oldStatus": oldStatus,
		"newStatus": position.Status,
	})
	h.invalidatePublishedPositionsCache(position.CompanyID)
	if eventType != "" {
		h.publishPositionEvent(eventType, position, map[string]any{
			"oldStatus": oldStatus,
			"newStatus": position.Status,
		})
	}

	h.successResponse(w, r, message, position)
}

func (h *Handler) RequestApproval(w http.ResponseWriter, r *http.Request) {
	position := r.Context().Value(JobPositionCtx).(*domain.JobPosition)
	oldStatus := position.Status

	if err := position.RequestApproval(); err != nil {
		h.domainError(w, r, err)
		return
	}

	h.finishStatusTransition(w, r, position, oldStatus, "已提交审批", "")
}

func (h *Handler) ApproveJobPosition(w http.ResponseWriter, r *http.Request) {
	position := r.Context().Value(JobPositionCtx).(*domain.JobPosition)
	oldStatus := position.Status

	actorID, err := h.actorID(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := position.Approve(actorID); err != nil {
		h.domainError(w, r, err)
		return
	}

	h.finishStatusTransition(w, r, position, oldStatus, "审批通过", "")
}

func (h *Handler) RejectJobPosition(w http.ResponseWriter, r *http.Request) {
	position := r.Context().Value(JobPositionCtx).(*domain.JobPosition)
	oldStatus := position.Status

	var req struct {
		Reason string `json:"reason" validate:"required"`
	}
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := position.Reject(req.Reason); err != nil {
		h.domainError(w, r, err)
		return
	}

	h.finishStatusTransition(w, r, position, oldStatus, "审批已驳回", "")
}

func (h *Handler) PublishJobPosition(w http.ResponseWriter, r *http.Request) {
	position := r.Context().Value(JobPositionCtx).(*domain.JobPosition)
	oldStatus := position.Status

	if err := position.Publish(); err != nil {
		h.domainError(w, r, err)
		return
	}

	// 第一次发布时生成对外的 URL slug
	if position.Slug == "" {
		position.Slug = utils.GenerateSlugFromTitle(position.Title)
	}

	h.finishStatusTransition(w, r, position, oldStatus, "岗位已发布", domain.EventPositionPublished)
}

func (h *Handler) PutJobPositionOnHold(w http.ResponseWriter, r *http.Request) {
	position := r.Context().Value(JobPositionCtx).(*domain.JobPosition)
	oldStatus := position.Status

	if err := position.PutOnHold(); err != nil {
		h.domainError(w, r, err)
		return
	}

	h.finishStatusTransition(w, r, position, oldStatus, "岗位已暂停", "")
}

func (h *Handler) ResumeJobPosition(w http.ResponseWriter, r *http.Request) {
	position := r.Context().Value(JobPositionCtx).(*domain.JobPosition)
	oldStatus := position.Status

	if err := position.Resume(); err != nil {
		h.domainError(w, r, err)
		return
	}

	h.finishStatusTransition(w, r, position, oldStatus, "岗位已恢复发布", domain.EventPositionPublished)
}

func (h *Handler) CloseJobPosition(w http.ResponseWriter, r *http.Request) {
	position := r.Context().Value(JobPositionCtx).(*domain.JobPosition)
	oldStatus := position.Status

	var req struct {
		Reason string `json:"reason" validate:"required"`
	}
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := position.Close(req.Reason); err != nil {
		h.domainError(w, r, err)
		return
	}

	h.finishStatusTransition(w, r, position, oldStatus, "岗位已关闭", domain.EventPositionClosed)
}

func (h *Handler) ArchiveJobPosition(w http.ResponseWriter, r *http.Request) {
	position := r.Context().Value(JobPositionCtx).(*domain.JobPosition)
	oldStatus := position.Status

	if err := position.Archive(); err != nil {
		h.domainError(w, r, err)
		return
	}

	h.finishStatusTransition(w, r, position, oldStatus, "岗位已归档", domain.EventPositionArchived)
}

func (h *Handler) RevertJobPositionToDraft(w http.ResponseWriter, r *http.Request) {
	position := r.Context().Value(JobPositionCtx).(*domain.JobPosition)
	oldStatus := position.Status

	if err := position.RevertToDraft(); err != nil {
		h.domainError(w, r, err)
		return
	}

	h.finishStatusTransition(w, r, position, oldStatus, "岗位已退回草稿", "")
}

func (h *Handler) WithdrawApprovalRequest(w http.ResponseWriter, r *http.Request) {
	position := r.Context().Value(JobPositionCtx).(*domain.JobPosition)
	oldStatus := position.Status

	if err := position.WithdrawApprovalRequest(); err != nil {
		h.domainError(w, r, err)
		return
	}

	h.finishStatusTransition(w, r, position, oldStatus, "审批申请已撤回", "")
}

func (h *Handler) UpdateCustomFieldValue(w http.ResponseWriter, r *http.Request) {
	position := r.Context().Value(JobPositionCtx).(*domain.JobPosition)
	fieldKey := chi.URLParam(r, "fieldKey")

	var req struct {
		Value any `json:"value"`
	}
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := position.UpdateCustomFieldValue(fieldKey, req.Value); err != nil {
		h.domainError(w, r, err)
		return
	}

	if err := h.repository.UpdateJobPosition(position); err != nil {
		h.domainError(w, r, err)
		return
	}

	h.appendActivityLog(r, position, domain.ActivityEdited, "自定义字段值已更新", map[string]any{
		"fieldKey": fieldKey,
	})
	// 已发布岗位的字段值仍可修改，列表缓存要跟着失效
	h.invalidatePublishedPositionsCache(position.CompanyID)

	h.successResponse(w, r, "更新自定义字段成功", position)
}

func (h *Handler) ToggleCustomFieldActive(w http.ResponseWriter, r *http.Request) {
	position := r.Context().Value(JobPositionCtx).(*domain.JobPosition)
	fieldKey := chi.URLParam(r, "fieldKey")

	var req struct {
		IsActive *bool `json:"isActive" validate:"required"`
	}
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := position.ToggleCustomFieldActive(fieldKey, *req.IsActive); err != nil {
		h.domainError(w, r, err)
		return
	}

	if err := h.repository.UpdateJobPosition(position); err != nil {
		h.domainError(w, r, err)
		return
	}

	h.appendActivityLog(r, position, domain.ActivityEdited, "自定义字段启用状态已调整", map[string]any{
		"fieldKey": fieldKey,
		"isActive": *req.IsActive,
	})

	h.successResponse(w, r, "调整自定义字段成功", position)
}

func (h *Handler) GetCandidateVisibleFields(w http.ResponseWriter, r *http.Request) {
	position := r.Context().Value(JobPositionCtx).(*domain.JobPosition)

	var currentStage *domain.WorkflowStage
	if position.CurrentStageID != nil {
		stage, err := h.repository.GetWorkflowStageByID(*position.CurrentStageID)
		switch {
		case err == nil:
			currentStage = stage
		case errors.Is(err, domain.ErrNotFound):
			// 阶段配置被删除时按没有覆盖处理
		default:
			h.internalServerError(w, r, err)
			return
		}
	}

	fields := position.GetVisibleCustomFieldsForCandidate(currentStage)

	h.successResponse(w, r, "获取候选人可见字段成功", fields)
}

func (h *Handler) GetPublishedJobPositions(w http.ResponseWriter, r *http.Request) {
	companyIDParam := chi.URLParam(r, "companyID")
	companyID, err := strconv.ParseInt(companyIDParam, 10, 64)
	if err != nil {
		h.errorResponse(w, r, "公司ID无效")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.Redis.ConnectTimeout)*time.Second)
	defer cancel()

	// 先查缓存
	cached, err := h.redisClient.Get(ctx, publishedPositionsCacheKey(companyID)).Result()
	if err == nil {
		positions := make([]*domain.JobPosition, 0)
		if err := json.Unmarshal([]byte(cached), &positions); err == nil {
			h.successResponse(w, r, "获取已发布岗位成功", positions)
			return
		}
		// 缓存内容损坏时回落到数据库
	}

	positions, err := h.repository.GetPublishedJobPositionsByCompanyID(companyID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if data, err := json.Marshal(positions); err == nil {
		expiration := time.Duration(h.config.Cache.PublishedPositionsExpiration) * time.Second
		if err := h.redisClient.Set(ctx, publishedPositionsCacheKey(companyID), data, expiration).Err(); err != nil {
			slog.Error("写入已发布岗位缓存失败", "companyID", companyID, "error", err)
		}
	}

	h.successResponse(w, r, "获取已发布岗位成功", positions)
}
