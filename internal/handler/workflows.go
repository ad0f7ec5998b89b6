package handler

import (
	"net/http"
	"strconv"

	"github.com/hireloop-dev/recruit-manager/backend/internal/domain"
)

func (h *Handler) CreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CompanyID   int64  `json:"companyID" validate:"required"`
		Name        string `json:"name" validate:"required"`
		IsQuickMode bool   `json:"isQuickMode"`
		Stages      []struct {
			PhaseID         int64              `json:"phaseID"`
			Name            string             `json:"name" validate:"required"`
			SortOrder       int32              `json:"sortOrder"`
			DeadlineDays    *int32             `json:"deadlineDays" validate:"omitempty,min=1"`
			EstimatedCost   *int64             `json:"estimatedCost" validate:"omitempty,min=0"`
			ValidationRules []domain.FieldRule `json:"validationRules"`
			FieldVisibility map[string]bool    `json:"fieldVisibility"`
		} `json:"stages" validate:"dive"`
		FieldDefinitions []domain.CustomFieldDefinition `json:"fieldDefinitions"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 模板字段在创建时就要是合法的，之后创建岗位只做快照不再校验
	definitions := make([]domain.CustomFieldDefinition, 0, len(req.FieldDefinitions))
	for _, raw := range req.FieldDefinitions {
		def, err := domain.NewCustomFieldDefinition(raw)
		if err != nil {
			h.domainError(w, r, err)
			return
		}
		definitions = append(definitions, *def)
	}

	workflow := &domain.Workflow{
		CompanyID:        req.CompanyID,
		Name:             req.Name,
		IsQuickMode:      req.IsQuickMode,
		FieldDefinitions: definitions,
		Stages:           make([]domain.WorkflowStage, 0, len(req.Stages)),
	}
	for _, stage := range req.Stages {
		workflow.Stages = append(workflow.Stages, domain.WorkflowStage{
			PhaseID:         stage.PhaseID,
			Name:            stage.Name,
			SortOrder:       stage.SortOrder,
			DeadlineDays:    stage.DeadlineDays,
			EstimatedCost:   stage.EstimatedCost,
			ValidationRules: stage.ValidationRules,
			FieldVisibility: stage.FieldVisibility,
		})
	}

	if err := h.repository.CreateWorkflow(workflow); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建工作流成功", workflow)
}

func (h *Handler) GetAllWorkflows(w http.ResponseWriter, r *http.Request) {
	companyIDParam := r.URL.Query().Get("companyID")
	companyID, err := strconv.ParseInt(companyIDParam, 10, 64)
	if err != nil {
		h.errorResponse(w, r, "公司ID无效")
		return
	}

	workflows, err := h.repository.GetAllWorkflowsByCompanyID(companyID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取工作流列表成功", workflows)
}

func (h *Handler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	workflow := r.Context().Value(WorkflowCtx).(*domain.Workflow)

	h.successResponse(w, r, "获取工作流成功", workflow)
}
