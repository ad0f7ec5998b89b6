package domain

import "time"

// FieldRule 是工作流阶段上挂载的一条校验规则，
// 规则的求值由 service 层注入的求值器完成，domain 只负责承载数据
type FieldRule struct {
	FieldKey string `json:"fieldKey"`
	RuleType string `json:"ruleType"`
	Param    any    `json:"param,omitempty"`
	Message  string `json:"message,omitempty"`
}

type WorkflowStage struct {
	ID              int64           `json:"id"`
	WorkflowID      int64           `json:"workflowID"`
	PhaseID         int64           `json:"phaseID"`
	Name            string          `json:"name"`
	SortOrder       int32           `json:"sortOrder"`
	DeadlineDays    *int32          `json:"deadlineDays"`
	EstimatedCost   *int64          `json:"estimatedCost"`
	ValidationRules []FieldRule     `json:"validationRules,omitempty"`
	FieldVisibility map[string]bool `json:"fieldVisibility,omitempty"` // 按字段标识覆盖候选人可见性
}

type Workflow struct {
	ID               int64                   `json:"id"`
	CompanyID        int64                   `json:"companyID"`
	Name             string                  `json:"name"`
	IsQuickMode      bool                    `json:"isQuickMode"` // 快捷模式允许草稿直接发布，跳过审批
	Stages           []WorkflowStage         `json:"stages"`
	FieldDefinitions []CustomFieldDefinition `json:"fieldDefinitions"` // 模板字段，创建岗位时会被快照
	CreatedAt        time.Time               `json:"createdAt"`
	Version          int32                   `json:"-"`
}

// StageByID 在工作流中查找指定阶段，不存在时返回 nil
func (w *Workflow) StageByID(stageID int64) *WorkflowStage {
	for i := range w.Stages {
		if w.Stages[i].ID == stageID {
			return &w.Stages[i]
		}
	}
	return nil
}
