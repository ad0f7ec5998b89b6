package domain

import (
	"fmt"
	"slices"
	"time"
)

// 未出现在 lockedFieldsByStatus 中的字段只受 ARCHIVED 的全量锁约束
const (
	FieldCustomFieldsValues = "custom_fields_values"
	FieldStageAssignments   = "stage_assignments"
	FieldBasicInfo          = "basic_info"
)

// JobPosition 是岗位聚合根，自身持有状态机、字段快照和财务字段，
// 所有状态转换都必须通过下面的方法完成，转换前统一经过 checkTransition 检查
type JobPosition struct {
	ID               int64      `json:"id"`
	CompanyID        int64      `json:"companyID"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Slug             string     `json:"slug,omitempty"`
	NumberOfOpenings int32      `json:"numberOfOpenings"`
	Status           Status     `json:"status"`
	Visibility       Visibility `json:"visibility"`

	WorkflowID       *int64            `json:"workflowID"`
	SourceWorkflowID *int64            `json:"sourceWorkflowID"` // 字段快照来源的工作流，仅做追溯用
	CurrentStageID   *int64            `json:"currentStageID"`
	StageAssignments map[int64][]int64 `json:"stageAssignments,omitempty"`

	SalaryMin         *int64     `json:"salaryMin"`
	SalaryMax         *int64     `json:"salaryMax"`
	BudgetMax         *int64     `json:"budgetMax"`
	ApprovedBudgetMax *int64     `json:"approvedBudgetMax"` // 审批通过时对 BudgetMax 的冻结快照
	FinancialApprover *int64     `json:"financialApprover"`
	ApprovedAt        *time.Time `json:"approvedAt"`

	ClosedReason *string    `json:"closedReason"` // 关闭原因，审批驳回的原因也存在这里（见 Reject）
	ClosedAt     *time.Time `json:"closedAt"`
	PublishedAt  *time.Time `json:"publishedAt"`

	CustomFieldsConfig []CustomFieldDefinition `json:"customFieldsConfig"`
	CustomFieldsValues map[string]any          `json:"customFieldsValues"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Version   int32     `json:"-"`
}

func (p *JobPosition) checkTransition(target Status) error {
	if !p.Status.CanTransitionTo(target) {
		return &InvalidStatusTransitionError{From: p.Status, To: target}
	}
	return nil
}

func (p *JobPosition) checkFieldUnlocked(field string) error {
	if p.Status.IsFieldLocked(field) {
		return &FieldLockedError{Field: field, Status: p.Status}
	}
	return nil
}

// validateRequiredFields 聚合校验发布/提交审批前的必填项，
// 必须收集所有问题后一次性返回
func (p *JobPosition) validateRequiredFields() error {
	vErr := NewValidationError()

	if p.Title == "" {
		vErr.Add("title", "岗位名称不能为空")
	}
	if p.Description == "" {
		vErr.Add("description", "岗位描述不能为空")
	}
	if p.NumberOfOpenings < 1 {
		vErr.Add("numberOfOpenings", "招聘人数不能小于 1")
	}

	if vErr.HasViolations() {
		return vErr
	}
	return nil
}

// RequestApproval 提交审批（DRAFT -> PENDING_APPROVAL）
func (p *JobPosition) RequestApproval() error {
	if err := p.checkTransition(StatusPendingApproval); err != nil {
		return err
	}
	if err := p.validateRequiredFields(); err != nil {
		return err
	}

	p.Status = StatusPendingApproval
	return nil
}

// Approve 审批通过（PENDING_APPROVAL -> APPROVED），
// 如果设置了预算上限，会将其冻结为 ApprovedBudgetMax，作为后续 offer 的权威上限
func (p *JobPosition) Approve(approverID int64) error {
	if err := p.checkTransition(StatusApproved); err != nil {
		return err
	}
	if err := p.ValidateSalaryAgainstBudget(); err != nil {
		return err
	}

	if p.BudgetMax != nil {
		approved := *p.BudgetMax
		p.ApprovedBudgetMax = &approved
	}
	now := time.Now()
	p.ApprovedAt = &now
	p.FinancialApprover = &approverID
	p.Status = StatusApproved
	return nil
}

// Reject 审批驳回（PENDING_APPROVAL -> REJECTED），
// 驳回原因复用 ClosedReason 字段存储：两者同一时刻最多只有一个有意义，
// 而且退回草稿重新提交时都会被新的流转覆盖，没有单独建列
func (p *JobPosition) Reject(reason string) error {
	if err := p.checkTransition(StatusRejected); err != nil {
		return err
	}

	p.Status = StatusRejected
	p.ClosedReason = &reason
	return nil
}

// Publish 发布岗位，允许从 APPROVED 发布，也允许快捷模式下直接从 DRAFT 发布，
// 从 DRAFT 发布时会重新做一遍必填项校验
func (p *JobPosition) Publish() error {
	if p.Status == StatusOnHold {
		// 暂停后的重新上线走 Resume，Publish 会覆盖首次发布时间
		return &InvalidStatusTransitionError{From: p.Status, To: StatusPublished}
	}
	if err := p.checkTransition(StatusPublished); err != nil {
		return err
	}
	if p.Status == StatusDraft {
		if err := p.validateRequiredFields(); err != nil {
			return err
		}
	}

	now := time.Now()
	p.PublishedAt = &now
	p.Visibility = VisibilityPublic
	p.Status = StatusPublished
	return nil
}

// PutOnHold 暂停岗位（PUBLISHED -> ON_HOLD），暂停期间对外不可见
func (p *JobPosition) PutOnHold() error {
	if err := p.checkTransition(StatusOnHold); err != nil {
		return err
	}

	p.Visibility = VisibilityHidden
	p.Status = StatusOnHold
	return nil
}

// Resume 恢复发布（ON_HOLD -> PUBLISHED）
func (p *JobPosition) Resume() error {
	if p.Status != StatusOnHold {
		return &InvalidStatusTransitionError{From: p.Status, To: StatusPublished}
	}
	if err := p.checkTransition(StatusPublished); err != nil {
		return err
	}

	p.Visibility = VisibilityPublic
	p.Status = StatusPublished
	return nil
}

// Close 关闭岗位（PUBLISHED/ON_HOLD -> CLOSED），记录关闭原因和时间
func (p *JobPosition) Close(reason string) error {
	if err := p.checkTransition(StatusClosed); err != nil {
		return err
	}

	now := time.Now()
	p.ClosedReason = &reason
	p.ClosedAt = &now
	p.Visibility = VisibilityHidden
	p.Status = StatusClosed
	return nil
}

// Archive 归档岗位，归档是终态，之后所有字段都不允许再修改
func (p *JobPosition) Archive() error {
	if err := p.checkTransition(StatusArchived); err != nil {
		return err
	}

	p.Visibility = VisibilityHidden
	p.Status = StatusArchived
	return nil
}

// RevertToDraft 退回草稿（APPROVED/REJECTED/CLOSED -> DRAFT）
func (p *JobPosition) RevertToDraft() error {
	if p.Status == StatusPendingApproval {
		// 从待审批退回走 WithdrawApprovalRequest，语义上是撤回而不是退回
		return &InvalidStatusTransitionError{From: p.Status, To: StatusDraft}
	}
	if err := p.checkTransition(StatusDraft); err != nil {
		return err
	}

	p.Visibility = VisibilityHidden
	p.Status = StatusDraft
	return nil
}

// WithdrawApprovalRequest 撤回审批申请（PENDING_APPROVAL -> DRAFT）
func (p *JobPosition) WithdrawApprovalRequest() error {
	if p.Status != StatusPendingApproval {
		return &InvalidStatusTransitionError{From: p.Status, To: StatusDraft}
	}

	p.Visibility = VisibilityHidden
	p.Status = StatusDraft
	return nil
}

// ValidateSalaryAgainstBudget 检查薪资上限没有超过预算上限，审批前必须通过
func (p *JobPosition) ValidateSalaryAgainstBudget() error {
	if p.SalaryMax == nil || p.BudgetMax == nil {
		return nil
	}
	if *p.SalaryMax > *p.BudgetMax {
		return &BudgetExceededError{SalaryMax: *p.SalaryMax, BudgetMax: *p.BudgetMax}
	}
	return nil
}

// IsWithinBudget 检查 offer 金额是否在审批冻结的预算内，
// 从未审批过（快捷模式直接发布）的岗位没有 ApprovedBudgetMax，视为不受限
func (p *JobPosition) IsWithinBudget(offerAmount int64) bool {
	if p.ApprovedBudgetMax == nil {
		return true
	}
	return offerAmount <= *p.ApprovedBudgetMax
}

// UpdateBasicInfo 更新标题、描述、招聘人数，nil 表示不修改
func (p *JobPosition) UpdateBasicInfo(title *string, description *string, numberOfOpenings *int32) error {
	if err := p.checkFieldUnlocked(FieldBasicInfo); err != nil {
		return err
	}

	if title != nil {
		p.Title = *title
	}
	if description != nil {
		p.Description = *description
	}
	if numberOfOpenings != nil {
		p.NumberOfOpenings = *numberOfOpenings
	}
	return nil
}

// SetSalaryRange 更新薪资范围，CLOSED 及之后的状态下被锁定
func (p *JobPosition) SetSalaryRange(salaryMin *int64, salaryMax *int64) error {
	if err := p.checkFieldUnlocked(FieldSalaryMin); err != nil {
		return err
	}
	if err := p.checkFieldUnlocked(FieldSalaryMax); err != nil {
		return err
	}
	if salaryMin != nil && salaryMax != nil && *salaryMin > *salaryMax {
		vErr := NewValidationError()
		vErr.Add("salaryMin", "薪资下限不能大于薪资上限")
		return vErr
	}

	p.SalaryMin = salaryMin
	p.SalaryMax = salaryMax
	return nil
}

// SetBudgetMax 更新预算上限，审批通过后被锁定
func (p *JobPosition) SetBudgetMax(budgetMax *int64) error {
	if err := p.checkFieldUnlocked(FieldBudgetMax); err != nil {
		return err
	}

	p.BudgetMax = budgetMax
	return nil
}

// AssignUsersToStage 设置某个阶段的负责人列表
func (p *JobPosition) AssignUsersToStage(stageID int64, userIDs []int64) error {
	if err := p.checkFieldUnlocked(FieldStageAssignments); err != nil {
		return err
	}

	if p.StageAssignments == nil {
		p.StageAssignments = make(map[int64][]int64)
	}
	p.StageAssignments[stageID] = slices.Clone(userIDs)
	return nil
}

// SetCurrentStage 更新岗位当前所处的阶段，只应该由阶段流转服务调用
func (p *JobPosition) SetCurrentStage(stageID int64) {
	p.CurrentStageID = &stageID
}

// CopyCustomFieldsFromWorkflow 从工作流模板把字段定义快照到岗位上，仅允许在草稿状态进行，
// 这里是按值拷贝而不是引用：之后模板的修改不会影响已创建的岗位
func (p *JobPosition) CopyCustomFieldsFromWorkflow(defs []CustomFieldDefinition, sourceWorkflowID int64) error {
	if p.Status != StatusDraft {
		return &FieldLockedError{Field: FieldCustomFieldsConfig, Status: p.Status}
	}

	p.CustomFieldsConfig = CloneCustomFieldDefinitions(defs)
	p.SourceWorkflowID = &sourceWorkflowID
	return nil
}

func (p *JobPosition) customFieldByKey(key string) *CustomFieldDefinition {
	for i := range p.CustomFieldsConfig {
		if p.CustomFieldsConfig[i].FieldKey == key {
			return &p.CustomFieldsConfig[i]
		}
	}
	return nil
}

// UpdateCustomFieldValue 更新某个自定义字段的值，
// 配置非空时 key 必须存在于配置中；配置为空说明没有结构约束，任何 key 都接受
func (p *JobPosition) UpdateCustomFieldValue(key string, value any) error {
	if err := p.checkFieldUnlocked(FieldCustomFieldsValues); err != nil {
		return err
	}

	if len(p.CustomFieldsConfig) > 0 && p.customFieldByKey(key) == nil {
		vErr := NewValidationError()
		vErr.Add(key, fmt.Sprintf("岗位上不存在标识为 %s 的自定义字段", key))
		return vErr
	}

	if p.CustomFieldsValues == nil {
		p.CustomFieldsValues = make(map[string]any)
	}
	p.CustomFieldsValues[key] = value
	return nil
}

// ToggleCustomFieldActive 启用/停用岗位上继承来的某个字段，
// 不是删除定义，只是翻转本岗位范围内的 IsActive，配置被锁定后不允许再动
func (p *JobPosition) ToggleCustomFieldActive(key string, isActive bool) error {
	if err := p.checkFieldUnlocked(FieldCustomFieldsConfig); err != nil {
		return err
	}

	def := p.customFieldByKey(key)
	if def == nil {
		vErr := NewValidationError()
		vErr.Add(key, fmt.Sprintf("岗位上不存在标识为 %s 的自定义字段", key))
		return vErr
	}

	def.IsActive = isActive
	return nil
}

// CandidateVisibleField 是对候选人展示的一个字段及其当前值
type CandidateVisibleField struct {
	Definition CustomFieldDefinition `json:"definition"`
	Value      any                   `json:"value"`
}

// GetVisibleCustomFieldsForCandidate 解析候选人可见的字段：
// 先看阶段级的可见性覆盖，再看字段定义上的默认可见性，两者都没有指定时默认不可见
func (p *JobPosition) GetVisibleCustomFieldsForCandidate(currentStage *WorkflowStage) []CandidateVisibleField {
	visible := make([]CandidateVisibleField, 0)

	for _, def := range p.CustomFieldsConfig {
		if !def.IsActive {
			continue
		}

		isVisible := def.CandidateVisible
		if currentStage != nil {
			if override, ok := currentStage.FieldVisibility[def.FieldKey]; ok {
				isVisible = override
			}
		}
		if !isVisible {
			continue
		}

		var value any
		if p.CustomFieldsValues != nil {
			value = p.CustomFieldsValues[def.FieldKey]
		}
		visible = append(visible, CandidateVisibleField{Definition: def.Clone(), Value: value})
	}

	return visible
}

// Clone 复制出一个全新的草稿岗位：身份、阶段、审批和关闭信息全部清空，
// 归属、薪资范围和自定义字段配置/值深拷贝保留
func (p *JobPosition) Clone() *JobPosition {
	cloned := &JobPosition{
		CompanyID:        p.CompanyID,
		Title:            p.Title,
		Description:      p.Description,
		NumberOfOpenings: p.NumberOfOpenings,
		Status:           StatusDraft,
		Visibility:       VisibilityHidden,
		WorkflowID:       cloneInt64Ptr(p.WorkflowID),
		SourceWorkflowID: cloneInt64Ptr(p.SourceWorkflowID),
		SalaryMin:        cloneInt64Ptr(p.SalaryMin),
		SalaryMax:        cloneInt64Ptr(p.SalaryMax),
		BudgetMax:        cloneInt64Ptr(p.BudgetMax),
	}

	cloned.CustomFieldsConfig = CloneCustomFieldDefinitions(p.CustomFieldsConfig)
	if p.CustomFieldsValues != nil {
		cloned.CustomFieldsValues = make(map[string]any, len(p.CustomFieldsValues))
		for k, v := range p.CustomFieldsValues {
			cloned.CustomFieldsValues[k] = v
		}
	}

	return cloned
}

func cloneInt64Ptr(v *int64) *int64 {
	if v == nil {
		return nil
	}
	cloned := *v
	return &cloned
}
