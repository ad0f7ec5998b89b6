package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 {
	return &v
}

func draftPosition() *JobPosition {
	return &JobPosition{
		ID:               1,
		CompanyID:        1,
		Title:            "后端开发工程师",
		Description:      "负责服务端开发",
		NumberOfOpenings: 2,
		Status:           StatusDraft,
		Visibility:       VisibilityHidden,
	}
}

func TestRequestApprovalValidatesRequiredFields(t *testing.T) {
	position := draftPosition()
	position.Title = ""
	position.Description = ""
	position.NumberOfOpenings = 0

	err := position.RequestApproval()

	// 所有问题必须一次性汇总返回，而不是只报第一个
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Violations, 3)
	assert.Contains(t, vErr.Violations, "title")
	assert.Contains(t, vErr.Violations, "description")
	assert.Contains(t, vErr.Violations, "numberOfOpenings")
	assert.Equal(t, StatusDraft, position.Status)
}

func TestApproveSnapshotsBudget(t *testing.T) {
	position := draftPosition()
	position.BudgetMax = int64Ptr(100000)
	require.NoError(t, position.RequestApproval())

	require.NoError(t, position.Approve(42))

	assert.Equal(t, StatusApproved, position.Status)
	require.NotNil(t, position.ApprovedBudgetMax)
	assert.Equal(t, int64(100000), *position.ApprovedBudgetMax)
	require.NotNil(t, position.FinancialApprover)
	assert.Equal(t, int64(42), *position.FinancialApprover)
	assert.NotNil(t, position.ApprovedAt)

	// 审批后的快照不随 BudgetMax 的后续修改变化
	*position.BudgetMax = 999999
	assert.Equal(t, int64(100000), *position.ApprovedBudgetMax)
}

func TestApproveRejectsSalaryOverBudget(t *testing.T) {
	position := draftPosition()
	position.SalaryMax = int64Ptr(150000)
	position.BudgetMax = int64Ptr(100000)
	require.NoError(t, position.RequestApproval())

	err := position.Approve(42)

	var budgetErr *BudgetExceededError
	require.ErrorAs(t, err, &budgetErr)
	assert.Equal(t, int64(150000), budgetErr.SalaryMax)
	assert.Equal(t, int64(100000), budgetErr.BudgetMax)
	assert.Equal(t, StatusPendingApproval, position.Status)
	assert.Nil(t, position.ApprovedBudgetMax)
}

func TestBudgetMaxLockedAfterApprove(t *testing.T) {
	position := draftPosition()
	position.BudgetMax = int64Ptr(100000)
	require.NoError(t, position.RequestApproval())
	require.NoError(t, position.Approve(42))

	err := position.SetBudgetMax(int64Ptr(200000))

	var lockedErr *FieldLockedError
	require.ErrorAs(t, err, &lockedErr)
	assert.Equal(t, FieldBudgetMax, lockedErr.Field)
	assert.Equal(t, StatusApproved, lockedErr.Status)
	assert.Equal(t, int64(100000), *position.BudgetMax)
}

func TestQuickPublishFromDraft(t *testing.T) {
	position := draftPosition()

	require.NoError(t, position.Publish())

	assert.Equal(t, StatusPublished, position.Status)
	assert.Equal(t, VisibilityPublic, position.Visibility)
	assert.NotNil(t, position.PublishedAt)
	// 未经审批直接发布的岗位没有预算快照，offer 金额不受限
	assert.Nil(t, position.ApprovedBudgetMax)
	assert.True(t, position.IsWithinBudget(10000000))
}

func TestQuickPublishStillValidatesRequiredFields(t *testing.T) {
	position := draftPosition()
	position.Title = ""

	err := position.Publish()

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, StatusDraft, position.Status)
}

func TestIsWithinBudgetAfterApproval(t *testing.T) {
	position := draftPosition()
	position.BudgetMax = int64Ptr(100000)
	require.NoError(t, position.RequestApproval())
	require.NoError(t, position.Approve(42))

	assert.True(t, position.IsWithinBudget(100000))
	assert.False(t, position.IsWithinBudget(100001))
}

func TestRejectRecordsReason(t *testing.T) {
	position := draftPosition()
	require.NoError(t, position.RequestApproval())

	require.NoError(t, position.Reject("预算不足"))

	assert.Equal(t, StatusRejected, position.Status)
	require.NotNil(t, position.ClosedReason)
	assert.Equal(t, "预算不足", *position.ClosedReason)
}

func TestInvalidTransitions(t *testing.T) {
	position := draftPosition()

	// 草稿不能直接审批通过
	var transitionErr *InvalidStatusTransitionError
	err := position.Approve(1)
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, StatusDraft, transitionErr.From)
	assert.Equal(t, StatusApproved, transitionErr.To)

	// 已发布的岗位不能重复发布
	require.NoError(t, position.Publish())
	err = position.Publish()
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, StatusPublished, transitionErr.From)
}

func TestHoldAndResume(t *testing.T) {
	position := draftPosition()
	require.NoError(t, position.Publish())

	require.NoError(t, position.PutOnHold())
	assert.Equal(t, StatusOnHold, position.Status)
	assert.Equal(t, VisibilityHidden, position.Visibility)

	require.NoError(t, position.Resume())
	assert.Equal(t, StatusPublished, position.Status)
	assert.Equal(t, VisibilityPublic, position.Visibility)

	// 没有暂停过的岗位不能恢复
	err := position.Resume()
	var transitionErr *InvalidStatusTransitionError
	require.ErrorAs(t, err, &transitionErr)
}

func TestPublishNotAllowedFromOnHold(t *testing.T) {
	position := draftPosition()
	require.NoError(t, position.Publish())
	firstPublishedAt := *position.PublishedAt

	require.NoError(t, position.PutOnHold())

	// 暂停后的重新上线只能走 Resume，Publish 会覆盖首次发布时间
	err := position.Publish()
	var transitionErr *InvalidStatusTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, StatusOnHold, transitionErr.From)
	assert.Equal(t, StatusOnHold, position.Status)

	require.NoError(t, position.Resume())
	assert.Equal(t, firstPublishedAt, *position.PublishedAt)
}

func TestCloseLocksSalary(t *testing.T) {
	position := draftPosition()
	require.NoError(t, position.Publish())
	require.NoError(t, position.Close("已招满"))

	assert.Equal(t, StatusClosed, position.Status)
	assert.NotNil(t, position.ClosedAt)

	err := position.SetSalaryRange(int64Ptr(10000), int64Ptr(20000))
	var lockedErr *FieldLockedError
	require.ErrorAs(t, err, &lockedErr)
}

func TestArchiveIsTerminal(t *testing.T) {
	position := draftPosition()
	require.NoError(t, position.Publish())
	require.NoError(t, position.Archive())

	assert.Equal(t, StatusArchived, position.Status)

	// 终态下任何修改和转换都被拒绝
	var lockedErr *FieldLockedError
	require.ErrorAs(t, position.UpdateBasicInfo(nil, nil, nil), &lockedErr)
	var transitionErr *InvalidStatusTransitionError
	require.ErrorAs(t, position.RevertToDraft(), &transitionErr)
}

func TestWithdrawOnlyFromPendingApproval(t *testing.T) {
	position := draftPosition()
	require.NoError(t, position.RequestApproval())

	require.NoError(t, position.WithdrawApprovalRequest())
	assert.Equal(t, StatusDraft, position.Status)

	var transitionErr *InvalidStatusTransitionError
	require.ErrorAs(t, position.WithdrawApprovalRequest(), &transitionErr)
}

func TestRevertToDraftRejectsPendingApproval(t *testing.T) {
	position := draftPosition()
	require.NoError(t, position.RequestApproval())

	// 待审批状态下只能撤回，不能退回
	var transitionErr *InvalidStatusTransitionError
	require.ErrorAs(t, position.RevertToDraft(), &transitionErr)
}

func TestSetSalaryRangeValidatesOrder(t *testing.T) {
	position := draftPosition()

	err := position.SetSalaryRange(int64Ptr(30000), int64Ptr(20000))

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Violations, "salaryMin")
}

func TestCopyCustomFieldsFromWorkflowSnapshots(t *testing.T) {
	position := draftPosition()
	defs := []CustomFieldDefinition{
		{
			FieldKey:  "education",
			Label:     "学历要求",
			FieldType: FieldTypeSelect,
			Options:   []string{"本科", "硕士"},
			IsActive:  true,
		},
	}

	require.NoError(t, position.CopyCustomFieldsFromWorkflow(defs, 7))

	require.NotNil(t, position.SourceWorkflowID)
	assert.Equal(t, int64(7), *position.SourceWorkflowID)
	require.Len(t, position.CustomFieldsConfig, 1)

	// 快照是深拷贝：修改模板不影响岗位上的配置
	defs[0].Label = "改过的名字"
	defs[0].Options[0] = "大专"
	assert.Equal(t, "学历要求", position.CustomFieldsConfig[0].Label)
	assert.Equal(t, "本科", position.CustomFieldsConfig[0].Options[0])
}

func TestCopyCustomFieldsOnlyInDraft(t *testing.T) {
	position := draftPosition()
	require.NoError(t, position.Publish())

	err := position.CopyCustomFieldsFromWorkflow(nil, 7)

	var lockedErr *FieldLockedError
	require.ErrorAs(t, err, &lockedErr)
	assert.Equal(t, FieldCustomFieldsConfig, lockedErr.Field)
}

func TestUpdateCustomFieldValue(t *testing.T) {
	position := draftPosition()
	require.NoError(t, position.CopyCustomFieldsFromWorkflow([]CustomFieldDefinition{
		{FieldKey: "education", Label: "学历要求", FieldType: FieldTypeText, IsActive: true},
	}, 7))

	require.NoError(t, position.UpdateCustomFieldValue("education", "本科"))
	assert.Equal(t, "本科", position.CustomFieldsValues["education"])

	// 配置非空时未知的 key 被拒绝，错误信息中要指出是哪个 key
	err := position.UpdateCustomFieldValue("unknown_key", "x")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Violations, "unknown_key")
}

func TestUpdateCustomFieldValueWithoutConfig(t *testing.T) {
	// 没有任何字段配置的岗位不做结构约束，任意 key 都接受
	position := draftPosition()

	require.NoError(t, position.UpdateCustomFieldValue("anything", 123))
	assert.Equal(t, 123, position.CustomFieldsValues["anything"])
}

func TestToggleCustomFieldActive(t *testing.T) {
	position := draftPosition()
	require.NoError(t, position.CopyCustomFieldsFromWorkflow([]CustomFieldDefinition{
		{FieldKey: "education", Label: "学历要求", FieldType: FieldTypeText, IsActive: true},
	}, 7))

	require.NoError(t, position.ToggleCustomFieldActive("education", false))
	assert.False(t, position.CustomFieldsConfig[0].IsActive)

	var vErr *ValidationError
	require.ErrorAs(t, position.ToggleCustomFieldActive("unknown", true), &vErr)
}

func TestGetVisibleCustomFieldsForCandidate(t *testing.T) {
	position := draftPosition()
	require.NoError(t, position.CopyCustomFieldsFromWorkflow([]CustomFieldDefinition{
		{FieldKey: "education", Label: "学历要求", FieldType: FieldTypeText, CandidateVisible: true, IsActive: true},
		{FieldKey: "internal_level", Label: "内部职级", FieldType: FieldTypeText, CandidateVisible: false, IsActive: true},
		{FieldKey: "inactive_field", Label: "停用字段", FieldType: FieldTypeText, CandidateVisible: true, IsActive: false},
	}, 7))
	require.NoError(t, position.UpdateCustomFieldValue("education", "硕士"))

	// 没有阶段覆盖时按字段定义上的默认可见性
	fields := position.GetVisibleCustomFieldsForCandidate(nil)
	require.Len(t, fields, 1)
	assert.Equal(t, "education", fields[0].Definition.FieldKey)
	assert.Equal(t, "硕士", fields[0].Value)

	// 阶段覆盖优先于字段默认值
	stage := &WorkflowStage{
		FieldVisibility: map[string]bool{
			"education":      false,
			"internal_level": true,
		},
	}
	fields = position.GetVisibleCustomFieldsForCandidate(stage)
	require.Len(t, fields, 1)
	assert.Equal(t, "internal_level", fields[0].Definition.FieldKey)
}

func TestClone(t *testing.T) {
	position := draftPosition()
	position.WorkflowID = int64Ptr(7)
	position.SalaryMin = int64Ptr(10000)
	position.SalaryMax = int64Ptr(20000)
	position.BudgetMax = int64Ptr(25000)
	require.NoError(t, position.CopyCustomFieldsFromWorkflow([]CustomFieldDefinition{
		{FieldKey: "education", Label: "学历要求", FieldType: FieldTypeText, IsActive: true},
	}, 7))
	require.NoError(t, position.UpdateCustomFieldValue("education", "本科"))
	require.NoError(t, position.Publish())
	require.NoError(t, position.Close("已招满"))

	cloned := position.Clone()

	// 复制出来的岗位永远是全新的隐藏草稿
	assert.Zero(t, cloned.ID)
	assert.Equal(t, StatusDraft, cloned.Status)
	assert.Equal(t, VisibilityHidden, cloned.Visibility)
	assert.Nil(t, cloned.PublishedAt)
	assert.Nil(t, cloned.ClosedAt)
	assert.Nil(t, cloned.ClosedReason)
	assert.Nil(t, cloned.ApprovedBudgetMax)
	assert.Nil(t, cloned.CurrentStageID)

	// 归属和薪资保留
	assert.Equal(t, position.Title, cloned.Title)
	assert.Equal(t, int64(10000), *cloned.SalaryMin)
	require.NotNil(t, cloned.WorkflowID)
	assert.Equal(t, int64(7), *cloned.WorkflowID)

	// 字段配置和值是深拷贝
	require.Len(t, cloned.CustomFieldsConfig, 1)
	cloned.CustomFieldsConfig[0].Label = "改名"
	cloned.CustomFieldsValues["education"] = "博士"
	assert.Equal(t, "学历要求", position.CustomFieldsConfig[0].Label)
	assert.Equal(t, "本科", position.CustomFieldsValues["education"])
}
