package domain

import "slices"

type Status string

const (
	StatusDraft           Status = "DRAFT"
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusApproved        Status = "APPROVED"
	StatusRejected        Status = "REJECTED"
	StatusPublished       Status = "PUBLISHED"
	StatusOnHold          Status = "ON_HOLD"
	StatusClosed          Status = "CLOSED"
	StatusArchived        Status = "ARCHIVED"
)

type Visibility string

const (
	VisibilityHidden   Visibility = "HIDDEN"
	VisibilityInternal Visibility = "INTERNAL"
	VisibilityPublic   Visibility = "PUBLIC"
)

// statusTransitions 描述了每个状态允许转换到哪些状态，
// ARCHIVED 是终态，不在表中出现
var statusTransitions = map[Status][]Status{
	StatusDraft:           {StatusPendingApproval, StatusPublished, StatusArchived}, // 快捷模式下允许直接从草稿发布
	StatusPendingApproval: {StatusApproved, StatusRejected, StatusDraft},
	StatusApproved:        {StatusPublished, StatusDraft},
	StatusRejected:        {StatusDraft},
	StatusPublished:       {StatusOnHold, StatusClosed, StatusArchived},
	StatusOnHold:          {StatusPublished, StatusClosed, StatusArchived},
	StatusClosed:          {StatusArchived, StatusDraft},
}

// 可以被锁定的字段名，同时也是 lockedFieldsByStatus 中使用的键
const (
	FieldBudgetMax          = "budget_max"
	FieldCustomFieldsConfig = "custom_fields_config"
	FieldSalaryMin          = "salary_min"
	FieldSalaryMax          = "salary_max"
	FieldAll                = "*"
)

// lockedFieldsByStatus 描述了每个状态下哪些字段不允许再修改，
// 锁定是累积的：岗位越接近发布，被冻结的字段越多
var lockedFieldsByStatus = map[Status][]string{
	StatusDraft:           {},
	StatusPendingApproval: {},
	StatusApproved:        {FieldBudgetMax},
	StatusRejected:        {},
	StatusPublished:       {FieldBudgetMax, FieldCustomFieldsConfig},
	StatusOnHold:          {FieldBudgetMax, FieldCustomFieldsConfig},
	StatusClosed:          {FieldBudgetMax, FieldCustomFieldsConfig, FieldSalaryMin, FieldSalaryMax},
	StatusArchived:        {FieldAll},
}

func AllStatuses() []Status {
	return []Status{
		StatusDraft,
		StatusPendingApproval,
		StatusApproved,
		StatusRejected,
		StatusPublished,
		StatusOnHold,
		StatusClosed,
		StatusArchived,
	}
}

func (s Status) IsValid() bool {
	return slices.Contains(AllStatuses(), s)
}

func (s Status) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}

func (s Status) CanTransitionTo(target Status) bool {
	return slices.Contains(statusTransitions[s], target)
}

func (s Status) AllowedTargets() []Status {
	return slices.Clone(statusTransitions[s])
}

func (s Status) LockedFields() []string {
	return slices.Clone(lockedFieldsByStatus[s])
}

func (s Status) IsFieldLocked(field string) bool {
	locked := lockedFieldsByStatus[s]
	return slices.Contains(locked, FieldAll) || slices.Contains(locked, field)
}
