package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	allowed := map[Status]map[Status]bool{
		StatusDraft:           {StatusPendingApproval: true, StatusPublished: true, StatusArchived: true},
		StatusPendingApproval: {StatusApproved: true, StatusRejected: true, StatusDraft: true},
		StatusApproved:        {StatusPublished: true, StatusDraft: true},
		StatusRejected:        {StatusDraft: true},
		StatusPublished:       {StatusOnHold: true, StatusClosed: true, StatusArchived: true},
		StatusOnHold:          {StatusPublished: true, StatusClosed: true, StatusArchived: true},
		StatusClosed:          {StatusArchived: true, StatusDraft: true},
		StatusArchived:        {},
	}

	// 全量检查转换矩阵，表中没有出现的组合必须被拒绝
	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			got := from.CanTransitionTo(to)
			want := allowed[from][to]
			assert.Equal(t, want, got, "%s -> %s", from, to)
		}
	}
}

func TestStatusIsTerminal(t *testing.T) {
	for _, status := range AllStatuses() {
		if status == StatusArchived {
			assert.True(t, status.IsTerminal())
		} else {
			assert.False(t, status.IsTerminal(), "%s 不应该是终态", status)
		}
	}
}

func TestLockedFieldsAreCumulative(t *testing.T) {
	assert.Empty(t, StatusDraft.LockedFields())
	assert.Empty(t, StatusPendingApproval.LockedFields())
	assert.Empty(t, StatusRejected.LockedFields())

	assert.ElementsMatch(t, []string{FieldBudgetMax}, StatusApproved.LockedFields())
	assert.ElementsMatch(t, []string{FieldBudgetMax, FieldCustomFieldsConfig}, StatusPublished.LockedFields())
	assert.ElementsMatch(t, []string{FieldBudgetMax, FieldCustomFieldsConfig}, StatusOnHold.LockedFields())
	assert.ElementsMatch(t,
		[]string{FieldBudgetMax, FieldCustomFieldsConfig, FieldSalaryMin, FieldSalaryMax},
		StatusClosed.LockedFields(),
	)
	assert.ElementsMatch(t, []string{FieldAll}, StatusArchived.LockedFields())
}

func TestIsFieldLocked(t *testing.T) {
	assert.False(t, StatusDraft.IsFieldLocked(FieldBudgetMax))
	assert.True(t, StatusApproved.IsFieldLocked(FieldBudgetMax))
	assert.False(t, StatusApproved.IsFieldLocked(FieldSalaryMax))
	assert.True(t, StatusClosed.IsFieldLocked(FieldSalaryMax))

	// 归档状态下任意字段都被锁定，包括没有在锁定表中单独出现过的
	assert.True(t, StatusArchived.IsFieldLocked(FieldBudgetMax))
	assert.True(t, StatusArchived.IsFieldLocked(FieldBasicInfo))
	assert.True(t, StatusArchived.IsFieldLocked("随便什么字段"))
}
