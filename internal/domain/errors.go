package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound               = errors.New("记录不存在")
	ErrConcurrentModification = errors.New("数据已被其他操作修改，请刷新后重试")
)

type InvalidStatusTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidStatusTransitionError) Error() string {
	return fmt.Sprintf("不允许从 %s 状态转换到 %s 状态", e.From, e.To)
}

type FieldLockedError struct {
	Field  string
	Status Status
}

func (e *FieldLockedError) Error() string {
	return fmt.Sprintf("字段 %s 在 %s 状态下已被锁定", e.Field, e.Status)
}

type BudgetExceededError struct {
	SalaryMax int64
	BudgetMax int64
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("薪资上限 %d 超过了预算上限 %d", e.SalaryMax, e.BudgetMax)
}

// ValidationError 汇总所有字段级别的校验问题，
// 约定：校验过程必须收集完所有问题后才返回，而不是发现第一个问题就中断
type ValidationError struct {
	Violations map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Violations: make(map[string][]string)}
}

func (e *ValidationError) Add(field string, message string) {
	e.Violations[field] = append(e.Violations[field], message)
}

func (e *ValidationError) HasViolations() bool {
	return len(e.Violations) > 0
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for field := range e.Violations {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(e.Violations[field], "；")))
	}
	return "校验失败：" + strings.Join(parts, "，")
}
