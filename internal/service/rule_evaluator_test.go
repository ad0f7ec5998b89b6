package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hireloop-dev/recruit-manager/backend/internal/domain"
)

func TestEvaluateRequired(t *testing.T) {
	evaluator := NewSimpleRuleEvaluator()
	rules := []domain.FieldRule{
		{FieldKey: "years_experience", RuleType: "required"},
	}

	violations := evaluator.Evaluate(rules, map[string]any{})
	assert.Contains(t, violations, "years_experience")

	violations = evaluator.Evaluate(rules, map[string]any{"years_experience": ""})
	assert.Contains(t, violations, "years_experience")

	violations = evaluator.Evaluate(rules, map[string]any{"years_experience": 3})
	assert.Empty(t, violations)
}

func TestEvaluateMinMax(t *testing.T) {
	evaluator := NewSimpleRuleEvaluator()
	rules := []domain.FieldRule{
		{FieldKey: "years_experience", RuleType: "min", Param: 1},
		{FieldKey: "years_experience", RuleType: "max", Param: 10},
	}

	assert.Empty(t, evaluator.Evaluate(rules, map[string]any{"years_experience": 5}))
	assert.Contains(t, evaluator.Evaluate(rules, map[string]any{"years_experience": 0}), "years_experience")
	assert.Contains(t, evaluator.Evaluate(rules, map[string]any{"years_experience": 11}), "years_experience")

	// JSON 反序列化出来的数字是 float64，同样要能比较
	assert.Empty(t, evaluator.Evaluate(rules, map[string]any{"years_experience": float64(5)}))

	// 没有填值的字段不触发 min/max，只有 required 能拦空值
	assert.Empty(t, evaluator.Evaluate(rules, map[string]any{}))
}

func TestEvaluateOneOf(t *testing.T) {
	evaluator := NewSimpleRuleEvaluator()
	rules := []domain.FieldRule{
		{FieldKey: "education", RuleType: "one_of", Param: []string{"本科", "硕士"}},
	}

	assert.Empty(t, evaluator.Evaluate(rules, map[string]any{"education": "本科"}))
	assert.Contains(t, evaluator.Evaluate(rules, map[string]any{"education": "小学"}), "education")
}

func TestEvaluatePattern(t *testing.T) {
	evaluator := NewSimpleRuleEvaluator()
	rules := []domain.FieldRule{
		{FieldKey: "job_code", RuleType: "pattern", Param: `^JOB-\d+$`},
	}

	assert.Empty(t, evaluator.Evaluate(rules, map[string]any{"job_code": "JOB-123"}))
	assert.Contains(t, evaluator.Evaluate(rules, map[string]any{"job_code": "nope"}), "job_code")
}

func TestEvaluateCustomMessage(t *testing.T) {
	evaluator := NewSimpleRuleEvaluator()
	rules := []domain.FieldRule{
		{FieldKey: "education", RuleType: "required", Message: "请填写学历要求"},
	}

	violations := evaluator.Evaluate(rules, map[string]any{})
	assert.Equal(t, []string{"请填写学历要求"}, violations["education"])
}

func TestEvaluateCollectsAllViolations(t *testing.T) {
	evaluator := NewSimpleRuleEvaluator()
	rules := []domain.FieldRule{
		{FieldKey: "years_experience", RuleType: "required"},
		{FieldKey: "education", RuleType: "one_of", Param: []string{"本科"}},
		{FieldKey: "job_code", RuleType: "pattern", Param: `^JOB-\d+$`},
	}

	violations := evaluator.Evaluate(rules, map[string]any{
		"education": "小学",
		"job_code":  "nope",
	})

	// 一次求值要收集所有字段的问题
	assert.Len(t, violations, 3)
}

func TestEvaluateUnknownRuleType(t *testing.T) {
	evaluator := NewSimpleRuleEvaluator()
	rules := []domain.FieldRule{
		{FieldKey: "education", RuleType: "magic"},
	}

	violations := evaluator.Evaluate(rules, map[string]any{"education": "本科"})
	assert.Contains(t, violations, "education")
}
