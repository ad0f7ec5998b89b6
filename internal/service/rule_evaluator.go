package service

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/hireloop-dev/recruit-manager/backend/internal/domain"
)

// RuleEvaluator 对阶段上挂载的校验规则求值，
// 返回 字段 -> 错误信息列表，空 map 表示全部通过。
// 做成接口是为了让编排器不依赖任何具体的规则表达语言，
// 以后接入 JsonLogic 之类的引擎时只需要换一个实现
type RuleEvaluator interface {
	Evaluate(rules []domain.FieldRule, values map[string]any) map[string][]string
}

// SimpleRuleEvaluator 支持 required/min/max/one_of/pattern 五种内置规则
type SimpleRuleEvaluator struct{}

func NewSimpleRuleEvaluator() *SimpleRuleEvaluator {
	return &SimpleRuleEvaluator{}
}

func (e *SimpleRuleEvaluator) Evaluate(rules []domain.FieldRule, values map[string]any) map[string][]string {
	violations := make(map[string][]string)

	add := func(rule domain.FieldRule, fallback string) {
		message := rule.Message
		if message == "" {
			message = fallback
		}
		violations[rule.FieldKey] = append(violations[rule.FieldKey], message)
	}

	for _, rule := range rules {
		value, exists := values[rule.FieldKey]

		switch rule.RuleType {
		case "required":
			if !exists || value == nil || value == "" {
				add(rule, fmt.Sprintf("字段 %s 不能为空", rule.FieldKey))
			}
		case "min":
			if !exists {
				continue
			}
			number, ok := toFloat64(value)
			limit, limitOK := toFloat64(rule.Param)
			if !ok || !limitOK {
				add(rule, fmt.Sprintf("字段 %s 不是有效的数字", rule.FieldKey))
				continue
			}
			if number < limit {
				add(rule, fmt.Sprintf("字段 %s 不能小于 %v", rule.FieldKey, rule.Param))
			}
		case "max":
			if !exists {
				continue
			}
			number, ok := toFloat64(value)
			limit, limitOK := toFloat64(rule.Param)
			if !ok || !limitOK {
				add(rule, fmt.Sprintf("字段 %s 不是有效的数字", rule.FieldKey))
				continue
			}
			if number > limit {
				add(rule, fmt.Sprintf("字段 %s 不能大于 %v", rule.FieldKey, rule.Param))
			}
		case "one_of":
			if !exists {
				continue
			}
			options, ok := toStringSlice(rule.Param)
			if !ok {
				add(rule, fmt.Sprintf("字段 %s 的可选项配置无效", rule.FieldKey))
				continue
			}
			text := fmt.Sprintf("%v", value)
			found := false
			for _, option := range options {
				if option == text {
					found = true
					break
				}
			}
			if !found {
				add(rule, fmt.Sprintf("字段 %s 的取值不在可选项中", rule.FieldKey))
			}
		case "pattern":
			if !exists {
				continue
			}
			pattern, ok := rule.Param.(string)
			if !ok {
				add(rule, fmt.Sprintf("字段 %s 的正则配置无效", rule.FieldKey))
				continue
			}
			re, err := regexp.Compile(pattern)
			if err != nil {
				add(rule, fmt.Sprintf("字段 %s 的正则配置无效", rule.FieldKey))
				continue
			}
			if !re.MatchString(fmt.Sprintf("%v", value)) {
				add(rule, fmt.Sprintf("字段 %s 的格式不正确", rule.FieldKey))
			}
		default:
			add(rule, fmt.Sprintf("字段 %s 挂载了未知的规则类型 %s", rule.FieldKey, rule.RuleType))
		}
	}

	return violations
}

// JSON 反序列化出来的数字都是 float64，但规则配置和测试里也可能直接用整数
func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func toStringSlice(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		options := make([]string, 0, len(v))
		for _, item := range v {
			options = append(options, fmt.Sprintf("%v", item))
		}
		return options, true
	default:
		return nil, false
	}
}
