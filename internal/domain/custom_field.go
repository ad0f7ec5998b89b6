package domain

import (
	"fmt"
	"slices"
)

type FieldType string

const (
	FieldTypeText        FieldType = "TEXT"
	FieldTypeNumber      FieldType = "NUMBER"
	FieldTypeSelect      FieldType = "SELECT"
	FieldTypeMultiSelect FieldType = "MULTISELECT"
	FieldTypeDate        FieldType = "DATE"
	FieldTypeBoolean     FieldType = "BOOLEAN"
	FieldTypeURL         FieldType = "URL"
)

func AllFieldTypes() []FieldType {
	return []FieldType{
		FieldTypeText,
		FieldTypeNumber,
		FieldTypeSelect,
		FieldTypeMultiSelect,
		FieldTypeDate,
		FieldTypeBoolean,
		FieldTypeURL,
	}
}

func (t FieldType) IsValid() bool {
	return slices.Contains(AllFieldTypes(), t)
}

func (t FieldType) RequiresOptions() bool {
	return t == FieldTypeSelect || t == FieldTypeMultiSelect
}

// CustomFieldDefinition 描述岗位上的一个可配置字段，
// 创建后不允许修改（IsActive 除外，见 JobPosition.ToggleCustomFieldActive）
type CustomFieldDefinition struct {
	FieldKey         string         `json:"fieldKey"`
	Label            string         `json:"label"`
	FieldType        FieldType      `json:"fieldType"`
	Options          []string       `json:"options,omitempty"`
	IsRequired       bool           `json:"isRequired"`
	CandidateVisible bool           `json:"candidateVisible"`
	ValidationRules  map[string]any `json:"validationRules,omitempty"`
	SortOrder        int32          `json:"sortOrder"`
	IsActive         bool           `json:"isActive"`
}

// NewCustomFieldDefinition 构造并校验一个字段定义，
// 非法的定义在这里直接报错，不允许构造出非法对象再持久化
func NewCustomFieldDefinition(def CustomFieldDefinition) (*CustomFieldDefinition, error) {
	vErr := NewValidationError()

	if def.FieldKey == "" {
		vErr.Add("fieldKey", "字段标识不能为空")
	}
	if def.Label == "" {
		vErr.Add("label", "字段名称不能为空")
	}
	if !def.FieldType.IsValid() {
		vErr.Add("fieldType", fmt.Sprintf("未知的字段类型 %s", def.FieldType))
	}
	if def.FieldType.RequiresOptions() && len(def.Options) == 0 {
		vErr.Add("options", fmt.Sprintf("%s 类型的字段必须提供选项", def.FieldType))
	}

	if vErr.HasViolations() {
		return nil, vErr
	}

	cloned := def.Clone()
	return &cloned, nil
}

// Clone 深拷贝字段定义，保证快照与模板之间不共享任何可变结构
func (d CustomFieldDefinition) Clone() CustomFieldDefinition {
	cloned := d
	cloned.Options = slices.Clone(d.Options)
	if d.ValidationRules != nil {
		cloned.ValidationRules = make(map[string]any, len(d.ValidationRules))
		for k, v := range d.ValidationRules {
			cloned.ValidationRules[k] = v
		}
	}
	return cloned
}

func CloneCustomFieldDefinitions(defs []CustomFieldDefinition) []CustomFieldDefinition {
	cloned := make([]CustomFieldDefinition, 0, len(defs))
	for _, def := range defs {
		cloned = append(cloned, def.Clone())
	}
	return cloned
}
