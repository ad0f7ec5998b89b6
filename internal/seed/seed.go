package seed

import (
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/hireloop-dev/recruit-manager/backend/internal/domain"
	"github.com/hireloop-dev/recruit-manager/backend/internal/repository"
)

// 演示数据使用的标准招聘流程，阶段上带校验规则和候选人可见性覆盖
func demoWorkflow(companyID int64) *domain.Workflow {
	deadlineReview := int32(3)
	deadlineFinance := int32(5)
	costFinance := int64(2000)

	return &domain.Workflow{
		CompanyID:   companyID,
		Name:        "标准招聘流程",
		IsQuickMode: false,
		Stages: []domain.WorkflowStage{
			{
				PhaseID:      1,
				Name:         "草稿评审",
				SortOrder:    1,
				DeadlineDays: &deadlineReview,
			},
			{
				PhaseID:       1,
				Name:          "财务审批",
				SortOrder:     2,
				DeadlineDays:  &deadlineFinance,
				EstimatedCost: &costFinance,
				ValidationRules: []domain.FieldRule{
					{FieldKey: "years_experience", RuleType: "required", Message: "进入财务审批前必须填写工作年限"},
					{FieldKey: "years_experience", RuleType: "min", Param: 0},
				},
			},
			{
				PhaseID:   2,
				Name:      "用人部门确认",
				SortOrder: 3,
				ValidationRules: []domain.FieldRule{
					{FieldKey: "education", RuleType: "one_of", Param: []string{"大专", "本科", "硕士", "博士"}},
				},
			},
			{
				PhaseID:   2,
				Name:      "发布上线",
				SortOrder: 4,
				FieldVisibility: map[string]bool{
					"internal_level": false, // 内部职级任何阶段都不对候选人展示
				},
			},
		},
		FieldDefinitions: []domain.CustomFieldDefinition{
			{
				FieldKey:         "years_experience",
				Label:            "工作年限",
				FieldType:        domain.FieldTypeNumber,
				IsRequired:       true,
				CandidateVisible: true,
				SortOrder:        1,
				IsActive:         true,
			},
			{
				FieldKey:         "education",
				Label:            "学历要求",
				FieldType:        domain.FieldTypeSelect,
				Options:          []string{"大专", "本科", "硕士", "博士"},
				CandidateVisible: true,
				SortOrder:        2,
				IsActive:         true,
			},
			{
				FieldKey:  "internal_level",
				Label:     "内部职级",
				FieldType: domain.FieldTypeText,
				SortOrder: 3,
				IsActive:  true,
			},
		},
	}
}

// SeedDemoData 从 CSV 中读取岗位并以演示工作流建立一套完整的数据：
// 每个岗位创建为草稿并快照模板字段，一部分岗位会被推进到发布状态
func SeedDemoData(r *repository.Repository, companyID int64, approverID int64) {
	file, err := os.Open("./internal/seed/data/positions.csv")
	if err != nil {
		slog.Error("打开文件失败", "error", err)
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// 读取表头
	headers, err := reader.Read()
	if err != nil {
		slog.Error("读取表头失败", "error", err)
		return
	}

	var records []map[string]string
	for {
		row, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			slog.Error("读取文件失败", "error", err)
			return
		}

		record := make(map[string]string)
		for i, value := range row {
			record[headers[i]] = value
		}
		records = append(records, record)
	}

	workflow := demoWorkflow(companyID)
	if err := r.CreateWorkflow(workflow); err != nil {
		slog.Error("插入工作流失败", "error", err)
		return
	}

	published := 0
	for i, record := range records {
		title := record["标题"]
		if title == "" {
			slog.Error("没有找到岗位标题", "record", record)
			continue
		}

		position := &domain.JobPosition{
			CompanyID:   companyID,
			Title:       title,
			Description: record["描述"],
			Status:      domain.StatusDraft,
			Visibility:  domain.VisibilityHidden,
			WorkflowID:  &workflow.ID,
		}

		if openings, err := strconv.ParseInt(record["人数"], 10, 32); err == nil && openings > 0 {
			position.NumberOfOpenings = int32(openings)
		} else {
			position.NumberOfOpenings = 1
		}
		if salaryMin, err := strconv.ParseInt(record["最低月薪"], 10, 64); err == nil {
			position.SalaryMin = &salaryMin
		}
		if salaryMax, err := strconv.ParseInt(record["最高月薪"], 10, 64); err == nil {
			position.SalaryMax = &salaryMax
		}
		if budgetMax, err := strconv.ParseInt(record["预算上限"], 10, 64); err == nil {
			position.BudgetMax = &budgetMax
		}

		if err := position.CopyCustomFieldsFromWorkflow(workflow.FieldDefinitions, workflow.ID); err != nil {
			slog.Error("快照模板字段失败", "title", title, "error", err)
			continue
		}

		if err := r.CreateJobPosition(position); err != nil {
			slog.Error("插入岗位失败", "title", title, "error", err)
			continue
		}

		// 每三个岗位推进一个到发布状态，让演示数据覆盖状态机的主路径
		if i%3 != 0 {
			continue
		}
		if err := position.RequestApproval(); err != nil {
			slog.Error("提交审批失败", "title", title, "error", err)
			continue
		}
		if err := position.Approve(approverID); err != nil {
			slog.Error("审批失败", "title", title, "error", err)
			continue
		}
		if err := position.Publish(); err != nil {
			slog.Error("发布失败", "title", title, "error", err)
			continue
		}
		if err := r.UpdateJobPosition(position); err != nil {
			slog.Error("更新岗位失败", "title", title, "error", err)
			continue
		}
		published++
	}

	slog.Info("插入演示数据完成", "positions", len(records), "published", published)
}
