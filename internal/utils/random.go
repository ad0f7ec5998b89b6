package utils

import (
	"fmt"
	"math/rand"

	"github.com/mozillazg/go-pinyin"
	"golang.org/x/crypto/bcrypt"

	"github.com/hireloop-dev/recruit-manager/backend/internal/domain"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "霞", "飞", "玲", "超",
	"华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var roles = []domain.Role{
	domain.RoleRecruiter,
	domain.RoleHiringManager,
	domain.RoleAdministrator,
}

func GenerateRandomRole() domain.Role {
	return roles[rand.Intn(len(roles))]
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, py := range pinyinArray {
		length := rand.Intn(len(py)) + 1
		username += py[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         GenerateRandomRole(),
	}

	return user, nil
}

var positionTitles = []string{
	"后端开发工程师", "前端开发工程师", "测试开发工程师", "运维工程师",
	"产品经理", "数据分析师", "招聘专员", "算法工程师", "UI设计师",
}

var stageNames = []string{"草稿评审", "财务审批", "用人部门确认", "发布上线"}

// GenerateRandomWorkflow 生成一个带阶段和模板字段的工作流
func GenerateRandomWorkflow(companyID int64) *domain.Workflow {
	workflow := &domain.Workflow{
		CompanyID:   companyID,
		Name:        fmt.Sprintf("招聘流程%02d", rand.Intn(100)),
		IsQuickMode: rand.Intn(4) == 0, // 四分之一概率是快捷模式
	}

	stageCount := rand.Intn(len(stageNames)) + 1
	for i := 0; i < stageCount; i++ {
		stage := domain.WorkflowStage{
			PhaseID:   int64(i/2 + 1),
			Name:      stageNames[i],
			SortOrder: int32(i + 1),
		}
		if rand.Intn(2) == 0 {
			deadlineDays := int32(rand.Intn(14) + 1)
			stage.DeadlineDays = &deadlineDays
		}
		if rand.Intn(2) == 0 {
			estimatedCost := int64(rand.Intn(5000) + 500)
			stage.EstimatedCost = &estimatedCost
		}
		workflow.Stages = append(workflow.Stages, stage)
	}

	workflow.FieldDefinitions = []domain.CustomFieldDefinition{
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
	}

	return workflow
}

// GenerateRandomJobPosition 生成一个草稿岗位并快照工作流的字段模板
func GenerateRandomJobPosition(companyID int64, workflow *domain.Workflow) *domain.JobPosition {
	title := positionTitles[rand.Intn(len(positionTitles))]

	salaryMin := int64((rand.Intn(20) + 8) * 1000)
	salaryMax := salaryMin + int64((rand.Intn(15)+5)*1000)
	budgetMax := salaryMax + int64(rand.Intn(10)*1000)

	position := &domain.JobPosition{
		CompanyID:        companyID,
		Title:            title,
		Description:      fmt.Sprintf("%s 岗位，负责相关业务的设计与落地。", title),
		NumberOfOpenings: int32(rand.Intn(5) + 1),
		Status:           domain.StatusDraft,
		Visibility:       domain.VisibilityHidden,
		WorkflowID:       &workflow.ID,
		SalaryMin:        &salaryMin,
		SalaryMax:        &salaryMax,
		BudgetMax:        &budgetMax,
	}

	// 新建的岗位一定处于草稿状态，字段 key 也来自刚快照的模板，这几步不可能失败
	if err := position.CopyCustomFieldsFromWorkflow(workflow.FieldDefinitions, workflow.ID); err != nil {
		panic(err)
	}
	if err := position.UpdateCustomFieldValue("years_experience", rand.Intn(10)+1); err != nil {
		panic(err)
	}
	if err := position.UpdateCustomFieldValue("education", "本科"); err != nil {
		panic(err)
	}

	return position
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}
