package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/hireloop-dev/recruit-manager/backend/internal/config"
	"github.com/hireloop-dev/recruit-manager/backend/internal/domain"
	"github.com/hireloop-dev/recruit-manager/backend/internal/repository"
	"github.com/hireloop-dev/recruit-manager/backend/internal/service"
)

type Handler struct {
	validate     *validator.Validate
	config       *config.Config
	repository   *repository.Repository
	translator   ut.Translator
	eventChannel *amqp.Channel
	redisClient  *redis.Client
	stageMover   *service.StageMover

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, eventCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	stageMover := service.NewStageMover(repo, repo, repo, repo, service.NewSimpleRuleEvaluator())

	return &Handler{
		validate:     validate,
		config:       cfg,
		repository:   repo,
		translator:   trans,
		eventChannel: eventCh,
		redisClient:  rdb,
		stageMover:   stageMover,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 枚举元信息和对候选人公开的岗位列表不需要登录
	h.Mux.Get("/meta/enums", h.GetEnums)
	h.Mux.Get("/companies/{companyID}/published-positions", h.GetPublishedJobPositions)

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.GetAllUserInfo)
			r.Group(func(r chi.Router) {
				r.Use(h.RequiredRole([]domain.Role{domain.RoleAdministrator}))
				r.Post("/", h.CreateUser)
				r.Patch("/{id}", h.UpdateUserInfo)
				r.Delete("/{id}", h.DeleteUser)
			})
		})

		r.Route("/workflows", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleHiringManager, domain.RoleAdministrator})).Post("/", h.CreateWorkflow)
			r.Get("/", h.GetAllWorkflows)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.workflow)
				r.Get("/", h.GetWorkflow)
			})
		})

		r.Route("/job-positions", func(r chi.Router) {
			r.Post("/", h.CreateJobPosition)
			r.Get("/", h.GetAllJobPositions)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.jobPosition)
				r.Get("/", h.GetJobPosition)
				r.Patch("/", h.UpdateJobPosition)
				r.Post("/clone", h.CloneJobPosition)

				// 状态机操作，每个转换一个入口
				r.Post("/request-approval", h.RequestApproval)
				r.With(h.RequiredRole([]domain.Role{domain.RoleHiringManager, domain.RoleAdministrator})).Post("/approve", h.ApproveJobPosition)
				r.With(h.RequiredRole([]domain.Role{domain.RoleHiringManager, domain.RoleAdministrator})).Post("/reject", h.RejectJobPosition)
				r.Post("/publish", h.PublishJobPosition)
				r.Post("/hold", h.PutJobPositionOnHold)
				r.Post("/resume", h.ResumeJobPosition)
				r.Post("/close", h.CloseJobPosition)
				r.Post("/archive", h.ArchiveJobPosition)
				r.Post("/revert-to-draft", h.RevertJobPositionToDraft)
				r.Post("/withdraw", h.WithdrawApprovalRequest)

				// 自定义字段
				r.Put("/custom-fields/{fieldKey}/value", h.UpdateCustomFieldValue)
				r.Patch("/custom-fields/{fieldKey}/active", h.ToggleCustomFieldActive)
				r.Get("/candidate-fields", h.GetCandidateVisibleFields)

				// 阶段流转与历史
				r.Put("/stage-assignments", h.AssignUsersToStage)
				r.Post("/move-stage", h.MoveJobPositionStage)
				r.Get("/stage-records", h.GetStageRecords)
				r.Get("/activity-logs", h.GetActivityLogs)
			})
		})
	})
}
