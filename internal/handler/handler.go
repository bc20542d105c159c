package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/job-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/job-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/job-scheduler/backend/internal/repository"
)

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	translator  ut.Translator
	mqChannel   *amqp.Channel
	redisClient *redis.Client

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, mqCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		mqChannel:   mqCh,
		redisClient: rdb,

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

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.With(h.myInfo).Get("/my-info", h.GetMyInfo)

		r.Route("/users", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdministrator})).Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo)
		})

		r.Route("/schedule-plans", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RolePlanner, domain.RoleAdministrator})).Post("/", h.CreateSchedulePlan)
			r.Get("/", h.GetAllSchedulePlans)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.schedulePlan)
				r.Get("/", h.GetSchedulePlanByID)
				r.With(h.RequiredRole([]domain.Role{domain.RolePlanner, domain.RoleAdministrator})).Delete("/", h.DeleteSchedulePlan)
				r.With(h.myInfo).With(h.RequiredRole([]domain.Role{domain.RolePlanner, domain.RoleAdministrator})).Post("/schedule", h.ScheduleSchedulePlan)
				r.Get("/result", h.GetSchedulingResult)
				r.Get("/table", h.GetScheduleTable)
			})
		})
	})
}
