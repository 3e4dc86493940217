package handler

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/redis/go-redis/v9"

	"github.com/jobseek-dev/job-board/backend/internal/config"
	"github.com/jobseek-dev/job-board/backend/internal/domain"
	"github.com/jobseek-dev/job-board/backend/internal/service"
)

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	service     *service.Service
	translator  ut.Translator
	redisClient *redis.Client // 为 nil 时不限流，也不检查令牌是否已注销

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, svc *service.Service, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	// 校验错误中使用 json 字段名
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	en := en.New()
	uni := ut.New(en, en)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		service:     svc,
		translator:  trans,
		redisClient: rdb,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.requestID)
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		// 认证相关
		r.Route("/auth", func(r chi.Router) {
			window := time.Duration(h.config.RateLimit.Window) * time.Second
			r.With(h.rateLimit("register", h.config.RateLimit.Register, window)).Post("/register", h.Register)
			r.With(h.rateLimit("login", h.config.RateLimit.Login, window)).Post("/login", h.Login)

			r.Group(func(r chi.Router) {
				r.Use(h.auth)
				r.Post("/logout", h.Logout)
				r.Get("/me", h.GetMyInfo)
				r.Put("/profile", h.UpdateMyProfile)
			})
		})

		r.Route("/jobs", func(r chi.Router) {
			// 职位列表和详情不需要登录
			r.Get("/", h.ListJobs)
			r.Get("/{id}", h.GetJob)

			r.Group(func(r chi.Router) {
				r.Use(h.auth)
				r.Use(h.RequiredRole([]domain.Role{domain.RoleEmployer, domain.RoleAdmin}))
				r.Get("/employer/my-jobs", h.ListMyJobs)
				r.Post("/", h.CreateJob)
				r.Put("/{id}", h.UpdateJob)
				r.Delete("/{id}", h.DeleteJob)
			})
		})

		// 以下 API 必须要在登录后才允许调用
		r.Route("/applications", func(r chi.Router) {
			r.Use(h.auth)

			jobSeekerOnly := h.RequiredRole([]domain.Role{domain.RoleJobSeeker})
			reviewers := h.RequiredRole([]domain.Role{domain.RoleEmployer, domain.RoleAdmin})

			r.With(jobSeekerOnly).Post("/", h.Apply)
			r.With(jobSeekerOnly).Get("/my-applications", h.ListMyApplications)
			r.With(reviewers).Get("/job/{jobId}", h.ListJobApplications)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetApplication)
				r.With(jobSeekerOnly).Delete("/", h.DeleteApplication)
				r.With(reviewers).Put("/status", h.UpdateApplicationStatus)
				r.With(reviewers).Put("/accept", h.AcceptApplication)
				r.With(reviewers).Put("/reject", h.RejectApplication)
			})
		})
	})
}
