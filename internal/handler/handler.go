package handler

import (
	"github.com/SimbaKVis/shift-manager/backend/internal/config"
	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
	"github.com/SimbaKVis/shift-manager/backend/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	service    *service.Service
	translator ut.Translator
	mailer     MailPublisher
	otpStore   OTPStore

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, svc *service.Service, mailer MailPublisher, otpStore OTPStore) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		service:    svc,
		translator: trans,
		mailer:     mailer,
		otpStore:   otpStore,

		Mux: chi.NewRouter(),
	}, nil
}

var adminOnly = []domain.Role{domain.RoleAdmin}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Use(h.myInfo)

		r.Route("/my-info", func(r chi.Router) {
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(h.RequiredRole(adminOnly)).Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole(adminOnly)).Patch("/", h.UpdateUser)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole(adminOnly)).Delete("/", h.DeleteUser)
				r.With(h.RequiredRole(adminOnly)).Patch("/password", h.UpdateUserPassword)
				r.Get("/shifts", h.GetUserShifts)
				r.Group(func(r chi.Router) {
					r.Use(h.selfOrAdmin)
					r.Get("/eligible-shifts", h.GetEligibleShifts)
					r.Get("/swap-requests", h.GetUserSwapRequests)
					r.Get("/overtime-requests", h.GetUserOvertimeRequests)
				})
			})
		})

		r.Route("/shift-types", func(r chi.Router) {
			r.With(h.RequiredRole(adminOnly)).Post("/", h.CreateShiftType)
			r.Get("/", h.GetAllShiftTypes)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.shiftType)
				r.Get("/", h.GetShiftType)
				r.With(h.RequiredRole(adminOnly)).Patch("/", h.UpdateShiftType)
				r.With(h.RequiredRole(adminOnly)).Delete("/", h.DeleteShiftType)
			})
		})

		r.Route("/shifts", func(r chi.Router) {
			r.With(h.RequiredRole(adminOnly)).Post("/", h.CreateShift)
			r.With(h.RequiredRole(adminOnly)).Post("/recurring", h.CreateRecurringShifts)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.shift)
				r.Get("/", h.GetShift)
				r.With(h.RequiredRole(adminOnly)).Patch("/", h.UpdateShift)
				r.With(h.RequiredRole(adminOnly)).Delete("/", h.DeleteShift)
			})
		})

		r.Route("/swap-requests", func(r chi.Router) {
			r.Post("/", h.CreateSwapRequest)
			r.With(h.RequiredRole(adminOnly)).Get("/", h.GetAllSwapRequests)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.swapRequest)
				r.With(h.swapPartyOrAdmin).Get("/", h.GetSwapRequest)
				r.With(h.swapApprover).Patch("/status", h.DecideSwapRequest)
			})
		})

		r.Route("/overtime-requests", func(r chi.Router) {
			r.Post("/", h.CreateOvertimeRequest)
			r.With(h.RequiredRole(adminOnly)).Get("/", h.GetAllOvertimeRequests)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.overtimeRequest)
				r.With(h.overtimeOwnerOrAdmin).Get("/", h.GetOvertimeRequest)
				r.With(h.RequiredRole(adminOnly)).Patch("/status", h.DecideOvertimeRequest)
			})
		})

		r.With(h.RequiredRole(adminOnly)).Get("/dashboard", h.GetDashboard)
	})
}
