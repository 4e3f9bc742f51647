package handler

import (
	"net/http"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
	"github.com/SimbaKVis/shift-manager/backend/internal/service"
	"github.com/SimbaKVis/shift-manager/backend/internal/utils"
)

func (h *Handler) GetAllUserInfo(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取用户列表成功", users)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		FullName string `json:"fullName" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Role     string `json:"role" validate:"required,oneof=Agent TeamLeader Admin"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 生成随机密码，通过邮件发给新用户
	password := utils.GenerateRandomPassword(h.config.NewUser.PasswordLength)

	user, err := h.service.CreateUser(r.Context(), service.CreateUserInput{
		Username: req.Username,
		FullName: req.FullName,
		Email:    req.Email,
		Role:     domain.Role(req.Role),
		Password: password,
	})
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.notifyUser(r, user.ID, domain.MailTypeCreateUser, func(u *domain.User) any {
		return domain.CreateUserMailData{
			FullName: u.FullName,
			Username: u.Username,
			Password: password,
		}
	})

	h.successResponse(w, r, "用户创建成功", user)
}

func (h *Handler) GetUserInfo(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)
	h.successResponse(w, r, "获取用户信息成功", user)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName *string `json:"fullName" validate:"omitempty,min=1"`
		Email    *string `json:"email" validate:"omitempty,email"`
		Role     *string `json:"role" validate:"omitempty,oneof=Agent TeamLeader Admin"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	user := r.Context().Value(UserInfoCtx).(*domain.User)

	in := service.UpdateUserInput{
		FullName: req.FullName,
		Email:    req.Email,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		in.Role = &role
	}

	updated, err := h.service.UpdateUser(r.Context(), user.ID, in)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新用户信息成功", updated)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	if err := h.service.DeleteUser(r.Context(), user.ID); err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除用户成功", nil)
}

func (h *Handler) UpdateUserPassword(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	var req struct {
		Password string `json:"password" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.service.ChangePassword(r.Context(), user.ID, req.Password); err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "修改密码成功", nil)
}

func (h *Handler) GetUserShifts(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	shifts, err := h.service.ListShiftsForUser(r.Context(), user.ID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取班次列表成功", shifts)
}

func (h *Handler) GetEligibleShifts(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	shifts, err := h.service.ListEligibleShifts(r.Context(), user.ID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取可申请加班的班次成功", shifts)
}

func (h *Handler) GetUserSwapRequests(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	reqs, err := h.service.ListSwapRequests(r.Context(), service.ByUser(user.ID))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取换班申请列表成功", reqs)
}

func (h *Handler) GetUserOvertimeRequests(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	reqs, err := h.service.ListOvertimeRequests(r.Context(), service.ByUser(user.ID))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取加班申请列表成功", reqs)
}
