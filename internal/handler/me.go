package handler

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) GetMyInfo(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "获取个人信息成功", me(r))
}

func (h *Handler) UpdateMyPassword(w http.ResponseWriter, r *http.Request) {
	myInfo := me(r)

	var req struct {
		OldPassword string `json:"oldPassword" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(myInfo.PasswordHash), []byte(req.OldPassword)); err != nil {
		h.errorResponse(w, r, http.StatusBadRequest, "旧密码错误")
		return
	}

	if err := h.service.ChangePassword(r.Context(), myInfo.ID, req.NewPassword); err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新密码成功", nil)
}
