package handler

import (
	"net/http"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
	"github.com/SimbaKVis/shift-manager/backend/internal/service"
)

func (h *Handler) GetAllShiftTypes(w http.ResponseWriter, r *http.Request) {
	sts, err := h.service.ListShiftTypes(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取班次类型列表成功", sts)
}

func (h *Handler) CreateShiftType(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name            string `json:"name" validate:"required"`
		DefaultDuration int32  `json:"defaultDuration" validate:"required,gte=1"`
		Category        string `json:"category" validate:"required,oneof=Normal Overtime"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	st, err := h.service.CreateShiftType(r.Context(), service.CreateShiftTypeInput{
		Name:            req.Name,
		DefaultDuration: req.DefaultDuration,
		Category:        domain.ShiftCategory(req.Category),
	})
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建班次类型成功", st)
}

func (h *Handler) GetShiftType(w http.ResponseWriter, r *http.Request) {
	st := r.Context().Value(ShiftTypeCtx).(*domain.ShiftType)
	h.successResponse(w, r, "获取班次类型成功", st)
}

func (h *Handler) UpdateShiftType(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name            *string `json:"name" validate:"omitempty,min=1"`
		DefaultDuration *int32  `json:"defaultDuration" validate:"omitempty,gte=1"`
		Category        *string `json:"category" validate:"omitempty,oneof=Normal Overtime"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	st := r.Context().Value(ShiftTypeCtx).(*domain.ShiftType)

	in := service.UpdateShiftTypeInput{
		Name:            req.Name,
		DefaultDuration: req.DefaultDuration,
	}
	if req.Category != nil {
		category := domain.ShiftCategory(*req.Category)
		in.Category = &category
	}

	updated, err := h.service.UpdateShiftType(r.Context(), st.ID, in)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新班次类型成功", updated)
}

func (h *Handler) DeleteShiftType(w http.ResponseWriter, r *http.Request) {
	st := r.Context().Value(ShiftTypeCtx).(*domain.ShiftType)

	if err := h.service.DeleteShiftType(r.Context(), st.ID); err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除班次类型成功", nil)
}
