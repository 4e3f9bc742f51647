package handler

import (
	"net/http"
	"time"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
	"github.com/SimbaKVis/shift-manager/backend/internal/service"
)

func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      int64     `json:"userID" validate:"required"`
		ShiftTypeID int64     `json:"shiftTypeID" validate:"required"`
		StartTime   time.Time `json:"startTime" validate:"required"`
		EndTime     time.Time `json:"endTime" validate:"required"`
		Location    string    `json:"location"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	shift, err := h.service.CreateShift(r.Context(), service.CreateShiftInput{
		UserID:      req.UserID,
		ShiftTypeID: req.ShiftTypeID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    req.Location,
		AssignedBy:  me(r).ID,
	})
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建班次成功", shift)
}

func (h *Handler) CreateRecurringShifts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      int64     `json:"userID" validate:"required"`
		ShiftTypeID int64     `json:"shiftTypeID" validate:"required"`
		RRule       string    `json:"rrule" validate:"required"`
		StartTime   time.Time `json:"startTime" validate:"required"`
		EndTime     time.Time `json:"endTime" validate:"required"`
		Location    string    `json:"location"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	shifts, err := h.service.CreateRecurringShifts(r.Context(), service.RecurringShiftInput{
		UserID:      req.UserID,
		ShiftTypeID: req.ShiftTypeID,
		RRule:       req.RRule,
		FirstStart:  req.StartTime,
		FirstEnd:    req.EndTime,
		Location:    req.Location,
		AssignedBy:  me(r).ID,
	})
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建重复班次成功", shifts)
}

func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)
	h.successResponse(w, r, "获取班次成功", shift)
}

func (h *Handler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      *int64     `json:"userID"`
		ShiftTypeID *int64     `json:"shiftTypeID"`
		StartTime   *time.Time `json:"startTime"`
		EndTime     *time.Time `json:"endTime"`
		Location    *string    `json:"location"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	updated, err := h.service.UpdateShift(r.Context(), shift.ID, service.UpdateShiftInput{
		UserID:      req.UserID,
		ShiftTypeID: req.ShiftTypeID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    req.Location,
	})
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新班次成功", updated)
}

func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	if err := h.service.DeleteShift(r.Context(), shift.ID); err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除班次成功", nil)
}
