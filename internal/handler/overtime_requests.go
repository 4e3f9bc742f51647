package handler

import (
	"net/http"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
	"github.com/SimbaKVis/shift-manager/backend/internal/service"
)

func (h *Handler) CreateOvertimeRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ShiftID int64  `json:"shiftID" validate:"required"`
		Reason  string `json:"reason" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	overtime, err := h.service.CreateOvertimeRequest(r.Context(), service.CreateOvertimeRequestInput{
		UserID:  me(r).ID,
		ShiftID: req.ShiftID,
		Reason:  req.Reason,
	})
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "提交加班申请成功", overtime)
}

func (h *Handler) GetAllOvertimeRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.service.ListOvertimeRequests(r.Context(), service.AllRequests())
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取加班申请列表成功", reqs)
}

func (h *Handler) GetOvertimeRequest(w http.ResponseWriter, r *http.Request) {
	overtime := r.Context().Value(OvertimeRequestCtx).(*domain.OvertimeRequest)
	h.successResponse(w, r, "获取加班申请成功", overtime)
}

func (h *Handler) DecideOvertimeRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	decision, _ := domain.ParseDecision(req.Status)

	overtime := r.Context().Value(OvertimeRequestCtx).(*domain.OvertimeRequest)
	decided, err := h.service.DecideOvertimeRequest(r.Context(), overtime.ID, me(r).ID, decision)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.notifyUser(r, decided.UserID, domain.MailTypeOvertimeRequestDecided, func(u *domain.User) any {
		return domain.OvertimeRequestDecidedMailData{
			FullName:  u.FullName,
			RequestID: decided.ID,
			Status:    decided.Status,
			Duration:  decided.Duration,
		}
	})

	h.successResponse(w, r, "审批加班申请成功", decided)
}
