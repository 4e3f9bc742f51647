package handler

import (
	"net/http"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
	"github.com/SimbaKVis/shift-manager/backend/internal/service"
)

func (h *Handler) CreateSwapRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RequestedShiftID int64  `json:"requestedShiftID" validate:"required"`
		ColleagueID      int64  `json:"colleagueID" validate:"required"`
		ColleagueShiftID int64  `json:"colleagueShiftID" validate:"required"`
		Reason           string `json:"reason" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	requester := me(r)
	swap, err := h.service.CreateSwapRequest(r.Context(), service.CreateSwapRequestInput{
		RequesterID:      requester.ID,
		RequestedShiftID: req.RequestedShiftID,
		ColleagueID:      req.ColleagueID,
		ColleagueShiftID: req.ColleagueShiftID,
		Reason:           req.Reason,
	})
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.notifyUser(r, swap.ColleagueID, domain.MailTypeSwapRequestCreated, func(u *domain.User) any {
		return domain.SwapRequestCreatedMailData{
			FullName:      u.FullName,
			RequesterName: requester.FullName,
			RequestID:     swap.ID,
			Reason:        swap.Reason,
		}
	})

	h.successResponse(w, r, "提交换班申请成功", swap)
}

func (h *Handler) GetAllSwapRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.service.ListSwapRequests(r.Context(), service.AllRequests())
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取换班申请列表成功", reqs)
}

func (h *Handler) GetSwapRequest(w http.ResponseWriter, r *http.Request) {
	swap := r.Context().Value(SwapRequestCtx).(*domain.SwapRequest)
	h.successResponse(w, r, "获取换班申请成功", swap)
}

func (h *Handler) DecideSwapRequest(w http.ResponseWriter, r *http.Request) {
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

	// 非法的审批结果交给引擎返回 ValidationError
	decision, _ := domain.ParseDecision(req.Status)

	swap := r.Context().Value(SwapRequestCtx).(*domain.SwapRequest)
	decided, err := h.service.DecideSwapRequest(r.Context(), swap.ID, me(r).ID, decision)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	for _, userID := range []int64{decided.RequesterID, decided.ColleagueID} {
		h.notifyUser(r, userID, domain.MailTypeSwapRequestDecided, func(u *domain.User) any {
			return domain.SwapRequestDecidedMailData{
				FullName:  u.FullName,
				RequestID: decided.ID,
				Status:    decided.Status,
			}
		})
	}

	h.successResponse(w, r, "审批换班申请成功", decided)
}
