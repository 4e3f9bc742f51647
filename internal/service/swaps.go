package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
)

type CreateSwapRequestInput struct {
	RequesterID      int64
	RequestedShiftID int64
	ColleagueID      int64
	ColleagueShiftID int64
	Reason           string
}

func (s *Service) CreateSwapRequest(ctx context.Context, in CreateSwapRequestInput) (*domain.SwapRequest, error) {
	if in.RequesterID == in.ColleagueID {
		return nil, domain.NewValidationError("colleagueID", "不能与自己换班")
	}

	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, domain.NewValidationError("reason", "申请理由不能为空")
	}

	if err := s.checkShiftOwner(ctx, "requestedShiftID", in.RequestedShiftID, in.RequesterID, "申请人"); err != nil {
		return nil, err
	}
	if err := s.checkShiftOwner(ctx, "colleagueShiftID", in.ColleagueShiftID, in.ColleagueID, "同事"); err != nil {
		return nil, err
	}

	req := &domain.SwapRequest{
		RequesterID:      in.RequesterID,
		RequestedShiftID: in.RequestedShiftID,
		ColleagueID:      in.ColleagueID,
		ColleagueShiftID: in.ColleagueShiftID,
		Reason:           reason,
		Status:           domain.SwapStatusPending,
	}
	if err := s.store.CreateSwapRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("创建换班申请失败: %w", err)
	}

	s.logger.Info("已创建换班申请", "request_id", req.ID, "requester_id", req.RequesterID, "colleague_id", req.ColleagueID)
	return req, nil
}

// checkShiftOwner 检查用户存在且班次属于该用户
func (s *Service) checkShiftOwner(ctx context.Context, field string, shiftID, ownerID int64, party string) error {
	if _, err := s.store.GetUserByID(ctx, ownerID); err != nil {
		if isNotFound(err) {
			return domain.NewValidationError(field, party+"不存在")
		}
		return err
	}

	shift, err := s.store.GetShiftByID(ctx, shiftID)
	if err != nil {
		if isNotFound(err) {
			return domain.NewValidationError(field, "班次不存在")
		}
		return err
	}

	if shift.UserID != ownerID {
		return domain.NewValidationError(field, "该班次不属于"+party)
	}
	return nil
}

func (s *Service) GetSwapRequest(ctx context.Context, requestID int64) (*domain.SwapRequest, error) {
	req, err := s.store.GetSwapRequestByID(ctx, requestID)
	if err != nil {
		return nil, notFound(err, entitySwapRequest, requestID)
	}
	return req, nil
}

// DecideSwapRequest 审批换班申请。
//
// 审批通过时会按当前的班次归属重新校验：任意一个班次已被删除或已不属于原来的一方，
// 则整个操作失败，申请仍为 Pending。状态变更和两个班次的归属交换由存储层原子写入，
// 以读取时的版本号为条件，因此同一个班次被两个申请同时换走时只有一个能成功。
func (s *Service) DecideSwapRequest(ctx context.Context, requestID int64, deciderID int64, decision domain.RequestStatus) (*domain.SwapRequest, error) {
	if !decision.IsTerminal() {
		return nil, domain.NewValidationError("status", "审批结果只能为 Approved 或 Rejected")
	}

	req, err := s.store.GetSwapRequestByID(ctx, requestID)
	if err != nil {
		return nil, notFound(err, entitySwapRequest, requestID)
	}

	if !domain.CanTransition(req.Status.State(), decision) {
		return nil, domain.NewConflictError("换班申请 %d 已审批，当前状态为 %s", requestID, req.Status)
	}

	d := &domain.SwapDecision{
		Request:   req,
		Status:    domain.SwapStatusOf(decision),
		DecidedBy: deciderID,
		DecidedAt: s.now(),
	}

	if decision == domain.RequestApproved {
		requested, err := s.currentShiftOf(ctx, req.RequestedShiftID, req.RequesterID)
		if err != nil {
			return nil, err
		}
		colleague, err := s.currentShiftOf(ctx, req.ColleagueShiftID, req.ColleagueID)
		if err != nil {
			return nil, err
		}

		d.Exchanges = []domain.ShiftOwnerChange{
			{ShiftID: requested.ID, Version: requested.Version, NewOwnerID: req.ColleagueID},
			{ShiftID: colleague.ID, Version: colleague.Version, NewOwnerID: req.RequesterID},
		}
	}

	if err := s.store.DecideSwapRequest(ctx, d); err != nil {
		switch {
		case errors.Is(err, domain.ErrEditConflict):
			return nil, domain.NewConflictError("换班申请 %d 或相关班次已被修改，请刷新后重试", requestID)
		case isNotFound(err):
			return nil, domain.NewNotFoundError(entitySwapRequest, requestID)
		default:
			return nil, fmt.Errorf("审批换班申请失败: %w", err)
		}
	}

	s.logger.Info("已审批换班申请", "request_id", req.ID, "status", req.Status, "decided_by", deciderID)
	return req, nil
}

// currentShiftOf 读取班次的最新状态，班次已被删除或已被转给他人时返回 ConflictError
func (s *Service) currentShiftOf(ctx context.Context, shiftID, ownerID int64) (*domain.Shift, error) {
	shift, err := s.store.GetShiftByID(ctx, shiftID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NewConflictError("班次 %d 已被删除，无法换班", shiftID)
		}
		return nil, err
	}
	if shift.UserID != ownerID {
		return nil, domain.NewConflictError("班次 %d 已不属于用户 %d，无法换班", shiftID, ownerID)
	}
	return shift, nil
}

// ListSwapRequests 按创建时间升序返回，创建时间相同时按 ID 排序
func (s *Service) ListSwapRequests(ctx context.Context, filter RequestFilter) ([]*domain.SwapRequest, error) {
	var (
		reqs []*domain.SwapRequest
		err  error
	)
	if filter.UserID == 0 {
		reqs, err = s.store.GetAllSwapRequests(ctx)
	} else {
		reqs, err = s.store.GetSwapRequestsByUserID(ctx, filter.UserID)
	}
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(reqs, func(a, b *domain.SwapRequest) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return reqs, nil
}
