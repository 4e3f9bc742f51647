package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
)

type CreateOvertimeRequestInput struct {
	UserID  int64
	ShiftID int64
	Reason  string
}

// dateOf 去掉时间部分，只保留 loc 时区下的日期
func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// IsEligibleForOvertime 判断班次能否申请加班：班次类型为 Overtime，且开始日期不早于今天。
// 只比较日期，不比较时间。
func (s *Service) IsEligibleForOvertime(shift *domain.Shift) bool {
	if shift.ShiftType == nil || shift.ShiftType.Category != domain.ShiftCategoryOvertime {
		return false
	}
	if !shift.HasValidTimes() {
		return false
	}
	return !dateOf(shift.StartTime, s.loc).Before(dateOf(s.now(), s.loc))
}

func (s *Service) ListEligibleShifts(ctx context.Context, userID int64) ([]*domain.Shift, error) {
	shifts, err := s.ListShiftsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	eligible := make([]*domain.Shift, 0, len(shifts))
	for _, shift := range shifts {
		if s.IsEligibleForOvertime(shift) {
			eligible = append(eligible, shift)
		}
	}
	return eligible, nil
}

// CreateOvertimeRequest 只在创建时检查资格，审批时不会重新检查
func (s *Service) CreateOvertimeRequest(ctx context.Context, in CreateOvertimeRequestInput) (*domain.OvertimeRequest, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, domain.NewValidationError("reason", "申请理由不能为空")
	}

	eligible, err := s.ListEligibleShifts(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	idx := slices.IndexFunc(eligible, func(shift *domain.Shift) bool { return shift.ID == in.ShiftID })
	if idx < 0 {
		return nil, domain.NewValidationError("shiftID", "该班次不符合加班申请条件")
	}
	shift := eligible[idx]

	req := &domain.OvertimeRequest{
		UserID:   in.UserID,
		ShiftID:  shift.ID,
		Reason:   reason,
		Status:   domain.OvertimeStatusPending,
		Duration: shift.Duration,
	}
	if err := s.store.CreateOvertimeRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("创建加班申请失败: %w", err)
	}

	s.logger.Info("已创建加班申请", "request_id", req.ID, "user_id", req.UserID, "shift_id", req.ShiftID)
	return req, nil
}

func (s *Service) GetOvertimeRequest(ctx context.Context, requestID int64) (*domain.OvertimeRequest, error) {
	req, err := s.store.GetOvertimeRequestByID(ctx, requestID)
	if err != nil {
		return nil, notFound(err, entityOvertimeRequest, requestID)
	}
	return req, nil
}

// DecideOvertimeRequest 审批加班申请，审批结果不可撤销也不可重复审批，对班次本身没有影响
func (s *Service) DecideOvertimeRequest(ctx context.Context, requestID int64, deciderID int64, decision domain.RequestStatus) (*domain.OvertimeRequest, error) {
	if !decision.IsTerminal() {
		return nil, domain.NewValidationError("status", "审批结果只能为 approved 或 rejected")
	}

	req, err := s.store.GetOvertimeRequestByID(ctx, requestID)
	if err != nil {
		return nil, notFound(err, entityOvertimeRequest, requestID)
	}

	if !domain.CanTransition(req.Status.State(), decision) {
		return nil, domain.NewConflictError("加班申请 %d 已审批，当前状态为 %s", requestID, req.Status)
	}

	now := s.now()
	req.Status = domain.OvertimeStatusOf(decision)
	req.DecidedAt = &now
	req.DecidedBy = &deciderID

	if err := s.store.DecideOvertimeRequest(ctx, req); err != nil {
		switch {
		case errors.Is(err, domain.ErrEditConflict):
			return nil, domain.NewConflictError("加班申请 %d 已被其他人审批", requestID)
		case isNotFound(err):
			return nil, domain.NewNotFoundError(entityOvertimeRequest, requestID)
		default:
			return nil, fmt.Errorf("审批加班申请失败: %w", err)
		}
	}

	s.logger.Info("已审批加班申请", "request_id", req.ID, "status", req.Status, "decided_by", deciderID)
	return req, nil
}

// ListOvertimeRequests 按创建时间升序返回
func (s *Service) ListOvertimeRequests(ctx context.Context, filter RequestFilter) ([]*domain.OvertimeRequest, error) {
	var (
		reqs []*domain.OvertimeRequest
		err  error
	)
	if filter.UserID == 0 {
		reqs, err = s.store.GetAllOvertimeRequests(ctx)
	} else {
		reqs, err = s.store.GetOvertimeRequestsByUserID(ctx, filter.UserID)
	}
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(reqs, func(a, b *domain.OvertimeRequest) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return reqs, nil
}
