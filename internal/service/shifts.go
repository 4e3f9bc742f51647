package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
)

type CreateShiftInput struct {
	UserID      int64
	ShiftTypeID int64
	StartTime   time.Time
	EndTime     time.Time
	Location    string
	AssignedBy  int64
}

// UpdateShiftInput 中为 nil 的字段表示不修改
type UpdateShiftInput struct {
	UserID      *int64
	ShiftTypeID *int64
	StartTime   *time.Time
	EndTime     *time.Time
	Location    *string
}

func (s *Service) CreateShift(ctx context.Context, in CreateShiftInput) (*domain.Shift, error) {
	shift, err := s.buildShift(ctx, in)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateShift(ctx, shift); err != nil {
		return nil, fmt.Errorf("创建班次失败: %w", err)
	}

	s.logger.Info("已创建班次", "shift_id", shift.ID, "user_id", shift.UserID, "assigned_by", shift.AssignedBy)
	return shift, nil
}

// buildShift 校验输入并构造一个尚未持久化的班次
func (s *Service) buildShift(ctx context.Context, in CreateShiftInput) (*domain.Shift, error) {
	if !in.EndTime.After(in.StartTime) {
		return nil, domain.NewValidationError("endTime", "结束时间必须晚于开始时间")
	}

	st, err := s.store.GetShiftTypeByID(ctx, in.ShiftTypeID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NewValidationError("shiftTypeID", "班次类型不存在")
		}
		return nil, err
	}

	if _, err := s.store.GetUserByID(ctx, in.UserID); err != nil {
		if isNotFound(err) {
			return nil, domain.NewValidationError("userID", "用户不存在")
		}
		return nil, err
	}

	if in.AssignedBy != 0 && in.AssignedBy != in.UserID {
		if _, err := s.store.GetUserByID(ctx, in.AssignedBy); err != nil {
			if isNotFound(err) {
				return nil, domain.NewValidationError("assignedBy", "排班人不存在")
			}
			return nil, err
		}
	}

	return &domain.Shift{
		UserID:      in.UserID,
		ShiftTypeID: in.ShiftTypeID,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Duration:    domain.ShiftDurationMinutes(in.StartTime, in.EndTime),
		Location:    in.Location,
		AssignedBy:  in.AssignedBy,
		ShiftType:   st,
	}, nil
}

func (s *Service) GetShift(ctx context.Context, shiftID int64) (*domain.Shift, error) {
	shift, err := s.store.GetShiftByID(ctx, shiftID)
	if err != nil {
		return nil, notFound(err, entityShift, shiftID)
	}
	return shift, nil
}

// UpdateShift 只写入与存储中不同的字段，开始或结束时间变化时重新计算时长
func (s *Service) UpdateShift(ctx context.Context, shiftID int64, in UpdateShiftInput) (*domain.Shift, error) {
	shift, err := s.store.GetShiftByID(ctx, shiftID)
	if err != nil {
		return nil, notFound(err, entityShift, shiftID)
	}

	changed := false

	if in.UserID != nil && *in.UserID != shift.UserID {
		if _, err := s.store.GetUserByID(ctx, *in.UserID); err != nil {
			if isNotFound(err) {
				return nil, domain.NewValidationError("userID", "用户不存在")
			}
			return nil, err
		}
		shift.UserID = *in.UserID
		changed = true
	}

	if in.ShiftTypeID != nil && *in.ShiftTypeID != shift.ShiftTypeID {
		st, err := s.store.GetShiftTypeByID(ctx, *in.ShiftTypeID)
		if err != nil {
			if isNotFound(err) {
				return nil, domain.NewValidationError("shiftTypeID", "班次类型不存在")
			}
			return nil, err
		}
		shift.ShiftTypeID = st.ID
		shift.ShiftType = st
		changed = true
	}

	timesChanged := false
	if in.StartTime != nil && !in.StartTime.Equal(shift.StartTime) {
		shift.StartTime = *in.StartTime
		timesChanged = true
	}
	if in.EndTime != nil && !in.EndTime.Equal(shift.EndTime) {
		shift.EndTime = *in.EndTime
		timesChanged = true
	}
	if timesChanged {
		if !shift.EndTime.After(shift.StartTime) {
			return nil, domain.NewValidationError("endTime", "结束时间必须晚于开始时间")
		}
		shift.Duration = domain.ShiftDurationMinutes(shift.StartTime, shift.EndTime)
		changed = true
	}

	if in.Location != nil && *in.Location != shift.Location {
		shift.Location = *in.Location
		changed = true
	}

	if !changed {
		return shift, nil
	}

	if err := s.store.UpdateShift(ctx, shift); err != nil {
		switch {
		case errors.Is(err, domain.ErrEditConflict):
			return nil, domain.NewConflictError("班次 %d 已被修改，请刷新后重试", shiftID)
		case isNotFound(err):
			return nil, domain.NewNotFoundError(entityShift, shiftID)
		default:
			return nil, fmt.Errorf("更新班次失败: %w", err)
		}
	}

	return shift, nil
}

// DeleteShift 在仍有待审批的换班或加班申请引用该班次时拒绝删除
func (s *Service) DeleteShift(ctx context.Context, shiftID int64) error {
	shift, err := s.store.GetShiftByID(ctx, shiftID)
	if err != nil {
		return notFound(err, entityShift, shiftID)
	}

	pending, err := s.store.CountPendingRequestsForShift(ctx, shiftID)
	if err != nil {
		return err
	}
	if pending > 0 {
		return domain.NewConflictError("班次 %d 仍有 %d 个待审批的申请，无法删除", shiftID, pending)
	}

	// 检查与删除之间可能有新的申请提交，由存储层再做一次原子检查
	if err := s.store.DeleteShift(ctx, shiftID, shift.Version); err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordInUse):
			return domain.NewConflictError("班次 %d 仍有待审批的申请，无法删除", shiftID)
		case errors.Is(err, domain.ErrEditConflict):
			return domain.NewConflictError("班次 %d 已被修改，请刷新后重试", shiftID)
		case isNotFound(err):
			return domain.NewNotFoundError(entityShift, shiftID)
		default:
			return fmt.Errorf("删除班次失败: %w", err)
		}
	}

	s.logger.Info("已删除班次", "shift_id", shiftID)
	return nil
}

// ListShiftsForUser 按开始时间升序返回用户的班次，时间戳无效的班次会被过滤掉
func (s *Service) ListShiftsForUser(ctx context.Context, userID int64) ([]*domain.Shift, error) {
	shifts, err := s.store.GetShiftsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := make([]*domain.Shift, 0, len(shifts))
	for _, shift := range shifts {
		if !shift.HasValidTimes() {
			s.logger.Warn("跳过时间戳无效的班次", "shift_id", shift.ID)
			continue
		}
		res = append(res, shift)
	}

	slices.SortStableFunc(res, func(a, b *domain.Shift) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	return res, nil
}
