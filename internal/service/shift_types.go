package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
)

type CreateShiftTypeInput struct {
	Name            string
	DefaultDuration int32
	Category        domain.ShiftCategory
}

type UpdateShiftTypeInput struct {
	Name            *string
	DefaultDuration *int32
	Category        *domain.ShiftCategory
}

func validateShiftType(st *domain.ShiftType) error {
	if strings.TrimSpace(st.Name) == "" {
		return domain.NewValidationError("name", "班次类型名称不能为空")
	}
	if st.DefaultDuration < 1 {
		return domain.NewValidationError("defaultDuration", "默认时长至少为 1 小时")
	}
	if !st.Category.IsValid() {
		return domain.NewValidationError("category", "班次类别只能为 Normal 或 Overtime")
	}
	return nil
}

func shiftTypeWriteError(err error, id int64) error {
	switch {
	case errors.Is(err, domain.ErrDuplicateShiftTypeName):
		return domain.NewValidationError("name", "班次类型名称已存在")
	case errors.Is(err, domain.ErrEditConflict):
		return domain.NewConflictError("班次类型 %d 已被修改，请刷新后重试", id)
	case isNotFound(err):
		return domain.NewNotFoundError(entityShiftType, id)
	default:
		return err
	}
}

func (s *Service) CreateShiftType(ctx context.Context, in CreateShiftTypeInput) (*domain.ShiftType, error) {
	st := &domain.ShiftType{
		Name:            strings.TrimSpace(in.Name),
		DefaultDuration: in.DefaultDuration,
		Category:        in.Category,
	}
	if err := validateShiftType(st); err != nil {
		return nil, err
	}

	if err := s.store.CreateShiftType(ctx, st); err != nil {
		return nil, shiftTypeWriteError(err, 0)
	}
	return st, nil
}

func (s *Service) GetShiftType(ctx context.Context, id int64) (*domain.ShiftType, error) {
	st, err := s.store.GetShiftTypeByID(ctx, id)
	if err != nil {
		return nil, notFound(err, entityShiftType, id)
	}
	return st, nil
}

func (s *Service) ListShiftTypes(ctx context.Context) ([]*domain.ShiftType, error) {
	return s.store.GetAllShiftTypes(ctx)
}

// UpdateShiftType 修改班次类型。已有班次的时长是创建时记录的，不会随默认时长变化。
func (s *Service) UpdateShiftType(ctx context.Context, id int64, in UpdateShiftTypeInput) (*domain.ShiftType, error) {
	st, err := s.store.GetShiftTypeByID(ctx, id)
	if err != nil {
		return nil, notFound(err, entityShiftType, id)
	}

	if in.Name != nil {
		st.Name = strings.TrimSpace(*in.Name)
	}
	if in.DefaultDuration != nil {
		st.DefaultDuration = *in.DefaultDuration
	}
	if in.Category != nil {
		st.Category = *in.Category
	}
	if err := validateShiftType(st); err != nil {
		return nil, err
	}

	if err := s.store.UpdateShiftType(ctx, st); err != nil {
		return nil, shiftTypeWriteError(err, id)
	}
	return st, nil
}

func (s *Service) DeleteShiftType(ctx context.Context, id int64) error {
	if _, err := s.store.GetShiftTypeByID(ctx, id); err != nil {
		return notFound(err, entityShiftType, id)
	}

	if err := s.store.DeleteShiftType(ctx, id); err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordInUse):
			return domain.NewConflictError("班次类型 %d 已被班次使用，无法删除", id)
		case isNotFound(err):
			return domain.NewNotFoundError(entityShiftType, id)
		default:
			return fmt.Errorf("删除班次类型失败: %w", err)
		}
	}
	return nil
}
