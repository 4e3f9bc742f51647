package service

import (
	"context"
	"fmt"
	"time"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
	"github.com/teambition/rrule-go"
)

// RecurringShiftInput 描述一组按 RRULE 重复的班次。
// 第一个班次为 [FirstStart, FirstEnd)，之后每次重复的时长与第一个班次相同。
type RecurringShiftInput struct {
	UserID      int64
	ShiftTypeID int64
	RRule       string // 例如 FREQ=WEEKLY;BYDAY=MO,WE;COUNT=8
	FirstStart  time.Time
	FirstEnd    time.Time
	Location    string
	AssignedBy  int64
}

// CreateRecurringShifts 展开 RRULE 并在一个事务中创建所有班次，
// 任意一个班次校验失败时不会写入任何班次
func (s *Service) CreateRecurringShifts(ctx context.Context, in RecurringShiftInput) ([]*domain.Shift, error) {
	if !in.FirstEnd.After(in.FirstStart) {
		return nil, domain.NewValidationError("firstEnd", "结束时间必须晚于开始时间")
	}

	occurrences, err := s.expandRRule(in.RRule, in.FirstStart)
	if err != nil {
		return nil, err
	}

	length := in.FirstEnd.Sub(in.FirstStart)
	shifts := make([]*domain.Shift, 0, len(occurrences))
	for _, start := range occurrences {
		shift, err := s.buildShift(ctx, CreateShiftInput{
			UserID:      in.UserID,
			ShiftTypeID: in.ShiftTypeID,
			StartTime:   start,
			EndTime:     start.Add(length),
			Location:    in.Location,
			AssignedBy:  in.AssignedBy,
		})
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}

	if err := s.store.CreateShifts(ctx, shifts); err != nil {
		return nil, fmt.Errorf("批量创建班次失败: %w", err)
	}

	s.logger.Info("已创建重复班次", "user_id", in.UserID, "count", len(shifts), "rrule", in.RRule)
	return shifts, nil
}

func (s *Service) expandRRule(rule string, dtstart time.Time) ([]time.Time, error) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, domain.NewValidationError("rrule", fmt.Sprintf("无法解析重复规则: %v", err))
	}
	r.DTStart(dtstart.In(s.loc))

	// 没有 COUNT 或 UNTIL 的规则会无限重复，因此最多只取上限 + 1 个，超过上限则拒绝
	next := r.Iterator()
	occurrences := make([]time.Time, 0)
	for {
		t, ok := next()
		if !ok {
			break
		}
		occurrences = append(occurrences, t)
		if len(occurrences) > s.maxRecurringOccurrences {
			return nil, domain.NewValidationError("rrule", fmt.Sprintf("重复次数不能超过 %d 次", s.maxRecurringOccurrences))
		}
	}

	if len(occurrences) == 0 {
		return nil, domain.NewValidationError("rrule", "重复规则没有产生任何班次")
	}

	return occurrences, nil
}
