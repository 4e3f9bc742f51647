// Package memstore 是实体存储的内存实现，所有操作由同一把互斥锁串行化。
// 用于测试以及 STORE_DRIVER=memory 时的本地开发。
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
	"github.com/SimbaKVis/shift-manager/backend/internal/service"
)

var _ service.Store = (*Store)(nil)

type Store struct {
	mu  sync.Mutex
	now func() time.Time

	nextID int64

	users            map[int64]*domain.User
	shiftTypes       map[int64]*domain.ShiftType
	shifts           map[int64]*domain.Shift
	swapRequests     map[int64]*domain.SwapRequest
	overtimeRequests map[int64]*domain.OvertimeRequest
}

func New() *Store {
	return &Store{
		now:              time.Now,
		users:            make(map[int64]*domain.User),
		shiftTypes:       make(map[int64]*domain.ShiftType),
		shifts:           make(map[int64]*domain.Shift),
		swapRequests:     make(map[int64]*domain.SwapRequest),
		overtimeRequests: make(map[int64]*domain.OvertimeRequest),
	}
}

// WithClock 替换生成 CreatedAt 所用的时钟
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func checkCtx(ctx context.Context) error {
	return ctx.Err()
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func copyShiftType(st *domain.ShiftType) *domain.ShiftType {
	c := *st
	return &c
}

// copyShift 复制班次并填充 ShiftType，调用方需持有锁
func (s *Store) copyShift(shift *domain.Shift) *domain.Shift {
	c := *shift
	c.ShiftType = nil
	if st, ok := s.shiftTypes[shift.ShiftTypeID]; ok {
		c.ShiftType = copyShiftType(st)
	}
	return &c
}

func copySwapRequest(r *domain.SwapRequest) *domain.SwapRequest {
	c := *r
	if r.DecidedAt != nil {
		t := *r.DecidedAt
		c.DecidedAt = &t
	}
	if r.DecidedBy != nil {
		id := *r.DecidedBy
		c.DecidedBy = &id
	}
	return &c
}

func copyOvertimeRequest(r *domain.OvertimeRequest) *domain.OvertimeRequest {
	c := *r
	if r.DecidedAt != nil {
		t := *r.DecidedAt
		c.DecidedAt = &t
	}
	if r.DecidedBy != nil {
		id := *r.DecidedBy
		c.DecidedBy = &id
	}
	return &c
}
