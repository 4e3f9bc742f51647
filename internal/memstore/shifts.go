package memstore

import (
	"context"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
)

func (s *Store) GetShiftTypeByID(ctx context.Context, id int64) (*domain.ShiftType, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.shiftTypes[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return copyShiftType(st), nil
}

func (s *Store) GetAllShiftTypes(ctx context.Context) ([]*domain.ShiftType, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sts := make([]*domain.ShiftType, 0, len(s.shiftTypes))
	for id := int64(1); id <= s.nextID; id++ {
		if st, ok := s.shiftTypes[id]; ok {
			sts = append(sts, copyShiftType(st))
		}
	}
	return sts, nil
}

func (s *Store) shiftTypeNameTaken(st *domain.ShiftType) bool {
	for _, other := range s.shiftTypes {
		if other.ID != st.ID && other.Name == st.Name {
			return true
		}
	}
	return false
}

func (s *Store) CreateShiftType(ctx context.Context, st *domain.ShiftType) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shiftTypeNameTaken(st) {
		return domain.ErrDuplicateShiftTypeName
	}

	st.ID = s.id()
	st.CreatedAt = s.now()
	st.Version = 1
	s.shiftTypes[st.ID] = copyShiftType(st)
	return nil
}

func (s *Store) UpdateShiftType(ctx context.Context, st *domain.ShiftType) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.shiftTypes[st.ID]
	if !ok || stored.Version != st.Version {
		return domain.ErrEditConflict
	}
	if s.shiftTypeNameTaken(st) {
		return domain.ErrDuplicateShiftTypeName
	}

	st.Version++
	st.CreatedAt = stored.CreatedAt
	s.shiftTypes[st.ID] = copyShiftType(st)
	return nil
}

func (s *Store) DeleteShiftType(ctx context.Context, id int64) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.shiftTypes[id]; !ok {
		return domain.ErrRecordNotFound
	}
	for _, shift := range s.shifts {
		if shift.ShiftTypeID == id {
			return domain.ErrRecordInUse
		}
	}
	delete(s.shiftTypes, id)
	return nil
}

func (s *Store) GetShiftByID(ctx context.Context, id int64) (*domain.Shift, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, ok := s.shifts[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return s.copyShift(shift), nil
}

func (s *Store) GetShiftsByUserID(ctx context.Context, userID int64) ([]*domain.Shift, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	shifts := make([]*domain.Shift, 0)
	for id := int64(1); id <= s.nextID; id++ {
		if shift, ok := s.shifts[id]; ok && shift.UserID == userID {
			shifts = append(shifts, s.copyShift(shift))
		}
	}
	return shifts, nil
}

// insertShift 调用方需持有锁
func (s *Store) insertShift(shift *domain.Shift) error {
	if _, ok := s.users[shift.UserID]; !ok {
		return domain.ErrRecordNotFound
	}
	st, ok := s.shiftTypes[shift.ShiftTypeID]
	if !ok {
		return domain.ErrRecordNotFound
	}

	shift.ID = s.id()
	shift.CreatedAt = s.now()
	shift.Version = 1
	shift.ShiftType = copyShiftType(st)
	s.shifts[shift.ID] = s.copyShift(shift)
	return nil
}

func (s *Store) CreateShift(ctx context.Context, shift *domain.Shift) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertShift(shift)
}

func (s *Store) CreateShifts(ctx context.Context, shifts []*domain.Shift) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// 先检查全部引用，保证要么全部插入要么都不插入
	for _, shift := range shifts {
		if _, ok := s.users[shift.UserID]; !ok {
			return domain.ErrRecordNotFound
		}
		if _, ok := s.shiftTypes[shift.ShiftTypeID]; !ok {
			return domain.ErrRecordNotFound
		}
	}
	for _, shift := range shifts {
		if err := s.insertShift(shift); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) UpdateShift(ctx context.Context, shift *domain.Shift) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.shifts[shift.ID]
	if !ok || stored.Version != shift.Version {
		return domain.ErrEditConflict
	}
	if _, ok := s.users[shift.UserID]; !ok {
		return domain.ErrRecordNotFound
	}
	if _, ok := s.shiftTypes[shift.ShiftTypeID]; !ok {
		return domain.ErrRecordNotFound
	}

	shift.Version++
	shift.CreatedAt = stored.CreatedAt
	s.shifts[shift.ID] = s.copyShift(shift)
	return nil
}

// pendingRefs 调用方需持有锁
func (s *Store) pendingRefs(shiftID int64) int {
	n := 0
	for _, r := range s.swapRequests {
		if r.Status == domain.SwapStatusPending && r.References(shiftID) {
			n++
		}
	}
	for _, r := range s.overtimeRequests {
		if r.Status == domain.OvertimeStatusPending && r.ShiftID == shiftID {
			n++
		}
	}
	return n
}

func (s *Store) CountPendingRequestsForShift(ctx context.Context, shiftID int64) (int, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pendingRefs(shiftID), nil
}

func (s *Store) DeleteShift(ctx context.Context, id int64, version int32) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.shifts[id]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if stored.Version != version {
		return domain.ErrEditConflict
	}
	if s.pendingRefs(id) > 0 {
		return domain.ErrRecordInUse
	}

	// 已审批的申请保留为历史记录，对班次的引用置为 0
	for _, r := range s.swapRequests {
		if r.RequestedShiftID == id {
			r.RequestedShiftID = 0
		}
		if r.ColleagueShiftID == id {
			r.ColleagueShiftID = 0
		}
	}
	for _, r := range s.overtimeRequests {
		if r.ShiftID == id {
			r.ShiftID = 0
		}
	}
	delete(s.shifts, id)
	return nil
}

func (s *Store) CountShifts(ctx context.Context) (int, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.shifts), nil
}

// PutShift 直接写入一个班次而不做任何校验，用于在测试中模拟存储中的脏数据
func (s *Store) PutShift(shift *domain.Shift) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if shift.ID == 0 {
		shift.ID = s.id()
	} else if shift.ID > s.nextID {
		s.nextID = shift.ID
	}
	if shift.Version == 0 {
		shift.Version = 1
	}
	s.shifts[shift.ID] = s.copyShift(shift)
}
