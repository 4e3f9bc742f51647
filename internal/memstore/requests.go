package memstore

import (
	"context"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
)

func (s *Store) GetSwapRequestByID(ctx context.Context, id int64) (*domain.SwapRequest, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.swapRequests[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return copySwapRequest(r), nil
}

func (s *Store) listSwapRequests(match func(*domain.SwapRequest) bool) []*domain.SwapRequest {
	reqs := make([]*domain.SwapRequest, 0)
	for id := int64(1); id <= s.nextID; id++ {
		if r, ok := s.swapRequests[id]; ok && match(r) {
			reqs = append(reqs, copySwapRequest(r))
		}
	}
	return reqs
}

func (s *Store) GetAllSwapRequests(ctx context.Context) ([]*domain.SwapRequest, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.listSwapRequests(func(*domain.SwapRequest) bool { return true }), nil
}

func (s *Store) GetSwapRequestsByUserID(ctx context.Context, userID int64) ([]*domain.SwapRequest, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.listSwapRequests(func(r *domain.SwapRequest) bool { return r.Involves(userID) }), nil
}

func (s *Store) CreateSwapRequest(ctx context.Context, req *domain.SwapRequest) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.shifts[req.RequestedShiftID]; !ok {
		return domain.ErrRecordNotFound
	}
	if _, ok := s.shifts[req.ColleagueShiftID]; !ok {
		return domain.ErrRecordNotFound
	}

	req.ID = s.id()
	req.CreatedAt = s.now()
	req.Version = 1
	s.swapRequests[req.ID] = copySwapRequest(req)
	return nil
}

func (s *Store) DecideSwapRequest(ctx context.Context, d *domain.SwapDecision) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.swapRequests[d.Request.ID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if stored.Version != d.Request.Version || stored.Status != domain.SwapStatusPending {
		return domain.ErrEditConflict
	}
	// 先检查所有版本号再写入，任何一个不匹配都不做修改
	for _, ex := range d.Exchanges {
		shift, ok := s.shifts[ex.ShiftID]
		if !ok || shift.Version != ex.Version {
			return domain.ErrEditConflict
		}
	}

	for _, ex := range d.Exchanges {
		shift := s.shifts[ex.ShiftID]
		shift.UserID = ex.NewOwnerID
		shift.Version++
	}

	decidedAt := d.DecidedAt
	decidedBy := d.DecidedBy
	stored.Status = d.Status
	stored.DecidedAt = &decidedAt
	stored.DecidedBy = &decidedBy
	stored.Version++

	d.Request.Status = stored.Status
	d.Request.DecidedAt = &decidedAt
	d.Request.DecidedBy = &decidedBy
	d.Request.Version = stored.Version
	return nil
}

func (s *Store) CountSwapRequestsByStatus(ctx context.Context, status domain.SwapStatus) (int, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, r := range s.swapRequests {
		if r.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *Store) GetOvertimeRequestByID(ctx context.Context, id int64) (*domain.OvertimeRequest, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.overtimeRequests[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return copyOvertimeRequest(r), nil
}

func (s *Store) listOvertimeRequests(match func(*domain.OvertimeRequest) bool) []*domain.OvertimeRequest {
	reqs := make([]*domain.OvertimeRequest, 0)
	for id := int64(1); id <= s.nextID; id++ {
		if r, ok := s.overtimeRequests[id]; ok && match(r) {
			reqs = append(reqs, copyOvertimeRequest(r))
		}
	}
	return reqs
}

func (s *Store) GetAllOvertimeRequests(ctx context.Context) ([]*domain.OvertimeRequest, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.listOvertimeRequests(func(*domain.OvertimeRequest) bool { return true }), nil
}

func (s *Store) GetOvertimeRequestsByUserID(ctx context.Context, userID int64) ([]*domain.OvertimeRequest, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.listOvertimeRequests(func(r *domain.OvertimeRequest) bool { return r.UserID == userID }), nil
}

func (s *Store) CreateOvertimeRequest(ctx context.Context, req *domain.OvertimeRequest) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.shifts[req.ShiftID]; !ok {
		return domain.ErrRecordNotFound
	}

	req.ID = s.id()
	req.CreatedAt = s.now()
	req.Version = 1
	s.overtimeRequests[req.ID] = copyOvertimeRequest(req)
	return nil
}

func (s *Store) DecideOvertimeRequest(ctx context.Context, req *domain.OvertimeRequest) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.overtimeRequests[req.ID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if stored.Version != req.Version || stored.Status != domain.OvertimeStatusPending {
		return domain.ErrEditConflict
	}

	stored.Status = req.Status
	stored.DecidedAt = req.DecidedAt
	stored.DecidedBy = req.DecidedBy
	stored.Version++
	req.Version = stored.Version
	// 避免调用方之后修改 req 时影响存储中的数据
	s.overtimeRequests[req.ID] = copyOvertimeRequest(stored)
	return nil
}

func (s *Store) CountOvertimeRequestsByStatus(ctx context.Context, status domain.OvertimeStatus) (int, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, r := range s.overtimeRequests {
		if r.Status == status {
			n++
		}
	}
	return n, nil
}
