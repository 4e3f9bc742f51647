package service

import (
	"context"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
	"golang.org/x/sync/errgroup"
)

type Summary struct {
	Users                   int `json:"users"`
	Shifts                  int `json:"shifts"`
	PendingSwapRequests     int `json:"pendingSwapRequests"`
	PendingOvertimeRequests int `json:"pendingOvertimeRequests"`
}

// Summary 并发统计管理员首页需要的数字
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	sum := &Summary{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.store.CountUsers(ctx)
		sum.Users = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.CountShifts(ctx)
		sum.Shifts = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.CountSwapRequestsByStatus(ctx, domain.SwapStatusPending)
		sum.PendingSwapRequests = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.CountOvertimeRequestsByStatus(ctx, domain.OvertimeStatusPending)
		sum.PendingOvertimeRequests = n
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sum, nil
}
