package service_test

import (
	"sync"
	"testing"
	"time"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
	"github.com/SimbaKVis/shift-manager/backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type swapFixture struct {
	*testEnv
	u1, u2, admin *domain.User
	s1, s3        *domain.Shift
}

func newSwapFixture(t *testing.T) *swapFixture {
	env := newTestEnv(t)
	f := &swapFixture{testEnv: env}
	f.u1 = env.user(t, "u1", domain.RoleAgent)
	f.u2 = env.user(t, "u2", domain.RoleAgent)
	f.admin = env.user(t, "boss", domain.RoleAdmin)
	f.s1 = env.shift(t, f.u1.ID, env.normal, time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC), 8)
	f.s3 = env.shift(t, f.u2.ID, env.normal, time.Date(2025, 1, 3, 9, 0, 0, 0, time.UTC), 8)
	return f
}

func (f *swapFixture) request(t *testing.T) *domain.SwapRequest {
	t.Helper()

	req, err := f.svc.CreateSwapRequest(f.ctx, service.CreateSwapRequestInput{
		RequesterID:      f.u1.ID,
		RequestedShiftID: f.s1.ID,
		ColleagueID:      f.u2.ID,
		ColleagueShiftID: f.s3.ID,
		Reason:           "家里有事",
	})
	require.NoError(t, err)
	return req
}

func TestCreateSwapRequest(t *testing.T) {
	f := newSwapFixture(t)

	req := f.request(t)
	assert.Equal(t, domain.SwapStatusPending, req.Status)
	assert.Equal(t, "家里有事", req.Reason)
	assert.Nil(t, req.DecidedAt)
	assert.Nil(t, req.DecidedBy)

	tests := []struct {
		name  string
		in    service.CreateSwapRequestInput
		field string
	}{
		{
			name:  "与自己换班",
			in:    service.CreateSwapRequestInput{RequesterID: f.u1.ID, RequestedShiftID: f.s1.ID, ColleagueID: f.u1.ID, ColleagueShiftID: f.s1.ID, Reason: "x"},
			field: "colleagueID",
		},
		{
			name:  "申请人的班次不属于申请人",
			in:    service.CreateSwapRequestInput{RequesterID: f.u1.ID, RequestedShiftID: f.s3.ID, ColleagueID: f.u2.ID, ColleagueShiftID: f.s3.ID, Reason: "x"},
			field: "requestedShiftID",
		},
		{
			name:  "同事的班次不属于同事",
			in:    service.CreateSwapRequestInput{RequesterID: f.u1.ID, RequestedShiftID: f.s1.ID, ColleagueID: f.u2.ID, ColleagueShiftID: f.s1.ID, Reason: "x"},
			field: "colleagueShiftID",
		},
		{
			name:  "班次不存在",
			in:    service.CreateSwapRequestInput{RequesterID: f.u1.ID, RequestedShiftID: f.s1.ID, ColleagueID: f.u2.ID, ColleagueShiftID: 999, Reason: "x"},
			field: "colleagueShiftID",
		},
		{
			name:  "同事不存在",
			in:    service.CreateSwapRequestInput{RequesterID: f.u1.ID, RequestedShiftID: f.s1.ID, ColleagueID: 999, ColleagueShiftID: f.s3.ID, Reason: "x"},
			field: "colleagueShiftID",
		},
		{
			name:  "理由为空",
			in:    service.CreateSwapRequestInput{RequesterID: f.u1.ID, RequestedShiftID: f.s1.ID, ColleagueID: f.u2.ID, ColleagueShiftID: f.s3.ID, Reason: " \t"},
			field: "reason",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateSwapRequest(f.ctx, tt.in)
			requireValidation(t, err, tt.field)
		})
	}

	all, err := f.svc.ListSwapRequests(f.ctx, service.AllRequests())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestApproveSwapRequest(t *testing.T) {
	f := newSwapFixture(t)
	req := f.request(t)

	decided, err := f.svc.DecideSwapRequest(f.ctx, req.ID, f.admin.ID, domain.RequestApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.SwapStatusApproved, decided.Status)
	require.NotNil(t, decided.DecidedBy)
	assert.Equal(t, f.admin.ID, *decided.DecidedBy)
	require.NotNil(t, decided.DecidedAt)
	assert.True(t, decided.DecidedAt.Equal(testNow))

	assert.Equal(t, f.u2.ID, f.getShift(t, f.s1.ID).UserID)
	assert.Equal(t, f.u1.ID, f.getShift(t, f.s3.ID).UserID)

	// 第二次审批失败，班次归属保持不变
	_, err = f.svc.DecideSwapRequest(f.ctx, req.ID, f.admin.ID, domain.RequestRejected)
	requireConflict(t, err)
	_, err = f.svc.DecideSwapRequest(f.ctx, req.ID, f.admin.ID, domain.RequestApproved)
	requireConflict(t, err)

	assert.Equal(t, f.u2.ID, f.getShift(t, f.s1.ID).UserID)
	assert.Equal(t, f.u1.ID, f.getShift(t, f.s3.ID).UserID)

	stored, err := f.svc.GetSwapRequest(f.ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SwapStatusApproved, stored.Status)
}

func TestRejectSwapRequest(t *testing.T) {
	f := newSwapFixture(t)
	req := f.request(t)

	decided, err := f.svc.DecideSwapRequest(f.ctx, req.ID, f.admin.ID, domain.RequestRejected)
	require.NoError(t, err)
	assert.Equal(t, domain.SwapStatusRejected, decided.Status)

	assert.Equal(t, f.u1.ID, f.getShift(t, f.s1.ID).UserID)
	assert.Equal(t, f.u2.ID, f.getShift(t, f.s3.ID).UserID)

	_, err = f.svc.DecideSwapRequest(f.ctx, req.ID, f.admin.ID, domain.RequestApproved)
	requireConflict(t, err)
	assert.Equal(t, f.u1.ID, f.getShift(t, f.s1.ID).UserID)
}

func TestDecideSwapRequestErrors(t *testing.T) {
	f := newSwapFixture(t)

	t.Run("申请不存在", func(t *testing.T) {
		_, err := f.svc.DecideSwapRequest(f.ctx, 999, f.admin.ID, domain.RequestApproved)
		requireNotFound(t, err)
	})

	t.Run("审批结果无效", func(t *testing.T) {
		req := f.request(t)
		_, err := f.svc.DecideSwapRequest(f.ctx, req.ID, f.admin.ID, domain.RequestPending)
		requireValidation(t, err, "status")
	})
}

func TestApproveSwapAfterReassignment(t *testing.T) {
	f := newSwapFixture(t)
	u3 := f.user(t, "u3", domain.RoleAgent)
	req := f.request(t)

	// 创建申请之后管理员把 S3 转给了 u3
	_, err := f.svc.UpdateShift(f.ctx, f.s3.ID, service.UpdateShiftInput{UserID: ptr(u3.ID)})
	require.NoError(t, err)

	_, err = f.svc.DecideSwapRequest(f.ctx, req.ID, f.admin.ID, domain.RequestApproved)
	requireConflict(t, err)

	stored, err := f.svc.GetSwapRequest(f.ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SwapStatusPending, stored.Status)
	assert.Equal(t, f.u1.ID, f.getShift(t, f.s1.ID).UserID)
	assert.Equal(t, u3.ID, f.getShift(t, f.s3.ID).UserID)

	// 驳回只修改状态，不检查班次归属
	decided, err := f.svc.DecideSwapRequest(f.ctx, req.ID, f.admin.ID, domain.RequestRejected)
	require.NoError(t, err)
	assert.Equal(t, domain.SwapStatusRejected, decided.Status)
}

func TestConcurrentSwapsOfSameShift(t *testing.T) {
	f := newSwapFixture(t)
	u3 := f.user(t, "u3", domain.RoleAgent)
	s4 := f.shift(t, u3.ID, f.normal, time.Date(2025, 1, 4, 9, 0, 0, 0, time.UTC), 8)

	// S1 同时被许诺给 u2 和 u3
	first := f.request(t)
	second, err := f.svc.CreateSwapRequest(f.ctx, service.CreateSwapRequestInput{
		RequesterID:      f.u1.ID,
		RequestedShiftID: f.s1.ID,
		ColleagueID:      u3.ID,
		ColleagueShiftID: s4.ID,
		Reason:           "家里有事",
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []int64{first.ID, second.ID} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.DecideSwapRequest(f.ctx, id, f.admin.ID, domain.RequestApproved)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		requireConflict(t, err)
	}
	require.Equal(t, 1, succeeded)

	owner := f.getShift(t, f.s1.ID).UserID
	switch owner {
	case f.u2.ID:
		assert.Equal(t, f.u1.ID, f.getShift(t, f.s3.ID).UserID)
		assert.Equal(t, u3.ID, f.getShift(t, s4.ID).UserID)
	case u3.ID:
		assert.Equal(t, f.u1.ID, f.getShift(t, s4.ID).UserID)
		assert.Equal(t, f.u2.ID, f.getShift(t, f.s3.ID).UserID)
	default:
		t.Fatalf("S1 的归属异常: %d", owner)
	}
}

func TestListSwapRequests(t *testing.T) {
	f := newSwapFixture(t)
	u3 := f.user(t, "u3", domain.RoleAgent)
	s4 := f.shift(t, u3.ID, f.normal, time.Date(2025, 1, 4, 9, 0, 0, 0, time.UTC), 8)

	r1 := f.request(t)
	f.now = testNow.Add(time.Minute)
	r2, err := f.svc.CreateSwapRequest(f.ctx, service.CreateSwapRequestInput{
		RequesterID:      f.u2.ID,
		RequestedShiftID: f.s3.ID,
		ColleagueID:      u3.ID,
		ColleagueShiftID: s4.ID,
		Reason:           "考试",
	})
	require.NoError(t, err)

	all, err := f.svc.ListSwapRequests(f.ctx, service.AllRequests())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, r1.ID, all[0].ID)
	assert.Equal(t, r2.ID, all[1].ID)

	tests := []struct {
		name string
		user int64
		want []int64
	}{
		{"申请人", f.u1.ID, []int64{r1.ID}},
		{"同时是申请人和同事", f.u2.ID, []int64{r1.ID, r2.ID}},
		{"同事", u3.ID, []int64{r2.ID}},
		{"没有申请", f.admin.ID, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reqs, err := f.svc.ListSwapRequests(f.ctx, service.ByUser(tt.user))
			require.NoError(t, err)
			ids := make([]int64, 0, len(reqs))
			for _, r := range reqs {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
