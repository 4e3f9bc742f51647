package service_test

import (
	"testing"
	"time"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
	"github.com/SimbaKVis/shift-manager/backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShiftTypeValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		in    service.CreateShiftTypeInput
		field string
	}{
		{"名称为空", service.CreateShiftTypeInput{Name: "", DefaultDuration: 8, Category: domain.ShiftCategoryNormal}, "name"},
		{"默认时长为 0", service.CreateShiftTypeInput{Name: "夜班", DefaultDuration: 0, Category: domain.ShiftCategoryNormal}, "defaultDuration"},
		{"类别无效", service.CreateShiftTypeInput{Name: "夜班", DefaultDuration: 8, Category: "Night"}, "category"},
		{"名称重复", service.CreateShiftTypeInput{Name: "早班", DefaultDuration: 8, Category: domain.ShiftCategoryNormal}, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.CreateShiftType(env.ctx, tt.in)
			requireValidation(t, err, tt.field)
		})
	}

	sts, err := env.svc.ListShiftTypes(env.ctx)
	require.NoError(t, err)
	assert.Len(t, sts, 2)
}

func TestUpdateShiftTypeKeepsShiftDurations(t *testing.T) {
	env := newTestEnv(t)
	u1 := env.user(t, "u1", domain.RoleAgent)
	shift := env.shift(t, u1.ID, env.normal, testNow.Add(24*time.Hour), 8)

	updated, err := env.svc.UpdateShiftType(env.ctx, env.normal.ID, service.UpdateShiftTypeInput{
		DefaultDuration: ptr(int32(6)),
		Category:        ptr(domain.ShiftCategoryOvertime),
	})
	require.NoError(t, err)
	assert.Equal(t, int32(6), updated.DefaultDuration)
	assert.Equal(t, "早班", updated.Name)

	stored := env.getShift(t, shift.ID)
	assert.Equal(t, int32(480), stored.Duration)
	assert.Equal(t, domain.ShiftCategoryOvertime, stored.ShiftType.Category)

	_, err = env.svc.UpdateShiftType(env.ctx, env.normal.ID, service.UpdateShiftTypeInput{Name: ptr("周末加班")})
	requireValidation(t, err, "name")

	_, err = env.svc.UpdateShiftType(env.ctx, 999, service.UpdateShiftTypeInput{Name: ptr("夜班")})
	requireNotFound(t, err)
}

func TestDeleteShiftType(t *testing.T) {
	env := newTestEnv(t)
	u1 := env.user(t, "u1", domain.RoleAgent)
	shift := env.shift(t, u1.ID, env.normal, testNow.Add(24*time.Hour), 8)

	requireConflict(t, env.svc.DeleteShiftType(env.ctx, env.normal.ID))

	require.NoError(t, env.svc.DeleteShift(env.ctx, shift.ID))
	require.NoError(t, env.svc.DeleteShiftType(env.ctx, env.normal.ID))

	_, err := env.svc.GetShiftType(env.ctx, env.normal.ID)
	requireNotFound(t, err)
	requireNotFound(t, env.svc.DeleteShiftType(env.ctx, env.normal.ID))
}

func TestSummary(t *testing.T) {
	env := newTestEnv(t)
	u1 := env.user(t, "u1", domain.RoleAgent)
	u2 := env.user(t, "u2", domain.RoleAgent)
	s1 := env.shift(t, u1.ID, env.normal, testNow.Add(24*time.Hour), 8)
	s2 := env.shift(t, u2.ID, env.normal, testNow.Add(48*time.Hour), 8)
	s3 := env.shift(t, u1.ID, env.overtime, testNow.Add(24*time.Hour), 4)

	_, err := env.svc.CreateSwapRequest(env.ctx, service.CreateSwapRequestInput{
		RequesterID:      u1.ID,
		RequestedShiftID: s1.ID,
		ColleagueID:      u2.ID,
		ColleagueShiftID: s2.ID,
		Reason:           "家里有事",
	})
	require.NoError(t, err)
	req, err := env.svc.CreateOvertimeRequest(env.ctx, service.CreateOvertimeRequestInput{UserID: u1.ID, ShiftID: s3.ID, Reason: "顶班"})
	require.NoError(t, err)
	_, err = env.svc.DecideOvertimeRequest(env.ctx, req.ID, u2.ID, domain.RequestApproved)
	require.NoError(t, err)

	sum, err := env.svc.Summary(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, &service.Summary{
		Users:                   2,
		Shifts:                  3,
		PendingSwapRequests:     1,
		PendingOvertimeRequests: 0,
	}, sum)
}
