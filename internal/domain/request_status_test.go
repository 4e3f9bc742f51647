package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	all := []RequestStatus{RequestPending, RequestApproved, RequestRejected}

	for _, from := range all {
		for _, to := range all {
			want := from == RequestPending && to != RequestPending
			assert.Equal(t, want, CanTransition(from, to), "%d -> %d", from, to)
		}
	}
}

func TestParseDecision(t *testing.T) {
	tests := []struct {
		in   string
		want RequestStatus
		ok   bool
	}{
		{"Approved", RequestApproved, true},
		{"approved", RequestApproved, true},
		{" REJECTED ", RequestRejected, true},
		{"rejected", RequestRejected, true},
		{"Pending", RequestPending, false},
		{"", RequestPending, false},
		{"yes", RequestPending, false},
	}

	for _, tt := range tests {
		got, ok := ParseDecision(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestStatusVocabularies(t *testing.T) {
	for _, s := range []RequestStatus{RequestPending, RequestApproved, RequestRejected} {
		assert.Equal(t, s, SwapStatusOf(s).State())
		assert.Equal(t, s, OvertimeStatusOf(s).State())
	}

	assert.Equal(t, SwapStatus("Approved"), SwapStatusOf(RequestApproved))
	assert.Equal(t, OvertimeStatus("approved"), OvertimeStatusOf(RequestApproved))
}

func TestShiftDurationMinutes(t *testing.T) {
	start := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, int32(480), ShiftDurationMinutes(start, start.Add(8*time.Hour)))
	assert.Equal(t, int32(90), ShiftDurationMinutes(start, start.Add(90*time.Minute+30*time.Second)))
}

func TestSwapRequestReferences(t *testing.T) {
	r := &SwapRequest{RequesterID: 1, RequestedShiftID: 10, ColleagueID: 2, ColleagueShiftID: 20}

	assert.True(t, r.References(10))
	assert.True(t, r.References(20))
	assert.False(t, r.References(30))
	assert.True(t, r.Involves(1))
	assert.True(t, r.Involves(2))
	assert.False(t, r.Involves(3))
}
