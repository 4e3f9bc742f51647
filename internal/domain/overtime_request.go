package domain

import "time"

type OvertimeStatus string

const (
	OvertimeStatusPending  OvertimeStatus = "pending"
	OvertimeStatusApproved OvertimeStatus = "approved"
	OvertimeStatusRejected OvertimeStatus = "rejected"
)

func (s OvertimeStatus) State() RequestStatus {
	switch s {
	case OvertimeStatusApproved:
		return RequestApproved
	case OvertimeStatusRejected:
		return RequestRejected
	}
	return RequestPending
}

func OvertimeStatusOf(s RequestStatus) OvertimeStatus {
	switch s {
	case RequestApproved:
		return OvertimeStatusApproved
	case RequestRejected:
		return OvertimeStatusRejected
	}
	return OvertimeStatusPending
}

type OvertimeRequest struct {
	ID        int64          `json:"id"`
	UserID    int64          `json:"userID"`
	ShiftID   int64          `json:"shiftID"`
	Reason    string         `json:"reason"`
	Status    OvertimeStatus `json:"status"`
	Duration  int32          `json:"duration"` // 分钟，创建时从班次复制
	CreatedAt time.Time      `json:"createdAt"`
	DecidedAt *time.Time     `json:"decidedAt"`
	DecidedBy *int64         `json:"decidedBy"`
	Version   int32          `json:"-"`
}
