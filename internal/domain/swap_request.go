package domain

import "time"

type SwapStatus string

const (
	SwapStatusPending  SwapStatus = "Pending"
	SwapStatusApproved SwapStatus = "Approved"
	SwapStatusRejected SwapStatus = "Rejected"
)

func (s SwapStatus) State() RequestStatus {
	switch s {
	case SwapStatusApproved:
		return RequestApproved
	case SwapStatusRejected:
		return RequestRejected
	}
	return RequestPending
}

func SwapStatusOf(s RequestStatus) SwapStatus {
	switch s {
	case RequestApproved:
		return SwapStatusApproved
	case RequestRejected:
		return SwapStatusRejected
	}
	return SwapStatusPending
}

type SwapRequest struct {
	ID               int64      `json:"id"`
	RequesterID      int64      `json:"requesterID"`
	RequestedShiftID int64      `json:"requestedShiftID"`
	ColleagueID      int64      `json:"colleagueID"`
	ColleagueShiftID int64      `json:"colleagueShiftID"`
	Reason           string     `json:"reason"`
	Status           SwapStatus `json:"status"`
	CreatedAt        time.Time  `json:"createdAt"`
	DecidedAt        *time.Time `json:"decidedAt"`
	DecidedBy        *int64     `json:"decidedBy"`
	Version          int32      `json:"-"`
}

// References 判断该申请是否涉及给定的班次
func (r *SwapRequest) References(shiftID int64) bool {
	return r.RequestedShiftID == shiftID || r.ColleagueShiftID == shiftID
}

// Involves 判断用户是否为申请的任意一方
func (r *SwapRequest) Involves(userID int64) bool {
	return r.RequesterID == userID || r.ColleagueID == userID
}

// ShiftOwnerChange 描述审批通过时一个班次的归属变更，
// Version 为读取班次时的版本号，用于乐观锁
type ShiftOwnerChange struct {
	ShiftID    int64
	Version    int32
	NewOwnerID int64
}

// SwapDecision 是一次审批需要原子写入的全部内容
type SwapDecision struct {
	Request   *SwapRequest // 读取时的申请，Version 用于乐观锁
	Status    SwapStatus
	DecidedBy int64
	DecidedAt time.Time
	Exchanges []ShiftOwnerChange // 驳回时为空
}
