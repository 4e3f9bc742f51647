package domain

import "time"

type Shift struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userID"`
	ShiftTypeID int64     `json:"shiftTypeID"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Duration    int32     `json:"duration"` // 分钟，始终等于 EndTime - StartTime
	Location    string    `json:"location"`
	AssignedBy  int64     `json:"assignedBy"`
	CreatedAt   time.Time `json:"createdAt"`
	Version     int32     `json:"-"`

	// 读取时联表得到，写入时忽略
	ShiftType *ShiftType `json:"shiftType,omitempty"`
}

// ShiftDurationMinutes 计算 [start, end) 的分钟数
func ShiftDurationMinutes(start, end time.Time) int32 {
	return int32(end.Sub(start) / time.Minute)
}

// HasValidTimes 用于过滤掉存储中时间戳无法解析（零值）的班次
func (s *Shift) HasValidTimes() bool {
	return !s.StartTime.IsZero() && !s.EndTime.IsZero()
}
