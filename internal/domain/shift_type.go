package domain

import "time"

type ShiftCategory string

const (
	ShiftCategoryNormal   ShiftCategory = "Normal"
	ShiftCategoryOvertime ShiftCategory = "Overtime"
)

func (c ShiftCategory) IsValid() bool {
	return c == ShiftCategoryNormal || c == ShiftCategoryOvertime
}

// ShiftType 为班次类型，DefaultDuration 以小时为单位。
// 修改班次类型不会影响已经存在的班次所记录的时长。
type ShiftType struct {
	ID              int64         `json:"id"`
	Name            string        `json:"name"`
	DefaultDuration int32         `json:"defaultDuration"`
	Category        ShiftCategory `json:"category"`
	CreatedAt       time.Time     `json:"createdAt"`
	Version         int32         `json:"-"`
}
