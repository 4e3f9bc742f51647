package service

import (
	"context"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
)

// Store 是引擎依赖的实体存储。
//
// 读取不到记录时返回 domain.ErrRecordNotFound；带版本号的写入在版本不匹配时返回
// domain.ErrEditConflict 且不写入任何内容。写入成功后，传入的实体会被回填
// ID、CreatedAt、Version 等由存储生成的字段。
type Store interface {
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetAllUsers(ctx context.Context) ([]*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) error
	UpdateUser(ctx context.Context, user *domain.User) error
	// 用户仍拥有班次时返回 domain.ErrRecordInUse
	DeleteUser(ctx context.Context, id int64) error
	CountUsers(ctx context.Context) (int, error)

	GetShiftTypeByID(ctx context.Context, id int64) (*domain.ShiftType, error)
	GetAllShiftTypes(ctx context.Context) ([]*domain.ShiftType, error)
	CreateShiftType(ctx context.Context, st *domain.ShiftType) error
	UpdateShiftType(ctx context.Context, st *domain.ShiftType) error
	// 班次类型仍被班次引用时返回 domain.ErrRecordInUse
	DeleteShiftType(ctx context.Context, id int64) error

	// 读取班次时会同时填充 Shift.ShiftType
	GetShiftByID(ctx context.Context, id int64) (*domain.Shift, error)
	GetShiftsByUserID(ctx context.Context, userID int64) ([]*domain.Shift, error)
	CreateShift(ctx context.Context, shift *domain.Shift) error
	// CreateShifts 在同一个事务中插入所有班次，任意一个失败则全部不写入
	CreateShifts(ctx context.Context, shifts []*domain.Shift) error
	UpdateShift(ctx context.Context, shift *domain.Shift) error
	// DeleteShift 在同一个原子操作中检查引用并删除：存在待审批的申请时返回
	// domain.ErrRecordInUse，版本不匹配时返回 domain.ErrEditConflict
	DeleteShift(ctx context.Context, id int64, version int32) error
	CountPendingRequestsForShift(ctx context.Context, shiftID int64) (int, error)
	CountShifts(ctx context.Context) (int, error)

	GetSwapRequestByID(ctx context.Context, id int64) (*domain.SwapRequest, error)
	GetAllSwapRequests(ctx context.Context) ([]*domain.SwapRequest, error)
	// 返回用户作为申请人或同事参与的全部换班申请
	GetSwapRequestsByUserID(ctx context.Context, userID int64) ([]*domain.SwapRequest, error)
	CreateSwapRequest(ctx context.Context, req *domain.SwapRequest) error
	// DecideSwapRequest 原子地写入审批结果和所有班次归属变更。申请必须仍为
	// Pending 且版本匹配，每个班次的版本也必须匹配，否则返回 domain.ErrEditConflict
	// 且不写入任何内容。成功后回填 decision.Request 的状态、审批信息和版本号。
	DecideSwapRequest(ctx context.Context, decision *domain.SwapDecision) error
	CountSwapRequestsByStatus(ctx context.Context, status domain.SwapStatus) (int, error)

	GetOvertimeRequestByID(ctx context.Context, id int64) (*domain.OvertimeRequest, error)
	GetAllOvertimeRequests(ctx context.Context) ([]*domain.OvertimeRequest, error)
	GetOvertimeRequestsByUserID(ctx context.Context, userID int64) ([]*domain.OvertimeRequest, error)
	CreateOvertimeRequest(ctx context.Context, req *domain.OvertimeRequest) error
	// DecideOvertimeRequest 仅当记录仍为 pending 且版本匹配时写入 Status、DecidedAt、DecidedBy
	DecideOvertimeRequest(ctx context.Context, req *domain.OvertimeRequest) error
	CountOvertimeRequestsByStatus(ctx context.Context, status domain.OvertimeStatus) (int, error)
}
