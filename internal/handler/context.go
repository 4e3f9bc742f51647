package handler

type ContextKey string

var (
	RoleCtxKey         ContextKey = "role"
	SubCtxKey          ContextKey = "sub"
	MyInfoCtx          ContextKey = "myInfo"
	UserInfoCtx        ContextKey = "userInfo"
	ShiftTypeCtx       ContextKey = "shiftType"
	ShiftCtx           ContextKey = "shift"
	SwapRequestCtx     ContextKey = "swapRequest"
	OvertimeRequestCtx ContextKey = "overtimeRequest"
)
