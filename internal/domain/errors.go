package domain

import (
	"errors"
	"fmt"
)

// 存储层返回的哨兵错误，由 service 转换为下面的三类错误
var (
	ErrRecordNotFound         = errors.New("记录不存在")
	ErrEditConflict           = errors.New("记录已被修改")
	ErrRecordInUse            = errors.New("记录仍被引用")
	ErrDuplicateUsername      = errors.New("用户名已存在")
	ErrDuplicateEmail         = errors.New("邮箱已存在")
	ErrDuplicateShiftTypeName = errors.New("班次类型名称已存在")
)

// ErrInvalidCredentials 登录时用户名不存在或密码错误
var ErrInvalidCredentials = errors.New("用户名不存在或密码错误")

// ValidationError 表示输入不合法或不符合业务规则
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError 表示引用的实体不存在
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d 不存在", e.Entity, e.ID)
}

// ConflictError 表示状态前置条件不满足：申请已审批、班次仍被引用或并发修改
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func NewNotFoundError(entity string, id int64) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func NewConflictError(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}
