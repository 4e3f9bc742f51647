package service

import (
	"errors"
	"log/slog"
	"time"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
)

const defaultMaxRecurringOccurrences = 100

type Options struct {
	Logger *slog.Logger
	// Now 为空时使用 time.Now，测试中可以注入固定的时钟
	Now func() time.Time
	// Location 决定“今天”以及班次日期的计算时区，为空时使用 time.Local
	Location                *time.Location
	MaxRecurringOccurrences int
}

// Service 是排班与申请流程的引擎。它不持有任何状态，
// 每个操作都会重新从 Store 读取最新数据再做校验。
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
	loc    *time.Location

	maxRecurringOccurrences int
}

func New(store Store, opts Options) *Service {
	s := &Service{
		store:                   store,
		logger:                  opts.Logger,
		now:                     opts.Now,
		loc:                     opts.Location,
		maxRecurringOccurrences: opts.MaxRecurringOccurrences,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.maxRecurringOccurrences <= 0 {
		s.maxRecurringOccurrences = defaultMaxRecurringOccurrences
	}
	return s
}

const (
	entityUser            = "用户"
	entityShiftType       = "班次类型"
	entityShift           = "班次"
	entitySwapRequest     = "换班申请"
	entityOvertimeRequest = "加班申请"
)

// notFound 将存储层的 ErrRecordNotFound 转换为 NotFoundError，其余错误原样返回
func notFound(err error, entity string, id int64) error {
	if errors.Is(err, domain.ErrRecordNotFound) {
		return domain.NewNotFoundError(entity, id)
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrRecordNotFound)
}

// RequestFilter 用于列出申请，UserID 为 0 时表示全部
type RequestFilter struct {
	UserID int64
}

func AllRequests() RequestFilter {
	return RequestFilter{}
}

func ByUser(userID int64) RequestFilter {
	return RequestFilter{UserID: userID}
}
