package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/SimbaKVis/shift-manager/backend/internal/config"
	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
	"github.com/SimbaKVis/shift-manager/backend/internal/service"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ service.Store = (*Repository)(nil)

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

func (r *Repository) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
}

func (r *Repository) transactionContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
}

// PostgreSQL 错误码
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// 各个唯一约束对应的哨兵错误
var uniqueConstraints = map[string]error{
	"users_username_key":   domain.ErrDuplicateUsername,
	"users_email_key":      domain.ErrDuplicateEmail,
	"shift_types_name_key": domain.ErrDuplicateShiftTypeName,
}

// mapWriteError 将插入或更新时的数据库错误转换为哨兵错误。
// 外键约束失败说明引用的记录不存在
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// 带版本号的 UPDATE ... RETURNING 没有返回任何行
		return domain.ErrEditConflict
	case errors.As(err, &pgErr):
		switch pgErr.Code {
		case pgUniqueViolation:
			if sentinel, ok := uniqueConstraints[pgErr.ConstraintName]; ok {
				return sentinel
			}
		case pgForeignKeyViolation:
			return domain.ErrRecordNotFound
		}
	}
	return err
}

// mapDeleteError 删除时外键约束失败说明记录仍被引用
func mapDeleteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return domain.ErrRecordInUse
	}
	return err
}

func mapReadError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrRecordNotFound
	}
	return err
}

func nullableID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func scanDecided(at sql.NullTime, by sql.NullInt64) (*time.Time, *int64) {
	var decidedAt *time.Time
	var decidedBy *int64
	if at.Valid {
		t := at.Time
		decidedAt = &t
	}
	if by.Valid {
		id := by.Int64
		decidedBy = &id
	}
	return decidedAt, decidedBy
}

func (r *Repository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Repository) count(ctx context.Context, query string, args ...any) (int, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	var n int
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
