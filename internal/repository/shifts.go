package repository

import (
	"context"
	"database/sql"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
)

const shiftColumns = `
	s.id, s.user_id, s.shift_type_id, s.start_time, s.end_time, s.duration, s.location,
	s.assigned_by, s.created_at, s.version,
	st.name, st.default_duration, st.category, st.created_at, st.version
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShift(row rowScanner) (*domain.Shift, error) {
	shift := &domain.Shift{}
	st := &domain.ShiftType{}
	var assignedBy sql.NullInt64

	dst := []any{
		&shift.ID, &shift.UserID, &shift.ShiftTypeID, &shift.StartTime, &shift.EndTime, &shift.Duration, &shift.Location,
		&assignedBy, &shift.CreatedAt, &shift.Version,
		&st.Name, &st.DefaultDuration, &st.Category, &st.CreatedAt, &st.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	shift.AssignedBy = assignedBy.Int64
	st.ID = shift.ShiftTypeID
	shift.ShiftType = st
	return shift, nil
}

func (r *Repository) GetShiftByID(ctx context.Context, id int64) (*domain.Shift, error) {
	query := `
		SELECT ` + shiftColumns + `
		FROM shifts s
		JOIN shift_types st ON st.id = s.shift_type_id
		WHERE s.id = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	shift, err := scanShift(r.dbpool.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapReadError(err)
	}

	return shift, nil
}

func (r *Repository) GetShiftsByUserID(ctx context.Context, userID int64) ([]*domain.Shift, error) {
	query := `
		SELECT ` + shiftColumns + `
		FROM shifts s
		JOIN shift_types st ON st.id = s.shift_type_id
		WHERE s.user_id = $1
		ORDER BY s.start_time, s.id
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := make([]*domain.Shift, 0)
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return shifts, nil
}

const insertShiftQuery = `
	INSERT INTO shifts (user_id, shift_type_id, start_time, end_time, duration, location, assigned_by)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, created_at, version
`

func shiftInsertArgs(shift *domain.Shift) []any {
	return []any{shift.UserID, shift.ShiftTypeID, shift.StartTime, shift.EndTime, shift.Duration, shift.Location, nullableID(shift.AssignedBy)}
}

func (r *Repository) CreateShift(ctx context.Context, shift *domain.Shift) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	dst := []any{&shift.ID, &shift.CreatedAt, &shift.Version}
	if err := r.dbpool.QueryRowContext(ctx, insertShiftQuery, shiftInsertArgs(shift)...).Scan(dst...); err != nil {
		return mapWriteError(err)
	}

	return nil
}

func (r *Repository) CreateShifts(ctx context.Context, shifts []*domain.Shift) error {
	ctx, cancel := r.transactionContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, insertShiftQuery)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, shift := range shifts {
		dst := []any{&shift.ID, &shift.CreatedAt, &shift.Version}
		if err := stmt.QueryRowContext(ctx, shiftInsertArgs(shift)...).Scan(dst...); err != nil {
			return mapWriteError(err)
		}
	}

	return tx.Commit()
}

func (r *Repository) UpdateShift(ctx context.Context, shift *domain.Shift) error {
	query := `
		UPDATE shifts
		SET
			user_id = $1,
			shift_type_id = $2,
			start_time = $3,
			end_time = $4,
			duration = $5,
			location = $6,
			assigned_by = $7,
			version = version + 1
		WHERE id = $8 AND version = $9
		RETURNING created_at, version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := append(shiftInsertArgs(shift), shift.ID, shift.Version)
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&shift.CreatedAt, &shift.Version); err != nil {
		return mapWriteError(err)
	}

	return nil
}

const pendingRequestsForShiftQuery = `
	SELECT
		(SELECT COUNT(*) FROM swap_requests
		 WHERE status = 'Pending' AND (requested_shift_id = $1 OR colleague_shift_id = $1))
		+
		(SELECT COUNT(*) FROM overtime_requests
		 WHERE status = 'pending' AND shift_id = $1)
`

func (r *Repository) CountPendingRequestsForShift(ctx context.Context, shiftID int64) (int, error) {
	return r.count(ctx, pendingRequestsForShiftQuery, shiftID)
}

func (r *Repository) DeleteShift(ctx context.Context, id int64, version int32) error {
	ctx, cancel := r.transactionContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 锁住班次行：新申请插入时外键检查需要 KEY SHARE 锁，会被阻塞到本事务结束
	var current int32
	if err := tx.QueryRowContext(ctx, `SELECT version FROM shifts WHERE id = $1 FOR UPDATE`, id).Scan(&current); err != nil {
		return mapReadError(err)
	}
	if current != version {
		return domain.ErrEditConflict
	}

	var pending int
	if err := tx.QueryRowContext(ctx, pendingRequestsForShiftQuery, id).Scan(&pending); err != nil {
		return err
	}
	if pending > 0 {
		return domain.ErrRecordInUse
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM shifts WHERE id = $1`, id); err != nil {
		return mapDeleteError(err)
	}

	return tx.Commit()
}

func (r *Repository) CountShifts(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM shifts`)
}
