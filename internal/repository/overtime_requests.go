package repository

import (
	"context"
	"database/sql"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
)

const overtimeRequestColumns = `
	id, user_id, shift_id, reason, status, duration, created_at, decided_at, decided_by, version
`

func scanOvertimeRequest(row rowScanner) (*domain.OvertimeRequest, error) {
	req := &domain.OvertimeRequest{}
	var shiftID, decidedBy sql.NullInt64
	var decidedAt sql.NullTime

	dst := []any{
		&req.ID, &req.UserID, &shiftID, &req.Reason, &req.Status, &req.Duration,
		&req.CreatedAt, &decidedAt, &decidedBy, &req.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	req.ShiftID = shiftID.Int64
	req.DecidedAt, req.DecidedBy = scanDecided(decidedAt, decidedBy)
	return req, nil
}

func (r *Repository) GetOvertimeRequestByID(ctx context.Context, id int64) (*domain.OvertimeRequest, error) {
	query := `SELECT ` + overtimeRequestColumns + ` FROM overtime_requests WHERE id = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	req, err := scanOvertimeRequest(r.dbpool.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapReadError(err)
	}

	return req, nil
}

func (r *Repository) queryOvertimeRequests(ctx context.Context, query string, args ...any) ([]*domain.OvertimeRequest, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reqs := make([]*domain.OvertimeRequest, 0)
	for rows.Next() {
		req, err := scanOvertimeRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reqs, nil
}

func (r *Repository) GetAllOvertimeRequests(ctx context.Context) ([]*domain.OvertimeRequest, error) {
	query := `SELECT ` + overtimeRequestColumns + ` FROM overtime_requests ORDER BY created_at, id`
	return r.queryOvertimeRequests(ctx, query)
}

func (r *Repository) GetOvertimeRequestsByUserID(ctx context.Context, userID int64) ([]*domain.OvertimeRequest, error) {
	query := `
		SELECT ` + overtimeRequestColumns + `
		FROM overtime_requests
		WHERE user_id = $1
		ORDER BY created_at, id
	`
	return r.queryOvertimeRequests(ctx, query, userID)
}

func (r *Repository) CreateOvertimeRequest(ctx context.Context, req *domain.OvertimeRequest) error {
	query := `
		INSERT INTO overtime_requests (user_id, shift_id, reason, status, duration)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{req.UserID, req.ShiftID, req.Reason, req.Status, req.Duration}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&req.ID, &req.CreatedAt, &req.Version); err != nil {
		return mapWriteError(err)
	}

	return nil
}

func (r *Repository) DecideOvertimeRequest(ctx context.Context, req *domain.OvertimeRequest) error {
	query := `
		UPDATE overtime_requests
		SET
			status = $1,
			decided_at = $2,
			decided_by = $3,
			version = version + 1
		WHERE id = $4 AND version = $5 AND status = 'pending'
		RETURNING version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{req.Status, req.DecidedAt, req.DecidedBy, req.ID, req.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&req.Version); err != nil {
		return mapWriteError(err)
	}

	return nil
}

func (r *Repository) CountOvertimeRequestsByStatus(ctx context.Context, status domain.OvertimeStatus) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM overtime_requests WHERE status = $1`, status)
}
