package repository

import (
	"context"
	"database/sql"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
)

const swapRequestColumns = `
	id, requester_id, requested_shift_id, colleague_id, colleague_shift_id, reason, status,
	created_at, decided_at, decided_by, version
`

func scanSwapRequest(row rowScanner) (*domain.SwapRequest, error) {
	req := &domain.SwapRequest{}
	// 班次被删除后对它的引用为 NULL
	var requestedShiftID, colleagueShiftID, decidedBy sql.NullInt64
	var decidedAt sql.NullTime

	dst := []any{
		&req.ID, &req.RequesterID, &requestedShiftID, &req.ColleagueID, &colleagueShiftID, &req.Reason, &req.Status,
		&req.CreatedAt, &decidedAt, &decidedBy, &req.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	req.RequestedShiftID = requestedShiftID.Int64
	req.ColleagueShiftID = colleagueShiftID.Int64
	req.DecidedAt, req.DecidedBy = scanDecided(decidedAt, decidedBy)
	return req, nil
}

func (r *Repository) GetSwapRequestByID(ctx context.Context, id int64) (*domain.SwapRequest, error) {
	query := `SELECT ` + swapRequestColumns + ` FROM swap_requests WHERE id = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	req, err := scanSwapRequest(r.dbpool.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapReadError(err)
	}

	return req, nil
}

func (r *Repository) querySwapRequests(ctx context.Context, query string, args ...any) ([]*domain.SwapRequest, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reqs := make([]*domain.SwapRequest, 0)
	for rows.Next() {
		req, err := scanSwapRequest(rows)
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

func (r *Repository) GetAllSwapRequests(ctx context.Context) ([]*domain.SwapRequest, error) {
	query := `SELECT ` + swapRequestColumns + ` FROM swap_requests ORDER BY created_at, id`
	return r.querySwapRequests(ctx, query)
}

func (r *Repository) GetSwapRequestsByUserID(ctx context.Context, userID int64) ([]*domain.SwapRequest, error) {
	query := `
		SELECT ` + swapRequestColumns + `
		FROM swap_requests
		WHERE requester_id = $1 OR colleague_id = $1
		ORDER BY created_at, id
	`
	return r.querySwapRequests(ctx, query, userID)
}

func (r *Repository) CreateSwapRequest(ctx context.Context, req *domain.SwapRequest) error {
	query := `
		INSERT INTO swap_requests (requester_id, requested_shift_id, colleague_id, colleague_shift_id, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{req.RequesterID, req.RequestedShiftID, req.ColleagueID, req.ColleagueShiftID, req.Reason, req.Status}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&req.ID, &req.CreatedAt, &req.Version); err != nil {
		return mapWriteError(err)
	}

	return nil
}

func (r *Repository) DecideSwapRequest(ctx context.Context, d *domain.SwapDecision) error {
	ctx, cancel := r.transactionContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE swap_requests
		SET
			status = $1,
			decided_at = $2,
			decided_by = $3,
			version = version + 1
		WHERE id = $4 AND version = $5 AND status = 'Pending'
		RETURNING version
	`
	var version int32
	args := []any{d.Status, d.DecidedAt, d.DecidedBy, d.Request.ID, d.Request.Version}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&version); err != nil {
		return mapWriteError(err)
	}

	for _, ex := range d.Exchanges {
		query = `
			UPDATE shifts
			SET user_id = $1, version = version + 1
			WHERE id = $2 AND version = $3
		`
		res, err := tx.ExecContext(ctx, query, ex.NewOwnerID, ex.ShiftID, ex.Version)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrEditConflict
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	decidedAt := d.DecidedAt
	decidedBy := d.DecidedBy
	d.Request.Status = d.Status
	d.Request.DecidedAt = &decidedAt
	d.Request.DecidedBy = &decidedBy
	d.Request.Version = version
	return nil
}

func (r *Repository) CountSwapRequestsByStatus(ctx context.Context, status domain.SwapStatus) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM swap_requests WHERE status = $1`, status)
}
