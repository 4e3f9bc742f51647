package repository

import (
	"context"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
)

func (r *Repository) GetShiftTypeByID(ctx context.Context, id int64) (*domain.ShiftType, error) {
	query := `
		SELECT name, default_duration, category, created_at, version
		FROM shift_types WHERE id = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	st := &domain.ShiftType{
		ID: id,
	}

	dst := []any{&st.Name, &st.DefaultDuration, &st.Category, &st.CreatedAt, &st.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, mapReadError(err)
	}

	return st, nil
}

func (r *Repository) GetAllShiftTypes(ctx context.Context) ([]*domain.ShiftType, error) {
	query := `
		SELECT id, name, default_duration, category, created_at, version
		FROM shift_types ORDER BY id
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sts := make([]*domain.ShiftType, 0)
	for rows.Next() {
		st := &domain.ShiftType{}
		dst := []any{&st.ID, &st.Name, &st.DefaultDuration, &st.Category, &st.CreatedAt, &st.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		sts = append(sts, st)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sts, nil
}

func (r *Repository) CreateShiftType(ctx context.Context, st *domain.ShiftType) error {
	query := `
		INSERT INTO shift_types (name, default_duration, category)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{st.Name, st.DefaultDuration, st.Category}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&st.ID, &st.CreatedAt, &st.Version); err != nil {
		return mapWriteError(err)
	}

	return nil
}

func (r *Repository) UpdateShiftType(ctx context.Context, st *domain.ShiftType) error {
	query := `
		UPDATE shift_types
		SET
			name = $1,
			default_duration = $2,
			category = $3,
			version = version + 1
		WHERE id = $4 AND version = $5
		RETURNING created_at, version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{st.Name, st.DefaultDuration, st.Category, st.ID, st.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&st.CreatedAt, &st.Version); err != nil {
		return mapWriteError(err)
	}

	return nil
}

func (r *Repository) DeleteShiftType(ctx context.Context, id int64) error {
	query := `
		DELETE FROM shift_types WHERE id = $1
	`

	n, err := r.exec(ctx, query, id)
	if err != nil {
		return mapDeleteError(err)
	}
	if n == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}
