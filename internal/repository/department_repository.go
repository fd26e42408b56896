package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/hall-booking/internal/model"
)

// DepartmentRepo reads departments.
type DepartmentRepo struct {
	db *sql.DB
}

func NewDepartmentRepo(db *sql.DB) *DepartmentRepo {
	return &DepartmentRepo{db: db}
}

// ListActive returns active departments ordered by name.
func (r *DepartmentRepo) ListActive(ctx context.Context) ([]model.Department, error) {
	const q = `SELECT id, name, code, is_active, created_at FROM departments WHERE is_active = TRUE ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Department{}
	for rows.Next() {
		var d model.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Code, &d.IsActive, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
