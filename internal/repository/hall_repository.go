package repository // repository holds data access logic for domain entities

import (
	"context"      // context is used to manage deadlines and cancellation
	"database/sql" // sql provides DB primitives
	"encoding/json"
	"errors" // errors package allows sentinel comparisons
	"strings"

	"github.com/iliyamo/hall-booking/internal/model"
)

const hallColumns = `id, name, location, capacity, amenities, description, image_url, is_active, created_at, updated_at`

// HallRepo provides methods to create, list, update and soft-delete halls.
type HallRepo struct {
	db *sql.DB // db is the underlying database connection
}

// NewHallRepo constructs a HallRepo with the given DB handle.
func NewHallRepo(db *sql.DB) *HallRepo {
	return &HallRepo{db: db}
}

func scanHall(s rowScanner) (*model.Hall, error) {
	var (
		h         model.Hall
		amenities []byte
		desc      sql.NullString
		image     sql.NullString
	)
	if err := s.Scan(&h.ID, &h.Name, &h.Location, &h.Capacity, &amenities, &desc, &image, &h.IsActive, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return nil, err
	}
	h.Amenities = []string{}
	if len(amenities) > 0 {
		if err := json.Unmarshal(amenities, &h.Amenities); err != nil {
			return nil, err
		}
	}
	if desc.Valid {
		v := desc.String
		h.Description = &v
	}
	if image.Valid {
		v := image.String
		h.ImageURL = &v
	}
	return &h, nil
}

func amenitiesJSON(a []string) ([]byte, error) {
	if a == nil {
		a = []string{}
	}
	return json.Marshal(a)
}

// Create inserts a new hall into the database.  After insert the row is
// read back so that is_active, created_at and updated_at are populated.
func (r *HallRepo) Create(ctx context.Context, h *model.Hall) error {
	am, err := amenitiesJSON(h.Amenities)
	if err != nil {
		return err
	}
	const qInsert = `INSERT INTO halls (name, location, capacity, amenities, description, image_url)
	                 VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert, h.Name, h.Location, h.Capacity, am, h.Description, h.ImageURL)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*h = *stored
	return nil
}

// GetByID retrieves a hall by its ID, active or not.  It returns
// ErrHallNotFound when no row is found.
func (r *HallRepo) GetByID(ctx context.Context, id uint64) (*model.Hall, error) {
	h, err := scanHall(r.db.QueryRowContext(ctx, `SELECT `+hallColumns+` FROM halls WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHallNotFound
		}
		return nil, err
	}
	return h, nil
}

// List returns halls ordered by name.  Inactive halls are only included
// when includeInactive is set (admin views).
func (r *HallRepo) List(ctx context.Context, includeInactive bool) ([]*model.Hall, error) {
	q := `SELECT ` + hallColumns + ` FROM halls`
	if !includeInactive {
		q += ` WHERE is_active = TRUE`
	}
	q += ` ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Hall{}
	for rows.Next() {
		h, err := scanHall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ExistsActiveByName reports whether another active hall already uses the
// name (case-insensitive).  excludeID skips the hall being updated.
func (r *HallRepo) ExistsActiveByName(ctx context.Context, name string, excludeID uint64) (bool, error) {
	const q = `SELECT 1 FROM halls WHERE LOWER(name) = ? AND is_active = TRUE AND id <> ? LIMIT 1`
	var one int
	err := r.db.QueryRowContext(ctx, q, strings.ToLower(strings.TrimSpace(name)), excludeID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Update writes the editable hall fields.  MySQL reports zero affected
// rows both for a missing hall and for identical values, so a follow-up
// existence query tells ErrHallNotFound and ErrNoChange apart.
func (r *HallRepo) Update(ctx context.Context, h *model.Hall) error {
	am, err := amenitiesJSON(h.Amenities)
	if err != nil {
		return err
	}
	const q = `UPDATE halls
               SET name = ?, location = ?, capacity = ?, amenities = ?, description = ?, image_url = ?, is_active = ?,
                   updated_at = CURRENT_TIMESTAMP
               WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, h.Name, h.Location, h.Capacity, am, h.Description, h.ImageURL, h.IsActive, h.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	return r.existsOr(ctx, h.ID, ErrNoChange)
}

// Deactivate soft-deletes a hall.  Bookings keep referencing it.
func (r *HallRepo) Deactivate(ctx context.Context, id uint64) error {
	const q = `UPDATE halls SET is_active = FALSE, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND is_active = TRUE`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	return r.existsOr(ctx, id, ErrNoChange)
}

func (r *HallRepo) existsOr(ctx context.Context, id uint64, ifExists error) error {
	var one int
	if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM halls WHERE id = ? LIMIT 1`, id).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrHallNotFound
		}
		return err
	}
	return ifExists
}
