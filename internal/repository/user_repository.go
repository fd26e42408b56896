package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/hall-booking/internal/model"
	"github.com/iliyamo/hall-booking/internal/utils"
)

const accountColumns = `u.id, u.name, u.email, u.password_hash, u.role, u.department_id, d.name, u.is_active, u.created_at, u.updated_at`

const accountFrom = `FROM users u LEFT JOIN departments d ON d.id = u.department_id`

// NewAccount carries the fields needed to register an account.
type NewAccount struct {
	Name         string
	Email        string
	Password     string
	Role         model.Role
	DepartmentID *uint64
}

// UserRepo reads and writes accounts.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

func scanAccount(s rowScanner) (model.Account, error) {
	var (
		a    model.Account
		role string
		dept sql.NullInt64
		name sql.NullString
	)
	if err := s.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &role, &dept, &name, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return model.Account{}, err
	}
	a.Role = model.Role(role)
	if dept.Valid {
		v := uint64(dept.Int64)
		a.DepartmentID = &v
	}
	if name.Valid {
		v := name.String
		a.DepartmentName = &v
	}
	return a, nil
}

// Create hashes the password, inserts the account and returns its ID.
// Duplicate emails map to ErrEmailExists and unknown departments to
// ErrDepartmentNotFound.
func (r *UserRepo) Create(ctx context.Context, n NewAccount, cost int) (uint64, error) {
	email := strings.ToLower(strings.TrimSpace(n.Email))
	hash, err := utils.HashPassword(n.Password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role, department_id) VALUES (?,?,?,?,?)",
		strings.TrimSpace(n.Name), email, hash, string(n.Role), n.DepartmentID)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) {
			switch me.Number {
			case 1062:
				return 0, ErrEmailExists
			case 1452:
				return 0, ErrDepartmentNotFound
			}
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches an account by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	a, err := scanAccount(r.DB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" "+accountFrom+" WHERE u.email=? LIMIT 1", email))
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrAccountNotFound
	}
	return a, err
}

// GetByID fetches an account by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.Account, error) {
	a, err := scanAccount(r.DB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" "+accountFrom+" WHERE u.id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrAccountNotFound
	}
	return a, err
}

// ListByRole returns the accounts holding a role, ordered by name.
func (r *UserRepo) ListByRole(ctx context.Context, role model.Role) ([]model.Account, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+accountColumns+" "+accountFrom+" WHERE u.role=? ORDER BY u.name", string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SetActive enables or disables login for an account of the given role.
func (r *UserRepo) SetActive(ctx context.Context, id uint64, role model.Role, active bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_active=?, updated_at=CURRENT_TIMESTAMP WHERE id=? AND role=?", active, id, string(role))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var one int
	err = r.DB.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id=? AND role=? LIMIT 1", id, string(role)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrAccountNotFound
	}
	if err != nil {
		return err
	}
	return ErrNoChange
}

// UpdatePasswordHash replaces the stored hash, used to upgrade the bcrypt
// cost after a successful login.
func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id uint64, hash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, updated_at=CURRENT_TIMESTAMP WHERE id=?", hash, id)
	return err
}
