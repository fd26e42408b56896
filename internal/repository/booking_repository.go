package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/hall-booking/internal/model"
)

// Dates and times are formatted in SQL so that they come back as the
// "YYYY-MM-DD" / "HH:MM" strings the rest of the code works with.
const bookingColumns = `b.id, b.hall_id, b.requester_id, b.requester_role,
	DATE_FORMAT(b.date, '%Y-%m-%d'), TIME_FORMAT(b.start_time, '%H:%i'), TIME_FORMAT(b.end_time, '%H:%i'),
	b.purpose, b.attendees, b.status, b.approved_by, b.approved_at, b.rejection_reason, b.created_at, b.updated_at`

const detailColumns = bookingColumns + `,
	h.name, h.location, u.name, u.email, d.name, ap.name`

const detailJoins = `FROM bookings b
	JOIN halls h ON h.id = b.hall_id
	JOIN users u ON u.id = b.requester_id
	LEFT JOIN departments d ON d.id = u.department_id
	LEFT JOIN users ap ON ap.id = b.approved_by`

// activeStatuses is the SQL list of statuses that hold a slot.
const activeStatuses = `('PENDING','APPROVED')`

// StatusTransition describes a conditional status update: the row is
// only changed when its current status is one of From.
type StatusTransition struct {
	From       []model.BookingStatus
	To         model.BookingStatus
	ApprovedBy *uint64
	ApprovedAt *time.Time
	Reason     *string
}

// BookingQuery defines filters & pagination for the admin booking list.
type BookingQuery struct {
	Status   string
	HallID   uint64
	Search   string
	Page     int
	PageSize int
}

// BookingRepo manages persistence for bookings.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo constructs a BookingRepo with the given DB handle.
func NewBookingRepo(db *sql.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

// DB exposes the underlying sql.DB.
func (r *BookingRepo) DB() *sql.DB {
	return r.db
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(s rowScanner, extra ...any) (model.Booking, error) {
	var (
		b          model.Booking
		role       string
		status     string
		approvedBy sql.NullInt64
		approvedAt sql.NullTime
		reason     sql.NullString
	)
	dest := []any{
		&b.ID, &b.HallID, &b.RequesterID, &role,
		&b.Date, &b.StartTime, &b.EndTime,
		&b.Purpose, &b.Attendees, &status, &approvedBy, &approvedAt, &reason, &b.CreatedAt, &b.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return model.Booking{}, err
	}
	b.RequesterRole = model.Role(role)
	b.Status = model.BookingStatus(status)
	if approvedBy.Valid {
		v := uint64(approvedBy.Int64)
		b.ApprovedBy = &v
	}
	if approvedAt.Valid {
		v := approvedAt.Time
		b.ApprovedAt = &v
	}
	if reason.Valid {
		v := reason.String
		b.RejectionReason = &v
	}
	return b, nil
}

func scanDetail(s rowScanner) (model.BookingDetail, error) {
	var (
		d        model.BookingDetail
		dept     sql.NullString
		approver sql.NullString
	)
	b, err := scanBooking(s, &d.HallName, &d.HallLocation, &d.RequesterName, &d.RequesterEmail, &dept, &approver)
	if err != nil {
		return model.BookingDetail{}, err
	}
	d.Booking = b
	if dept.Valid {
		v := dept.String
		d.DepartmentName = &v
	}
	if approver.Valid {
		v := approver.String
		d.ApproverName = &v
	}
	return d, nil
}

func (r *BookingRepo) queryDetails(ctx context.Context, q string, args ...any) ([]model.BookingDetail, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.BookingDetail{}
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID retrieves a booking by its ID.  It returns ErrBookingNotFound
// if there is no matching row.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

// GetDetail retrieves a booking joined with hall, requester and approver names.
func (r *BookingRepo) GetDetail(ctx context.Context, id uint64) (*model.BookingDetail, error) {
	q := `SELECT ` + detailColumns + ` ` + detailJoins + ` WHERE b.id = ?`
	d, err := scanDetail(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &d, nil
}

// ListActiveOnDate returns the PENDING and APPROVED bookings of a hall on
// one date ordered by start time.  excludeID, when non-zero, is left out.
func (r *BookingRepo) ListActiveOnDate(ctx context.Context, hallID uint64, date string, excludeID uint64) ([]model.Booking, error) {
	q := `SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.hall_id = ? AND b.date = ? AND b.status IN ` + activeStatuses + ` AND b.id <> ?
		ORDER BY b.start_time ASC`
	rows, err := r.db.QueryContext(ctx, q, hallID, date, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// lockHallTx takes a row lock on the hall.  Every writer of a hall's
// bookings goes through it, so concurrent inserts for the same hall are
// serialized even when no booking rows exist yet to lock.
func lockHallTx(ctx context.Context, tx *sql.Tx, hallID uint64) error {
	var id uint64
	err := tx.QueryRowContext(ctx, `SELECT id FROM halls WHERE id = ? FOR UPDATE`, hallID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrHallNotFound
	}
	return err
}

// countOverlapsTx locks and counts active bookings of (hall, date) whose
// slot intersects [start, end).  Touching slots are not counted.
func countOverlapsTx(ctx context.Context, tx *sql.Tx, hallID uint64, date, start, end string, excludeID uint64) (int, error) {
	const q = `SELECT id FROM bookings
		WHERE hall_id = ? AND date = ? AND status IN ` + activeStatuses + `
		  AND start_time < ? AND end_time > ? AND id <> ?
		FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, hallID, date, end, start, excludeID)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	n := 0
	for rows.Next() {
		n++
	}
	return n, rows.Err()
}

// CreateNoOverlap inserts a booking only if no active booking of the same
// hall and date overlaps it.  The scan and the insert share one
// transaction with row locks, so two concurrent requests cannot both
// observe a free slot.  On success the generated ID and DB defaults are
// populated on b.
func (r *BookingRepo) CreateNoOverlap(ctx context.Context, b *model.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := lockHallTx(ctx, tx, b.HallID); err != nil {
		return err
	}
	n, err := countOverlapsTx(ctx, tx, b.HallID, b.Date, b.StartTime, b.EndTime, 0)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrOverlap
	}

	const ins = `INSERT INTO bookings (hall_id, requester_id, requester_role, date, start_time, end_time, purpose, attendees, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, ins,
		b.HallID, b.RequesterID, string(b.RequesterRole), b.Date, b.StartTime, b.EndTime, b.Purpose, b.Attendees, string(b.Status))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	// Read back inside the transaction to pick up timestamps.
	stored, err := scanBooking(tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = ?`, id))
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	*b = stored
	return nil
}

// RescheduleNoOverlap writes new date, times, purpose and attendees for a
// PENDING booking after re-checking the slot against every other active
// booking.  It returns ErrBookingNotFound, ErrStatusChanged when the
// booking is no longer pending, or ErrOverlap.
func (r *BookingRepo) RescheduleNoOverlap(ctx context.Context, b *model.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := lockHallTx(ctx, tx, b.HallID); err != nil {
		return err
	}
	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = ? FOR UPDATE`, b.ID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookingNotFound
		}
		return err
	}
	if model.BookingStatus(status) != model.StatusPending {
		return ErrStatusChanged
	}
	n, err := countOverlapsTx(ctx, tx, b.HallID, b.Date, b.StartTime, b.EndTime, b.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrOverlap
	}
	const upd = `UPDATE bookings
		SET date = ?, start_time = ?, end_time = ?, purpose = ?, attendees = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'PENDING'`
	if _, err := tx.ExecContext(ctx, upd, b.Date, b.StartTime, b.EndTime, b.Purpose, b.Attendees, b.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Transition applies a compare-and-swap on the booking status.  The UPDATE
// is conditioned on the current status being one of t.From; when it
// affects no rows an existence query decides between ErrBookingNotFound
// and ErrStatusChanged.
func (r *BookingRepo) Transition(ctx context.Context, id uint64, t StatusTransition) error {
	if len(t.From) == 0 {
		return errors.New("transition without source statuses")
	}
	set := []string{"status = ?", "updated_at = CURRENT_TIMESTAMP"}
	args := []any{string(t.To)}
	if t.ApprovedBy != nil {
		set = append(set, "approved_by = ?")
		args = append(args, *t.ApprovedBy)
	}
	if t.ApprovedAt != nil {
		set = append(set, "approved_at = ?")
		args = append(args, *t.ApprovedAt)
	}
	if t.Reason != nil {
		set = append(set, "rejection_reason = ?")
		args = append(args, *t.Reason)
	}
	args = append(args, id)
	placeholders := make([]string, len(t.From))
	for i, s := range t.From {
		placeholders[i] = "?"
		args = append(args, string(s))
	}
	q := `UPDATE bookings SET ` + strings.Join(set, ", ") +
		` WHERE id = ? AND status IN (` + strings.Join(placeholders, ",") + `)`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM bookings WHERE id = ? LIMIT 1`, id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookingNotFound
		}
		if err != nil {
			return err
		}
		return ErrStatusChanged
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ListByRequester returns the bookings created by one account, newest
// first, joined with hall and approver names.
func (r *BookingRepo) ListByRequester(ctx context.Context, requesterID uint64, role model.Role) ([]model.BookingDetail, error) {
	q := `SELECT ` + detailColumns + ` ` + detailJoins + `
		WHERE b.requester_id = ? AND b.requester_role = ?
		ORDER BY b.created_at DESC`
	return r.queryDetails(ctx, q, requesterID, string(role))
}

// ListPending returns all PENDING bookings, oldest request first, so that
// admins work through them in arrival order.
func (r *BookingRepo) ListPending(ctx context.Context) ([]model.BookingDetail, error) {
	q := `SELECT ` + detailColumns + ` ` + detailJoins + `
		WHERE b.status = 'PENDING'
		ORDER BY b.created_at ASC`
	return r.queryDetails(ctx, q)
}

// ListRecentActivity returns the most recently changed bookings.
func (r *BookingRepo) ListRecentActivity(ctx context.Context, limit int) ([]model.BookingDetail, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := `SELECT ` + detailColumns + ` ` + detailJoins + `
		ORDER BY b.updated_at DESC
		LIMIT ?`
	return r.queryDetails(ctx, q, limit)
}

// ListByStatusOnDate returns bookings of one status on a date; the
// reminder job uses it for APPROVED bookings of the following day.
func (r *BookingRepo) ListByStatusOnDate(ctx context.Context, status model.BookingStatus, date string) ([]model.BookingDetail, error) {
	q := `SELECT ` + detailColumns + ` ` + detailJoins + `
		WHERE b.status = ? AND b.date = ?
		ORDER BY b.start_time ASC`
	return r.queryDetails(ctx, q, string(status), date)
}

// Search lists bookings with optional status, hall and free-text filters.
// It returns one page of rows plus the total number of matches.
func (r *BookingRepo) Search(ctx context.Context, q BookingQuery) ([]model.BookingDetail, int64, error) {
	where := []string{}
	args := []any{}

	if s := strings.ToUpper(strings.TrimSpace(q.Status)); s != "" {
		where = append(where, "b.status = ?")
		args = append(args, s)
	}
	if q.HallID != 0 {
		where = append(where, "b.hall_id = ?")
		args = append(args, q.HallID)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		where = append(where, "(LOWER(b.purpose) LIKE ? OR LOWER(h.name) LIKE ? OR LOWER(u.name) LIKE ?)")
		args = append(args, like, like, like)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	countSQL := `SELECT COUNT(*) ` + detailJoins + ` WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 20
	}
	offset := (q.Page - 1) * q.PageSize

	dataSQL := `SELECT ` + detailColumns + ` ` + detailJoins + `
		WHERE ` + cond + `
		ORDER BY b.date DESC, b.start_time DESC
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), q.PageSize, offset)

	out, err := r.queryDetails(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListUpcoming returns the next active bookings from the given date on.
func (r *BookingRepo) ListUpcoming(ctx context.Context, fromDate string, limit int) ([]model.BookingDetail, error) {
	if limit <= 0 {
		limit = 5
	}
	q := `SELECT ` + detailColumns + ` ` + detailJoins + `
		WHERE b.date >= ? AND b.status IN ` + activeStatuses + `
		ORDER BY b.date ASC, b.start_time ASC
		LIMIT ?`
	return r.queryDetails(ctx, q, fromDate, limit)
}
