package repository

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/hall-booking/internal/model"
)

// BookingCounts is the per-status breakdown of all bookings.
type BookingCounts struct {
	Total     int64 `db:"total" json:"total"`
	Pending   int64 `db:"pending" json:"pending"`
	Approved  int64 `db:"approved" json:"approved"`
	Rejected  int64 `db:"rejected" json:"rejected"`
	Cancelled int64 `db:"cancelled" json:"cancelled"`
}

// HallUsage is the number of bookings recorded for a hall.
type HallUsage struct {
	HallID   uint64 `db:"hall_id" json:"hall_id"`
	Name     string `db:"name" json:"name"`
	Location string `db:"location" json:"location"`
	Bookings int64  `db:"booking_count" json:"booking_count"`
}

// DepartmentUsage is the number of bookings made by a department's accounts.
type DepartmentUsage struct {
	Department string `db:"department" json:"department"`
	Bookings   int64  `db:"booking_count" json:"booking_count"`
}

// DailyCount is the number of bookings created on one day.
type DailyCount struct {
	Date  string `db:"date" json:"date"`
	Count int64  `db:"count" json:"count"`
}

// Report is the admin reports payload.
type Report struct {
	Counts       BookingCounts     `json:"counts"`
	PopularHalls []HallUsage       `json:"popular_halls"`
	Departments  []DepartmentUsage `json:"department_stats"`
}

// Stats is the admin dashboard payload.  BookingRate is the share of
// bookable hours used over the window: non-cancelled bookings divided by
// active halls * 12 hours * 30 days, as a percentage.
type Stats struct {
	RecentBookings   int64        `json:"recent_bookings"`
	ActiveRequesters int64        `json:"active_requesters"`
	ActiveHalls      int64        `json:"active_halls"`
	BookingRate      float64      `json:"booking_rate"`
	PopularHalls     []HallUsage  `json:"popular_halls"`
	Trend            []DailyCount `json:"trend"`

	// Upcoming is filled by the caller from BookingRepo.ListUpcoming.
	Upcoming []model.BookingDetail `json:"upcoming_bookings"`
}

// ReportRepo runs read-only aggregate queries.
type ReportRepo struct {
	db *sqlx.DB
}

// NewReportRepo wraps the shared connection pool for sqlx scanning.
func NewReportRepo(db *sql.DB) *ReportRepo {
	return &ReportRepo{db: sqlx.NewDb(db, "mysql")}
}

// Summary returns status counts, the five most booked halls and the
// bookings per department.
func (r *ReportRepo) Summary(ctx context.Context) (*Report, error) {
	var rep Report
	const qCounts = `SELECT COUNT(*) AS total,
		COALESCE(SUM(status = 'PENDING'), 0)   AS pending,
		COALESCE(SUM(status = 'APPROVED'), 0)  AS approved,
		COALESCE(SUM(status = 'REJECTED'), 0)  AS rejected,
		COALESCE(SUM(status = 'CANCELLED'), 0) AS cancelled
		FROM bookings`
	if err := r.db.GetContext(ctx, &rep.Counts, qCounts); err != nil {
		return nil, err
	}

	const qHalls = `SELECT h.id AS hall_id, h.name, h.location, COUNT(b.id) AS booking_count
		FROM halls h
		LEFT JOIN bookings b ON b.hall_id = h.id
		GROUP BY h.id, h.name, h.location
		ORDER BY booking_count DESC
		LIMIT 5`
	rep.PopularHalls = []HallUsage{}
	if err := r.db.SelectContext(ctx, &rep.PopularHalls, qHalls); err != nil {
		return nil, err
	}

	const qDepts = `SELECT d.name AS department, COUNT(b.id) AS booking_count
		FROM departments d
		LEFT JOIN users u ON u.department_id = d.id
		LEFT JOIN bookings b ON b.requester_id = u.id
		GROUP BY d.id, d.name
		ORDER BY booking_count DESC`
	rep.Departments = []DepartmentUsage{}
	if err := r.db.SelectContext(ctx, &rep.Departments, qDepts); err != nil {
		return nil, err
	}
	return &rep, nil
}

// Stats returns dashboard figures for the 30 days before now.
func (r *ReportRepo) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	since := now.AddDate(0, 0, -30)
	var st Stats

	if err := r.db.GetContext(ctx, &st.RecentBookings,
		`SELECT COUNT(*) FROM bookings WHERE created_at >= ?`, since); err != nil {
		return nil, err
	}
	if err := r.db.GetContext(ctx, &st.ActiveRequesters,
		`SELECT COUNT(DISTINCT requester_id) FROM bookings WHERE created_at >= ?`, since); err != nil {
		return nil, err
	}
	if err := r.db.GetContext(ctx, &st.ActiveHalls,
		`SELECT COUNT(*) FROM halls WHERE is_active = TRUE`); err != nil {
		return nil, err
	}
	var used int64
	if err := r.db.GetContext(ctx, &used,
		`SELECT COUNT(*) FROM bookings WHERE created_at >= ? AND status <> 'CANCELLED'`, since); err != nil {
		return nil, err
	}
	st.BookingRate = bookingRate(used, st.ActiveHalls)

	st.PopularHalls = []HallUsage{}
	if err := r.db.SelectContext(ctx, &st.PopularHalls,
		`SELECT h.id AS hall_id, h.name, h.location, COUNT(*) AS booking_count
		FROM bookings b
		JOIN halls h ON h.id = b.hall_id
		WHERE b.status <> 'CANCELLED' AND b.created_at >= ?
		GROUP BY h.id, h.name, h.location
		ORDER BY booking_count DESC
		LIMIT 5`, since); err != nil {
		return nil, err
	}

	st.Trend = []DailyCount{}
	if err := r.db.SelectContext(ctx, &st.Trend,
		`SELECT DATE_FORMAT(created_at, '%Y-%m-%d') AS date, COUNT(*) AS count
		FROM bookings
		WHERE created_at >= ?
		GROUP BY DATE_FORMAT(created_at, '%Y-%m-%d')
		ORDER BY date ASC`, since); err != nil {
		return nil, err
	}
	return &st, nil
}

// bookingRate assumes 12 bookable hours per day over 30 days, rounded to
// one decimal place.
func bookingRate(bookings, halls int64) float64 {
	if halls <= 0 {
		return 0
	}
	slots := float64(halls * 12 * 30)
	return math.Round(float64(bookings)/slots*1000) / 10
}
