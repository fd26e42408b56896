package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

type seedDepartment struct {
	Name string
	Code string
}

type seedHall struct {
	Name        string
	Location    string
	Capacity    int
	Amenities   []string
	Description string
}

var departments = []seedDepartment{
	{"Computer Science", "CS"},
	{"Business Management Studies", "BMS"},
	{"Commerce", "COM"},
	{"Arts", "ARTS"},
	{"Science", "SCI"},
}

var halls = []seedHall{
	{"Main Auditorium", "Ground Floor, Main Building", 500, []string{"Projector", "Sound System", "Stage", "AC"}, "Large auditorium for major events"},
	{"Conference Hall A", "First Floor, Admin Block", 100, []string{"Projector", "Whiteboard", "AC"}, "Medium conference hall"},
	{"Seminar Room 1", "Second Floor, Academic Block", 60, []string{"Projector", "Whiteboard"}, "Seminar room for lectures and workshops"},
	{"Computer Lab", "Third Floor, IT Block", 40, []string{"Computers", "Projector", "AC"}, "Lab with workstations"},
	{"Board Room", "First Floor, Admin Block", 30, []string{"Video Conferencing", "Projector", "AC"}, "Executive meeting room"},
}

// Seed inserts the reference departments and halls when their tables are
// empty.  Existing rows are never touched.
func Seed(ctx context.Context, db *sql.DB) error {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM departments`).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		for _, d := range departments {
			if _, err := db.ExecContext(ctx, `INSERT INTO departments (name, code) VALUES (?, ?)`, d.Name, d.Code); err != nil {
				return fmt.Errorf("seed department %s: %w", d.Code, err)
			}
		}
	}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM halls`).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		for _, h := range halls {
			am, err := json.Marshal(h.Amenities)
			if err != nil {
				return err
			}
			if _, err := db.ExecContext(ctx,
				`INSERT INTO halls (name, location, capacity, amenities, description) VALUES (?, ?, ?, ?, ?)`,
				h.Name, h.Location, h.Capacity, am, h.Description); err != nil {
				return fmt.Errorf("seed hall %s: %w", h.Name, err)
			}
		}
	}
	return nil
}
