package model

import "time"

// Department groups requester accounts (e.g. Computer Science, Commerce).
type Department struct {
	ID        uint64    `json:"id"`         // departments.id
	Name      string    `json:"name"`       // departments.name
	Code      string    `json:"code"`       // departments.code (unique)
	IsActive  bool      `json:"is_active"`  // departments.is_active
	CreatedAt time.Time `json:"created_at"` // departments.created_at
}
