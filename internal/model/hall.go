package model

import "time"

// Hall represents a bookable venue.  Halls are managed by administrators
// and are never physically removed: deleting a hall clears IsActive so
// that historical bookings keep a valid reference.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – display name of the hall.
//  Location    – building / floor description.
//  Capacity    – maximum number of attendees (always > 0).
//  Amenities   – free-form amenity tags (projector, AC, ...).
//  Description – optional description.
//  ImageURL    – optional picture reference.
//  IsActive    – whether the hall accepts bookings.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Hall struct {
	ID          uint64    `json:"id"`                    // halls.id
	Name        string    `json:"name"`                  // halls.name
	Location    string    `json:"location"`              // halls.location
	Capacity    uint32    `json:"capacity"`              // halls.capacity
	Amenities   []string  `json:"amenities"`             // halls.amenities (JSON array)
	Description *string   `json:"description,omitempty"` // halls.description (nullable)
	ImageURL    *string   `json:"image_url,omitempty"`   // halls.image_url (nullable)
	IsActive    bool      `json:"is_active"`             // halls.is_active
	CreatedAt   time.Time `json:"created_at"`            // halls.created_at
	UpdatedAt   time.Time `json:"updated_at"`            // halls.updated_at
}
