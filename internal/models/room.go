package models

import "time"

// Room is a physical teaching space. Open hours bound the occupancy
// denominator for the room; capacity is informational.
type Room struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Building  string    `db:"building" json:"building"`
	Capacity  int       `db:"capacity" json:"capacity"`
	OpensAt   TimeOfDay `db:"opens_minutes" json:"opens_at"`
	ClosesAt  TimeOfDay `db:"closes_minutes" json:"closes_at"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RoomFilter captures filtering criteria for listing rooms.
type RoomFilter struct {
	Building  string
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
