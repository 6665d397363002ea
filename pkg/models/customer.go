package models

import "time"

// Customer is the canonical customer entity, keyed by the business id supplied
// by the source system. Subsequent sightings of the same key update the row in
// place; no history is retained.
type Customer struct {
	CustomerID   string    `db:"customer_id" json:"customer_id"`
	Name         string    `db:"name" json:"name"`
	Phone        string    `db:"phone" json:"phone"` // canonical last-10-digit form
	Region       string    `db:"region" json:"region"`
	RegisteredAt time.Time `db:"registered_at_utc" json:"registered_at_utc"`
	CreatedAt    time.Time `db:"created_at" json:"created_at,omitempty"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
