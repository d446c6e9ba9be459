package types

import "time"

// Event represents a scheduled activity owned by the user who created it.
type Event struct {
	// ID is the unique identifier of the event.
	ID int `json:"id" db:"id"`

	// Title is the human-readable name of the event.
	Title string `json:"title" db:"title"`

	// Description is the free-text description shown to attendees.
	Description string `json:"description" db:"description"`

	// Date is the calendar date on which the event takes place.
	Date Date `json:"date" db:"event_date"`

	// Time is the wall-clock start time in "hh:mm AM/PM" form, stored
	// independently of Date.
	Time string `json:"time" db:"event_time"`

	// Location is where the event takes place.
	Location string `json:"location" db:"location"`

	// Capacity is the maximum number of registrations the event accepts.
	Capacity int `json:"capacity" db:"capacity"`

	// UserID identifies the user who created and owns the event.
	UserID int `json:"user_id" db:"user_id"`

	// Complete reports whether the event's scheduled instant has passed.
	// It is derived on every read and never persisted.
	Complete bool `json:"complete" db:"-"`

	// CreatedAt is the timestamp at which the event was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the event.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
