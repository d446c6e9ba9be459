package types

import "time"

// Feedback is a review a user leaves on an event.
// Several entries for the same user and event are allowed.
type Feedback struct {
	ID      int `json:"id" db:"id"`
	UserID  int `json:"user_id" db:"user_id"`
	EventID int `json:"event_id" db:"event_id"`

	// Username is the author's username, populated on list-by-event reads.
	Username string `json:"username,omitempty" db:"-"`

	Review    string    `json:"review" db:"review"`
	DateTime  time.Time `json:"date_time" db:"date_time"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
