package types

import "time"

// Registration binds a user to an event. The contact fields are a snapshot
// taken at registration time and are not kept in sync with the user profile.
type Registration struct {
	// ID is the unique identifier of the registration.
	ID int `json:"id" db:"id"`

	// EventID identifies the event registered for.
	EventID int `json:"event_id" db:"event_id"`

	// UserID identifies the registered user.
	UserID int `json:"user_id" db:"user_id"`

	// Username is the registrant's name as entered on the registration form.
	Username string `json:"username" db:"username"`

	// Email is the address notifications about the event are sent to.
	Email string `json:"email" db:"email"`

	// ContactNumber is the registrant's phone number.
	ContactNumber string `json:"contact_number" db:"contact_number"`

	// Address is the registrant's postal address.
	Address string `json:"address" db:"address"`

	// Attended is reserved for attendance tracking; no operation sets it yet.
	Attended bool `json:"attended" db:"attended"`

	// CreatedAt is the timestamp at which the registration was made.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
