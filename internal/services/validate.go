package services

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/eventdesk/apiserver/internal/eventtime"
	"github.com/eventdesk/apiserver/types"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 16
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// EventInput carries the client-supplied fields of an event.
// A nil Capacity means the field was omitted.
type EventInput struct {
	Title       string
	Description string
	Date        types.Date
	Time        string
	Location    string
	Capacity    *int
}

func (in *EventInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Time = strings.TrimSpace(in.Time)
	in.Location = strings.TrimSpace(in.Location)
}

func (in EventInput) validate() error {
	switch {
	case in.Title == "":
		return invalid("title", "is required")
	case in.Description == "":
		return invalid("description", "is required")
	case in.Date.IsZero():
		return invalid("date", "is required")
	case in.Time == "":
		return invalid("time", "is required")
	case !eventtime.ValidLabel(in.Time):
		return invalid("time", "must be in hh:mm AM/PM format")
	case in.Location == "":
		return invalid("location", "is required")
	case in.Capacity == nil:
		return invalid("capacity", "is required")
	case *in.Capacity < 0:
		return invalid("capacity", "must not be negative")
	}
	return nil
}

// RegistrationInput carries the contact snapshot captured on registration.
type RegistrationInput struct {
	EventID       int
	UserID        int
	Username      string
	Email         string
	ContactNumber string
	Address       string
}

func (in *RegistrationInput) normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.ContactNumber = strings.TrimSpace(in.ContactNumber)
	in.Address = strings.TrimSpace(in.Address)
}

func (in RegistrationInput) validate() error {
	switch {
	case in.EventID <= 0:
		return invalid("event_id", "must be positive")
	case in.UserID <= 0:
		return invalid("user_id", "must be positive")
	case in.Username == "":
		return invalid("username", "is required")
	case !validEmail(in.Email):
		return invalid("email", "must be a valid email address")
	case in.ContactNumber == "":
		return invalid("contact_number", "is required")
	case in.Address == "":
		return invalid("address", "is required")
	}
	return nil
}

// SignUpInput carries the fields of a new account.
type SignUpInput struct {
	Username string
	Email    string
	Password string
}

func (in *SignUpInput) normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
}

func (in SignUpInput) validate() error {
	switch {
	case in.Username == "":
		return invalid("username", "is required")
	case !validEmail(in.Email):
		return invalid("email", "must be a valid email address")
	}
	n := utf8.RuneCountInString(in.Password)
	if n < minPasswordLength || n > maxPasswordLength {
		return invalid("password", "must be between 8 and 16 characters")
	}
	return nil
}

func validEmail(email string) bool {
	return emailPattern.MatchString(email)
}
