package services

import (
	"context"
	"errors"

	"github.com/eventdesk/apiserver/internal/store"
	"github.com/eventdesk/apiserver/types"
)

// RegistrationRepository defines persistence operations for registrations.
type RegistrationRepository interface {
	ListByEvent(ctx context.Context, eventID int) ([]types.Registration, error)
	Exists(ctx context.Context, userID, eventID int) (bool, error)
	Create(ctx context.Context, reg types.Registration) (types.Registration, error)
}

// RegistrationLedger records which users are registered for which events.
type RegistrationLedger struct {
	repo RegistrationRepository
}

func NewRegistrationLedger(repo RegistrationRepository) *RegistrationLedger {
	return &RegistrationLedger{repo: repo}
}

// ListRegistrants returns the registrations of an event in storage order.
// An event without registrations yields an empty slice.
func (l *RegistrationLedger) ListRegistrants(ctx context.Context, eventID int) ([]types.Registration, error) {
	registrations, err := l.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, storageErr("list registrations", err)
	}
	if registrations == nil {
		registrations = []types.Registration{}
	}
	return registrations, nil
}

func (l *RegistrationLedger) IsRegistered(ctx context.Context, userID, eventID int) (bool, error) {
	ok, err := l.repo.Exists(ctx, userID, eventID)
	if err != nil {
		return false, storageErr("check registration", err)
	}
	return ok, nil
}

// Register validates the contact snapshot and stores a new registration.
func (l *RegistrationLedger) Register(ctx context.Context, in RegistrationInput) (types.Registration, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return types.Registration{}, err
	}

	reg, err := l.repo.Create(ctx, types.Registration{
		EventID:       in.EventID,
		UserID:        in.UserID,
		Username:      in.Username,
		Email:         in.Email,
		ContactNumber: in.ContactNumber,
		Address:       in.Address,
	})
	switch {
	case err == nil:
		return reg, nil
	case errors.Is(err, store.ErrDuplicate):
		return types.Registration{}, ErrAlreadyRegistered
	case errors.Is(err, store.ErrCapacityReached):
		return types.Registration{}, ErrEventFull
	default:
		return types.Registration{}, storageErr("create registration", err)
	}
}
