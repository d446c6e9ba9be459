package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/eventdesk/apiserver/internal/eventtime"
	"github.com/eventdesk/apiserver/internal/notifier"
	"github.com/eventdesk/apiserver/internal/store"
	"github.com/eventdesk/apiserver/types"
)

// EventRepository defines persistence operations for events.
type EventRepository interface {
	List(ctx context.Context) ([]types.Event, error)
	ListByOwner(ctx context.Context, userID int) ([]types.Event, error)
	Get(ctx context.Context, id int) (types.Event, error)
	Create(ctx context.Context, event types.Event) (types.Event, error)
	Update(ctx context.Context, event types.Event) (types.Event, error)
	Delete(ctx context.Context, id int) (int64, error)
}

// Notifier sends lifecycle notifications to registrants.
type Notifier interface {
	Notify(ctx context.Context, kind notifier.Kind, to notifier.Recipient, event types.Event) error
	NotifyAll(ctx context.Context, kind notifier.Kind, recipients []notifier.Recipient, event types.Event) []notifier.Delivery
}

// Archiver keeps a copy of an event and its registrants before deletion.
type Archiver interface {
	ArchiveEvent(ctx context.Context, event types.Event, registrants []types.Registration) (string, error)
}

// UpdateResult is the outcome of an event update.
type UpdateResult struct {
	Event      types.Event
	Deliveries []notifier.Delivery
}

// DeleteResult is the outcome of an event deletion.
type DeleteResult struct {
	Deleted     int64
	Registrants int
	Deliveries  []notifier.Delivery
	// ArchiveKey is set when a snapshot was written before deletion.
	ArchiveKey string
}

// CompletionStatus reports whether an event has started. NoRegistrants is
// reported alongside Complete, never instead of it.
type CompletionStatus struct {
	EventID       int
	Complete      bool
	NoRegistrants bool
	Registrants   int
}

const (
	defaultFanoutTimeout = 2 * time.Minute
	commitTimeout        = 30 * time.Second
)

// EventOption configures optional collaborators of an EventService.
type EventOption func(*EventService)

// WithAnnouncer posts a channel message on create, update and delete.
func WithAnnouncer(a notifier.Announcer) EventOption {
	return func(s *EventService) {
		s.announcer = a
	}
}

// WithArchive snapshots events before they are deleted.
func WithArchive(a Archiver) EventOption {
	return func(s *EventService) {
		s.archive = a
	}
}

// WithClock overrides the source of "now" used for completion checks.
func WithClock(now func() time.Time) EventOption {
	return func(s *EventService) {
		s.now = now
	}
}

// WithFanoutTimeout bounds how long notifications of one lifecycle change
// may take in total. Non-positive values keep the default.
func WithFanoutTimeout(d time.Duration) EventOption {
	return func(s *EventService) {
		if d > 0 {
			s.fanoutTimeout = d
		}
	}
}

// EventService coordinates the event lifecycle: it persists changes,
// derives completion and fans notifications out to registrants.
type EventService struct {
	events    EventRepository
	ledger    *RegistrationLedger
	notifier  Notifier
	announcer notifier.Announcer
	archive   Archiver
	now       func() time.Time

	fanoutTimeout time.Duration
}

func NewEventService(events EventRepository, ledger *RegistrationLedger, n Notifier, opts ...EventOption) *EventService {
	s := &EventService{
		events:   events,
		ledger:   ledger,
		notifier: n,
		now:      time.Now,

		fanoutTimeout: defaultFanoutTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock's current time.
func (s *EventService) Now() time.Time {
	return s.now()
}

// IsComplete reports whether event has started as of the service clock.
func (s *EventService) IsComplete(event types.Event) (bool, error) {
	complete, err := eventtime.IsEventComplete(event.Date.Time, event.Time, s.now())
	if err != nil {
		return false, fmt.Errorf("event %d has malformed time %q: %w", event.ID, event.Time, err)
	}
	return complete, nil
}

func (s *EventService) withCompletion(event types.Event) (types.Event, error) {
	complete, err := s.IsComplete(event)
	if err != nil {
		return types.Event{}, err
	}
	event.Complete = complete
	return event, nil
}

func (s *EventService) withCompletionAll(events []types.Event) ([]types.Event, error) {
	out := make([]types.Event, 0, len(events))
	for _, event := range events {
		event, err := s.withCompletion(event)
		if err != nil {
			return nil, err
		}
		out = append(out, event)
	}
	return out, nil
}

func (s *EventService) GetEvent(ctx context.Context, id int) (types.Event, error) {
	event, err := s.events.Get(ctx, id)
	if err != nil {
		return types.Event{}, storageErr("get event", err)
	}
	return s.withCompletion(event)
}

func (s *EventService) ReadAllEvents(ctx context.Context) ([]types.Event, error) {
	events, err := s.events.List(ctx)
	if err != nil {
		return nil, storageErr("list events", err)
	}
	return s.withCompletionAll(events)
}

func (s *EventService) ReadEventsByOwner(ctx context.Context, ownerID int) ([]types.Event, error) {
	events, err := s.events.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, storageErr("list events by owner", err)
	}
	return s.withCompletionAll(events)
}

// CreateEvent validates and stores a new event owned by ownerID.
// Nobody is registered yet, so no notifications are sent.
func (s *EventService) CreateEvent(ctx context.Context, ownerID int, in EventInput) (types.Event, error) {
	in.normalize()
	if ownerID <= 0 {
		return types.Event{}, invalid("user_id", "must be positive")
	}
	if err := in.validate(); err != nil {
		return types.Event{}, err
	}

	event, err := s.events.Create(ctx, types.Event{
		Title:       in.Title,
		Description: in.Description,
		Date:        in.Date,
		Time:        in.Time,
		Location:    in.Location,
		Capacity:    *in.Capacity,
		UserID:      ownerID,
	})
	if err != nil {
		return types.Event{}, storageErr("create event", err)
	}

	s.announce(ctx, notifier.KindCreated, event)
	return s.withCompletion(event)
}

// Authorize loads an event and checks that userID owns it.
func (s *EventService) Authorize(ctx context.Context, eventID, userID int) (types.Event, error) {
	event, err := s.events.Get(ctx, eventID)
	if err != nil {
		return types.Event{}, storageErr("get event", err)
	}
	if event.UserID != userID {
		return types.Event{}, ErrForbidden
	}
	return event, nil
}

// UpdateEvent replaces the fields of an event and notifies every registrant
// of the new values. Registrants are read before the write. The update
// succeeds regardless of individual send outcomes.
func (s *EventService) UpdateEvent(ctx context.Context, id int, in EventInput) (UpdateResult, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return UpdateResult{}, err
	}

	current, err := s.events.Get(ctx, id)
	if err != nil {
		return UpdateResult{}, storageErr("get event", err)
	}

	registrants, err := s.ledger.ListRegistrants(ctx, id)
	if err != nil {
		return UpdateResult{}, err
	}

	current.Title = in.Title
	current.Description = in.Description
	current.Date = in.Date
	current.Time = in.Time
	current.Location = in.Location
	current.Capacity = *in.Capacity

	updated, err := s.events.Update(ctx, current)
	if err != nil {
		return UpdateResult{}, storageErr("update event", err)
	}

	deliveries := s.fanOut(ctx, notifier.KindUpdated, registrants, updated)
	s.announce(ctx, notifier.KindUpdated, updated)

	updated, err = s.withCompletion(updated)
	if err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{Event: updated, Deliveries: deliveries}, nil
}

// DeleteEvent cancels an event. Every registrant is notified using the
// pre-delete snapshot, then the event is removed together with its
// registrations and feedback. Notifications and the delete run on contexts
// detached from ctx, so the delete commits even when the caller's deadline
// passed while mail was being sent. A failed delete may still have notified
// registrants.
func (s *EventService) DeleteEvent(ctx context.Context, id int) (DeleteResult, error) {
	event, err := s.events.Get(ctx, id)
	if err != nil {
		return DeleteResult{}, storageErr("get event", err)
	}

	registrants, err := s.ledger.ListRegistrants(ctx, id)
	if err != nil {
		return DeleteResult{}, err
	}

	deliveries := s.fanOut(ctx, notifier.KindCancelled, registrants, event)

	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()

	var archiveKey string
	if s.archive != nil {
		key, err := s.archive.ArchiveEvent(commitCtx, event, registrants)
		if err != nil {
			log.Printf("event %d: archive failed: %v", id, err)
		} else {
			archiveKey = key
		}
	}

	deleted, err := s.events.Delete(commitCtx, id)
	if err != nil {
		return DeleteResult{}, storageErr("delete event", err)
	}
	if deleted == 0 {
		return DeleteResult{}, store.ErrNotFound
	}

	s.announce(ctx, notifier.KindCancelled, event)
	return DeleteResult{
		Deleted:     deleted,
		Registrants: len(registrants),
		Deliveries:  deliveries,
		ArchiveKey:  archiveKey,
	}, nil
}

// CheckEventComplete reports whether an event has started and how many
// users are registered for it.
func (s *EventService) CheckEventComplete(ctx context.Context, id int) (CompletionStatus, error) {
	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return CompletionStatus{}, err
	}

	registrants, err := s.ledger.ListRegistrants(ctx, id)
	if err != nil {
		return CompletionStatus{}, err
	}

	return CompletionStatus{
		EventID:       event.ID,
		Complete:      event.Complete,
		NoRegistrants: len(registrants) == 0,
		Registrants:   len(registrants),
	}, nil
}

// Register adds a registration for an event that has not started yet and
// sends the registrant a confirmation. A failed confirmation does not undo
// the registration.
func (s *EventService) Register(ctx context.Context, in RegistrationInput) (types.Registration, error) {
	if in.EventID <= 0 {
		return types.Registration{}, invalid("event_id", "must be positive")
	}

	event, err := s.GetEvent(ctx, in.EventID)
	if err != nil {
		return types.Registration{}, err
	}
	if event.Complete {
		return types.Registration{}, ErrEventClosed
	}

	reg, err := s.ledger.Register(ctx, in)
	if err != nil {
		return types.Registration{}, err
	}

	notifyCtx, cancel := s.detached(ctx)
	defer cancel()
	to := notifier.Recipient{Name: reg.Username, Email: reg.Email}
	if err := s.notifier.Notify(notifyCtx, notifier.KindRegistrationConfirmed, to, event); err != nil {
		log.Printf("event %d: %v", event.ID, err)
	}
	return reg, nil
}

// ListRegistrants returns the registrations of an event owned by ownerID.
func (s *EventService) ListRegistrants(ctx context.Context, eventID, ownerID int) ([]types.Registration, error) {
	if _, err := s.Authorize(ctx, eventID, ownerID); err != nil {
		return nil, err
	}
	return s.ledger.ListRegistrants(ctx, eventID)
}

// IsRegistered reports whether userID is registered for an existing event.
func (s *EventService) IsRegistered(ctx context.Context, userID, eventID int) (bool, error) {
	if _, err := s.events.Get(ctx, eventID); err != nil {
		return false, storageErr("get event", err)
	}
	return s.ledger.IsRegistered(ctx, userID, eventID)
}

// detached keeps request values but not cancellation, and expires after the
// fan-out bound.
func (s *EventService) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.fanoutTimeout)
}

func (s *EventService) fanOut(ctx context.Context, kind notifier.Kind, registrants []types.Registration, event types.Event) []notifier.Delivery {
	ctx, cancel := s.detached(ctx)
	defer cancel()
	return s.notifier.NotifyAll(ctx, kind, notifier.RecipientsOf(registrants), event)
}

func (s *EventService) announce(ctx context.Context, kind notifier.Kind, event types.Event) {
	if s.announcer == nil {
		return
	}
	ctx, cancel := s.detached(ctx)
	defer cancel()
	if err := s.announcer.Announce(ctx, kind, event); err != nil {
		log.Printf("event %d: announce %s failed: %v", event.ID, kind, err)
	}
}
