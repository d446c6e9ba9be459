package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/eventdesk/apiserver/internal/notifier"
	"github.com/eventdesk/apiserver/internal/store"
	"github.com/eventdesk/apiserver/types"
)

var errBoom = errors.New("boom")

type fakeEventRepo struct {
	mu        sync.Mutex
	events    map[int]types.Event
	nextID    int
	deleteErr error
	deletes   int
	regs      *fakeRegistrationRepo
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: map[int]types.Event{}, nextID: 1}
}

func (r *fakeEventRepo) sorted(filter func(types.Event) bool) []types.Event {
	out := make([]types.Event, 0)
	for _, e := range r.events {
		if filter(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeEventRepo) List(ctx context.Context) ([]types.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(types.Event) bool { return true }), nil
}

func (r *fakeEventRepo) ListByOwner(ctx context.Context, userID int) ([]types.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(e types.Event) bool { return e.UserID == userID }), nil
}

func (r *fakeEventRepo) Get(ctx context.Context, id int) (types.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return types.Event{}, store.ErrNotFound
	}
	return e, nil
}

func (r *fakeEventRepo) Create(ctx context.Context, event types.Event) (types.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.ID = r.nextID
	r.nextID++
	r.events[event.ID] = event
	return event, nil
}

func (r *fakeEventRepo) Update(ctx context.Context, event types.Event) (types.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[event.ID]; !ok {
		return types.Event{}, store.ErrNotFound
	}
	r.events[event.ID] = event
	return event, nil
}

func (r *fakeEventRepo) Delete(ctx context.Context, id int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes++
	if r.deleteErr != nil {
		return 0, r.deleteErr
	}
	if _, ok := r.events[id]; !ok {
		return 0, nil
	}
	delete(r.events, id)
	if r.regs != nil {
		r.regs.dropEvent(id)
	}
	return 1, nil
}

type fakeRegistrationRepo struct {
	mu     sync.Mutex
	regs   []types.Registration
	nextID int
	events *fakeEventRepo
	err    error
}

func newFakeRegistrationRepo(events *fakeEventRepo) *fakeRegistrationRepo {
	repo := &fakeRegistrationRepo{nextID: 1, events: events}
	events.regs = repo
	return repo
}

func (r *fakeRegistrationRepo) ListByEvent(ctx context.Context, eventID int) ([]types.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []types.Registration
	for _, reg := range r.regs {
		if reg.EventID == eventID {
			out = append(out, reg)
		}
	}
	return out, nil
}

func (r *fakeRegistrationRepo) Exists(ctx context.Context, userID, eventID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.regs {
		if reg.EventID == eventID && reg.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRegistrationRepo) Create(ctx context.Context, reg types.Registration) (types.Registration, error) {
	event, err := r.events.Get(ctx, reg.EventID)
	if err != nil {
		return types.Registration{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	taken := 0
	for _, existing := range r.regs {
		if existing.EventID != reg.EventID {
			continue
		}
		if existing.UserID == reg.UserID {
			return types.Registration{}, store.ErrDuplicate
		}
		taken++
	}
	if taken >= event.Capacity {
		return types.Registration{}, store.ErrCapacityReached
	}
	reg.ID = r.nextID
	r.nextID++
	r.regs = append(r.regs, reg)
	return reg, nil
}

func (r *fakeRegistrationRepo) dropEvent(eventID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.regs[:0]
	for _, reg := range r.regs {
		if reg.EventID != eventID {
			kept = append(kept, reg)
		}
	}
	r.regs = kept
}

type sentMessage struct {
	msg      notifier.Message
	deadline bool
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMessage
	fail map[string]bool
}

func (m *fakeMailer) Send(ctx context.Context, msg notifier.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, hasDeadline := ctx.Deadline()
	m.sent = append(m.sent, sentMessage{msg: msg, deadline: hasDeadline})
	if m.fail[msg.To] {
		return errBoom
	}
	return nil
}

func (m *fakeMailer) messages() []notifier.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]notifier.Message, 0, len(m.sent))
	for _, s := range m.sent {
		out = append(out, s.msg)
	}
	return out
}

type fakeAnnouncer struct {
	kinds []notifier.Kind
	err   error
}

func (a *fakeAnnouncer) Announce(ctx context.Context, kind notifier.Kind, event types.Event) error {
	a.kinds = append(a.kinds, kind)
	return a.err
}

type fakeArchive struct {
	events      []types.Event
	registrants [][]types.Registration
	err         error
}

func (a *fakeArchive) ArchiveEvent(ctx context.Context, event types.Event, registrants []types.Registration) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.events = append(a.events, event)
	a.registrants = append(a.registrants, registrants)
	return "events/archived.json", nil
}

type fixture struct {
	events  *fakeEventRepo
	regs    *fakeRegistrationRepo
	mailer  *fakeMailer
	ledger  *RegistrationLedger
	service *EventService
	now     time.Time
}

// newFixture builds an EventService whose clock is fixed at now.
func newFixture(now time.Time, opts ...EventOption) *fixture {
	events := newFakeEventRepo()
	regs := newFakeRegistrationRepo(events)
	mailer := &fakeMailer{fail: map[string]bool{}}
	ledger := NewRegistrationLedger(regs)
	dispatcher := notifier.NewDispatcher(mailer, notifier.Config{From: "events@example.com", SendTimeout: time.Second})
	opts = append([]EventOption{WithClock(func() time.Time { return now })}, opts...)
	return &fixture{
		events:  events,
		regs:    regs,
		mailer:  mailer,
		ledger:  ledger,
		service: NewEventService(events, ledger, dispatcher, opts...),
		now:     now,
	}
}

func intPtr(n int) *int {
	return &n
}

func mustDate(s string) types.Date {
	d, err := types.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func validEventInput() EventInput {
	return EventInput{
		Title:       "Go Meetup",
		Description: "Monthly gathering",
		Date:        mustDate("2026-03-20"),
		Time:        "06:30 PM",
		Location:    "Hall A",
		Capacity:    intPtr(10),
	}
}

func (f *fixture) seedEvent(ownerID int, in EventInput) types.Event {
	event, err := f.service.CreateEvent(context.Background(), ownerID, in)
	if err != nil {
		panic(err)
	}
	return event
}

func (f *fixture) seedRegistrant(eventID, userID int, name string) {
	_, err := f.ledger.Register(context.Background(), RegistrationInput{
		EventID:       eventID,
		UserID:        userID,
		Username:      name,
		Email:         name + "@example.com",
		ContactNumber: "555-0100",
		Address:       "1 Main St",
	})
	if err != nil {
		panic(err)
	}
}
