package app

import (
	"cmp"
	"context"
	"iter"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/eventsphere/event-service/internal/domain"
	"github.com/eventsphere/event-service/internal/notify"
)

// fakeStore is an in-memory stand-in for the Postgres repositories. WithTx
// restores the previous state when fn fails, like a rolled back transaction.
type fakeStore struct {
	events    map[string]domain.Event
	schedules map[string]domain.ScheduleItem
	rsvps     map[string]domain.RSVP
	seq       int64

	upsertErr error
	calls     map[string]int
	locked    []string

	// beforeLockedRead runs inside GetScheduleForUpdate, standing in for a
	// writer that commits between a plain read and the row lock.
	beforeLockedRead func()
}

func newFakeStore(events ...domain.Event) *fakeStore {
	f := &fakeStore{
		events:    make(map[string]domain.Event),
		schedules: make(map[string]domain.ScheduleItem),
		rsvps:     make(map[string]domain.RSVP),
		calls:     make(map[string]int),
	}
	for _, e := range events {
		if e.AvailableSeats == 0 && e.Capacity > 0 {
			e.AvailableSeats = e.Capacity
		}
		f.events[e.ID] = e
	}
	return f
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	events := maps.Clone(f.events)
	schedules := maps.Clone(f.schedules)
	rsvps := maps.Clone(f.rsvps)
	if err := fn(ctx); err != nil {
		f.events, f.schedules, f.rsvps = events, schedules, rsvps
		return err
	}
	return nil
}

func (f *fakeStore) CreateEvent(_ context.Context, event domain.Event) error {
	f.events[event.ID] = event
	return nil
}

func (f *fakeStore) ListEvents(context.Context) ([]domain.Event, error) {
	out := slices.Collect(maps.Values(f.events))
	slices.SortFunc(out, func(a, b domain.Event) int {
		return cmp.Or(a.Date.Compare(b.Date), a.CreatedAt.Compare(b.CreatedAt))
	})
	return out, nil
}

func (f *fakeStore) GetEvent(_ context.Context, id string) (domain.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return domain.Event{}, domain.ErrEventNotFound
	}
	return e, nil
}

func (f *fakeStore) DeleteEvent(_ context.Context, id string) (domain.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return domain.Event{}, domain.ErrEventNotFound
	}
	delete(f.events, id)
	for sid, s := range f.schedules {
		if s.EventID == id {
			delete(f.schedules, sid)
		}
	}
	for rid, r := range f.rsvps {
		if r.EventID == id {
			delete(f.rsvps, rid)
		}
	}
	return e, nil
}

func (f *fakeStore) LockEvent(_ context.Context, id string) (domain.Event, error) {
	f.calls["LockEvent"]++
	f.locked = append(f.locked, id)
	return f.GetEvent(context.Background(), id)
}

func (f *fakeStore) ApplySeatDelta(_ context.Context, eventID string, delta int) (int, error) {
	f.calls["ApplySeatDelta"]++
	e, ok := f.events[eventID]
	if !ok {
		return 0, domain.ErrEventNotFound
	}
	next := e.AvailableSeats - delta
	if next < 0 {
		return 0, domain.ErrCapacityExceeded
	}
	e.AvailableSeats = min(e.Capacity, next)
	f.events[eventID] = e
	return e.AvailableSeats, nil
}

func (f *fakeStore) ReleaseSeats(_ context.Context, eventID string, seats int) (int, error) {
	f.calls["ReleaseSeats"]++
	e, ok := f.events[eventID]
	if !ok {
		return 0, domain.ErrEventNotFound
	}
	e.AvailableSeats = min(e.Capacity, e.AvailableSeats+seats)
	f.events[eventID] = e
	return e.AvailableSeats, nil
}

func (f *fakeStore) ChangeCapacity(_ context.Context, eventID string, capacity int) (domain.Event, error) {
	e, ok := f.events[eventID]
	if !ok {
		return domain.Event{}, domain.ErrEventNotFound
	}
	available := e.AvailableSeats + capacity - e.Capacity
	if available < 0 {
		return domain.Event{}, domain.ErrCapacityExceeded
	}
	e.Capacity, e.AvailableSeats = capacity, available
	f.events[eventID] = e
	return e, nil
}

func (f *fakeStore) CreateSchedule(_ context.Context, item domain.ScheduleItem) (domain.ScheduleItem, error) {
	if _, ok := f.events[item.EventID]; !ok {
		return domain.ScheduleItem{}, domain.ErrEventNotFound
	}
	f.seq++
	item.Seq = f.seq
	f.schedules[item.ID] = item
	return item, nil
}

func (f *fakeStore) GetSchedule(_ context.Context, id string) (domain.ScheduleItem, error) {
	s, ok := f.schedules[id]
	if !ok {
		return domain.ScheduleItem{}, domain.ErrScheduleNotFound
	}
	return s, nil
}

func (f *fakeStore) GetScheduleForUpdate(ctx context.Context, id string) (domain.ScheduleItem, error) {
	if f.beforeLockedRead != nil {
		f.beforeLockedRead()
		f.beforeLockedRead = nil
	}
	return f.GetSchedule(ctx, id)
}

func (f *fakeStore) UpdateSchedule(_ context.Context, item domain.ScheduleItem) error {
	if _, ok := f.schedules[item.ID]; !ok {
		return domain.ErrScheduleNotFound
	}
	if _, ok := f.events[item.EventID]; !ok {
		return domain.ErrEventNotFound
	}
	f.schedules[item.ID] = item
	return nil
}

func (f *fakeStore) DeleteSchedule(_ context.Context, id string) (domain.ScheduleItem, error) {
	s, ok := f.schedules[id]
	if !ok {
		return domain.ScheduleItem{}, domain.ErrScheduleNotFound
	}
	delete(f.schedules, id)
	return s, nil
}

func (f *fakeStore) HasOverlap(_ context.Context, eventID, excludeID string, start, end time.Time) (bool, error) {
	probe := domain.ScheduleItem{StartTime: start, EndTime: end}
	for _, s := range f.schedules {
		if s.EventID == eventID && s.ID != excludeID && s.Overlaps(probe) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListSchedules(_ context.Context, eventID string) iter.Seq2[domain.ScheduleItem, error] {
	return func(yield func(domain.ScheduleItem, error) bool) {
		f.calls["ListSchedules"]++
		var items []domain.ScheduleItem
		for _, s := range f.schedules {
			if eventID == "" || s.EventID == eventID {
				items = append(items, s)
			}
		}
		slices.SortFunc(items, func(a, b domain.ScheduleItem) int {
			return cmp.Or(a.StartTime.Compare(b.StartTime), cmp.Compare(a.Seq, b.Seq))
		})
		for _, s := range items {
			if !yield(s, nil) {
				return
			}
		}
	}
}

func (f *fakeStore) FindRSVP(_ context.Context, eventID, userID string) (*domain.RSVP, error) {
	for _, r := range f.rsvps {
		if r.EventID == eventID && r.UserID == userID {
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetRSVP(_ context.Context, id string) (domain.RSVP, error) {
	r, ok := f.rsvps[id]
	if !ok {
		return domain.RSVP{}, domain.ErrRSVPNotFound
	}
	return r, nil
}

func (f *fakeStore) UpsertRSVP(ctx context.Context, rsvp domain.RSVP) (domain.RSVP, bool, error) {
	if f.upsertErr != nil {
		return domain.RSVP{}, false, f.upsertErr
	}
	if _, ok := f.events[rsvp.EventID]; !ok {
		return domain.RSVP{}, false, domain.ErrEventNotFound
	}
	existing, _ := f.FindRSVP(ctx, rsvp.EventID, rsvp.UserID)
	if existing == nil {
		f.rsvps[rsvp.ID] = rsvp
		return rsvp, true, nil
	}
	rsvp.ID = existing.ID
	rsvp.CreatedAt = existing.CreatedAt
	f.rsvps[rsvp.ID] = rsvp
	return rsvp, false, nil
}

func (f *fakeStore) UpdateRSVP(_ context.Context, rsvp domain.RSVP) error {
	if _, ok := f.rsvps[rsvp.ID]; !ok {
		return domain.ErrRSVPNotFound
	}
	f.rsvps[rsvp.ID] = rsvp
	return nil
}

func (f *fakeStore) DeleteRSVP(_ context.Context, id string) error {
	if _, ok := f.rsvps[id]; !ok {
		return domain.ErrRSVPNotFound
	}
	delete(f.rsvps, id)
	return nil
}

func (f *fakeStore) ListRSVPs(_ context.Context, filter domain.RSVPFilter) ([]domain.RSVP, error) {
	out := []domain.RSVP{}
	for _, r := range f.rsvps {
		if filter.EventID != "" && r.EventID != filter.EventID {
			continue
		}
		if filter.UserID != "" && r.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b domain.RSVP) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (f *fakeStore) available(eventID string) int {
	return f.events[eventID].AvailableSeats
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notify.Reminder
	err  error
}

func (n *fakeNotifier) Send(_ context.Context, r notify.Reminder) (notify.Receipt, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, r)
	if n.err != nil {
		return notify.Receipt{}, n.err
	}
	return notify.Receipt{Mode: notify.ModeMock, Mock: true, Destination: r.PhoneNumber}, nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}
