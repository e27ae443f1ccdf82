package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"eventlisting/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

// memStore is an in-memory backing store shared by the fake repositories.
// Admission units lock a per-event mutex and stage their writes until commit.
type memStore struct {
	mu         sync.Mutex
	users      map[string]*domain.User
	categories map[string]*domain.Category
	events     map[string]*domain.Event
	requests   map[string]*domain.Request
	nextID     int
	eventLocks map[string]*sync.Mutex

	saveErr error // if set, AdmissionTx.SaveStatuses returns it
}

func newMemStore() *memStore {
	return &memStore{
		users:      make(map[string]*domain.User),
		categories: make(map[string]*domain.Category),
		events:     make(map[string]*domain.Event),
		requests:   make(map[string]*domain.Request),
		nextID:     1,
		eventLocks: make(map[string]*sync.Mutex),
	}
}

func (s *memStore) newID(prefix string) string {
	id := fmt.Sprintf("%s-%d", prefix, s.nextID)
	s.nextID++
	return id
}

func (s *memStore) addUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = &domain.User{ID: id, Name: "User " + id, Email: id + "@example.com"}
}

func (s *memStore) addCategory(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[id] = &domain.Category{ID: id, Name: "Category " + id}
}

func (s *memStore) addEvent(e *domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.events[e.ID] = &cp
}

func (s *memStore) addRequest(r *domain.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.requests[r.ID] = &cp
}

func (s *memStore) request(id string) domain.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.requests[id]
}

func (s *memStore) event(id string) domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := *s.events[id]
	e.ConfirmedRequests = s.countConfirmedLocked(id)
	return e
}

func (s *memStore) countConfirmedLocked(eventID string) int {
	n := 0
	for _, r := range s.requests {
		if r.EventID == eventID && r.Status == domain.RequestStatusConfirmed {
			n++
		}
	}
	return n
}

// requestsOfLocked returns copies of the event's requests ordered by id creation.
func (s *memStore) requestsOfLocked(match func(*domain.Request) bool) []*domain.Request {
	out := make([]*domain.Request, 0)
	for _, r := range s.requests {
		if match(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.Before(out[j].Created)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *memStore) eventLock(eventID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.eventLocks[eventID]
	if !ok {
		l = &sync.Mutex{}
		s.eventLocks[eventID] = l
	}
	return l
}

// fakeUserRepo is an in-memory UserRepository for tests.
type fakeUserRepo struct{ s *memStore }

func (f fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, existing := range f.s.users {
		if existing.Email == u.Email {
			return fmt.Errorf("%w: email taken", domain.ErrConflict)
		}
	}
	u.ID = f.s.newID("user")
	cp := *u
	f.s.users[u.ID] = &cp
	return nil
}

func (f fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// fakeCategoryRepo is an in-memory CategoryRepository for tests.
type fakeCategoryRepo struct{ s *memStore }

func (f fakeCategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, existing := range f.s.categories {
		if existing.Name == c.Name {
			return fmt.Errorf("%w: name taken", domain.ErrConflict)
		}
	}
	c.ID = f.s.newID("cat")
	cp := *c
	f.s.categories[c.ID] = &cp
	return nil
}

func (f fakeCategoryRepo) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c, ok := f.s.categories[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// fakeEventRepo is an in-memory EventRepository for tests.
type fakeEventRepo struct{ s *memStore }

func (f fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	e.ID = f.s.newID("ev")
	cp := *e
	f.s.events[e.ID] = &cp
	return nil
}

func (f fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	e, ok := f.s.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	cp.ConfirmedRequests = f.s.countConfirmedLocked(id)
	return &cp, nil
}

func (f fakeEventRepo) ListByInitiatorID(ctx context.Context, initiatorID string, params domain.PaginationParams) ([]*domain.Event, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*domain.Event
	for _, e := range f.s.events {
		if e.InitiatorID == initiatorID {
			cp := *e
			cp.ConfirmedRequests = f.s.countConfirmedLocked(e.ID)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedOn.After(out[j].CreatedOn) })
	start := params.Offset()
	if start > len(out) {
		start = len(out)
	}
	end := len(out)
	if params.Limit() > 0 && start+params.Limit() < end {
		end = start + params.Limit()
	}
	return out[start:end], nil
}

func (f fakeEventRepo) IncrementViews(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	e, ok := f.s.events[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.Views++
	return nil
}

// fakeRequestRepo is an in-memory RequestRepository for tests.
type fakeRequestRepo struct{ s *memStore }

func (f fakeRequestRepo) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	r, ok := f.s.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f fakeRequestRepo) ListByRequesterID(ctx context.Context, requesterID string) ([]*domain.Request, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.s.requestsOfLocked(func(r *domain.Request) bool { return r.RequesterID == requesterID }), nil
}

func (f fakeRequestRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.Request, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.s.requestsOfLocked(func(r *domain.Request) bool { return r.EventID == eventID }), nil
}

func (f fakeRequestRepo) UpdateStatus(ctx context.Context, id string, status domain.RequestStatus) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	r, ok := f.s.requests[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.Status = status
	return nil
}

// fakeAdmissionStore serializes units per event and applies staged writes only on success.
type fakeAdmissionStore struct{ s *memStore }

func (f fakeAdmissionStore) WithEventLock(ctx context.Context, eventID string, fn func(ctx context.Context, event *domain.Event, tx domain.AdmissionTx) error) error {
	lock := f.s.eventLock(eventID)
	lock.Lock()
	defer lock.Unlock()

	f.s.mu.Lock()
	stored, ok := f.s.events[eventID]
	if !ok {
		f.s.mu.Unlock()
		return domain.ErrNotFound
	}
	event := *stored
	event.ConfirmedRequests = f.s.countConfirmedLocked(eventID)
	tx := &fakeAdmissionTx{
		s:        f.s,
		eventID:  eventID,
		requests: make(map[string]*domain.Request),
		dirty:    make(map[string]bool),
		saveErr:  f.s.saveErr,
	}
	for _, r := range f.s.requestsOfLocked(func(r *domain.Request) bool { return r.EventID == eventID }) {
		tx.requests[r.ID] = r
	}
	f.s.mu.Unlock()

	if err := fn(ctx, &event, tx); err != nil {
		return err
	}

	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for id := range tx.dirty {
		cp := *tx.requests[id]
		f.s.requests[id] = &cp
	}
	if tx.event != nil {
		cp := *tx.event
		f.s.events[eventID] = &cp
	}
	return nil
}

type fakeAdmissionTx struct {
	s        *memStore
	eventID  string
	requests map[string]*domain.Request
	dirty    map[string]bool
	event    *domain.Event
	saveErr  error
}

func (t *fakeAdmissionTx) FindActive(ctx context.Context, requesterID string) (*domain.Request, error) {
	for _, r := range t.requests {
		if r.RequesterID == requesterID && r.Status != domain.RequestStatusCanceled {
			cp := *r
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (t *fakeAdmissionTx) GetRequests(ctx context.Context, ids []string) ([]*domain.Request, error) {
	out := make([]*domain.Request, 0, len(ids))
	for _, id := range ids {
		r, ok := t.requests[id]
		if !ok {
			return nil, fmt.Errorf("%w: request %s", domain.ErrNotFound, id)
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (t *fakeAdmissionTx) CreateRequest(ctx context.Context, req *domain.Request) error {
	if _, err := t.FindActive(ctx, req.RequesterID); err == nil {
		return fmt.Errorf("%w: active request exists", domain.ErrConflict)
	}
	t.s.mu.Lock()
	req.ID = t.s.newID("req")
	t.s.mu.Unlock()
	cp := *req
	t.requests[req.ID] = &cp
	t.dirty[req.ID] = true
	return nil
}

func (t *fakeAdmissionTx) SaveStatuses(ctx context.Context, reqs []*domain.Request) error {
	if t.saveErr != nil {
		return t.saveErr
	}
	for _, r := range reqs {
		staged, ok := t.requests[r.ID]
		if !ok {
			return domain.ErrNotFound
		}
		staged.Status = r.Status
		t.dirty[r.ID] = true
	}
	return nil
}

func (t *fakeAdmissionTx) RejectPending(ctx context.Context) ([]*domain.Request, error) {
	ids := make([]string, 0)
	for id, r := range t.requests {
		if r.Status == domain.RequestStatusPending {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	out := make([]*domain.Request, 0, len(ids))
	for _, id := range ids {
		t.requests[id].Status = domain.RequestStatusRejected
		t.dirty[id] = true
		cp := *t.requests[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (t *fakeAdmissionTx) UpdateEvent(ctx context.Context, e *domain.Event) error {
	cp := *e
	t.event = &cp
	return nil
}

// fakeHitReporter records hits; safe for concurrent use.
type fakeHitReporter struct {
	mu   sync.Mutex
	hits []domain.Hit
	err  error
}

func (f *fakeHitReporter) Report(ctx context.Context, hit domain.Hit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits = append(f.hits, hit)
	return f.err
}

func (f *fakeHitReporter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.hits)
}

// fakeEmailService records decision emails.
type fakeEmailService struct {
	mu   sync.Mutex
	sent []*domain.RequestDecisionEmailData
	err  error
}

func (f *fakeEmailService) SendRequestDecision(ctx context.Context, data *domain.RequestDecisionEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, data)
	return f.err
}

// blockingHitReporter waits until its context ends, like a stats service that never answers.
type blockingHitReporter struct {
	mu   sync.Mutex
	errs []error
}

func (b *blockingHitReporter) Report(ctx context.Context, hit domain.Hit) error {
	<-ctx.Done()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errs = append(b.errs, ctx.Err())
	return ctx.Err()
}

// slowEmailService takes delay per message.
type slowEmailService struct {
	fakeEmailService
	delay time.Duration
}

func (f *slowEmailService) SendRequestDecision(ctx context.Context, data *domain.RequestDecisionEmailData) error {
	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return f.fakeEmailService.SendRequestDecision(ctx, data)
}

func newTestEventService(s *memStore, hits domain.HitReporter) *eventService {
	svc := NewEventService(fakeEventRepo{s}, fakeUserRepo{s}, fakeCategoryRepo{s}, fakeAdmissionStore{s}, hits, testLogger, time.Second).(*eventService)
	svc.now = testClock
	return svc
}

func newTestRequestService(s *memStore, emails domain.EmailService, strict bool) *requestService {
	svc := NewRequestService(fakeRequestRepo{s}, fakeEventRepo{s}, fakeUserRepo{s}, fakeAdmissionStore{s}, emails, testLogger, strict, time.Second).(*requestService)
	svc.now = testClock
	return svc
}

// publishedEvent returns a published event owned by "owner" with the given capacity settings.
func publishedEvent(id string, limit int, moderation bool) *domain.Event {
	published := testNow.Add(-time.Hour)
	return &domain.Event{
		ID:                id,
		Title:             "Go meetup",
		Annotation:        "An evening of talks about Go",
		Description:       "Long description of the evening",
		CategoryID:        "cat-1",
		InitiatorID:       "owner",
		ParticipantLimit:  limit,
		RequestModeration: moderation,
		State:             domain.EventStatePublished,
		EventDate:         testNow.Add(48 * time.Hour),
		CreatedOn:         testNow.Add(-24 * time.Hour),
		PublishedOn:       &published,
	}
}
