package enrollment

import (
	"context"
	"fmt"
	"sync"

	"github.com/trezcool/masomo/core/formation"
	"github.com/trezcool/masomo/core/user"
)

// memCache is an in-memory DurableCache. setGate, when set, holds Set until it is
// closed; setStarted is signalled as the held call begins.
type memCache struct {
	mu         sync.Mutex
	ids        IDSet
	sets       int
	err        error
	setGate    chan struct{}
	setStarted chan struct{}
}

func newMemCache(ids ...int) *memCache {
	return &memCache{ids: NewIDSet(ids...)}
}

func (c *memCache) Get() IDSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return NewIDSet(c.ids.Sorted()...)
}

func (c *memCache) Set(ids IDSet) error {
	c.mu.Lock()
	gate, started := c.setGate, c.setStarted
	c.setGate, c.setStarted = nil, nil
	c.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.err != nil {
		return c.err
	}
	c.ids = NewIDSet(ids.Sorted()...)
	return nil
}

type logEntry struct {
	level string
	msg   string
}

type testLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *testLogger) log(level, msg string) {
	l.mu.Lock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg})
	l.mu.Unlock()
}

func (l *testLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.level == level {
			n++
		}
	}
	return n
}

func (l *testLogger) Debug(msg string, _ ...interface{}) { l.log("debug", msg) }
func (l *testLogger) Info(msg string, _ ...interface{})  { l.log("info", msg) }
func (l *testLogger) Warn(msg string, _ ...interface{})  { l.log("warn", msg) }
func (l *testLogger) Error(msg string, _ ...interface{}) { l.log("error", msg) }
func (l *testLogger) Fatal(msg string, _ ...interface{}) { l.log("fatal", msg) }

// fakeBackend records every call. createGate, when set, holds CreateEnrollmentRequest
// until it is closed; createStarted receives each formation ID as the call begins.
type fakeBackend struct {
	mu            sync.Mutex
	creates       []int
	notifications []Notification
	lists         int

	requests      []Request
	listErr       error
	createErr     error
	notifyErr     map[NotificationType]error
	createGate    chan struct{}
	createStarted chan int
	listGate      chan struct{}
	listStarted   chan struct{}
	listDone      chan struct{}
}

var _ Backend = (*fakeBackend)(nil)

func (b *fakeBackend) CreateEnrollmentRequest(ctx context.Context, formationID int) error {
	b.mu.Lock()
	b.creates = append(b.creates, formationID)
	gate, started, err := b.createGate, b.createStarted, b.createErr
	b.mu.Unlock()

	if started != nil {
		started <- formationID
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (b *fakeBackend) ListMyEnrollmentRequests(ctx context.Context) ([]Request, error) {
	b.mu.Lock()
	b.lists++
	gate, started, done := b.listGate, b.listStarted, b.listDone
	b.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if done != nil {
		defer close(done)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listErr != nil {
		return nil, b.listErr
	}
	return append([]Request(nil), b.requests...), nil
}

func (b *fakeBackend) CreateNotification(_ context.Context, n Notification) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.notifyErr[n.Type]; err != nil {
		return err
	}
	b.notifications = append(b.notifications, n)
	return nil
}

func (b *fakeBackend) createCalls() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int(nil), b.creates...)
}

func (b *fakeBackend) sent(typ NotificationType) []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Notification
	for _, n := range b.notifications {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

func (b *fakeBackend) setRequests(formationIDs ...int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = nil
	for i, id := range formationIDs {
		b.requests = append(b.requests, Request{
			ID:        fmt.Sprintf("req-%d", i+1),
			Formation: &formation.Ref{ID: id},
			Status:    StatusPending,
		})
	}
}

// statusErr mimics the transport's HTTP error.
type statusErr struct {
	code int
	msg  string
}

func (e *statusErr) Error() string         { return fmt.Sprintf("status %d: %s", e.code, e.msg) }
func (e *statusErr) HTTPStatus() int       { return e.code }
func (e *statusErr) ServerMessage() string { return e.msg }

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

type recordingMailer struct {
	mu    sync.Mutex
	calls []int
}

func (m *recordingMailer) RequestConfirmed(_ user.User, f formation.Formation) {
	m.mu.Lock()
	m.calls = append(m.calls, f.ID)
	m.mu.Unlock()
}

var (
	student = user.User{ID: 1, Username: "amani", Roles: user.RoleSet{user.RoleStudent}}
	guest   = user.User{ID: 2, Username: "baraka", Roles: user.RoleSet{user.RoleGuest}}
)

func newFormation(id int, recruiterID ...int) formation.Formation {
	f := formation.Formation{ID: id, Name: fmt.Sprintf("Formation %d", id)}
	if len(recruiterID) > 0 {
		rid := recruiterID[0]
		f.RecruiterID = &rid
	}
	return f
}

type engine struct {
	backend *fakeBackend
	cache   *memCache
	logger  *testLogger
	store   *Store
	coord   *Coordinator
}

func newEngine(cached ...int) *engine {
	e := &engine{
		backend: &fakeBackend{},
		cache:   newMemCache(cached...),
		logger:  &testLogger{},
	}
	e.store = NewStore(e.backend, e.cache, e.logger)
	e.coord = NewCoordinator(e.store, e.backend, NewFanout(e.backend, e.logger), e.logger)
	return e
}
