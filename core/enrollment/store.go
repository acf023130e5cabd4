package enrollment

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
)

// Change is sent to subscribers whenever IsRequested flips for a formation.
type Change struct {
	FormationID int
	Requested   bool
}

type Listener func(Change)

// Store is the single in-memory answer to "is formation F requested by the current user".
// It merges the backend's confirmed requests with the optimistic marks held in a DurableCache.
// Every view of the portal must share one Store.
type Store struct {
	lister RequestLister
	cache  DurableCache
	logger core.Logger

	mu       sync.Mutex
	userID   int
	loaded   bool
	server   IDSet          // confirmed by the last successful load
	local    map[int]uint64 // optimistic marks -> write sequence
	seq      uint64
	inflight IDSet

	persistMu sync.Mutex

	lmu       sync.RWMutex
	listeners map[int]Listener
	nextLID   int
}

// NewStore seeds the optimistic marks from cache; until the first successful Load
// they are the best knowledge available.
func NewStore(lister RequestLister, cache DurableCache, logger core.Logger) *Store {
	s := &Store{
		lister:    lister,
		cache:     cache,
		logger:    logger,
		server:    NewIDSet(),
		local:     make(map[int]uint64),
		inflight:  NewIDSet(),
		listeners: make(map[int]Listener),
	}
	for id := range cache.Get() {
		s.local[id] = 0
	}
	return s
}

// Load reconciles local marks with the backend's list of the user's pending requests.
//
// On failure the state is left untouched and the error is only logged and returned;
// callers may ignore it and retry later. On success, marks unknown to the backend are
// pruned unless they were written after the fetch started or are being submitted.
//
// The lister must be authenticated as userID; the backend answers for the session's
// user and userID is only recorded for UserID.
func (s *Store) Load(ctx context.Context, userID int) error {
	cached := s.cache.Get()
	s.mu.Lock()
	startSeq := s.seq
	s.mu.Unlock()

	reqs, err := s.lister.ListMyEnrollmentRequests(ctx)
	if err != nil {
		err = errors.Wrap(err, "fetching my enrollment requests")
		s.logger.Warn(fmt.Sprintf("enrollment: keeping local marks, load failed: %v", err), err)
		return err
	}

	confirmed := NewIDSet()
	for _, r := range reqs {
		if !r.Status.IsTerminal() {
			confirmed.Add(r.FormationRef())
		}
	}

	s.mu.Lock()
	before := s.requestedLocked()
	for id := range cached {
		// a running submission owns its mark, it may have rolled it back already
		if s.inflight.Has(id) {
			continue
		}
		if _, ok := s.local[id]; !ok {
			s.local[id] = 0
		}
	}
	var pruned []int
	for id, seq := range s.local {
		if confirmed.Has(id) || seq > startSeq || s.inflight.Has(id) {
			continue
		}
		delete(s.local, id)
		pruned = append(pruned, id)
	}
	s.server = confirmed
	s.userID = userID
	s.loaded = true
	after := s.requestedLocked()
	s.mu.Unlock()

	if len(pruned) > 0 {
		s.logger.Debug(fmt.Sprintf("enrollment: pruned %d stale local marks for user %d", len(pruned), userID), pruned)
	}
	s.persist()
	s.notify(diff(before, after))
	return nil
}

func (s *Store) IsRequested(formationID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRequestedLocked(formationID)
}

// MarkRequested records an optimistic mark. It is idempotent.
func (s *Store) MarkRequested(formationID int) {
	s.mu.Lock()
	_, had := s.local[formationID]
	was := s.isRequestedLocked(formationID)
	s.seq++
	s.local[formationID] = s.seq
	s.mu.Unlock()

	if !had {
		s.persist()
	}
	if !was {
		s.notify([]Change{{FormationID: formationID, Requested: true}})
	}
}

// confirm records a request the backend accepted.
func (s *Store) confirm(formationID int) {
	s.mu.Lock()
	s.server.Add(formationID)
	s.mu.Unlock()
	s.MarkRequested(formationID)
}

// Unmark rolls back an optimistic mark after a failed submission.
func (s *Store) Unmark(formationID int) {
	s.mu.Lock()
	_, had := s.local[formationID]
	was := s.isRequestedLocked(formationID)
	delete(s.local, formationID)
	now := s.isRequestedLocked(formationID)
	s.mu.Unlock()

	if had {
		s.persist()
	}
	if was != now {
		s.notify([]Change{{FormationID: formationID, Requested: now}})
	}
}

// Snapshot returns the requested formation IDs in ascending order.
func (s *Store) Snapshot() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestedLocked().Sorted()
}

// UserID returns the user of the last successful load and whether one happened.
func (s *Store) UserID() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.loaded
}

// Subscribe registers fn for every Change; the returned func unregisters it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.lmu.Lock()
	id := s.nextLID
	s.nextLID++
	s.listeners[id] = fn
	s.lmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.lmu.Lock()
			delete(s.listeners, id)
			s.lmu.Unlock()
		})
	}
}

// acquire sets the in-flight flag of a formation; false means a submission is running.
func (s *Store) acquire(formationID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight.Has(formationID) {
		return false
	}
	s.inflight.Add(formationID)
	return true
}

func (s *Store) release(formationID int) {
	s.mu.Lock()
	s.inflight.Remove(formationID)
	s.mu.Unlock()
}

// InFlight reports whether a submission for the formation is running.
func (s *Store) InFlight(formationID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight.Has(formationID)
}

func (s *Store) isRequestedLocked(formationID int) bool {
	if s.server.Has(formationID) {
		return true
	}
	_, ok := s.local[formationID]
	return ok
}

func (s *Store) requestedLocked() IDSet {
	ids := make(IDSet, len(s.server)+len(s.local))
	for id := range s.server {
		ids.Add(id)
	}
	for id := range s.local {
		ids.Add(id)
	}
	return ids
}

// persist writes the current marks; persistMu keeps writes ordered so the last write wins.
func (s *Store) persist() {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	ids := make(IDSet, len(s.local))
	for id := range s.local {
		ids.Add(id)
	}
	s.mu.Unlock()

	if err := s.cache.Set(ids); err != nil {
		s.logger.Error(fmt.Sprintf("enrollment: persisting local marks: %v", err), err)
	}
}

func (s *Store) notify(changes []Change) {
	if len(changes) == 0 {
		return
	}
	s.lmu.RLock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.lmu.RUnlock()

	for _, ch := range changes {
		for _, fn := range listeners {
			fn(ch)
		}
	}
}

func diff(before, after IDSet) []Change {
	var changes []Change
	for _, id := range after.Sorted() {
		if !before.Has(id) {
			changes = append(changes, Change{FormationID: id, Requested: true})
		}
	}
	for _, id := range before.Sorted() {
		if !after.Has(id) {
			changes = append(changes, Change{FormationID: id, Requested: false})
		}
	}
	return changes
}
