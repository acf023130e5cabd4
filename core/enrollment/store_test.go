package enrollment

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore_SeedsFromCache(t *testing.T) {
	e := newEngine(3, 7)

	assert.True(t, e.store.IsRequested(3))
	assert.True(t, e.store.IsRequested(7))
	assert.False(t, e.store.IsRequested(4))
	assert.Equal(t, []int{3, 7}, e.store.Snapshot())

	_, loaded := e.store.UserID()
	assert.False(t, loaded)
}

func TestStore_Load(t *testing.T) {
	tests := []struct {
		name      string
		cached    []int
		server    []int
		wantSnap  []int
		wantCache []int
	}{
		{name: "empty", wantSnap: []int{}, wantCache: []int{}},
		{name: "stale mark is pruned", cached: []int{7}, wantSnap: []int{}, wantCache: []int{}},
		{name: "confirmed mark is kept", cached: []int{7}, server: []int{7}, wantSnap: []int{7}, wantCache: []int{7}},
		{name: "server only", server: []int{5}, wantSnap: []int{5}, wantCache: []int{}},
		{name: "mixed", cached: []int{1, 2, 3}, server: []int{2, 9}, wantSnap: []int{2, 9}, wantCache: []int{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(tt.cached...)
			e.backend.setRequests(tt.server...)

			require.NoError(t, e.store.Load(context.Background(), 1))

			assert.Equal(t, tt.wantSnap, e.store.Snapshot())
			assert.Equal(t, tt.wantCache, e.cache.Get().Sorted())
			uid, loaded := e.store.UserID()
			assert.True(t, loaded)
			assert.Equal(t, 1, uid)
		})
	}
}

func TestStore_Load_IgnoresTerminalRequests(t *testing.T) {
	e := newEngine(4)
	e.backend.requests = []Request{
		{ID: "a", FormationID: 4, Status: StatusAccepted},
		{ID: "b", FormationID: 5, Status: StatusRejected},
		{ID: "c", FormationID: 6, Status: "IN_REVIEW"},
	}

	require.NoError(t, e.store.Load(context.Background(), 1))
	assert.Equal(t, []int{6}, e.store.Snapshot())
}

func TestStore_Load_FailSoft(t *testing.T) {
	e := newEngine(3, 7)
	e.backend.listErr = errors.New("connection refused")

	var changes []Change
	e.store.Subscribe(func(c Change) { changes = append(changes, c) })

	err := e.store.Load(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	assert.Equal(t, []int{3, 7}, e.store.Snapshot())
	assert.Equal(t, []int{3, 7}, e.cache.Get().Sorted())
	assert.Zero(t, e.cache.sets)
	assert.Empty(t, changes)
	assert.Equal(t, 1, e.logger.count("warn"))
	_, loaded := e.store.UserID()
	assert.False(t, loaded)

	// retry succeeds
	e.backend.listErr = nil
	e.backend.setRequests(7)
	require.NoError(t, e.store.Load(context.Background(), 1))
	assert.Equal(t, []int{7}, e.store.Snapshot())
}

func TestStore_MarkAndUnmark(t *testing.T) {
	e := newEngine()

	var changes []Change
	unsubscribe := e.store.Subscribe(func(c Change) { changes = append(changes, c) })

	e.store.MarkRequested(5)
	e.store.MarkRequested(5)
	assert.True(t, e.store.IsRequested(5))
	assert.Equal(t, []int{5}, e.cache.Get().Sorted())
	assert.Equal(t, 1, e.cache.sets, "idempotent mark writes once")

	e.store.Unmark(5)
	assert.False(t, e.store.IsRequested(5))
	assert.Empty(t, e.cache.Get())

	e.store.Unmark(5)
	assert.Equal(t, []Change{{FormationID: 5, Requested: true}, {FormationID: 5, Requested: false}}, changes)

	unsubscribe()
	unsubscribe()
	e.store.MarkRequested(6)
	assert.Len(t, changes, 2)
}

func TestStore_UnmarkKeepsServerConfirmed(t *testing.T) {
	e := newEngine()
	e.backend.setRequests(8)
	require.NoError(t, e.store.Load(context.Background(), 1))

	e.store.MarkRequested(8)
	e.store.Unmark(8)
	assert.True(t, e.store.IsRequested(8))
}

func TestStore_PersistFailureIsLogged(t *testing.T) {
	e := newEngine()
	e.cache.err = errors.New("disk full")

	e.store.MarkRequested(2)
	assert.True(t, e.store.IsRequested(2))
	assert.Equal(t, 1, e.logger.count("error"))
}

func TestStore_Load_KeepsMarkWrittenDuringFetch(t *testing.T) {
	e := newEngine(7)
	e.backend.listGate = make(chan struct{})
	e.backend.listStarted = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() { done <- e.store.Load(context.Background(), 1) }()

	<-e.backend.listStarted
	// the stale list below does not know about 9 yet
	e.store.MarkRequested(9)
	close(e.backend.listGate)
	require.NoError(t, <-done)

	assert.True(t, e.store.IsRequested(9))
	assert.False(t, e.store.IsRequested(7))
	assert.Equal(t, []int{9}, e.cache.Get().Sorted())
}

func TestStore_Load_KeepsInFlightMark(t *testing.T) {
	e := newEngine()
	e.backend.createGate = make(chan struct{})
	e.backend.createStarted = make(chan int, 1)

	out := e.coord.SubmitAsync(context.Background(), student, newFormation(4))
	<-e.backend.createStarted

	// fetch starts after the mark but while the submission is outstanding
	require.NoError(t, e.store.Load(context.Background(), student.ID))
	assert.True(t, e.store.IsRequested(4))

	close(e.backend.createGate)
	res := <-out
	assert.Equal(t, StateConfirmed, res.State)
	assert.True(t, e.store.IsRequested(4))
}

func TestStore_Load_DoesNotRestoreRolledBackMark(t *testing.T) {
	e := newEngine()
	e.backend.createErr = &statusErr{code: http.StatusInternalServerError, msg: "boom"}
	e.backend.createGate = make(chan struct{})
	e.backend.createStarted = make(chan int, 1)

	out := e.coord.SubmitAsync(context.Background(), student, newFormation(5))
	<-e.backend.createStarted
	require.Equal(t, []int{5}, e.cache.Get().Sorted())

	// the load reads the cache while 5 is still marked
	e.backend.listGate = make(chan struct{})
	e.backend.listStarted = make(chan struct{}, 1)
	e.backend.listDone = make(chan struct{})
	loaded := make(chan error, 1)
	go func() { loaded <- e.store.Load(context.Background(), student.ID) }()
	<-e.backend.listStarted

	// the submission fails and rolls back, its cache write is held
	e.cache.mu.Lock()
	e.cache.setGate = make(chan struct{})
	e.cache.setStarted = make(chan struct{}, 1)
	setGate, setStarted := e.cache.setGate, e.cache.setStarted
	e.cache.mu.Unlock()
	close(e.backend.createGate)
	<-setStarted
	assert.True(t, e.store.InFlight(5))

	// the load merges while 5 is rolled back but still in flight
	close(e.backend.listGate)
	<-e.backend.listDone
	time.Sleep(20 * time.Millisecond)

	close(setGate)
	res := <-out
	require.NoError(t, <-loaded)

	assert.Equal(t, StateFailed, res.State)
	assert.False(t, e.store.InFlight(5))
	assert.False(t, e.store.IsRequested(5))
	assert.NotContains(t, e.cache.Get().Sorted(), 5)
	assert.Empty(t, e.store.Snapshot())
}

func TestStore_CrossViewConsistency(t *testing.T) {
	e := newEngine(1, 2, 3)
	e.backend.setRequests(2, 3, 4)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = e.store.Load(context.Background(), 1)
		}()
	}
	wg.Wait()

	view1 := make(map[int]bool)
	view2 := make(map[int]bool)
	for id := 1; id <= 5; id++ {
		view1[id] = e.store.IsRequested(id)
	}
	for id := 1; id <= 5; id++ {
		view2[id] = e.store.IsRequested(id)
	}
	assert.Equal(t, view1, view2)
	assert.Equal(t, []int{2, 3, 4}, e.store.Snapshot())
}

func TestStore_NotifiesLoadDiff(t *testing.T) {
	e := newEngine(7)
	e.backend.setRequests(3)

	got := make(chan Change, 4)
	e.store.Subscribe(func(c Change) { got <- c })

	require.NoError(t, e.store.Load(context.Background(), 1))

	var changes []Change
	timeout := time.After(time.Second)
	for len(changes) < 2 {
		select {
		case c := <-got:
			changes = append(changes, c)
		case <-timeout:
			t.Fatal("timed out waiting for changes")
		}
	}
	assert.Equal(t, []Change{{FormationID: 3, Requested: true}, {FormationID: 7, Requested: false}}, changes)
}
