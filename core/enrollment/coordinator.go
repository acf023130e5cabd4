package enrollment

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/formation"
	"github.com/trezcool/masomo/core/user"
)

// State of a submission for one (user, formation) pair.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateConfirmed
	StateDuplicateRejected
	StateProfileIncomplete
	StateFailed
)

var stateNames = [...]string{"Idle", "Submitting", "Confirmed", "DuplicateRejected", "ProfileIncomplete", "Failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Messages shown to the user, per terminal state.
const (
	MsgRequested        = "Your request to join this formation has been sent."
	MsgAlreadyRequested = "You have already requested to join this formation."
	MsgCompleteProfile  = "Please complete your profile before requesting to join a formation."
	MsgTryAgain         = "Your request could not be sent. Please try again."
)

// Outcome is what a view gets back from Submit.
type Outcome struct {
	FormationID int
	State       State
	Kind        Kind
	Message     string
	Err         error // nil for Confirmed
	Skipped     bool  // another submission for the formation was already running
	Fanout      FanoutResult
}

// PromptProfile reports whether the view should send the user to the profile form.
func (o Outcome) PromptProfile() bool { return o.State == StateProfileIncomplete }

// Coordinator drives enrollment submissions. All views share one Coordinator (and its Store).
type Coordinator struct {
	store      *Store
	backend    Backend
	fanout     *Fanout
	classifier *Classifier
	logger     core.Logger
	timeout    time.Duration
}

type CoordinatorOption func(*Coordinator)

// WithRequestTimeout bounds the submission call; zero keeps the transport's own timeout.
func WithRequestTimeout(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) { c.timeout = d }
}

func WithClassifier(cl *Classifier) CoordinatorOption {
	return func(c *Coordinator) { c.classifier = cl }
}

func NewCoordinator(store *Store, backend Backend, fanout *Fanout, logger core.Logger, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		store:      store,
		backend:    backend,
		fanout:     fanout,
		classifier: NewClassifier(core.EnrollmentConfig{}),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) Store() *Store { return c.store }

// Submit requests usr's enrollment in f and blocks until the outcome is known.
//
// A call made while a submission for f is running returns immediately with Skipped set
// and makes no backend call. Cancelling ctx does not abort a started submission: the
// backend call, cache write and notifications always complete.
func (c *Coordinator) Submit(ctx context.Context, usr user.User, f formation.Formation) Outcome {
	if !c.store.acquire(f.ID) {
		return Outcome{FormationID: f.ID, State: StateSubmitting, Skipped: true}
	}
	defer c.store.release(f.ID)

	c.store.MarkRequested(f.ID)

	ctx = context.WithoutCancel(ctx)
	err := c.create(ctx, f.ID)
	if err == nil {
		return c.confirm(ctx, usr, f, KindNone)
	}

	kind := c.classifier.Classify(err)
	subErr := &SubmitError{Kind: kind, FormationID: f.ID, Err: err}
	switch kind {
	case KindSuccessMisreported:
		c.logger.Warn(fmt.Sprintf("enrollment: backend reported a created request as an error: %v", err), err, usr)
		return c.confirm(ctx, usr, f, kind)

	case KindDuplicate:
		c.logger.Info(fmt.Sprintf("enrollment: formation %d already requested by user %d", f.ID, usr.ID))
		return Outcome{FormationID: f.ID, State: StateDuplicateRejected, Kind: kind, Message: MsgAlreadyRequested, Err: subErr}

	case KindProfileIncomplete:
		c.store.Unmark(f.ID)
		return Outcome{FormationID: f.ID, State: StateProfileIncomplete, Kind: kind, Message: MsgCompleteProfile, Err: subErr}

	default:
		c.store.Unmark(f.ID)
		c.logger.Error(fmt.Sprintf("enrollment: submitting formation %d: %v", f.ID, err), subErr, usr)
		return Outcome{FormationID: f.ID, State: StateFailed, Kind: kind, Message: MsgTryAgain, Err: subErr}
	}
}

// SubmitAsync runs Submit in its own goroutine; the channel receives exactly one Outcome.
func (c *Coordinator) SubmitAsync(ctx context.Context, usr user.User, f formation.Formation) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		out <- c.Submit(ctx, usr, f)
	}()
	return out
}

func (c *Coordinator) create(ctx context.Context, formationID int) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.backend.CreateEnrollmentRequest(ctx, formationID)
}

// confirm records the success before any notification goes out.
func (c *Coordinator) confirm(ctx context.Context, usr user.User, f formation.Formation, kind Kind) Outcome {
	c.store.confirm(f.ID)
	res := c.fanout.Dispatch(ctx, usr, f)
	return Outcome{FormationID: f.ID, State: StateConfirmed, Kind: kind, Message: MsgRequested, Fanout: res}
}
