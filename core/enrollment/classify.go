package enrollment

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
)

// Kind classifies the outcome of a failed submission call.
type Kind int

const (
	KindNone Kind = iota
	KindNetwork
	KindDuplicate
	KindProfileIncomplete
	KindSuccessMisreported
	KindUnknown
)

var kindNames = map[Kind]string{
	KindNone:               "None",
	KindNetwork:            "NetworkError",
	KindDuplicate:          "DuplicateRequestError",
	KindProfileIncomplete:  "ProfileIncompleteError",
	KindSuccessMisreported: "SuccessMisreportedAsError",
	KindUnknown:            "UnknownError",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Retryable reports whether the user may simply try again.
func (k Kind) Retryable() bool {
	return k == KindNetwork || k == KindUnknown
}

var (
	// The backend sometimes reports a created request through its error channel.
	// TODO: drop SuccessPhrases once the backend returns 201 for every created request.
	DefaultSuccessPhrases = []string{
		"request created successfully",
		"demande créée avec succès",
		"demande envoyée avec succès",
	}
	DefaultDuplicatePhrases = []string{
		"already in progress",
		"already requested",
		"already exists",
		"already pending",
		"déjà en cours",
		"déjà une demande",
	}
	DefaultProfileIncompletePhrases = []string{
		"profile incomplete",
		"incomplete profile",
		"complete your profile",
		"missing profile",
		"profil incomplet",
		"compléter votre profil",
	}
)

// StatusError is implemented by transport errors that carry an HTTP status and the server's message.
type StatusError interface {
	error
	HTTPStatus() int
	ServerMessage() string
}

// SubmitError is the classified failure of a submission.
type SubmitError struct {
	Kind        Kind
	FormationID int
	Err         error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("enrollment request for formation %d: %s: %v", e.FormationID, e.Kind, e.Err)
}

func (e *SubmitError) Cause() error  { return e.Err }
func (e *SubmitError) Unwrap() error { return e.Err }

// KindOf returns the Kind of a *SubmitError anywhere in err's chain.
func KindOf(err error) Kind {
	var se *SubmitError
	if errors.As(err, &se) {
		return se.Kind
	}
	if err == nil {
		return KindNone
	}
	return KindUnknown
}

// Classifier maps raw transport errors to a Kind. It is the only place that reads error text.
type Classifier struct {
	success   []string
	duplicate []string
	profile   []string
}

// NewClassifier uses conf's phrases, falling back to the defaults for empty lists.
func NewClassifier(conf core.EnrollmentConfig) *Classifier {
	pick := func(conf, def []string) []string {
		if len(conf) > 0 {
			return conf
		}
		return def
	}
	return &Classifier{
		success:   pick(conf.SuccessPhrases, DefaultSuccessPhrases),
		duplicate: pick(conf.DuplicatePhrases, DefaultDuplicatePhrases),
		profile:   pick(conf.ProfileIncompletePhrases, DefaultProfileIncompletePhrases),
	}
}

// Classify applies, in order: success phrase, 409/duplicate phrase, profile phrase,
// then timeouts (Unknown), other transport failures (Network) and anything else (Unknown).
func (c *Classifier) Classify(err error) Kind {
	if err == nil {
		return KindNone
	}

	var status int
	msg := err.Error()
	var se StatusError
	if errors.As(err, &se) {
		status = se.HTTPStatus()
		if m := se.ServerMessage(); m != "" {
			msg = m
		}
	}

	switch {
	case core.ContainsAnyFold(msg, c.success...):
		return KindSuccessMisreported
	case status == http.StatusConflict || core.ContainsAnyFold(msg, c.duplicate...):
		return KindDuplicate
	case core.ContainsAnyFold(msg, c.profile...):
		return KindProfileIncomplete
	case status != 0:
		return KindUnknown
	case isTimeout(err):
		return KindUnknown
	case isTransport(err):
		return KindNetwork
	default:
		return KindUnknown
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isTransport(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	var oe *net.OpError
	return errors.As(err, &oe)
}
