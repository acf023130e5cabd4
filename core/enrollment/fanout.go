package enrollment

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/formation"
	"github.com/trezcool/masomo/core/user"
)

// Mailer is told about every confirmed request; failures are its own business.
type Mailer interface {
	RequestConfirmed(usr user.User, f formation.Formation)
}

// FanoutResult reports which events were created for one confirmed request.
type FanoutResult struct {
	Requested           bool
	RequestedErr        error
	GuestApplication    bool
	GuestApplicationErr error
}

// Fanout creates the notification events that follow a confirmed enrollment request.
// Each event is created independently: one failing never undoes the other.
type Fanout struct {
	sender  NotificationSender
	logger  core.Logger
	mailer  Mailer
	timeout time.Duration
}

type FanoutOption func(*Fanout)

func WithMailer(m Mailer) FanoutOption {
	return func(fo *Fanout) { fo.mailer = m }
}

// WithFanoutTimeout bounds each notification call.
func WithFanoutTimeout(d time.Duration) FanoutOption {
	return func(fo *Fanout) { fo.timeout = d }
}

func NewFanout(sender NotificationSender, logger core.Logger, opts ...FanoutOption) *Fanout {
	fo := &Fanout{sender: sender, logger: logger}
	for _, opt := range opts {
		opt(fo)
	}
	return fo
}

// Dispatch sends the "requested" event for usr and, when usr is a guest and the
// formation has a recruiter, a "guestApplication" event for that recruiter.
func (fo *Fanout) Dispatch(ctx context.Context, usr user.User, f formation.Formation) FanoutResult {
	var res FanoutResult

	res.RequestedErr = fo.send(ctx, RequestedNotification(f, usr.ID))
	res.Requested = res.RequestedErr == nil

	if user.IsGuest(usr.Roles) && f.HasRecruiter() {
		res.GuestApplicationErr = fo.send(ctx, GuestApplicationNotification(f, *f.RecruiterID, usr.ID))
		res.GuestApplication = res.GuestApplicationErr == nil
	}

	if fo.mailer != nil {
		fo.mailer.RequestConfirmed(usr, f)
	}
	return res
}

func (fo *Fanout) send(ctx context.Context, n Notification) error {
	if fo.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, fo.timeout)
		defer cancel()
	}
	if err := fo.sender.CreateNotification(ctx, n); err != nil {
		err = errors.Wrapf(err, "creating %s notification", n.Type)
		fo.logger.Error(fmt.Sprintf("enrollment: %v", err), err, map[string]interface{}{
			"type":          string(n.Type),
			"formationName": n.FormationName,
		})
		return err
	}
	return nil
}
