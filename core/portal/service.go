package portal

import (
	"sort"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/enrollment"
	"github.com/trezcool/masomo/core/formation"
	"github.com/trezcool/masomo/core/user"
)

var (
	// errors
	ErrAlreadyPending = errors.New("an enrollment request is already pending for this formation")
	ErrFormationFull  = errors.New("this formation is full")
)

type (
	// Notification is a stored notification event.
	Notification struct {
		enrollment.Notification
		ID          int       `json:"id"`
		RecipientID int       `json:"recipientId"`
		SenderID    int       `json:"senderId"`
		CreatedAt   time.Time `json:"createdAt"` // UTC
	}

	Repository interface {
		ListFormations() ([]formation.Formation, error)
		GetFormation(id int) (formation.Formation, error)
		CreateRequest(req enrollment.Request) (enrollment.Request, error)
		QueryRequestsByUser(userID int) ([]enrollment.Request, error)
		CreateNotification(n Notification) (Notification, error)
		QueryNotificationsByRecipient(recipientID int) ([]Notification, error)
	}

	// Service implements the portal's enrollment rules on the server side.
	Service struct {
		repo       Repository
		validate   *validator.Validate
		translator ut.Translator
	}
)

func NewService(repo Repository, validate *validator.Validate, translator ut.Translator) *Service {
	validate.RegisterStructValidation(notificationValidation, enrollment.Notification{})
	return &Service{repo: repo, validate: validate, translator: translator}
}

func (svc *Service) Formations() ([]formation.Formation, error) {
	fs, err := svc.repo.ListFormations()
	if err != nil {
		return nil, errors.Wrap(err, "listing formations")
	}
	sort.Slice(fs, func(i, j int) bool { return fs[i].ID < fs[j].ID })
	return fs, nil
}

func (svc *Service) Formation(id int) (formation.Formation, error) {
	return svc.repo.GetFormation(id)
}

// RequestEnrollment files a pending request of usr for a formation.
//
// It fails with a *core.ValidationError wrapping user.ErrProfileMissing when the profile
// is incomplete, and with ErrAlreadyPending when a pending request exists.
func (svc *Service) RequestEnrollment(usr user.User, formationID int) (enrollment.Request, error) {
	f, err := svc.repo.GetFormation(formationID)
	if err != nil {
		return enrollment.Request{}, err
	}
	if err = user.CheckProfile(svc.validate, svc.translator, usr.Profile); err != nil {
		return enrollment.Request{}, err
	}

	reqs, err := svc.repo.QueryRequestsByUser(usr.ID)
	if err != nil {
		return enrollment.Request{}, errors.Wrap(err, "querying requests")
	}
	for _, r := range reqs {
		if r.FormationRef() == f.ID && !r.Status.IsTerminal() {
			return enrollment.Request{}, ErrAlreadyPending
		}
	}
	if f.IsFull() {
		return enrollment.Request{}, ErrFormationFull
	}

	return svc.repo.CreateRequest(enrollment.Request{
		ID:          uuid.New().String(),
		FormationID: f.ID,
		Formation:   &formation.Ref{ID: f.ID, Name: f.Name},
		UserID:      usr.ID,
		Status:      enrollment.StatusPending,
		CreatedAt:   time.Now().UTC(),
	})
}

// PendingRequests lists the non-terminal requests of a user, oldest first.
func (svc *Service) PendingRequests(userID int) ([]enrollment.Request, error) {
	reqs, err := svc.repo.QueryRequestsByUser(userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying requests")
	}
	pending := make([]enrollment.Request, 0, len(reqs))
	for _, r := range reqs {
		if !r.Status.IsTerminal() {
			pending = append(pending, r)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })
	return pending, nil
}

// Notify validates and stores a notification sent by sender.
func (svc *Service) Notify(sender user.User, n enrollment.Notification) (Notification, error) {
	n.FormationName = core.CleanString(n.FormationName)
	if err := svc.validate.Struct(n); err != nil {
		return Notification{}, core.TranslateValidation(err, svc.translator, "invalid notification")
	}

	recipient := n.UserID
	if n.Type == enrollment.NotificationGuestApplication {
		recipient = n.RecruiterID
	}
	return svc.repo.CreateNotification(Notification{
		Notification: n,
		RecipientID:  recipient,
		SenderID:     sender.ID,
		CreatedAt:    time.Now().UTC(),
	})
}

// Inbox lists the notifications addressed to a user, newest first.
func (svc *Service) Inbox(userID int) ([]Notification, error) {
	ns, err := svc.repo.QueryNotificationsByRecipient(userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	sort.SliceStable(ns, func(i, j int) bool { return ns[i].ID > ns[j].ID })
	return ns, nil
}

// notificationValidation checks the fields each notification type needs.
func notificationValidation(sl validator.StructLevel) {
	n := sl.Current().Interface().(enrollment.Notification)
	switch n.Type {
	case enrollment.NotificationRequested:
		if n.FormationID <= 0 {
			sl.ReportError(n.FormationID, "formationId", "FormationID", "required", "")
		}
		if n.UserID <= 0 {
			sl.ReportError(n.UserID, "userId", "UserID", "required", "")
		}
	case enrollment.NotificationGuestApplication:
		if n.RecruiterID <= 0 {
			sl.ReportError(n.RecruiterID, "recruiterId", "RecruiterID", "required", "")
		}
		if n.GuestID <= 0 {
			sl.ReportError(n.GuestID, "guestId", "GuestID", "required", "")
		}
	}
}
