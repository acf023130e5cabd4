package enrollment

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/trezcool/masomo/core/formation"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
)

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Status(strings.ToUpper(strings.TrimSpace(raw)))
	return nil
}

// IsTerminal reports whether no further transition is expected; unknown statuses are pending.
func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Request is a user's application to join a formation. It is owned by the backend.
type Request struct {
	ID          string         `json:"id"`
	FormationID int            `json:"formationId,omitempty"`
	Formation   *formation.Ref `json:"formation,omitempty"`
	UserID      int            `json:"userId"`
	Status      Status         `json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// FormationRef returns the formation ID, whether the backend sent it nested or flat.
func (r Request) FormationRef() int {
	if r.Formation != nil && r.Formation.ID != 0 {
		return r.Formation.ID
	}
	return r.FormationID
}

type NotificationType string

const (
	NotificationRequested        NotificationType = "requested"
	NotificationGuestApplication NotificationType = "guestApplication"
)

type Notification struct {
	Type          NotificationType `json:"type" validate:"required,oneof=requested guestApplication"`
	FormationName string           `json:"formationName" validate:"required"`
	FormationID   int              `json:"formationId,omitempty"`
	UserID        int              `json:"userId,omitempty"`
	RecruiterID   int              `json:"recruiterId,omitempty"`
	GuestID       int              `json:"guestId,omitempty"`
}

func RequestedNotification(f formation.Formation, userID int) Notification {
	return Notification{
		Type:          NotificationRequested,
		FormationName: f.Name,
		FormationID:   f.ID,
		UserID:        userID,
	}
}

func GuestApplicationNotification(f formation.Formation, recruiterID, guestID int) Notification {
	return Notification{
		Type:          NotificationGuestApplication,
		FormationName: f.Name,
		RecruiterID:   recruiterID,
		GuestID:       guestID,
	}
}

type (
	// RequestLister fetches the current user's non-terminal enrollment requests.
	RequestLister interface {
		ListMyEnrollmentRequests(ctx context.Context) ([]Request, error)
	}

	// NotificationSender creates one notification event.
	NotificationSender interface {
		CreateNotification(ctx context.Context, n Notification) error
	}

	// Backend is the portal REST contract used by the engine.
	Backend interface {
		RequestLister
		NotificationSender
		CreateEnrollmentRequest(ctx context.Context, formationID int) error
	}
)
