package inmemdb

import (
	"github.com/trezcool/masomo/core/enrollment"
	"github.com/trezcool/masomo/core/formation"
	"github.com/trezcool/masomo/core/portal"
)

type PortalRepository struct {
	formations    *formationTable
	requests      *requestTable
	notifications *notificationTable
}

var _ portal.Repository = (*PortalRepository)(nil) // interface compliance check

func NewPortalRepository(db *DB) *PortalRepository {
	return &PortalRepository{
		formations:    db.formation,
		requests:      db.request,
		notifications: db.notification,
	}
}

// SaveFormation inserts or replaces a formation.
func (repo *PortalRepository) SaveFormation(f formation.Formation) {
	repo.formations.Lock()
	repo.formations.table[f.ID] = f
	repo.formations.Unlock()
}

func (repo *PortalRepository) ListFormations() ([]formation.Formation, error) {
	repo.formations.RLock()
	defer repo.formations.RUnlock()

	fs := make([]formation.Formation, 0, len(repo.formations.table))
	for _, f := range repo.formations.table {
		fs = append(fs, f)
	}
	return fs, nil
}

func (repo *PortalRepository) GetFormation(id int) (formation.Formation, error) {
	repo.formations.RLock()
	defer repo.formations.RUnlock()

	if f, ok := repo.formations.table[id]; ok {
		return f, nil
	}
	return formation.Formation{}, formation.ErrNotFound
}

func (repo *PortalRepository) CreateRequest(req enrollment.Request) (enrollment.Request, error) {
	repo.requests.Lock()
	repo.requests.table[req.ID] = req
	repo.requests.Unlock()
	return req, nil
}

// SetRequestStatus moves a request to another status, as a recruiter would.
func (repo *PortalRepository) SetRequestStatus(id string, status enrollment.Status) bool {
	repo.requests.Lock()
	defer repo.requests.Unlock()

	req, ok := repo.requests.table[id]
	if ok {
		req.Status = status
		repo.requests.table[id] = req
	}
	return ok
}

func (repo *PortalRepository) QueryRequestsByUser(userID int) ([]enrollment.Request, error) {
	repo.requests.RLock()
	defer repo.requests.RUnlock()

	var reqs []enrollment.Request
	for _, r := range repo.requests.table {
		if r.UserID == userID {
			reqs = append(reqs, r)
		}
	}
	return reqs, nil
}

func (repo *PortalRepository) CreateNotification(n portal.Notification) (portal.Notification, error) {
	repo.notifications.Lock()
	defer repo.notifications.Unlock()

	repo.notifications.pk++
	n.ID = repo.notifications.pk
	repo.notifications.table[n.ID] = n
	return n, nil
}

func (repo *PortalRepository) QueryNotificationsByRecipient(recipientID int) ([]portal.Notification, error) {
	repo.notifications.RLock()
	defer repo.notifications.RUnlock()

	var ns []portal.Notification
	for _, n := range repo.notifications.table {
		if n.RecipientID == recipientID {
			ns = append(ns, n)
		}
	}
	return ns, nil
}
