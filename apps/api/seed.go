package main

import (
	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core/formation"
	"github.com/trezcool/masomo/core/user"
)

// devPassword is shared by every seeded account.
const devPassword = "Masomo#2024"

type formationSaver interface {
	SaveFormation(f formation.Formation)
}

func seed(usrSvc *user.Service, repo formationSaver) error {
	profile := user.Profile{FirstName: "Amani", LastName: "Kabila", Phone: "+243 810 000 000", BirthDate: "2001-02-03"}

	accounts := []user.NewUser{
		{Name: "Admin", Username: "admin", Email: "admin@localhost", Roles: []string{user.RoleAdmin}},
		{Name: "Recruiter", Username: "recruiter", Email: "recruiter@localhost", Roles: []string{user.RoleRecruiter}},
		{Name: "Student", Username: "student", Email: "student@localhost", Roles: []string{user.RoleStudent}, Profile: profile},
		{Name: "Guest", Username: "guest", Email: "guest@localhost", Roles: []string{user.RoleGuest}, Profile: profile},
		{Name: "Newcomer", Username: "newcomer", Email: "newcomer@localhost", Roles: []string{user.RoleGuest}},
	}

	var recruiterID int
	for _, nu := range accounts {
		nu.Password = devPassword
		usr, err := usrSvc.Create(nu)
		if err != nil {
			return errors.Wrapf(err, "creating %s", nu.Username)
		}
		if usr.IsRecruiter() {
			recruiterID = usr.ID
		}
	}

	repo.SaveFormation(formation.Formation{ID: 1, Name: "Go Fundamentals", Capacity: 30})
	repo.SaveFormation(formation.Formation{ID: 2, Name: "Data Engineering", RecruiterID: &recruiterID, Capacity: 20})
	repo.SaveFormation(formation.Formation{ID: 3, Name: "Cloud Architecture", RecruiterID: &recruiterID})
	repo.SaveFormation(formation.Formation{ID: 4, Name: "Project Management", Capacity: 2, EnrolledCount: 2})
	return nil
}
