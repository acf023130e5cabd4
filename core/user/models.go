package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

var Roles = []Role{
	{Name: "Student", Value: RoleStudent},
	{Name: "Guest", Value: RoleGuest},
	{Name: "Recruiter", Value: RoleRecruiter},
	{Name: "Admin", Value: RoleAdmin},
}

// Profile holds the data the backend requires before accepting an enrollment request.
type Profile struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Phone     string `json:"phone" validate:"required,phone"`
	BirthDate string `json:"birthDate" validate:"required"`
	School    string `json:"school,omitempty"`
}

type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	IsActive     bool      `json:"isActive"`
	Roles        RoleSet   `json:"roles"`
	Profile      Profile   `json:"profile"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
	UpdatedAt    time.Time `json:"updatedAt"` // UTC
	LastLogin    time.Time `json:"lastLogin"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) IsAdmin() bool     { return HasRole(u.Roles, RoleAdmin) }
func (u User) IsRecruiter() bool { return HasRole(u.Roles, RoleRecruiter) }
func (u User) IsStudent() bool   { return HasRole(u.Roles, RoleStudent) }
func (u User) IsGuest() bool     { return IsGuest(u.Roles) }

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name     string   `json:"name" validate:"required"`
	Username string   `json:"username" validate:"required"`
	Email    string   `json:"email" validate:"omitempty,email"`
	Password string   `json:"password" validate:"required"`
	Roles    []string `json:"roles" validate:"allroles"`
	Profile  Profile  `json:"profile" validate:"-"`
}
