package user

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrUsernameExists = errors.New("a user with this username already exists")
	ErrProfileMissing = errors.New("profile incomplete")
)

type (
	Repository interface {
		CreateUser(user User) (User, error)
		GetUserByID(id int) (User, error)
		GetUserByUsernameOrEmail(username string) (User, error)
		UpdateUser(user User) (User, error)
	}

	Service struct {
		repo       Repository
		validate   *validator.Validate
		translator ut.Translator
	}
)

func NewService(repo Repository, validate *validator.Validate, translator ut.Translator) *Service {
	InitValidators(validate, translator)
	return &Service{repo: repo, validate: validate, translator: translator}
}

func (svc *Service) Create(nu NewUser) (User, error) {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	if err := svc.validate.Struct(nu); err != nil {
		return User{}, core.TranslateValidation(err, svc.translator, "invalid user")
	}
	if _, err := svc.repo.GetUserByUsernameOrEmail(nu.Username); err == nil {
		return User{}, core.NewValidationError(ErrUsernameExists, core.FieldError{Field: "username", Error: ErrUsernameExists.Error()})
	} else if errors.Cause(err) != ErrNotFound {
		return User{}, errors.Wrap(err, "checking username")
	}

	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		IsActive:  true,
		Roles:     NormalizeRoles(toInterfaces(nu.Roles)...),
		Profile:   nu.Profile,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.CreateUser(usr)
}

func (svc *Service) GetByID(id int) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *Service) GetByUsernameOrEmail(uname string) (User, error) {
	return svc.repo.GetUserByUsernameOrEmail(core.CleanString(uname, true /* lower */))
}

// Authenticate checks credentials and records the login time.
func (svc *Service) Authenticate(uname, pwd string) (User, error) {
	usr, err := svc.GetByUsernameOrEmail(uname)
	if err != nil {
		return User{}, err
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrNotFound
	}
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(usr)
}

// UpdateProfile replaces the profile of a user. An incomplete profile is stored as is;
// it is only enforced when requesting an enrollment.
func (svc *Service) UpdateProfile(id int, p Profile) (User, error) {
	usr, err := svc.repo.GetUserByID(id)
	if err != nil {
		return User{}, err
	}
	p.FirstName = core.CleanString(p.FirstName)
	p.LastName = core.CleanString(p.LastName)
	p.Phone = core.CleanString(p.Phone)
	p.BirthDate = core.CleanString(p.BirthDate)
	p.School = core.CleanString(p.School)

	usr.Profile = p
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(usr)
}

// CheckProfile returns a *core.ValidationError wrapping ErrProfileMissing when
// the user's profile misses data required to request an enrollment.
func (svc *Service) CheckProfile(usr User) error {
	return CheckProfile(svc.validate, svc.translator, usr.Profile)
}

func CheckProfile(validate *validator.Validate, translator ut.Translator, p Profile) error {
	if err := validate.Struct(p); err != nil {
		vErr := core.TranslateValidation(err, translator, ErrProfileMissing.Error())
		if ve, ok := vErr.(*core.ValidationError); ok {
			ve.Err = ErrProfileMissing
		}
		return vErr
	}
	return nil
}

func toInterfaces(ss []string) []interface{} {
	out := make([]interface{}, 0, len(ss))
	for _, s := range ss {
		out = append(out, s)
	}
	return out
}
