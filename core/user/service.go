package user

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/minumate/backend/core"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")
	ErrNotRegistered  = errors.New("user has not completed registration")
)

type (
	Repository interface {
		CheckUniqueness(username, email string, excludedUsers ...User) error
		CreateUser(usr User) (User, error)
		QueryAllUsers() ([]User, error)
		// FilterUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of
		// User.Username, User.Email or User.FullName.
		FilterUsers(filter QueryFilter) ([]User, error)
		GetUser(filter GetFilter) (User, error)
		UpdateUser(usr User, isActive *bool) (User, error)
		SetLastLogin(usr User) error
		DeleteUsersByID(ids ...int) error
	}

	Service interface {
		CheckUniqueness(uname, email string, exclUsers ...User) error
		Register(ru RegisterUser) (User, error)
		CreateFromEmail(email, fullName string) (User, error)
		QueryAll() ([]User, error)
		Filter(filter QueryFilter) ([]User, error)
		GetByID(id int) (User, error)
		GetByUsername(uname string) (User, error)
		GetByEmail(email string) (User, error)
		GetByUsernameOrEmail(uname string) (User, error)
		Update(id int, uu UpdateUser) (User, error)
		SetLastLogin(usr User) error
		RequestPasswordReset(email string) error
		ResetPassword(rp ResetUserPassword) (User, error)
		Delete(ids ...int) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) Service {
	secretKey = conf.SecretKey
	passwordResetTimeoutDelta = conf.PasswordResetTimeoutDelta
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

func (svc *service) CheckUniqueness(uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUniqueness(uname, email, exclUsers...); err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

// Register creates a new registered User. If a provisioned User already exists
// for the email (created from an email recipient), it is claimed and promoted
// instead of a new row being inserted.
func (svc *service) Register(ru RegisterUser) (User, error) {
	now := time.Now().UTC()

	if existing, err := svc.GetByEmail(ru.Email); err == nil {
		if existing.IsRegistered() {
			err := ErrEmailExists
			return User{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		if err := svc.CheckUniqueness(ru.Username, "", existing); err != nil {
			return User{}, err
		}
		existing.Username = ru.Username
		existing.FullName = ru.FullName
		existing.Status = StatusRegistered
		existing.IsActive = true
		existing.UpdatedAt = now
		if err := existing.SetPassword(ru.Password); err != nil {
			return User{}, err
		}
		return svc.repo.UpdateUser(existing, nil)
	} else if err != ErrNotFound {
		return User{}, err
	}

	if err := svc.CheckUniqueness(ru.Username, ru.Email); err != nil {
		return User{}, err
	}
	usr := User{
		Username:  ru.Username,
		Email:     ru.Email,
		FullName:  ru.FullName,
		Role:      ru.Role,
		Status:    StatusRegistered,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(ru.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(usr)
}

// CreateFromEmail provisions a placeholder User for an email recipient that
// has no account yet. The email doubles as username until they register.
func (svc *service) CreateFromEmail(email, fullName string) (User, error) {
	email = core.CleanString(email, true /* lower */)
	if usr, err := svc.repo.GetUser(GetFilter{Email: email}); err == nil {
		return usr, nil
	} else if err != ErrNotFound {
		return User{}, err
	}

	now := time.Now().UTC()
	if fullName == "" {
		fullName = strings.SplitN(email, "@", 2)[0]
	}
	usr := User{
		Username:  email,
		Email:     email,
		FullName:  core.CleanString(fullName),
		Role:      RoleUser,
		Status:    StatusCreated,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateUser(usr)
}

func (svc *service) QueryAll() ([]User, error) {
	return svc.repo.QueryAllUsers()
}

func (svc *service) Filter(filter QueryFilter) ([]User, error) {
	filter.Clean()
	return svc.repo.FilterUsers(filter)
}

func (svc *service) GetByID(id int) (User, error) {
	return svc.repo.GetUser(GetFilter{ID: id})
}

func (svc *service) GetByUsername(uname string) (User, error) {
	return svc.repo.GetUser(GetFilter{Username: core.CleanString(uname, true /* lower */)})
}

func (svc *service) GetByEmail(email string) (User, error) {
	return svc.repo.GetUser(GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *service) GetByUsernameOrEmail(uname string) (User, error) {
	return svc.repo.GetUser(GetFilter{UsernameOrEmail: core.CleanString(uname, true /* lower */)})
}

func (svc *service) Update(id int, uu UpdateUser) (User, error) {
	usr := User{
		ID:        id,
		Username:  uu.Username,
		Email:     uu.Email,
		FullName:  uu.FullName,
		Role:      uu.Role,
		UpdatedAt: time.Now().UTC(),
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(usr, uu.IsActive)
}

func (svc *service) SetLastLogin(usr User) error {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.SetLastLogin(usr)
}

func (svc *service) RequestPasswordReset(email string) error {
	usr, err := svc.GetByEmail(email)
	if err != nil {
		return err
	}
	if !usr.IsRegistered() {
		return ErrNotRegistered
	}
	go svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *service) sendPasswordResetMail(usr User) {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName, Address: usr.Email}},
		Subject:      svc.conf.AppName + " - Password Reset",
		TemplateName: "password-reset",
		TemplateData: struct {
			User  User
			UID   string
			Token string
		}{usr, EncodeUID(usr), makeToken(usr)},
	}
	svc.mailSvc.SendMessages(msg)
}

func (svc *service) ResetPassword(rp ResetUserPassword) (User, error) {
	fail := func(err error) (User, error) {
		return User{}, core.NewValidationError(err)
	}

	uid, err := decodeUID(rp.UID)
	if err != nil {
		return fail(errInvalidToken)
	}
	usr, err := svc.GetByID(uid)
	if err != nil {
		return fail(errInvalidToken)
	}
	if err := verifyToken(usr, rp.Token); err != nil {
		return fail(err)
	}

	if err := usr.SetPassword(rp.Password); err != nil {
		return User{}, err
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(usr, nil)
}

func (svc *service) Delete(ids ...int) error {
	return svc.repo.DeleteUsersByID(ids...)
}
