package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/scholium-app/scholium/core"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
	ErrLastAdmin   = errors.New("the last admin cannot be demoted or deleted")
	ErrSelfDelete  = errors.New("admins cannot delete their own account")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		GetUserByID(ctx context.Context, id int) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		UpdateProfile(ctx context.Context, id int, name, pictureURL string, updatedAt time.Time) (User, error)
		SetPasswordHash(ctx context.Context, id int, hash []byte, updatedAt time.Time) error
		SetEmailVerified(ctx context.Context, id int, updatedAt time.Time) error
		SetRole(ctx context.Context, id int, role string, updatedAt time.Time) error
		CountAdmins(ctx context.Context) (int, error)
		// DeleteUser removes the user's sessions and completion rows before the
		// user row itself, all in a single transaction.
		DeleteUser(ctx context.Context, id int) error
	}

	Service interface {
		SignUp(ctx context.Context, nu NewUser) (User, error)
		Create(ctx context.Context, nu NewUser) (User, error)
		QueryAll(ctx context.Context) ([]User, error)
		GetByID(ctx context.Context, id int) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		UpdateProfile(ctx context.Context, id int, up UpdateProfile) (User, error)
		ChangePassword(ctx context.Context, id int, cp ChangePassword) error
		VerifyEmail(ctx context.Context, id int) error
		UpdateRole(ctx context.Context, id int, role string) error
		Delete(ctx context.Context, actorID, id int) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) Service {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

func (svc *service) checkUniqueness(ctx context.Context, email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclUsers...); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// SignUp registers a new student account.
func (svc *service) SignUp(ctx context.Context, nu NewUser) (User, error) {
	nu.Role = RoleStudent
	return svc.Create(ctx, nu)
}

// Create persists a new User with the requested role (default "student").
func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := svc.checkUniqueness(ctx, nu.Email); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		Email:     nu.Email,
		Name:      nu.Name,
		Role:      nu.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if usr.Role == "" {
		usr.Role = RoleStudent
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		// a concurrent signup can slip past checkUniqueness; surface the
		// unique violation the same way
		if errors.Cause(err) == ErrEmailExists {
			return User{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
		}
		return User{}, err
	}
	svc.sendWelcomeMail(usr)
	return usr, nil
}

func (svc *service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *service) UpdateProfile(ctx context.Context, id int, up UpdateProfile) (User, error) {
	return svc.repo.UpdateProfile(ctx, id, up.Name, up.ProfilePictureURL, time.Now().UTC())
}

func (svc *service) ChangePassword(ctx context.Context, id int, cp ChangePassword) error {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if err = usr.CheckPassword(cp.CurrentPassword); err != nil {
		return core.NewValidationError(
			errors.New("current password is incorrect"),
			core.FieldError{Field: "current_password", Error: "current password is incorrect"},
		)
	}
	if err = usr.SetPassword(cp.NewPassword); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	return svc.repo.SetPasswordHash(ctx, id, usr.PasswordHash, time.Now().UTC())
}

func (svc *service) VerifyEmail(ctx context.Context, id int) error {
	return svc.repo.SetEmailVerified(ctx, id, time.Now().UTC())
}

// UpdateRole changes a user's role. Demoting the last remaining admin is
// refused so the admin console stays reachable.
func (svc *service) UpdateRole(ctx context.Context, id int, role string) error {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if usr.IsAdmin() && role != RoleAdmin {
		n, err := svc.repo.CountAdmins(ctx)
		if err != nil {
			return err
		}
		if n <= 1 {
			return ErrLastAdmin
		}
	}
	return svc.repo.SetRole(ctx, id, role, time.Now().UTC())
}

// Delete removes a user and all their dependent rows. Admins cannot delete
// themselves, and the last remaining admin cannot be deleted.
func (svc *service) Delete(ctx context.Context, actorID, id int) error {
	if actorID == id {
		return ErrSelfDelete
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if usr.IsAdmin() {
		n, err := svc.repo.CountAdmins(ctx)
		if err != nil {
			return err
		}
		if n <= 1 {
			return ErrLastAdmin
		}
	}
	return svc.repo.DeleteUser(ctx, id)
}

func (svc *service) sendWelcomeMail(usr User) {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      fmt.Sprintf("Welcome to %s", svc.conf.AppName),
		TemplateName: "welcome",
		TemplateData: struct{ Name string }{Name: usr.Name},
	}
	svc.mailSvc.SendMessages(msg)
}
