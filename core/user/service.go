package user

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/nkashama/duetrack/core"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
)

type (
	// Repository persists users. DeleteUserByID cascades: the user's courses,
	// tasks and subtasks are removed along with the account.
	Repository interface {
		CheckEmailUniqueness(email string, excludedUsers ...User) error
		CreateUser(user User) (User, error)
		GetUserByID(id string) (User, error)
		GetUserByEmail(email string) (User, error)
		UpdateUser(user User) (User, error)
		DeleteUserByID(id string) error
	}

	ServiceInterface interface {
		CheckEmailUniqueness(email string, exclUsers ...User) error
		Register(nu NewUser) (User, error)
		GetOrCreateGoogleUser(gu GoogleUser) (User, error)
		GetByID(id string) (User, error)
		GetByEmail(email string) (User, error)
		SetLastLogin(usr User) (User, error)
		Update(id string, uu UpdateUser) (User, error)
		Delete(id string) error
		RequestPasswordReset(email string) error
		ResetPassword(rp ResetUserPassword) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	// token generation inputs
	secretKey = []byte(conf.SecretKey)
	passwordResetTimeoutDelta = conf.PasswordResetTimeoutDelta

	return &Service{
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

func (svc *Service) CheckEmailUniqueness(email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(email, exclUsers...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Register(nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		FirstName: nu.FirstName,
		LastName:  nu.LastName,
		Email:     nu.Email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}

	usr, err := svc.repo.CreateUser(usr)
	if err != nil {
		return User{}, err
	}
	svc.sendWelcomeEmail(usr)
	return usr, nil
}

// GetOrCreateGoogleUser finds the account matching a verified Google identity,
// creating it on first sign-in.
func (svc *Service) GetOrCreateGoogleUser(gu GoogleUser) (User, error) {
	usr, err := svc.GetByEmail(gu.Email)
	if err == nil {
		if usr.GoogleID == "" {
			usr.GoogleID = gu.GoogleID
			usr.IsGoogleUser = true
			usr.UpdatedAt = time.Now().UTC()
			return svc.repo.UpdateUser(usr)
		}
		return usr, nil
	}
	if err != ErrNotFound {
		return User{}, err
	}

	now := time.Now().UTC()
	usr = User{
		FirstName:    gu.FirstName,
		LastName:     gu.LastName,
		Email:        core.CleanString(gu.Email, true /* lower */),
		GoogleID:     gu.GoogleID,
		IsGoogleUser: true,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	usr, err = svc.repo.CreateUser(usr)
	if err != nil {
		return User{}, err
	}
	svc.sendWelcomeEmail(usr)
	return usr, nil
}

func (svc *Service) GetByID(id string) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *Service) GetByEmail(email string) (User, error) {
	return svc.repo.GetUserByEmail(core.CleanString(email, true /* lower */))
}

func (svc *Service) SetLastLogin(usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(usr)
}

func (svc *Service) Update(id string, uu UpdateUser) (User, error) {
	usr, err := svc.repo.GetUserByID(id)
	if err != nil {
		return User{}, err
	}

	usr.FirstName = uu.FirstName
	usr.LastName = uu.LastName
	usr.Email = uu.Email
	usr.UpdatedAt = time.Now().UTC()
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(usr)
}

func (svc *Service) Delete(id string) error {
	return svc.repo.DeleteUserByID(id)
}

func (svc *Service) RequestPasswordReset(email string) error {
	usr, err := svc.GetByEmail(email)
	if err != nil {
		return err
	}
	token, err := MakeToken(usr)
	if err != nil {
		return errors.Wrap(err, "making token")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject: "Password Reset",
		BodyStr: fmt.Sprintf(
			"Hi %s,\n\nFollow the link below to reset your password:\n\n%s/password-reset?uid=%s&token=%s\n",
			usr.FirstName, svc.conf.FrontendBaseURL, EncodeUID(usr), token,
		),
	})
	return nil
}

func (svc *Service) ResetPassword(rp ResetUserPassword) error {
	uid, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	usr, err := svc.repo.GetUserByID(uid)
	if err != nil {
		if err == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return err
	}
	if err = verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(err)
	}

	if err = usr.SetPassword(rp.Password); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	if _, err = svc.repo.UpdateUser(usr); err != nil {
		return err
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject: "Password Reset Complete",
		BodyStr: fmt.Sprintf("Hi %s,\n\nYour password has been reset successfully.\n", usr.FirstName),
	})
	return nil
}

func (svc *Service) sendWelcomeEmail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject: "Welcome to " + svc.conf.AppName,
		BodyStr: fmt.Sprintf("Hi %s,\n\nWelcome to %s! Start by adding your courses and deadlines.\n", usr.FirstName, svc.conf.AppName),
	})
}
