package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/emilythestrangee/qa-forum/backend/internal/apperr"
	"github.com/emilythestrangee/qa-forum/backend/internal/community"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/notify"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

// UserService handles registration, activation and password management of
// normal users.
type UserService struct {
	users        store.UserStore
	notifier     community.Notifier
	codeLifetime time.Duration
	now          func() time.Time
}

func NewUserService(users store.UserStore, notifier community.Notifier, codeLifetime time.Duration) *UserService {
	return &UserService{users: users, notifier: notifier, codeLifetime: codeLifetime, now: time.Now}
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// byEmail loads the user registered under email or reports NotFound on /email.
func (s *UserService) byEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.users.FindUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("User not found",
			apperr.Field(apperr.LocationBody, "/email", apperr.CodeNotFound, "No user with this email"))
	}
	return u, err
}

func (s *UserService) issueCode(c *models.OneTimeCode) error {
	code, err := newCode()
	if err != nil {
		return err
	}
	*c = models.OneTimeCode{Code: code, IssuedAt: s.now()}
	return nil
}

// checkCode validates a submitted code against c.
func (s *UserService) checkCode(c models.OneTimeCode, submitted string) error {
	if !c.Issued() || c.Code != submitted {
		return &apperr.Error{
			Kind:    apperr.KindValidation,
			Code:    apperr.CodeCodeNotMatch,
			Message: "Validation failed",
			Fields:  []apperr.FieldError{apperr.Field(apperr.LocationBody, "/code", apperr.CodeInvalidParameter, "Code not match")},
		}
	}
	if c.Expired(s.now(), s.codeLifetime) {
		return &apperr.Error{
			Kind:    apperr.KindValidation,
			Code:    apperr.CodeCodeExpired,
			Message: "Validation failed",
			Fields:  []apperr.FieldError{apperr.Field(apperr.LocationBody, "/code", apperr.CodeInvalidParameter, "Code has expired")},
		}
	}
	return nil
}

func (s *UserService) notify(msg notify.Message, userID int64) {
	if !s.notifier.Enqueue(msg) {
		log.WithField("user_id", userID).Warn("User notification not queued")
	}
}

// Register creates an inactive normal user and mails the activation code.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)
	if _, err := s.users.FindUserByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("This email already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Email:     email,
		Password:  hashed,
		Type:      models.UserTypeNormal,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if err := s.issueCode(&u.ActiveCode); err != nil {
		return nil, err
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("This email already exists")
		}
		return nil, err
	}

	s.notify(notify.ActivationCode(u, u.ActiveCode.Code), u.ID)
	log.WithField("user_id", u.ID).Info("User registered")
	return u, nil
}

// Activate marks the user active when code matches the pending activation code.
func (s *UserService) Activate(ctx context.Context, req models.ActivateRequest) (*models.User, error) {
	u, err := s.byEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if u.IsActive {
		return nil, apperr.Conflict("User has already been activated")
	}
	if err := s.checkCode(u.ActiveCode, req.Code); err != nil {
		return nil, err
	}

	u.IsActive = true
	u.ActiveCode = models.OneTimeCode{}
	if err := s.users.SaveUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ResendActivationCode issues a fresh activation code for an inactive user.
func (s *UserService) ResendActivationCode(ctx context.Context, email string) error {
	u, err := s.byEmail(ctx, email)
	if err != nil {
		return err
	}
	if u.IsActive {
		return apperr.Conflict("User has already been activated")
	}
	if err := s.issueCode(&u.ActiveCode); err != nil {
		return err
	}
	if err := s.users.SaveUser(ctx, u); err != nil {
		return err
	}
	s.notify(notify.ActivationCode(u, u.ActiveCode.Code), u.ID)
	return nil
}

// ForgotPassword mails a password reset code to a normal user.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.byEmail(ctx, email)
	if err != nil {
		return err
	}
	if u.Type != models.UserTypeNormal {
		return apperr.Validation(apperr.Field(apperr.LocationBody, "/email", apperr.CodeInvalidParameter,
			"This account signs in with "+string(u.Type)))
	}
	if err := s.issueCode(&u.ChangePasswordCode); err != nil {
		return err
	}
	if err := s.users.SaveUser(ctx, u); err != nil {
		return err
	}
	s.notify(notify.PasswordResetCode(u, u.ChangePasswordCode.Code), u.ID)
	return nil
}

// ResetPassword sets a new password when code matches the pending reset code.
func (s *UserService) ResetPassword(ctx context.Context, req models.PasswordByCodeRequest) error {
	u, err := s.byEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	if err := s.checkCode(u.ChangePasswordCode, req.Code); err != nil {
		return err
	}
	hashed, err := hashPassword(req.Password)
	if err != nil {
		return err
	}
	u.Password = hashed
	u.ChangePasswordCode = models.OneTimeCode{}
	return s.users.SaveUser(ctx, u)
}

func (s *UserService) ChangePassword(ctx context.Context, userID int64, req models.ChangePasswordRequest) error {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.CurrentPassword)) != nil {
		return apperr.Validation(apperr.Field(apperr.LocationBody, "/current_password", apperr.CodeInvalidParameter,
			"Password does not match"))
	}
	hashed, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	u.Password = hashed
	return s.users.SaveUser(ctx, u)
}

func (s *UserService) Profile(ctx context.Context, userID int64) (*models.User, error) {
	u, err := s.users.FindUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	return u, err
}

// UpdateProfile applies the non-nil fields of req.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req models.ProfileUpdate) (*models.User, error) {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&u.FirstName, req.FirstName)
	set(&u.LastName, req.LastName)
	set(&u.Company, req.Company)
	set(&u.Location, req.Location)
	set(&u.AboutMe, req.AboutMe)
	set(&u.PhoneNumber, req.PhoneNumber)
	if req.Age != nil {
		u.Age = *req.Age
	}
	if err := s.users.SaveUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
