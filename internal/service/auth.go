package service

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/emilythestrangee/qa-forum/backend/internal/apperr"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

// AuthService exchanges credentials for access tokens.
type AuthService struct {
	users  store.UserStore
	tokens *TokenIssuer
}

func NewAuthService(users store.UserStore, tokens *TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

func (s *AuthService) respond(u *models.User) (*models.AuthResponse, error) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: u}, nil
}

// Login authenticates an active normal user by password.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	u, err := s.users.FindUserByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, store.ErrNotFound) || (err == nil && u.Type != models.UserTypeNormal) {
		return nil, apperr.Unauthorized(apperr.CodeUserNotFound, "User not found")
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, apperr.Unauthorized(apperr.CodeUserNotActive, "User not active")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)) != nil {
		return nil, apperr.Unauthorized(apperr.CodePasswordIncorrect, "Password incorrect")
	}
	return s.respond(u)
}

// SocialLogin signs in a Facebook or Google user, creating the account on
// first use. The email is taken from the request as the provider reported it.
func (s *AuthService) SocialLogin(ctx context.Context, kind models.UserType, req models.SocialLoginRequest) (*models.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	u, err := s.users.FindUserByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		u = &models.User{
			Email:     email,
			Type:      kind,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			IsActive:  true,
		}
		if err := s.users.CreateUser(ctx, u); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return nil, apperr.Conflict("This email already exists")
			}
			return nil, err
		}
		log.WithFields(log.Fields{"user_id": u.ID, "type": kind}).Info("Social user created")
	case err != nil:
		return nil, err
	case u.Type != kind:
		return nil, apperr.Unauthorized(apperr.CodeUnauthorized, "This user is not a "+string(kind)+" user")
	default:
		if req.FirstName != "" {
			u.FirstName = req.FirstName
		}
		if req.LastName != "" {
			u.LastName = req.LastName
		}
		if err := s.users.SaveUser(ctx, u); err != nil {
			return nil, err
		}
	}
	return s.respond(u)
}
