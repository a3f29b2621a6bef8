package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/product_catalog/internal/hash"
	"github.com/Skotchmaster/product_catalog/internal/logging"
	"github.com/Skotchmaster/product_catalog/internal/models"
	"github.com/Skotchmaster/product_catalog/internal/mykafka"
	"github.com/Skotchmaster/product_catalog/internal/repo"
	"github.com/Skotchmaster/product_catalog/internal/tokens"
	"github.com/Skotchmaster/product_catalog/internal/transport"
	"github.com/Skotchmaster/product_catalog/internal/validation"
)

var (
	comparePassword = hash.CheckPassword

	// dummyHash is compared against when the email is unknown so both
	// failure paths cost one bcrypt comparison.
	dummyHash = sync.OnceValue(func() string {
		h, err := hash.HashPassword("no-such-user-placeholder")
		if err != nil {
			return ""
		}
		return h
	})
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type AuthService struct {
	Repo   UserStore
	Tokens *tokens.Issuer
	Events Publisher
}

type AuthResult struct {
	Token     string
	UserID    uint
	Email     string
	UserType  string
	ExpiresAt time.Time
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Signup(ctx context.Context, req transport.SignupRequest) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signup")

	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("signup_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: pwHash,
		UserType:     req.UserType,
	}
	if err := s.Repo.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	res, err := s.issue(&user)
	if err != nil {
		l.Error("signup_error", "reason", "cannot sign token", "error", err)
		return nil, err
	}

	publish(ctx, s.Events, mykafka.TopicUserEvents, idKey(user.ID), UserEvent{
		Type:     EventUserRegistered,
		UserID:   user.ID,
		Email:    user.Email,
		UserType: user.UserType,
		At:       time.Now().UTC(),
	})

	l.Info("signup_success", "user_id", user.ID)
	return res, nil
}

// Login reports the same ErrInvalidCredentials for an unknown email and a
// wrong password.
func (s *AuthService) Login(ctx context.Context, req transport.LoginRequest) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	req.Email = normalizeEmail(req.Email)
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	user, err := s.Repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			comparePassword(dummyHash(), req.Password)
			l.Warn("login_failed", "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !comparePassword(user.PasswordHash, req.Password) {
		l.Warn("login_failed", "reason", "password mismatch", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	res, err := s.issue(user)
	if err != nil {
		l.Error("login_error", "reason", "cannot sign token", "error", err)
		return nil, err
	}

	publish(ctx, s.Events, mykafka.TopicUserEvents, idKey(user.ID), UserEvent{
		Type:     EventUserLoggedIn,
		UserID:   user.ID,
		Email:    user.Email,
		UserType: user.UserType,
		At:       time.Now().UTC(),
	})

	l.Info("login_success", "user_id", user.ID)
	return res, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, exp, err := s.Tokens.Issue(user.ID, user.UserType)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		Token:     token,
		UserID:    user.ID,
		Email:     user.Email,
		UserType:  user.UserType,
		ExpiresAt: exp,
	}, nil
}
