// Package biz implements the SOP center business logic.
package biz

import (
	"context"
	stderrors "errors"
	"strconv"

	"github.com/kart-io/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/kart-io/clinsop/internal/model"
	"github.com/kart-io/clinsop/internal/sop-center/store"
	"github.com/kart-io/clinsop/pkg/security/auth"
	"github.com/kart-io/clinsop/pkg/utils/errors"
)

// RegisterRequest carries the fields for account registration.
type RegisterRequest struct {
	Email    string
	Password string
	Name     string
	Role     string
}

// LoginResponse carries the result of a successful login.
type LoginResponse struct {
	Token     string      `json:"token"`
	TokenType string      `json:"token_type"`
	ExpiresAt int64       `json:"expires_at"`
	User      *model.User `json:"user"`
}

// AuthService handles registration, login and session management.
type AuthService struct {
	authn auth.Authenticator
	store store.Factory
}

// NewAuthService creates a new AuthService.
func NewAuthService(authn auth.Authenticator, store store.Factory) *AuthService {
	return &AuthService{
		authn: authn,
		store: store,
	}
}

// Register creates a new account. A duplicate email is rejected before
// hashing; the unique index catches the remaining race.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*model.User, error) {
	if _, err := s.store.Users().GetByEmail(ctx, req.Email); err == nil {
		return nil, errors.ErrEmailTaken
	} else if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.ErrDatabase.WithCause(err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.ErrInternal.WithCause(err)
	}

	role := req.Role
	if role == "" {
		role = "staff"
	}

	user := &model.User{
		Email:    req.Email,
		Password: string(hashed),
		Name:     req.Name,
		Role:     role,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.ErrEmailTaken
		}
		return nil, errors.ErrDatabase.WithCause(err)
	}

	logger.Infow("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		return nil, errors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, errors.ErrInvalidCredentials
	}

	token, err := s.authn.Sign(ctx, strconv.FormatUint(user.ID, 10), auth.WithExtra(map[string]interface{}{
		"email": user.Email,
		"role":  user.Role,
	}))
	if err != nil {
		return nil, errors.ErrInternal.WithCause(err)
	}

	logger.Infow("user logged in", "user_id", user.ID)
	return &LoginResponse{
		Token:     token.GetAccessToken(),
		TokenType: token.GetTokenType(),
		ExpiresAt: token.GetExpiresAt(),
		User:      user,
	}, nil
}

// Logout revokes the given token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.authn.Revoke(ctx, token); err != nil {
		return errors.ErrInternal.WithCause(err)
	}
	return nil
}

// Me returns the account for the authenticated subject.
func (s *AuthService) Me(ctx context.Context, subject string) (*model.User, error) {
	id, err := strconv.ParseUint(subject, 10, 64)
	if err != nil {
		return nil, errors.ErrInvalidToken
	}

	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound.WithMessage("user not found")
		}
		return nil, errors.ErrDatabase.WithCause(err)
	}
	return user, nil
}
