// Package service holds the business rules between the HTTP layer and the repositories.
package service

import (
	"context"
	"errors"

	"watermyplant/internal/auth"
	"watermyplant/internal/featureflags"
	"watermyplant/internal/middleware"
	"watermyplant/internal/models"
	"watermyplant/internal/observability"
	"watermyplant/internal/repository"
	"watermyplant/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// Token is the OAuth2-style response of a successful login.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	// ExpiresIn is the token lifetime in seconds.
	ExpiresIn int `json:"expires_in"`
}

// AuthService registers users, issues bearer tokens and resolves them back to active users.
type AuthService struct {
	users   repository.UserRepository
	tokens  *auth.TokenManager
	flags   *featureflags.Manager
	metrics *observability.Metrics
}

// NewAuthService creates an AuthService. flags may be nil, which leaves registration open.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenManager,
	flags *featureflags.Manager,
	metrics *observability.Metrics,
) *AuthService {
	return &AuthService{
		users:   users,
		tokens:  tokens,
		flags:   flags,
		metrics: metrics,
	}
}

// Register creates an active user after validating the credentials.
func (s *AuthService) Register(ctx context.Context, username, password string) (user *models.User, err error) {
	ctx, span := observability.StartSpan(ctx, "AuthService.Register", attribute.String("user.name", username))
	defer func() { observability.EndSpan(span, err) }()

	if !s.flags.EnabledOr(featureflags.Registration, username, true) {
		s.metrics.ObserveRegister("closed")
		return nil, models.NewRegistrationClosedError()
	}

	if err := validation.ValidateUsername(username); err != nil {
		s.metrics.ObserveRegister("invalid")
		return nil, models.NewValidationError(err.Error())
	}
	check := validation.ValidatePassword
	if s.flags.Enabled(featureflags.StrongPasswords, username) {
		check = validation.ValidatePasswordStrength
	}
	if err := check(password); err != nil {
		s.metrics.ObserveRegister("invalid")
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.metrics.ObserveRegister("taken")
		return nil, models.NewUsernameTakenError()
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user = &models.User{Username: username, PasswordHash: hash, IsActive: true}
	if err := s.users.Create(ctx, user); err != nil {
		if models.HasCode(err, models.CodeUsernameTaken) {
			s.metrics.ObserveRegister("taken")
		}
		return nil, err
	}

	s.metrics.ObserveRegister("success")
	middleware.Logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// GetUserByUsername returns nil, nil when no such user exists.
func (s *AuthService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.users.GetByUsername(ctx, username)
}

// Authenticate returns nil, nil for an unknown user or a wrong password alike.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetCredentials(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, nil
	}
	user.PasswordHash = ""
	return user, nil
}

// Login authenticates and issues a bearer token for the user.
func (s *AuthService) Login(ctx context.Context, username, password string) (token *Token, err error) {
	ctx, span := observability.StartSpan(ctx, "AuthService.Login", attribute.String("user.name", username))
	defer func() { observability.EndSpan(span, err) }()

	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		s.metrics.ObserveLogin("error")
		return nil, err
	}
	if user == nil {
		s.metrics.ObserveLogin("failure")
		return nil, models.NewUnauthorizedError("Incorrect username or password")
	}

	access, err := s.tokens.CreateAccessToken(user.Username, 0)
	if err != nil {
		s.metrics.ObserveLogin("error")
		return nil, models.NewInternalError(err)
	}

	s.metrics.ObserveLogin("success")
	return &Token{
		AccessToken: access,
		TokenType:   auth.TokenTypeBearer,
		ExpiresIn:   int(s.tokens.TTL().Seconds()),
	}, nil
}

// CurrentActiveUser resolves a bearer token to an active user.
func (s *AuthService) CurrentActiveUser(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.DecodeAndValidate(token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return nil, models.NewUnauthorizedError("Could not validate credentials")
		}
		return nil, models.NewInternalError(err)
	}

	user, err := s.users.GetByUsername(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Could not validate credentials")
	}
	if !user.IsActive {
		return nil, models.NewUnauthorizedError("Inactive user")
	}
	return user, nil
}
