package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/auth"
	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/model"
	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/repository"
)

const invalidCredentials = "Invalid username or password."

type AuthService struct {
	users    UserRepository
	tokens   TokenIssuer
	logger   *zap.Logger
	hashCost int
	timeNow  func() time.Time
}

func NewAuthService(users UserRepository, tokens TokenIssuer, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		logger:   logger,
		hashCost: bcrypt.DefaultCost,
		timeNow:  time.Now,
	}
}

// Register creates a user. All policy violations are reported together in a *ValidationError.
func (s *AuthService) Register(ctx context.Context, c model.Credentials) error {
	problems := auth.ValidateUsername(c.Username)
	if len(problems) == 0 {
		_, err := s.users.GetByUsername(ctx, c.Username)
		switch {
		case err == nil:
			problems = append(problems, usernameTaken(c.Username))
		case !errors.Is(err, repository.ErrObjectNotFound):
			return fmt.Errorf("failed to look up user: %w", err)
		}
	}
	problems = append(problems, auth.ValidatePassword(c.Password)...)
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), s.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return &ValidationError{Problems: []string{"Passwords must be at most 72 bytes."}}
		}
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &repository.User{
		ID:           uuid.NewString(),
		Username:     c.Username,
		PasswordHash: string(hash),
		CreatedAt:    s.timeNow().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return &ValidationError{Problems: []string{usernameTaken(c.Username)}}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", zap.String("username", c.Username))
	return nil
}

// Login returns a signed bearer token for valid credentials.
func (s *AuthService) Login(ctx context.Context, c model.Credentials) (string, error) {
	user, err := s.users.GetByUsername(ctx, c.Username)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
			return "", newError(ErrUnauthenticated, invalidCredentials)
		}
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(c.Password)); err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return "", newError(ErrUnauthenticated, invalidCredentials)
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.logger.Info("user logged in", zap.String("username", user.Username))
	return token, nil
}

// Authenticate resolves a bearer token to the username it was issued for.
func (s *AuthService) Authenticate(_ context.Context, token string) (string, error) {
	username, err := s.tokens.Verify(token)
	if err != nil {
		s.logger.Debug("token rejected", zap.Error(err))
		return "", newError(ErrUnauthenticated, "Invalid or expired token.")
	}
	return username, nil
}

// EnsureUser registers username unless it already exists.
func (s *AuthService) EnsureUser(ctx context.Context, username, password string) error {
	_, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrObjectNotFound) {
		return fmt.Errorf("failed to look up user %s: %w", username, err)
	}

	if err := s.Register(ctx, model.Credentials{Username: username, Password: password}); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("cannot create user %s: %v", username, verr.Problems)
		}
		return err
	}
	return nil
}

func usernameTaken(username string) string {
	return fmt.Sprintf("Username '%s' is already taken.", username)
}
