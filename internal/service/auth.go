package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"docportal/internal/model"
	"docportal/internal/repository"
	"docportal/internal/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already exists")
)

// DefaultPassword is the password of the accounts created by SeedDefaultUsers.
const DefaultPassword = "password123"

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(username string, role model.Role) (string, error)
}

var _ TokenIssuer = (*security.TokenIssuer)(nil)

// AuthService defines account use cases.
type AuthService interface {
	Login(ctx context.Context, req model.LoginRequest) (*model.Session, error)

	// Register creates an account and signs the new user in.
	Register(ctx context.Context, req model.RegisterRequest) (*model.Session, error)

	IsUsernameAvailable(ctx context.Context, username string) (bool, error)
	IsEmailAvailable(ctx context.Context, email string) (bool, error)

	// SeedDefaultUsers creates admin and user accounts when no account exists yet.
	SeedDefaultUsers(ctx context.Context) error
}

type authService struct {
	users  repository.UserRepository
	tokens TokenIssuer
	log    zerolog.Logger
	now    func() time.Time
}

// NewAuthService constructs a new AuthService.
func NewAuthService(users repository.UserRepository, tokens TokenIssuer, log zerolog.Logger) AuthService {
	return &authService{
		users:  users,
		tokens: tokens,
		log:    log.With().Str("component", "auth_service").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *authService) Login(ctx context.Context, req model.LoginRequest) (*model.Session, error) {
	u, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn().Str("username", req.Username).Msg("login_unknown_user")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := security.ComparePassword(u.PasswordHash, req.Password); err != nil {
		s.log.Warn().Str("username", req.Username).Msg("login_bad_password")
		return nil, ErrInvalidCredentials
	}
	sess, err := s.session(u)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("username", u.Username).Msg("login_succeeded")
	return sess, nil
}

func (s *authService) Register(ctx context.Context, req model.RegisterRequest) (*model.Session, error) {
	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	taken, err := s.users.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}
	taken, err = s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	role := req.Role
	if role == "" {
		role = model.RoleUser
	}
	u, err := s.create(ctx, req.Username, req.Email, req.Password, role)
	if err != nil {
		// Lost a race against a concurrent registration.
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	s.log.Info().Str("username", u.Username).Str("role", string(u.Role)).Msg("user_registered")
	return s.session(u)
}

func (s *authService) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

func (s *authService) IsEmailAvailable(ctx context.Context, email string) (bool, error) {
	taken, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

func (s *authService) SeedDefaultUsers(ctx context.Context) error {
	n, err := s.users.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		s.log.Debug().Int64("users", n).Msg("seed_skipped")
		return nil
	}
	defaults := []struct {
		username string
		role     model.Role
	}{
		{"admin", model.RoleAdmin},
		{"user", model.RoleUser},
	}
	for _, d := range defaults {
		if _, err := s.create(ctx, d.username, d.username+"@docportal.local", DefaultPassword, d.role); err != nil {
			return fmt.Errorf("seed %s: %w", d.username, err)
		}
		s.log.Info().Str("username", d.username).Str("role", string(d.role)).Msg("default_user_created")
	}
	return nil
}

func (s *authService) create(ctx context.Context, username, email, password string, role model.Role) (*model.User, error) {
	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.users.Create(ctx, &model.User{
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now(),
	})
}

func (s *authService) session(u *model.User) (*model.Session, error) {
	token, err := s.tokens.Issue(u.Username, u.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &model.Session{
		Token:    token,
		Type:     "Bearer",
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}, nil
}
