package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"mini-commerce/internal/domain"
)

type userStore interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// Options configures token issuance and admin self-registration.
type Options struct {
	JWTSecret      string
	TokenTTL       time.Duration
	AdminSignupKey string
	Now            func() time.Time
}

// Service handles registration, login and bearer token verification.
type Service struct {
	users       userStore
	tokens      *tokenManager
	adminKey    string
	passwordMin int
	passwordMax int
	logger      logrus.FieldLogger
}

func New(users userStore, opts Options, logger logrus.FieldLogger) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 30 * 24 * time.Hour
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Service{
		users:       users,
		tokens:      newTokenManager(opts.JWTSecret, opts.TokenTTL, opts.Now),
		adminKey:    opts.AdminSignupKey,
		passwordMin: 6,
		passwordMax: 72,
		logger:      logger.WithField("component", "auth"),
	}
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Register creates a user and returns a token for it. Registering an admin
// requires the configured signup key; with no key configured admins cannot
// self-register at all.
func (s *Service) Register(ctx context.Context, in RegisterInput, signupKey string) (*domain.User, string, error) {
	name := strings.TrimSpace(in.Name)
	if l := len([]rune(name)); l < 2 || l > 80 {
		return nil, "", fmt.Errorf("%w: name must be between 2 and 80 characters", domain.ErrValidation)
	}
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if !strings.Contains(email, "@") {
		return nil, "", fmt.Errorf("%w: please provide a valid email", domain.ErrValidation)
	}
	if len(in.Password) < s.passwordMin || len(in.Password) > s.passwordMax {
		return nil, "", fmt.Errorf("%w: password must be between %d and %d characters", domain.ErrValidation, s.passwordMin, s.passwordMax)
	}
	role, ok := domain.ParseRole(strings.TrimSpace(in.Role))
	if !ok {
		return nil, "", fmt.Errorf("%w: role must be customer or admin", domain.ErrValidation)
	}
	if role == domain.RoleAdmin && !s.adminKeyMatches(signupKey) {
		s.logger.WithField("email", email).Warn("admin registration rejected")
		return nil, "", fmt.Errorf("%w: admin registration requires a valid signup key", domain.ErrNotAuthorized)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	u, err := s.users.Create(ctx, domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, "", fmt.Errorf("%w: user already exists", domain.ErrAlreadyExists)
		}
		return nil, "", err
	}

	token, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, "", err
	}
	s.logger.WithFields(logrus.Fields{"user_id": u.ID, "role": u.Role}).Info("user registered")
	return u, token, nil
}

// Login validates credentials. Suspended accounts are refused even with the
// right password.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}
	if u.Blocked {
		s.logger.WithField("user_id", u.ID).Warn("login refused for suspended account")
		return nil, "", domain.ErrAccountSuspended
	}

	token, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Authenticate resolves a bearer token to the current user record. The user
// is reloaded on every call so a suspension takes effect immediately.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	meta, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, meta.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: the user belonging to this token no longer exists", domain.ErrInvalidToken)
		}
		return nil, err
	}
	if u.Blocked {
		return nil, domain.ErrAccountSuspended
	}
	return u, nil
}

func (s *Service) adminKeyMatches(key string) bool {
	if s.adminKey == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.adminKey), []byte(key)) == 1
}
