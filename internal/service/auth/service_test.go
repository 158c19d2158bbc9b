package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"mini-commerce/internal/domain"
)

// memoryUsers is a lightweight in-memory user store for tests.
type memoryUsers struct {
	byEmail map[string]domain.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byEmail: make(map[string]domain.User)}
}

func (r *memoryUsers) Create(_ context.Context, u domain.User) (*domain.User, error) {
	if _, exists := r.byEmail[u.Email]; exists {
		return nil, domain.ErrAlreadyExists
	}
	clone := u
	clone.ID = "user-" + u.Email
	r.byEmail[u.Email] = clone
	return &clone, nil
}

func (r *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := r.byEmail[email]; ok {
		clone := u
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			clone := u
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryUsers) block(email string) {
	u := r.byEmail[email]
	u.Blocked = true
	r.byEmail[email] = u
}

func newService(repo *memoryUsers) *Service {
	return New(repo, Options{JWTSecret: "test-secret", TokenTTL: time.Hour, AdminSignupKey: "let-me-in"}, nil)
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newMemoryUsers()
	svc := newService(repo)
	ctx := context.Background()

	u, token, err := svc.Register(ctx, RegisterInput{Name: "Ann", Email: " Ann@Example.com ", Password: "secret1"}, "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Email != "ann@example.com" || u.Role != domain.RoleCustomer || token == "" {
		t.Fatalf("unexpected register result %+v token=%q", u, token)
	}

	got, err := svc.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("expected %s, got %s", u.ID, got.ID)
	}

	if _, _, err := svc.Login(ctx, "ann@example.com", "secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := newService(newMemoryUsers())
	cases := []struct {
		name string
		in   RegisterInput
	}{
		{"short name", RegisterInput{Name: "A", Email: "a@example.com", Password: "secret1"}},
		{"bad email", RegisterInput{Name: "Ann", Email: "nope", Password: "secret1"}},
		{"short password", RegisterInput{Name: "Ann", Email: "a@example.com", Password: "123"}},
		{"unknown role", RegisterInput{Name: "Ann", Email: "a@example.com", Password: "secret1", Role: "root"}},
	}
	for _, tc := range cases {
		if _, _, err := svc.Register(context.Background(), tc.in, ""); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestRegister_AdminNeedsSignupKey(t *testing.T) {
	svc := newService(newMemoryUsers())
	ctx := context.Background()
	in := RegisterInput{Name: "Boss", Email: "boss@example.com", Password: "secret1", Role: "admin"}

	if _, _, err := svc.Register(ctx, in, "wrong"); !errors.Is(err, domain.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	u, _, err := svc.Register(ctx, in, "let-me-in")
	if err != nil {
		t.Fatalf("register admin: %v", err)
	}
	if u.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %s", u.Role)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newService(newMemoryUsers())
	ctx := context.Background()
	in := RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"}
	if _, _, err := svc.Register(ctx, in, ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, _, err := svc.Register(ctx, in, ""); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := newService(newMemoryUsers())
	ctx := context.Background()
	if _, _, err := svc.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"}, ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := svc.Login(ctx, "ann@example.com", "wrongpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "missing@example.com", "secret1"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for missing user, got %v", err)
	}
}

func TestSuspendedUserIsRejected(t *testing.T) {
	repo := newMemoryUsers()
	svc := newService(repo)
	ctx := context.Background()
	_, token, err := svc.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"}, "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	repo.block("ann@example.com")

	if _, _, err := svc.Login(ctx, "ann@example.com", "secret1"); !errors.Is(err, domain.ErrAccountSuspended) {
		t.Fatalf("expected ErrAccountSuspended on login, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, token); !errors.Is(err, domain.ErrAccountSuspended) {
		t.Fatalf("expected ErrAccountSuspended on authenticate, got %v", err)
	}
}

func TestTokenManager_RejectsExpiredAndForeignTokens(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	clock := now
	m := newTokenManager("secret", time.Hour, func() time.Time { return clock })

	token, err := m.Issue("user-1", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	meta, err := m.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if meta.UserID != "user-1" || meta.Role != domain.RoleAdmin {
		t.Fatalf("unexpected meta %+v", meta)
	}

	other := newTokenManager("other-secret", time.Hour, func() time.Time { return clock })
	if _, err := other.Validate(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign secret, got %v", err)
	}

	clock = now.Add(2 * time.Hour)
	if _, err := m.Validate(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
	if _, err := m.Validate("garbage"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}
