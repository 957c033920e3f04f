package auth

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/felixgeelhaar/codemastery/internal/domain"
	"github.com/felixgeelhaar/codemastery/internal/repository"
	"github.com/felixgeelhaar/codemastery/internal/storage"
)

func newTestService(t *testing.T) (*Service, *repository.SQLUnitOfWork) {
	t.Helper()
	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	factory := repository.NewSQLUnitOfWork(db)
	return NewService(factory, NewTokenIssuer("test-secret", 30*time.Minute), bcrypt.MinCost), factory
}

func TestService_Register(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	user, err := s.Register(ctx, RegisterRequest{Name: " Ada ", Email: "Ada@Example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.ID == 0 || user.Name != "Ada" || user.Email != "ada@example.com" {
		t.Errorf("Register() = %+v", user)
	}
	if user.PasswordHash == "secret1" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")) != nil {
		t.Error("password was not stored as a bcrypt hash")
	}

	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr error
	}{
		{"duplicate email", RegisterRequest{Name: "Other", Email: "ADA@example.com", Password: "secret1"}, domain.ErrConflict},
		{"short password", RegisterRequest{Name: "Bob", Email: "bob@example.com", Password: "12345"}, domain.ErrInvalidInput},
		{"password over bcrypt limit", RegisterRequest{Name: "Bob", Email: "bob@example.com", Password: strings.Repeat("x", 80)}, domain.ErrInvalidInput},
		{"missing name", RegisterRequest{Email: "bob@example.com", Password: "secret1"}, domain.ErrInvalidInput},
		{"missing email", RegisterRequest{Name: "Bob", Password: "secret1"}, domain.ErrInvalidInput},
		{"malformed email", RegisterRequest{Name: "Bob", Email: "bob", Password: "secret1"}, domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Register(ctx, tt.req); !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestService_LoginAndAuthenticate(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	registered, err := s.Register(ctx, RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}

	resp, err := s.Login(ctx, LoginRequest{Email: "ADA@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if resp.Token.AccessToken == "" || resp.Token.TokenType != "bearer" || resp.Token.ExpiresIn != 1800 {
		t.Errorf("Login() token = %+v", resp.Token)
	}
	if resp.User.ID != registered.ID {
		t.Errorf("Login() user = %d, want %d", resp.User.ID, registered.ID)
	}

	me, err := s.Authenticate(ctx, resp.Token.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if me.ID != registered.ID || me.Email != "ada@example.com" {
		t.Errorf("Authenticate() = %+v", me)
	}

	for _, req := range []LoginRequest{
		{Email: "ada@example.com", Password: "wrong-password"},
		{Email: "nobody@example.com", Password: "secret1"},
	} {
		if _, err := s.Login(ctx, req); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Errorf("Login(%s) error = %v, want ErrInvalidCredentials", req.Email, err)
		}
	}

	if _, err := s.Authenticate(ctx, "garbage"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("Authenticate(garbage) error = %v, want ErrUnauthorized", err)
	}
}

func TestService_AuthenticateDeletedUser(t *testing.T) {
	s, factory := newTestService(t)
	ctx := context.Background()

	if _, err := s.Register(ctx, RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"}); err != nil {
		t.Fatal(err)
	}
	resp, err := s.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}

	err = domain.WithUnitOfWork(ctx, factory, func(uow domain.UnitOfWork) error {
		return uow.Users().Delete(ctx, resp.User.ID)
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Authenticate(ctx, resp.Token.AccessToken); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("Authenticate() for deleted user error = %v, want ErrUnauthorized", err)
	}
}

func TestService_LoginWithoutPassword(t *testing.T) {
	s, factory := newTestService(t)
	ctx := context.Background()

	googleID := "g-123"
	err := domain.WithUnitOfWork(ctx, factory, func(uow domain.UnitOfWork) error {
		now := domain.Now()
		return uow.Users().Create(ctx, &domain.User{Name: "G", Email: "g@example.com", GoogleID: &googleID, CreatedAt: now, UpdatedAt: now})
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Login(ctx, LoginRequest{Email: "g@example.com", Password: ""}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
	}
}
