// Package auth registers learners and issues the bearer tokens that
// identify them.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/felixgeelhaar/codemastery/internal/domain"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// MaxPasswordLength is the longest password bcrypt accepts, in bytes.
const MaxPasswordLength = 72

// Service handles authentication operations
type Service struct {
	uow        domain.UnitOfWorkFactory
	tokens     *TokenIssuer
	bcryptCost int
	now        func() time.Time
}

// NewService creates a new auth service. A bcryptCost of zero uses
// bcrypt.DefaultCost.
func NewService(uow domain.UnitOfWorkFactory, tokens *TokenIssuer, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		uow:        uow,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		now:        domain.Now,
	}
}

// RegisterRequest contains registration data
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
}

// Register creates a new user account
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	email := domain.NormalizeEmail(req.Email)
	if email == "" {
		return nil, domain.Invalid("email", "is required")
	}
	if len(req.Password) < MinPasswordLength {
		return nil, domain.Invalid("password", "must be at least %d characters", MinPasswordLength)
	}
	if len(req.Password) > MaxPasswordLength {
		return nil, domain.Invalid("password", "must be at most %d bytes", MaxPasswordLength)
	}

	now := s.now()
	user := &domain.User{
		Name:      strings.TrimSpace(req.Name),
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = string(hashed)

	err = domain.WithUnitOfWork(ctx, s.uow, func(uow domain.UnitOfWork) error {
		return uow.Users().Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// LoginRequest contains login credentials
type LoginRequest struct {
	Email    string
	Password string
}

// LoginResponse contains login result
type LoginResponse struct {
	User  *domain.User
	Token Token
}

// Login verifies credentials and issues an access token
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := domain.Within(ctx, s.uow, func(uow domain.UnitOfWork) (*domain.User, error) {
		return uow.Users().GetByEmail(ctx, domain.NormalizeEmail(req.Email))
	})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	// Accounts created through an external provider have no password.
	if user.PasswordHash == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{User: user, Token: token}, nil
}

// Authenticate resolves a bearer token to its user
func (s *Service) Authenticate(ctx context.Context, raw string) (*domain.User, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return nil, err
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	user, err := domain.Within(ctx, s.uow, func(uow domain.UnitOfWork) (*domain.User, error) {
		return uow.Users().Get(ctx, id)
	})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidToken
	}
	return user, err
}
