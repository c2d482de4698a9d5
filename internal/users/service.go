package users

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/andes-erp/andes-erp/internal/authz"
)

// ErrNotFound indicates the account does not exist.
var ErrNotFound = errors.New("users: not found")

// ErrDuplicateEmail indicates the email address is already registered.
var ErrDuplicateEmail = errors.New("users: email already registered")

// RepositoryPort defines data access methods for user management.
type RepositoryPort interface {
	ListUsers(ctx context.Context, filter authz.TenantFilter) ([]User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	CreateUser(ctx context.Context, user User, passwordHash string) (User, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

// Service handles user management logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListUsers returns the accounts visible through the filter.
func (s *Service) ListUsers(ctx context.Context, filter authz.TenantFilter) ([]User, error) {
	return s.repo.ListUsers(ctx, filter)
}

// GetUser fetches a single account.
func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

// CreateUser hashes the password and stores the account.
func (s *Service) CreateUser(ctx context.Context, user User, password string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	user.IsActive = true
	return s.repo.CreateUser(ctx, user, string(hash))
}

// SetActive enables or disables the account.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}
