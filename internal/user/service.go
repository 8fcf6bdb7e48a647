// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/bistro-backend/internal/core"
	"github.com/carterperez-dev/bistro-backend/internal/middleware"
)

const msgUserExists = "user already exists"

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates the user on first sign-in. A second registration for
// the same email changes nothing and reports that the user exists.
func (s *Service) Register(
	ctx context.Context,
	req CreateUserRequest,
) (*RegisterResponse, error) {
	email := normalizeEmail(req.Email)

	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return &RegisterResponse{Message: msgUserExists}, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	user := &User{
		ID:       uuid.New().String(),
		Email:    email,
		Name:     req.Name,
		PhotoURL: req.PhotoURL,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration for the same email
		if errors.Is(err, core.ErrDuplicateKey) {
			return &RegisterResponse{Message: msgUserExists}, nil
		}
		return nil, err
	}

	return &RegisterResponse{InsertedID: &user.ID}, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// GrantAdmin promotes the user record with the given id. Promoting an
// existing admin matches but modifies nothing.
func (s *Service) GrantAdmin(ctx context.Context, id string) (*UpdateResult, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("grant admin: %w", err)
	}

	if user.IsAdmin() {
		return &UpdateResult{MatchedCount: 1, ModifiedCount: 0}, nil
	}

	if err := s.repo.SetRole(ctx, id, RoleAdmin); err != nil {
		return nil, fmt.Errorf("grant admin: %w", err)
	}

	return &UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (s *Service) DeleteUser(ctx context.Context, id string) (*DeleteResult, error) {
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return &DeleteResult{DeletedCount: 1}, nil
}

// GetRole returns RoleNone for unknown users and users never granted a role.
func (s *Service) GetRole(ctx context.Context, email string) (string, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, core.ErrNotFound) {
		return RoleNone, nil
	}
	if err != nil {
		return "", fmt.Errorf("get role: %w", err)
	}

	return user.RoleName(), nil
}

func (s *Service) IsAdmin(ctx context.Context, email string) (bool, error) {
	role, err := s.GetRole(ctx, email)
	if err != nil {
		return false, err
	}
	return role == RoleAdmin, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ middleware.RoleLookup = (*Service)(nil)
