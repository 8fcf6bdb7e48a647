// AngelaMos | 2026
// service.go

package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/bistro-backend/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// AddItem always inserts a new entry; adding the same dish twice yields
// two entries.
func (s *Service) AddItem(
	ctx context.Context,
	owner string,
	req AddItemRequest,
) (*Entry, error) {
	owner = normalizeEmail(owner)
	if owner == "" {
		return nil, fmt.Errorf("add cart item: missing owner: %w", core.ErrInvalidInput)
	}

	entry := &Entry{
		ID:     uuid.New().String(),
		Email:  owner,
		MenuID: req.MenuID,
		Name:   req.Name,
		Price:  req.Price,
		Image:  req.Image,
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

// ListItems returns an empty list when no owner is given.
func (s *Service) ListItems(ctx context.Context, owner string) ([]Entry, error) {
	owner = normalizeEmail(owner)
	if owner == "" {
		return []Entry{}, nil
	}
	return s.repo.ListByOwner(ctx, owner)
}

// RemoveItem deletes an entry after checking that requester owns it.
func (s *Service) RemoveItem(
	ctx context.Context,
	requester, id string,
) (*DeleteResult, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !entry.OwnedBy(normalizeEmail(requester)) {
		return nil, fmt.Errorf("remove cart item: %w", core.ErrForbidden)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}

	return &DeleteResult{DeletedCount: 1}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
