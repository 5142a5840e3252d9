package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/walleto-api/internal/domain"
	"github.com/walleto-api/internal/pkg/id"
)

func (s *service) CreateCategory(ctx context.Context, userID string, req domain.CreateCategoryRequest) (*domain.Category, error) {
	if err := s.ensureCategoryNameFree(ctx, userID, req.Name, ""); err != nil {
		return nil, err
	}
	color := req.Color
	if color == "" {
		color = domain.DefaultCategoryColor
	}
	now := s.now().UTC()
	c := &domain.Category{
		CategoryID: id.New(),
		UserID:     userID,
		Name:       strings.TrimSpace(req.Name),
		Icon:       req.Icon,
		Color:      color,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.categories.Put(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) ListCategories(ctx context.Context, userID string) ([]domain.Category, error) {
	return s.categories.ListByUser(ctx, userID)
}

func (s *service) GetCategory(ctx context.Context, userID, categoryID string) (*domain.Category, error) {
	return s.categories.Get(ctx, userID, categoryID)
}

func (s *service) UpdateCategory(ctx context.Context, userID, categoryID string, patch domain.CategoryPatch) (*domain.Category, error) {
	if patch.Name != nil {
		if _, err := s.categories.Get(ctx, userID, categoryID); err != nil {
			return nil, err
		}
		if err := s.ensureCategoryNameFree(ctx, userID, *patch.Name, categoryID); err != nil {
			return nil, err
		}
	}
	return s.categories.Update(ctx, userID, categoryID, patch)
}

func (s *service) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	return s.categories.Delete(ctx, userID, categoryID)
}

// ensureCategoryNameFree fails with ErrConflict when another category of the user
// already has name. Names compare case-insensitively.
func (s *service) ensureCategoryNameFree(ctx context.Context, userID, name, exceptID string) error {
	existing, err := s.categories.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	for _, c := range existing {
		if c.CategoryID != exceptID && strings.EqualFold(c.Name, name) {
			return fmt.Errorf("category with this name already exists: %w", domain.ErrConflict)
		}
	}
	return nil
}
