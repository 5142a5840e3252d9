package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/walleto-api/internal/domain"
	"github.com/walleto-api/internal/pkg/id"
)

func (s *service) CreateBudget(ctx context.Context, userID string, req domain.CreateBudgetRequest) (*domain.Budget, error) {
	if _, err := s.categories.Get(ctx, userID, req.CategoryID); err != nil {
		return nil, err
	}
	existing, err := s.budgets.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, b := range existing {
		if b.CategoryID == req.CategoryID && b.Month == req.Month && b.Year == req.Year {
			return nil, fmt.Errorf("budget already exists for this category and month: %w", domain.ErrConflict)
		}
	}

	threshold := domain.DefaultAlertThreshold
	if req.AlertThreshold != nil {
		threshold = *req.AlertThreshold
	}
	now := s.now().UTC()
	b := &domain.Budget{
		BudgetID:       id.New(),
		UserID:         userID,
		CategoryID:     req.CategoryID,
		Amount:         req.Amount,
		Month:          req.Month,
		Year:           req.Year,
		AlertThreshold: threshold,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.budgets.Put(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) ListBudgets(ctx context.Context, userID string, month, year int) ([]domain.BudgetWithSpending, error) {
	month, year = s.currentPeriod(month, year)
	all, err := s.budgets.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := []domain.BudgetWithSpending{}
	for _, b := range all {
		if b.Month != month || b.Year != year {
			continue
		}
		cat, err := s.categories.Get(ctx, userID, b.CategoryID)
		if errors.Is(err, domain.ErrNotFound) {
			// category deleted after the budget was created
			continue
		}
		if err != nil {
			return nil, err
		}
		categoryID := b.CategoryID
		spent, err := s.transactions.SumAmount(ctx, userID, domain.SumFilter{
			Type:       domain.TransactionExpense,
			CategoryID: &categoryID,
			Month:      month,
			Year:       year,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, withSpending(b, spent, cat))
	}
	return out, nil
}

func withSpending(b domain.Budget, spent float64, cat *domain.Category) domain.BudgetWithSpending {
	pct := 0.0
	if b.Amount > 0 {
		pct = spent / b.Amount * 100
	}
	return domain.BudgetWithSpending{
		Budget:        b,
		Spent:         spent,
		Remaining:     b.Amount - spent,
		Percentage:    pct,
		IsOverBudget:  spent > b.Amount,
		CategoryName:  cat.Name,
		CategoryColor: cat.Color,
	}
}

func (s *service) GetBudget(ctx context.Context, userID, budgetID string) (*domain.Budget, error) {
	return s.budgets.Get(ctx, userID, budgetID)
}

func (s *service) UpdateBudget(ctx context.Context, userID, budgetID string, patch domain.BudgetPatch) (*domain.Budget, error) {
	return s.budgets.Update(ctx, userID, budgetID, patch)
}

func (s *service) DeleteBudget(ctx context.Context, userID, budgetID string) error {
	return s.budgets.Delete(ctx, userID, budgetID)
}
